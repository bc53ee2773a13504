// Package rooms resolves meeting rooms through the local Exchange proxy and
// keeps a per-process cache of them.
package rooms
