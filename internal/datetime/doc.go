// Package datetime turns phrases such as "tomorrow at 2pm", "in 2 hours" or
// ISO timestamps into absolute times.
//
// Resolution runs an ordered rule table; the first rule that matches wins.
// Resolve never fails. When nothing matches the supplied now is returned, and
// "tomorrow" without a readable time means 09:00 the next day.
package datetime
