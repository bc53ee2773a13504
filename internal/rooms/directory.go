package rooms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/teemow/roombook/internal/datetime"
	"github.com/teemow/roombook/internal/envelope"
	"github.com/teemow/roombook/internal/logging"
)

// Requester is the part of the proxy client the directory uses.
type Requester interface {
	Request(ctx context.Context, method, endpoint string, params url.Values, body any) any
}

// Directory looks rooms up through the proxy and caches them. Cached entries
// never expire; callers force a refresh when they need fresh data.
type Directory struct {
	proxy  Requester
	logger *slog.Logger

	mu      sync.Mutex
	rooms   []Room
	details map[string]Details
}

// NewDirectory creates a Directory. A nil logger means slog.Default.
func NewDirectory(proxy Requester, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		proxy:   proxy,
		logger:  logging.WithService(logger, "rooms"),
		details: make(map[string]Details),
	}
}

// AllRooms returns every room. The list is fetched once and cached.
func (d *Directory) AllRooms(ctx context.Context) envelope.Envelope {
	d.mu.Lock()
	cached := d.rooms
	d.mu.Unlock()
	if len(cached) > 0 {
		return envelope.Success(map[string]any{"rooms": cached})
	}

	resp := d.proxy.Request(ctx, http.MethodGet, "rooms", nil, nil)
	list, ok := resp.([]any)
	if !ok || len(list) == 0 {
		return envelope.Error("Failed to fetch rooms. Please check authentication and try again.")
	}

	rooms := make([]Room, 0, len(list))
	for _, raw := range list {
		u, err := decodeRoom(raw)
		if err != nil {
			d.logger.Error("failed to fetch rooms", logging.Err(err))
			return envelope.Errorf("Failed to fetch rooms: %v", err)
		}
		rooms = append(rooms, u.room())
	}

	d.mu.Lock()
	d.rooms = rooms
	d.mu.Unlock()

	return envelope.Success(map[string]any{"rooms": rooms})
}

// Lookup returns the details of one room, from the cache unless forceRefresh
// is set.
func (d *Directory) Lookup(ctx context.Context, roomID string, forceRefresh bool) (Details, error) {
	if !forceRefresh {
		d.mu.Lock()
		cached, ok := d.details[roomID]
		d.mu.Unlock()
		if ok {
			return cached, nil
		}
	}

	resp := d.proxy.Request(ctx, http.MethodGet, "rooms/"+url.PathEscape(roomID), nil, nil)
	if isEmpty(resp) {
		return Details{}, &NotFoundError{RoomID: roomID}
	}

	u, err := decodeRoom(resp)
	if err != nil {
		return Details{}, err
	}
	if u.ID == "" {
		u.ID = roomID
	}
	details := u.details()

	d.mu.Lock()
	d.details[roomID] = details
	d.mu.Unlock()

	return details, nil
}

// RoomInfo is Lookup wrapped in an envelope.
func (d *Directory) RoomInfo(ctx context.Context, roomID string, forceRefresh bool) envelope.Envelope {
	details, err := d.Lookup(ctx, roomID, forceRefresh)
	if err != nil {
		return ErrorEnvelope(err)
	}
	return envelope.Success(map[string]any{"room": details})
}

// RoomAvailability returns today's busy windows for a room. It always
// refreshes the room.
func (d *Directory) RoomAvailability(ctx context.Context, roomID string) envelope.Envelope {
	details, err := d.Lookup(ctx, roomID, true)
	if err != nil {
		return ErrorEnvelope(err)
	}
	return envelope.Success(map[string]any{
		"room_id":      roomID,
		"room_name":    details.Name,
		"availability": details.Availability,
	})
}

// ListAvailableRooms returns the rooms with no busy window covering now.
// Rooms whose details cannot be fetched are left out, as are windows that
// cannot be parsed.
func (d *Directory) ListAvailableRooms(ctx context.Context, now time.Time) envelope.Envelope {
	all := d.AllRooms(ctx)
	if all.IsError() {
		return all
	}
	rooms, _ := all["rooms"].([]Room)

	available := make([]Room, 0, len(rooms))
	for _, room := range rooms {
		details, err := d.Lookup(ctx, room.ID, true)
		if err != nil {
			d.logger.Debug("skipping room", "room_id", room.ID, logging.Err(err))
			continue
		}
		if Free(details.Availability, now) {
			available = append(available, room)
		}
	}

	return envelope.Success(map[string]any{
		"available_rooms": available,
		"count":           len(available),
	})
}

// Invalidate drops every cached room.
func (d *Directory) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rooms = nil
	d.details = make(map[string]Details)
}

// Free reports whether no window covers now. Both ends are inclusive.
func Free(windows []Window, now time.Time) bool {
	for _, w := range windows {
		start, ok := datetime.ParseISO(w.Start, now.Location())
		if !ok {
			continue
		}
		end, ok := datetime.ParseISO(w.End, now.Location())
		if !ok {
			continue
		}
		if !now.Before(start) && !now.After(end) {
			return false
		}
	}
	return true
}

// NotFoundError is returned when the proxy has no data for a room.
type NotFoundError struct {
	RoomID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Failed to fetch room with ID %s. Please check if room exists.", e.RoomID)
}

// ErrorEnvelope converts a Lookup error into the envelope callers report.
func ErrorEnvelope(err error) envelope.Envelope {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return envelope.Error(nf.Error())
	}
	return envelope.Errorf("Failed to fetch room info: %v", err)
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}
