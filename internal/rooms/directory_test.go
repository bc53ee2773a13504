package rooms

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProxy struct {
	responses map[string]any
	calls     map[string]int
}

func newFakeProxy() *fakeProxy {
	return &fakeProxy{responses: map[string]any{}, calls: map[string]int{}}
}

func (f *fakeProxy) Request(_ context.Context, method, endpoint string, _ url.Values, _ any) any {
	f.calls[method+" "+endpoint]++
	return f.responses[endpoint]
}

func TestDirectory_AllRooms(t *testing.T) {
	proxy := newFakeProxy()
	proxy.responses["rooms"] = []any{
		map[string]any{"id": "r1", "displayName": "Board Room", "emailAddress": "board@contoso.com", "capacity": float64(12), "floorNumber": float64(3)},
		map[string]any{"id": "r2", "name": "Huddle", "email": "huddle@contoso.com", "floor": "2", "location": "North Wing"},
	}
	d := NewDirectory(proxy, nil)

	env := d.AllRooms(context.Background())
	require.False(t, env.IsError(), env.ErrorMessage())

	rooms := env["rooms"].([]Room)
	assert.Equal(t, []Room{
		{ID: "r1", Name: "Board Room", Email: "board@contoso.com", Capacity: 12, Floor: "3", Location: DefaultLocation},
		{ID: "r2", Name: "Huddle", Email: "huddle@contoso.com", Floor: "2", Location: "North Wing"},
	}, rooms)

	d.AllRooms(context.Background())
	assert.Equal(t, 1, proxy.calls["GET rooms"], "second call served from cache")

	d.Invalidate()
	d.AllRooms(context.Background())
	assert.Equal(t, 2, proxy.calls["GET rooms"])
}

func TestDirectory_AllRoomsFailure(t *testing.T) {
	for name, resp := range map[string]any{"nil": nil, "empty": []any{}, "not a list": map[string]any{"x": 1}} {
		t.Run(name, func(t *testing.T) {
			proxy := newFakeProxy()
			proxy.responses["rooms"] = resp
			env := NewDirectory(proxy, nil).AllRooms(context.Background())
			assert.Equal(t, "Failed to fetch rooms. Please check authentication and try again.", env.ErrorMessage())
		})
	}
}

func TestDirectory_RoomInfo(t *testing.T) {
	proxy := newFakeProxy()
	proxy.responses["rooms/r1"] = map[string]any{
		"displayName":  "Board Room",
		"availability": []any{map[string]any{"start": "2024-01-01T10:00:00Z", "end": "2024-01-01T11:00:00Z", "subject": "Standup"}},
		"equipment":    []any{"projector"},
	}
	d := NewDirectory(proxy, nil)
	ctx := context.Background()

	env := d.RoomInfo(ctx, "r1", false)
	require.False(t, env.IsError())
	details := env["room"].(Details)
	assert.Equal(t, "r1", details.ID, "id falls back to the requested one")
	assert.Equal(t, "Board Room", details.Name)
	assert.Equal(t, []Window{{Start: "2024-01-01T10:00:00Z", End: "2024-01-01T11:00:00Z", Subject: "Standup"}}, details.Availability)
	assert.Equal(t, []any{"projector"}, details.Equipment)

	d.RoomInfo(ctx, "r1", false)
	assert.Equal(t, 1, proxy.calls["GET rooms/r1"])
	d.RoomInfo(ctx, "r1", true)
	assert.Equal(t, 2, proxy.calls["GET rooms/r1"])
}

func TestDirectory_RoomInfoNotFound(t *testing.T) {
	d := NewDirectory(newFakeProxy(), nil)
	env := d.RoomInfo(context.Background(), "ghost", false)
	assert.Equal(t, "Failed to fetch room with ID ghost. Please check if room exists.", env.ErrorMessage())

	_, err := d.Lookup(context.Background(), "ghost", false)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestDirectory_RoomAvailabilityRefreshes(t *testing.T) {
	proxy := newFakeProxy()
	proxy.responses["rooms/r1"] = map[string]any{"id": "r1", "name": "Focus"}
	d := NewDirectory(proxy, nil)
	ctx := context.Background()

	d.RoomInfo(ctx, "r1", false)
	env := d.RoomAvailability(ctx, "r1")
	require.False(t, env.IsError())
	assert.Equal(t, "Focus", env["room_name"])
	assert.Equal(t, []Window{}, env["availability"])
	assert.Equal(t, 2, proxy.calls["GET rooms/r1"])
}

func TestDirectory_ListAvailableRooms(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)

	proxy := newFakeProxy()
	proxy.responses["rooms"] = []any{
		map[string]any{"id": "busy"},
		map[string]any{"id": "free"},
		map[string]any{"id": "gone"},
	}
	proxy.responses["rooms/busy"] = map[string]any{"id": "busy", "availability": []any{
		map[string]any{"start": "2024-01-01T10:00:00Z", "end": "2024-01-01T11:00:00Z"},
	}}
	proxy.responses["rooms/free"] = map[string]any{"id": "free", "availability": []any{
		map[string]any{"start": "2024-01-01T08:00:00Z", "end": "2024-01-01T09:00:00Z"},
	}}
	d := NewDirectory(proxy, nil)

	env := d.ListAvailableRooms(context.Background(), now)
	require.False(t, env.IsError())
	assert.Equal(t, 1, env["count"])
	available := env["available_rooms"].([]Room)
	require.Len(t, available, 1)
	assert.Equal(t, "free", available[0].ID)
}

func TestFree(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, Free(nil, now))
	assert.False(t, Free([]Window{{Start: "2024-01-01T10:00:00Z", End: "2024-01-01T10:30:00Z"}}, now), "start is inclusive")
	assert.False(t, Free([]Window{{Start: "2024-01-01T09:00:00Z", End: "2024-01-01T10:00:00Z"}}, now), "end is inclusive")
	assert.True(t, Free([]Window{{Start: "garbage", End: "2024-01-01T11:00:00Z"}}, now))
}
