package room_tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/roombook/internal/envelope"
	"github.com/teemow/roombook/internal/tools/toolstest"
)

type fakeRooms struct {
	roomID string
	force  bool
	now    time.Time
}

func (f *fakeRooms) AllRooms(context.Context) envelope.Envelope {
	return envelope.Success(map[string]any{"rooms": []any{}, "count": 0})
}

func (f *fakeRooms) RoomInfo(_ context.Context, roomID string, force bool) envelope.Envelope {
	f.roomID, f.force = roomID, force
	return envelope.Success(map[string]any{"room": map[string]any{"id": roomID}})
}

func (f *fakeRooms) RoomAvailability(_ context.Context, roomID string) envelope.Envelope {
	f.roomID = roomID
	return envelope.Errorf("Failed to fetch room with ID %s. Please check if room exists.", roomID)
}

func (f *fakeRooms) ListAvailableRooms(_ context.Context, now time.Time) envelope.Envelope {
	f.now = now
	return envelope.Success(map[string]any{"available_rooms": []any{}, "count": 0})
}

func TestRegisterRoomTools(t *testing.T) {
	s := toolstest.NewMCPServer()
	require.NoError(t, RegisterRoomTools(s, toolstest.ServerContext(t, ""), true))

	assert.Equal(t, []string{
		"get_all_rooms",
		"get_room_availability",
		"get_room_info",
		"list_available_rooms",
	}, toolstest.ToolNames(t, s))
}

func TestHandleRoomInfo(t *testing.T) {
	rooms := &fakeRooms{}
	handler := handleRoomInfo(rooms)

	r, err := handler(context.Background(), toolstest.Request("get_room_info", nil))
	require.NoError(t, err)
	assert.True(t, r.IsError)

	r, err = handler(context.Background(), toolstest.Request("get_room_info", map[string]any{
		"room_id":       "r1",
		"force_refresh": true,
	}))
	require.NoError(t, err)
	assert.False(t, r.IsError)
	assert.Equal(t, "r1", rooms.roomID)
	assert.True(t, rooms.force)
}

func TestHandleRoomAvailability_Error(t *testing.T) {
	rooms := &fakeRooms{}
	r, err := handleRoomAvailability(rooms)(context.Background(), toolstest.Request("get_room_availability", map[string]any{"room_id": "ghost"}))
	require.NoError(t, err)

	assert.True(t, r.IsError)
	assert.Equal(t, "Failed to fetch room with ID ghost. Please check if room exists.", toolstest.Decode(t, r)["error_message"])
}

func TestHandleListAvailableRooms_UsesClock(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	rooms := &fakeRooms{}

	r, err := handleListAvailableRooms(rooms, func() time.Time { return now })(context.Background(), toolstest.Request("list_available_rooms", nil))
	require.NoError(t, err)
	assert.False(t, r.IsError)
	assert.Equal(t, now, rooms.now)
}

func TestHandleAllRooms(t *testing.T) {
	r, err := handleAllRooms(&fakeRooms{})(context.Background(), toolstest.Request("get_all_rooms", nil))
	require.NoError(t, err)
	assert.Equal(t, "success", toolstest.Decode(t, r)["status"])
}
