package room_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/roombook/internal/envelope"
	"github.com/teemow/roombook/internal/instrumentation"
	"github.com/teemow/roombook/internal/server"
	"github.com/teemow/roombook/internal/tools/common"
)

// RoomService is the room directory as the tools see it.
type RoomService interface {
	AllRooms(ctx context.Context) envelope.Envelope
	RoomInfo(ctx context.Context, roomID string, forceRefresh bool) envelope.Envelope
	RoomAvailability(ctx context.Context, roomID string) envelope.Envelope
	ListAvailableRooms(ctx context.Context, now time.Time) envelope.Envelope
}

// RegisterRoomTools registers the room tools. All of them are read-only.
func RegisterRoomTools(s *mcpserver.MCPServer, sc *server.ServerContext, _ bool) error {
	if sc == nil {
		return fmt.Errorf("server context is required")
	}
	rooms := sc.Rooms()
	target := instrumentation.TargetProxy

	allTool := mcp.NewTool("get_all_rooms",
		mcp.WithDescription("List all bookable meeting rooms"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(allTool, common.InstrumentedToolHandlerWithTarget("get_all_rooms", target, "list", sc, handleAllRooms(rooms)))

	infoTool := mcp.NewTool("get_room_info",
		mcp.WithDescription("Get details for one meeting room: capacity, location, equipment and today's bookings"),
		mcp.WithString("room_id",
			mcp.Required(),
			mcp.Description("Room id or room mailbox address"),
		),
		mcp.WithBoolean("force_refresh",
			mcp.Description("Bypass the room cache (default: false)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(infoTool, common.InstrumentedToolHandlerWithTarget("get_room_info", target, "get", sc, handleRoomInfo(rooms)))

	availabilityTool := mcp.NewTool("get_room_availability",
		mcp.WithDescription("Get the current booked time windows of a meeting room"),
		mcp.WithString("room_id",
			mcp.Required(),
			mcp.Description("Room id or room mailbox address"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(availabilityTool, common.InstrumentedToolHandlerWithTarget("get_room_availability", target, "availability", sc, handleRoomAvailability(rooms)))

	freeTool := mcp.NewTool("list_available_rooms",
		mcp.WithDescription("List meeting rooms that are free right now"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(freeTool, common.InstrumentedToolHandlerWithTarget("list_available_rooms", target, "list", sc, handleListAvailableRooms(rooms, sc.Now)))

	return nil
}

func handleAllRooms(rooms RoomService) common.ToolHandler {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return common.Result(rooms.AllRooms(ctx)), nil
	}
}

func handleRoomInfo(rooms RoomService) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		roomID := common.RoomIDFromArgs(args)
		if roomID == "" {
			return common.MissingArgument("room_id"), nil
		}
		return common.Result(rooms.RoomInfo(ctx, roomID, common.BoolArg(args, "force_refresh", false))), nil
	}
}

func handleRoomAvailability(rooms RoomService) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		roomID := common.RoomIDFromArgs(request.GetArguments())
		if roomID == "" {
			return common.MissingArgument("room_id"), nil
		}
		return common.Result(rooms.RoomAvailability(ctx, roomID)), nil
	}
}

func handleListAvailableRooms(rooms RoomService, now func() time.Time) common.ToolHandler {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return common.Result(rooms.ListAvailableRooms(ctx, now())), nil
	}
}
