package booking_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/roombook/internal/booking"
	"github.com/teemow/roombook/internal/envelope"
	"github.com/teemow/roombook/internal/instrumentation"
	"github.com/teemow/roombook/internal/server"
	"github.com/teemow/roombook/internal/tools/common"
)

// BookingService is the booking workflow as the tools see it.
type BookingService interface {
	BookRoom(ctx context.Context, in booking.Input) envelope.Envelope
	CancelMeeting(ctx context.Context, roomID, meetingID string) envelope.Envelope
}

// RegisterBookingTools registers book_room and cancel_meeting unless
// readOnly is set.
func RegisterBookingTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if sc == nil {
		return fmt.Errorf("server context is required")
	}
	if readOnly {
		return nil
	}
	bookings := sc.Booking()
	target := instrumentation.TargetProxy

	bookTool := mcp.NewTool("book_room",
		mcp.WithDescription("Book a meeting room. Times accept ISO 8601, \"now\", \"in 2 hours\", "+
			"\"today at 3pm\", \"tomorrow at 10am\" or \"YYYY-MM-DD HH:MM\". An end time given as a "+
			"bare number is a duration in minutes."),
		mcp.WithString("room_id",
			mcp.Required(),
			mcp.Description("Room id or room mailbox address"),
		),
		mcp.WithString("start_time",
			mcp.Description("Meeting start (default: now)"),
		),
		mcp.WithString("end_time",
			mcp.Description("Meeting end, or duration in minutes (default: 60 minutes after start)"),
		),
		mcp.WithString("subject",
			mcp.Description("Meeting subject (default: \""+booking.DefaultSubject+"\")"),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated attendee email addresses"),
		),
	)
	s.AddTool(bookTool, common.InstrumentedToolHandlerWithTarget("book_room", target, "book", sc, handleBookRoom(bookings)))

	cancelTool := mcp.NewTool("cancel_meeting",
		mcp.WithDescription("Cancel a meeting booked in a room"),
		mcp.WithString("room_id",
			mcp.Required(),
			mcp.Description("Room id or room mailbox address"),
		),
		mcp.WithString("meeting_id",
			mcp.Required(),
			mcp.Description("Meeting id returned by book_room"),
		),
		mcp.WithDestructiveHintAnnotation(true),
	)
	s.AddTool(cancelTool, common.InstrumentedToolHandlerWithTarget("cancel_meeting", target, "cancel", sc, handleCancelMeeting(bookings)))

	return nil
}

func handleBookRoom(bookings BookingService) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		in := booking.Input{
			RoomID:    common.RoomIDFromArgs(args),
			Subject:   common.StringArg(args, "subject"),
			StartTime: common.StringArg(args, "start_time"),
			EndTime:   common.StringArg(args, "end_time"),
			Attendees: common.StringListArg(args, "attendees"),
		}
		if in.RoomID == "" {
			return common.MissingArgument("room_id"), nil
		}

		return common.Result(bookings.BookRoom(ctx, in)), nil
	}
}

func handleCancelMeeting(bookings BookingService) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		roomID := common.RoomIDFromArgs(args)
		if roomID == "" {
			return common.MissingArgument("room_id"), nil
		}
		meetingID := common.StringArg(args, "meeting_id")
		if meetingID == "" {
			return common.MissingArgument("meeting_id"), nil
		}

		return common.Result(bookings.CancelMeeting(ctx, roomID, meetingID)), nil
	}
}
