package booking

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/teemow/roombook/internal/datetime"
	"github.com/teemow/roombook/internal/dispatch"
	"github.com/teemow/roombook/internal/envelope"
	"github.com/teemow/roombook/internal/instrumentation"
	"github.com/teemow/roombook/internal/logging"
	"github.com/teemow/roombook/internal/rooms"
)

// RoomLookup validates a room and returns its details.
type RoomLookup interface {
	Lookup(ctx context.Context, roomID string, forceRefresh bool) (rooms.Details, error)
}

// ProxyClient is the part of the proxy client the workflow uses.
type ProxyClient interface {
	Do(ctx context.Context, method, endpoint string, opts dispatch.Options) (*dispatch.Response, error)
}

// Workflow books and cancels room meetings through the proxy.
type Workflow struct {
	rooms   RoomLookup
	proxy   ProxyClient
	clock   datetime.Clock
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithClock sets the clock "now" resolves against.
func WithClock(clock datetime.Clock) Option {
	return func(w *Workflow) {
		w.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(w *Workflow) {
		w.metrics = m
	}
}

// New creates a booking Workflow.
func New(roomLookup RoomLookup, proxy ProxyClient, opts ...Option) *Workflow {
	w := &Workflow{
		rooms:  roomLookup,
		proxy:  proxy,
		clock:  datetime.SystemClock(nil),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logging.WithService(w.logger, "booking")
	return w
}

// request is the body of POST /rooms/{id}/book.
type request struct {
	Subject         string   `json:"subject"`
	StartDateTime   string   `json:"startDateTime"`
	EndDateTime     string   `json:"endDateTime"`
	IsOnlineMeeting bool     `json:"isOnlineMeeting"`
	Attendees       []string `json:"attendees"`
	Duration        int      `json:"duration"`
}

// BookRoom books a room. Unknown rooms yield the room lookup's error
// envelope unchanged.
func (w *Workflow) BookRoom(ctx context.Context, in Input) envelope.Envelope {
	room, err := w.rooms.Lookup(ctx, in.RoomID, false)
	if err != nil {
		w.metrics.RecordBooking(ctx, in.RoomID, instrumentation.StatusError)
		return rooms.ErrorEnvelope(err)
	}

	logger := w.logger.With("room_id", in.RoomID, "room", room.Name)

	plan := Resolve(in.StartTime, in.EndTime, w.clock())
	if plan.Adjusted {
		logger.Warn("end time was not after start time, booking one hour instead",
			"start_time", in.StartTime,
			"end_time", in.EndTime,
			"start", plan.Start.Format(datetime.ISOLayout))
		w.metrics.RecordBookingAdjustment(ctx, instrumentation.AdjustmentEndBeforeStart)
	}

	subject := in.Subject
	if subject == "" {
		subject = DefaultSubject
	}
	attendees := in.Attendees
	if attendees == nil {
		attendees = []string{}
	}

	body := request{
		Subject:         subject,
		StartDateTime:   plan.Start.Format(datetime.ISOLayout),
		EndDateTime:     plan.End.Format(datetime.ISOLayout),
		IsOnlineMeeting: true,
		Attendees:       attendees,
		Duration:        plan.Duration(),
	}
	logger.Info("booking room",
		"start", body.StartDateTime,
		"end", body.EndDateTime,
		"duration_minutes", body.Duration,
		logging.Addresses(attendees))

	resp, err := w.proxy.Do(ctx, http.MethodPost, roomPath(in.RoomID, "book"), dispatch.Options{JSON: body})
	if err != nil {
		logger.Error("booking request failed", logging.Err(err))
		w.metrics.RecordBooking(ctx, in.RoomID, instrumentation.StatusError)
		return envelope.Errorf("Error booking room: %v", err)
	}
	if !resp.StatusIn(http.StatusOK, http.StatusCreated) {
		msg := fmt.Sprintf("Booking failed: %d %s", resp.StatusCode, resp.Text())
		logger.Error("booking rejected", "status_code", resp.StatusCode, "body", resp.Text())
		w.metrics.RecordBooking(ctx, in.RoomID, instrumentation.StatusError)
		return envelope.Error(msg)
	}

	var result struct {
		ID            string `json:"id"`
		OnlineMeeting any    `json:"onlineMeeting"`
	}
	if err := resp.DecodeJSON(&result); err != nil {
		logger.Warn("booking response was not JSON", logging.Err(err))
	}
	if result.OnlineMeeting == nil {
		result.OnlineMeeting = map[string]any{}
	}

	w.metrics.RecordBooking(ctx, in.RoomID, instrumentation.StatusSuccess)

	payload := map[string]any{
		"meeting": map[string]any{
			"id":             result.ID,
			"subject":        subject,
			"room":           room.Name,
			"start_time":     body.StartDateTime,
			"end_time":       body.EndDateTime,
			"duration":       body.Duration,
			"online_meeting": result.OnlineMeeting,
		},
	}
	if plan.Adjusted {
		payload["end_time_adjusted"] = true
		payload["note"] = adjustmentNote
	}
	return envelope.Success(payload)
}

// CancelMeeting cancels a meeting in a room.
func (w *Workflow) CancelMeeting(ctx context.Context, roomID, meetingID string) envelope.Envelope {
	if _, err := w.rooms.Lookup(ctx, roomID, false); err != nil {
		return rooms.ErrorEnvelope(err)
	}

	endpoint := roomPath(roomID, "meetings", meetingID)
	resp, err := w.proxy.Do(ctx, http.MethodDelete, endpoint, dispatch.Options{})
	if err != nil {
		w.logger.Error("cancel request failed", "room_id", roomID, logging.Err(err))
		return envelope.Errorf("Error canceling meeting: %v", err)
	}
	if resp.StatusIn(http.StatusOK, http.StatusNoContent) {
		return envelope.Success(map[string]any{"message": "Meeting canceled successfully"})
	}

	msg := cancelError(resp)
	w.logger.Error("meeting cancellation rejected",
		"room_id", roomID,
		"meeting_id", meetingID,
		"status_code", resp.StatusCode,
		"error", msg)
	return envelope.Error(msg)
}

func cancelError(resp *dispatch.Response) string {
	var body map[string]any
	if err := resp.DecodeJSON(&body); err != nil {
		return fmt.Sprintf("Cancellation failed: %d %s", resp.StatusCode, resp.Text())
	}
	switch e := body["error"].(type) {
	case nil:
		return "Unknown error occurred"
	case string:
		return e
	default:
		return fmt.Sprint(e)
	}
}

func roomPath(roomID string, rest ...string) string {
	p := "rooms/" + url.PathEscape(roomID)
	for _, r := range rest {
		p += "/" + url.PathEscape(r)
	}
	return p
}
