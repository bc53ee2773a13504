// Package booking books and cancels meetings in rooms.
//
// Start and end times arrive as free text ("today at 2pm", "30", an ISO
// timestamp) and are resolved against an injected clock. A range whose end is
// not after its start is corrected to one hour, and the correction is
// reported in the result and logged.
package booking
