// Package calendar is the gateway to the Google Calendar API. It creates
// calendar events with an attached Google Meet conference and classifies
// upstream failures into the error kinds the HTTP layer maps to status
// codes. One creation attempt is exactly one outbound call; there is no
// retry at this layer.
package calendar
