// Package meeting contains the core scheduling logic for meetlink: the
// input validator that turns raw date/time form fields into an absolute
// start instant, and the request builder that produces a fully populated
// event-creation request for the calendar gateway.
//
// Both the validator and the builder are pure: they take all inputs as
// arguments (including the current time) and return values or typed
// errors, with no ambient state. This keeps them trivially testable
// without a clock or a network.
package meeting
