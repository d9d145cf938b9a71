// Package history keeps the in-memory, append-only record of meetings
// created during a session. Records are immutable once appended; the only
// destructive operation is a bulk clear. Nothing is persisted, so the
// history lives exactly as long as the session that owns it.
package history
