// Package store keeps per-session game snapshots for the lifetime of a
// browser session.
package store

import "errors"

// ErrNotFound is returned when a session is absent or has expired.
var ErrNotFound = errors.New("session not found")

const keyPrefix = "session:"

func key(id string) string { return keyPrefix + id }
