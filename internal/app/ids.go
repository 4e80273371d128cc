package app

import "github.com/google/uuid"

// NewSessionID returns a random identifier for a browser session.
func NewSessionID() string {
	return uuid.NewString()
}

// ValidSessionID reports whether id looks like one issued by NewSessionID.
func ValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
