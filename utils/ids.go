package utils

import "github.com/google/uuid"

// GenerateID returns a new random identifier for users, items and
// sessions.
func GenerateID() string {
	return uuid.New().String()
}
