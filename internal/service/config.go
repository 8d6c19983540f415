package service

import (
	"time"

	"github.com/google/uuid"
)

// Config holds the dependencies shared by the services
type Config struct {
	// Location defines "today" for past-date checks
	Location *time.Location
	Now      func() time.Time
	NewID    func() string
}

func (c *Config) withDefaults() *Config {
	out := Config{}
	if c != nil {
		out = *c
	}
	if out.Location == nil {
		out.Location = time.UTC
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	if out.NewID == nil {
		out.NewID = func() string { return uuid.New().String() }
	}
	return &out
}

// isID reports whether s looks like a stored identifier. Malformed ids can
// never match a row, so callers report them as not found.
func isID(s string) bool {
	return uuid.Validate(s) == nil
}
