package handlers

import (
	"strconv"
	"time"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 100
)

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// parseMessageCursor reads the created_at cursor handed back by a previous
// page. Empty means "start from the newest message".
func parseMessageCursor(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
