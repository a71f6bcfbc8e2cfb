package history

import (
	"context"
	"time"
)

// Event records one completed attempt of the supervised script.
type Event struct {
	Script     string    `json:"script"`
	Attempt    int       `json:"attempt"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	ExitCode   int       `json:"exit_code"`
}

// Sink is a destination for attempt events. Implementations must be safe
// for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
	Close() error
}
