package game

import (
	"context"
	"time"
)

// Result summarizes one finished game for persistence.
type Result struct {
	SessionID  string
	Winner     string
	Players    []string
	StartedAt  time.Time
	FinishedAt time.Time
	Turns      int
}

// ResultSink receives finished game results. The engine never blocks on it;
// recording happens off the session's critical section. A nil sink disables
// persistence.
type ResultSink interface {
	RecordResult(ctx context.Context, r Result) error
}
