package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Recommendation is one persisted recommendation run: the context it was
// produced for and the full result document served to the caller.
type Recommendation struct {
	ID          string
	CreatedAt   time.Time
	ContextJSON string // day context summary as JSON
	ResultJSON  string // ranked proposals / infeasibility report as JSON
	Feasible    bool
}
