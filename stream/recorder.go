package stream

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
)

// Recorder captures every change it receives. It is safe for concurrent use
// and is meant to be plugged into store.Config.OnChange in tests.
type Recorder struct {
	mu      sync.Mutex
	changes []Change
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// HandleEvent decodes and records every record of event. Nothing is recorded
// if any record fails to decode.
func (r *Recorder) HandleEvent(_ context.Context, event events.DynamoDBEvent) error {
	decoded := make([]Change, 0, len(event.Records))
	for _, record := range event.Records {
		change, err := Decode(record)
		if err != nil {
			return err
		}
		decoded = append(decoded, change)
	}

	r.mu.Lock()
	r.changes = append(r.changes, decoded...)
	r.mu.Unlock()
	return nil
}

// Changes returns a copy of all recorded changes in arrival order.
func (r *Recorder) Changes() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Change, len(r.changes))
	copy(out, r.changes)
	return out
}

// ForTable returns the recorded changes of one table.
func (r *Recorder) ForTable(name string) []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Change
	for _, c := range r.changes {
		if c.Table == name {
			out = append(out, c)
		}
	}
	return out
}

// Reset discards all recorded changes.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.changes = nil
	r.mu.Unlock()
}
