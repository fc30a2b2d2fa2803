package navigation

import (
	"context"
	"sync"
)

// Event kinds recorded by Recorder.
const (
	EventOpenExternal = "open_external"
	EventPurchased    = "purchased"
	EventError        = "error"
)

// Event is one navigation request.
type Event struct {
	Kind     string `json:"kind"`
	CourseID string `json:"course_id,omitempty"`
	URL      string `json:"url,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Recorder implements ports.Navigator by collecting events, for callers that
// return navigation to a remote client (the Lambda API).
type Recorder struct {
	purchasedView string

	mu     sync.Mutex
	events []Event
}

// NewRecorder creates a recorder that reports purchases with the given view path.
func NewRecorder(purchasedView string) *Recorder {
	return &Recorder{purchasedView: purchasedView}
}

func (r *Recorder) OpenExternal(ctx context.Context, url string) error {
	r.add(Event{Kind: EventOpenExternal, URL: url})
	return nil
}

func (r *Recorder) ShowPurchased(ctx context.Context, courseID string) error {
	r.add(Event{Kind: EventPurchased, CourseID: courseID, URL: r.purchasedView})
	return nil
}

func (r *Recorder) ShowError(ctx context.Context, courseID, message string, cause error) error {
	r.add(Event{Kind: EventError, CourseID: courseID, Message: message})
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}
