package pipeline

import "time"

// Status captures where a pass is in its lifecycle.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for one pass.
type Event struct {
	Pass    string
	Index   int
	Status  Status
	Err     error
	Elapsed time.Duration
	// Version is the snapshot version after the pass, -1 when it
	// committed nothing.
	Version int
}

// ProgressSink consumes progress events. OnEvent is called from the
// goroutine running the coordinator.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

type nopSink struct{}

func (nopSink) OnEvent(Event) {}
