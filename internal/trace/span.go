package trace

import (
	"bytes"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"
)

var (
	seq     atomic.Uint64
	spanIDs atomic.Uint64
)

// goroutineID reads the id from the stack header "goroutine 17 [running]:".
func goroutineID() uint64 {
	var buf [64]byte
	fields := bytes.Fields(buf[:runtime.Stack(buf[:], false)])
	if len(fields) < 2 || string(fields[0]) != "goroutine" {
		return 0
	}
	gid, _ := strconv.ParseUint(string(fields[1]), 10, 64)
	return gid
}

// emit stamps ev with the time, the next sequence number and the calling
// goroutine, then hands it to t.
func emit(t Tracer, ev Event) {
	ev.Time = time.Now()
	ev.Seq = seq.Add(1)
	if ev.GID == 0 {
		ev.GID = goroutineID()
	}
	t.Emit(&ev)
}

func accepts(t Tracer, scope Scope) bool {
	return t != nil && t.Enabled() && t.Level().ShouldEmit(scope)
}

// Span is an open begin/end pair. The zero span and spans of filtered
// scopes emit nothing.
type Span struct {
	tracer  Tracer
	begin   Event
	started time.Time
	extra   map[string]string
}

// Begin emits a begin event for name under the parent span (0 for a root)
// and returns the open span.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if !accepts(t, scope) {
		return &Span{}
	}
	s := &Span{
		tracer:  t,
		started: time.Now(),
		begin: Event{
			Kind:     KindSpanBegin,
			Scope:    scope,
			SpanID:   spanIDs.Add(1),
			ParentID: parent,
			GID:      goroutineID(),
			Name:     name,
		},
	}
	emit(t, s.begin)
	return s
}

// End emits the end event carrying detail and the collected extras, and
// returns how long the span was open.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil {
		return 0
	}
	end := s.begin
	end.Kind = KindSpanEnd
	end.Detail = detail
	end.Extra = s.extra
	emit(s.tracer, end)
	return time.Since(s.started)
}

// WithExtra records key=value for the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 1)
	}
	s.extra[key] = value
	return s
}

// ID returns the span id, 0 for spans that emit nothing.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.begin.SpanID
}

// Point emits an instant event under parent.
func Point(t Tracer, scope Scope, name, detail string, parent uint64) {
	if !accepts(t, scope) {
		return
	}
	emit(t, Event{Kind: KindPoint, Scope: scope, ParentID: parent, Name: name, Detail: detail})
}
