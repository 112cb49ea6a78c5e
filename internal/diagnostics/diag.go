package diagnostics

import (
	"sync"
	"time"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Codes published by the session and the transport.
const (
	UploadStarted  = "UPLOAD.STARTED"
	UploadDone     = "UPLOAD.DONE"
	UploadFailed   = "UPLOAD.FAILED"
	UploadBusy     = "UPLOAD.BUSY"
	UploadEmpty    = "UPLOAD.EMPTY"
	DeviceNotFound = "DEVICE.NOT_FOUND"
	MemoryOver     = "MEMORY.OVER"
	RestoreFailed  = "STATE.RESTORE_FAILED"
)

type Diagnostic struct {
	Time           time.Time      `json:"time"`
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Sink receives diagnostics.
type Sink func(Diagnostic)

// Hub fans diagnostics out to subscribers and keeps the most recent ones.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]Sink
	nextID int
	recent []Diagnostic
	keep   int
}

func NewHub(keep int) *Hub {
	if keep <= 0 {
		keep = 32
	}
	return &Hub{subs: map[int]Sink{}, keep: keep}
}

// Subscribe registers fn and returns a function removing it.
func (h *Hub) Subscribe(fn Sink) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Publish stamps d and delivers it to every subscriber. A nil hub drops it.
func (h *Hub) Publish(d Diagnostic) {
	if h == nil {
		return
	}
	if d.Time.IsZero() {
		d.Time = time.Now()
	}
	h.mu.Lock()
	h.recent = append(h.recent, d)
	if len(h.recent) > h.keep {
		h.recent = h.recent[len(h.recent)-h.keep:]
	}
	subs := make([]Sink, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()
	for _, s := range subs {
		s(d)
	}
}

// Recent returns a copy of the retained diagnostics, oldest first.
func (h *Hub) Recent() []Diagnostic {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Diagnostic(nil), h.recent...)
}
