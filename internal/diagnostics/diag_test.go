package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHubPublish(t *testing.T) {
	h := NewHub(2)
	var got []string
	cancel := h.Subscribe(func(d Diagnostic) { got = append(got, d.Code) })

	h.Publish(Diagnostic{Severity: Info, Code: UploadStarted})
	h.Publish(Diagnostic{Severity: Info, Code: UploadDone})
	cancel()
	h.Publish(Diagnostic{Severity: Warn, Code: MemoryOver})

	assert.Equal(t, []string{UploadStarted, UploadDone}, got)
	recent := h.Recent()
	assert.Len(t, recent, 2)
	assert.Equal(t, MemoryOver, recent[1].Code)
	assert.False(t, recent[1].Time.IsZero())
}

func TestNilHubDrops(t *testing.T) {
	var h *Hub
	assert.NotPanics(t, func() { h.Publish(Diagnostic{Code: UploadFailed}) })
}
