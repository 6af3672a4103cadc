package stream

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEWriter_FramesAndHeaders(t *testing.T) {
	rec := httptest.NewRecorder()

	w, ok := NewSSEWriter(rec)
	require.True(t, ok)
	require.NoError(t, w.WriteFrame([]byte(`{"type":"connected","vehicleID":"VHL2023"}`)))
	require.NoError(t, w.WriteFrame([]byte(`{}`)))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t,
		"data: {\"type\":\"connected\",\"vehicleID\":\"VHL2023\"}\n\ndata: {}\n\n",
		rec.Body.String())
	assert.True(t, rec.Flushed)
}

// noFlushWriter implements http.ResponseWriter without http.Flusher.
type noFlushWriter struct {
	header http.Header
}

func (w *noFlushWriter) Header() http.Header        { return w.header }
func (w *noFlushWriter) Write(p []byte) (int, error) { return len(p), nil }
func (w *noFlushWriter) WriteHeader(status int)      {}

func TestNewSSEWriter_RequiresFlusher(t *testing.T) {
	_, ok := NewSSEWriter(&noFlushWriter{header: make(http.Header)})
	assert.False(t, ok)
}
