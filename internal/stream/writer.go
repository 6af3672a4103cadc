package stream

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// SSEWriter frames payloads as server-sent events and flushes after each
// write so frames cross proxies without buffering.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter prepares the response for event streaming. Returns false when
// the underlying writer cannot flush.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &SSEWriter{w: w, flusher: flusher}, true
}

func (s *SSEWriter) WriteFrame(payload []byte) error {
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WSWriter frames payloads as websocket text messages.
type WSWriter struct {
	conn *websocket.Conn
}

func NewWSWriter(conn *websocket.Conn) *WSWriter {
	return &WSWriter{conn: conn}
}

func (w *WSWriter) WriteFrame(payload []byte) error {
	return w.conn.WriteMessage(websocket.TextMessage, payload)
}
