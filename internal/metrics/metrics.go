package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	EventsReceived  atomic.Int64
	EventsStored    atomic.Int64
	StorageFailures atomic.Int64
	FramesPublished atomic.Int64
	FramesDropped   atomic.Int64
	CacheFailures   atomic.Int64
	StreamsOpened   atomic.Int64
	StreamsClosed   atomic.Int64
)

func HandleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "accident_events_received_total %d\n", EventsReceived.Load())
	fmt.Fprintf(w, "accident_events_stored_total %d\n", EventsStored.Load())
	fmt.Fprintf(w, "accident_storage_failures_total %d\n", StorageFailures.Load())
	fmt.Fprintf(w, "accident_frames_published_total %d\n", FramesPublished.Load())
	fmt.Fprintf(w, "accident_frames_dropped_total %d\n", FramesDropped.Load())
	fmt.Fprintf(w, "accident_cache_failures_total %d\n", CacheFailures.Load())
	fmt.Fprintf(w, "accident_streams_opened_total %d\n", StreamsOpened.Load())
	fmt.Fprintf(w, "accident_streams_closed_total %d\n", StreamsClosed.Load())
}
