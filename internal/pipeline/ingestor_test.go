package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accident-monitor/internal/domain"
	"accident-monitor/internal/hub"
)

type fakeEventStore struct {
	recorded  []*domain.AccidentEvent
	summaries []string
	created   bool
	failWith  error
	nextID    int64
}

func (f *fakeEventStore) RecordEvent(ctx context.Context, evt *domain.AccidentEvent, summary string) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	f.nextID++
	evt.ID = f.nextID
	evt.CreatedAt = time.Now().UTC()
	f.recorded = append(f.recorded, evt)
	f.summaries = append(f.summaries, summary)
	return f.created, nil
}

var _ EventStore = (*fakeEventStore)(nil)

type fakeResolver struct {
	aliases map[string]string
}

func (f *fakeResolver) Canonicalize(ctx context.Context, ident string) (string, *domain.Vehicle, error) {
	trimmed := strings.TrimSpace(ident)
	if alias, ok := f.aliases[trimmed]; ok {
		return alias, &domain.Vehicle{VehicleID: alias}, nil
	}
	return trimmed, nil, nil
}

var _ Resolver = (*fakeResolver)(nil)

type fakeCache struct {
	calls    int
	failWith error
}

func (f *fakeCache) CacheAccidentState(ctx context.Context, evt *domain.AccidentEvent, summary string) error {
	f.calls++
	return f.failWith
}

var _ StateCache = (*fakeCache)(nil)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestIngestor(store *fakeEventStore, cache StateCache) (*Ingestor, *hub.Hub) {
	h := hub.New(8)
	resolver := &fakeResolver{aliases: map[string]string{"VHL2023": "VHL2023", "1": "VHL2023"}}
	return NewIngestor(store, resolver, h, cache, quietLogger()), h
}

func TestIngest_HappyPath(t *testing.T) {
	store := &fakeEventStore{}
	ing, h := newTestIngestor(store, nil)
	sub := h.Subscribe("VHL2023")

	body := `{"vehicle_id":"VHL2023","intensity":4.5,"lat":12.34,"lng":56.78,"notes":"rear collision"}`
	result, err := ing.Ingest(context.Background(), []byte(body))
	require.NoError(t, err)
	assert.False(t, result.CreatedVehicle)
	assert.Equal(t, int64(1), result.EventID)

	require.Len(t, store.recorded, 1)
	evt := store.recorded[0]
	assert.Equal(t, "VHL2023", evt.VehicleRef)
	require.NotNil(t, evt.Intensity)
	assert.Equal(t, 4.5, *evt.Intensity)
	require.NotNil(t, evt.Lat)
	assert.Equal(t, 12.34, *evt.Lat)
	require.NotNil(t, evt.Lng)
	assert.Equal(t, 56.78, *evt.Lng)
	assert.Equal(t, "rear collision", evt.Notes)
	assert.Equal(t, []byte(body), evt.RawPayload)
	assert.Equal(t, []string{"rear collision"}, store.summaries)

	delivered := <-sub.C
	assert.Equal(t, "rear collision", delivered.Notes)
}

func TestIngest_CanonicalizesNumericRef(t *testing.T) {
	store := &fakeEventStore{}
	ing, h := newTestIngestor(store, nil)
	sub := h.Subscribe("VHL2023")

	_, err := ing.Ingest(context.Background(), []byte(`{"vehicleID":1,"notes":"bump"}`))
	require.NoError(t, err)

	require.Len(t, store.recorded, 1)
	assert.Equal(t, "VHL2023", store.recorded[0].VehicleRef)
	assert.Len(t, sub.C, 1)
}

func TestIngest_UnseenRefReportsCreated(t *testing.T) {
	store := &fakeEventStore{created: true}
	ing, _ := newTestIngestor(store, nil)

	result, err := ing.Ingest(context.Background(), []byte(`{"vehicleID":"NEWCAR1","notes":"first crash"}`))
	require.NoError(t, err)
	assert.True(t, result.CreatedVehicle)
	assert.Equal(t, "NEWCAR1", store.recorded[0].VehicleRef)
}

func TestIngest_AccidentDetailsFallback(t *testing.T) {
	store := &fakeEventStore{}
	ing, _ := newTestIngestor(store, nil)

	_, err := ing.Ingest(context.Background(), []byte(`{"vehicleID":"VHL2023","accidentDetails":"side impact"}`))
	require.NoError(t, err)
	assert.Equal(t, "side impact", store.recorded[0].Notes)
}

func TestIngest_DefaultsTimestamp(t *testing.T) {
	store := &fakeEventStore{}
	ing, _ := newTestIngestor(store, nil)

	before := time.Now().UTC().Add(-time.Second)
	_, err := ing.Ingest(context.Background(), []byte(`{"vehicleID":"VHL2023"}`))
	require.NoError(t, err)

	ts, perr := time.Parse(time.RFC3339, store.recorded[0].Timestamp)
	require.NoError(t, perr)
	assert.True(t, ts.After(before))
}

func TestIngest_KeepsCallerTimestamp(t *testing.T) {
	store := &fakeEventStore{}
	ing, _ := newTestIngestor(store, nil)

	_, err := ing.Ingest(context.Background(), []byte(`{"vehicleID":"VHL2023","timestamp":"2025-12-09T14:30:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, "2025-12-09T14:30:00Z", store.recorded[0].Timestamp)
}

func TestIngest_MissingRefIsValidationError(t *testing.T) {
	store := &fakeEventStore{}
	ing, _ := newTestIngestor(store, nil)

	for _, body := range []string{`{}`, `{"vehicleID":"  "}`, `{"notes":"no id"}`} {
		_, err := ing.Ingest(context.Background(), []byte(body))
		assert.True(t, domain.IsValidation(err), "body=%s", body)
	}
	assert.Empty(t, store.recorded)
}

func TestIngest_InvalidJSONIsValidationError(t *testing.T) {
	store := &fakeEventStore{}
	ing, _ := newTestIngestor(store, nil)

	_, err := ing.Ingest(context.Background(), []byte(`not json`))
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, store.recorded)
}

func TestIngest_StorageFailureSuppressesFanOut(t *testing.T) {
	store := &fakeEventStore{failWith: errors.New("disk on fire")}
	ing, h := newTestIngestor(store, nil)
	sub := h.Subscribe("VHL2023")

	_, err := ing.Ingest(context.Background(), []byte(`{"vehicleID":"VHL2023","notes":"x"}`))
	require.Error(t, err)
	assert.True(t, domain.IsStorage(err))
	assert.Len(t, sub.C, 0)
}

func TestIngest_CacheFailureDoesNotFailIngestion(t *testing.T) {
	store := &fakeEventStore{}
	cache := &fakeCache{failWith: errors.New("redis down")}
	ing, h := newTestIngestor(store, cache)
	sub := h.Subscribe("VHL2023")

	_, err := ing.Ingest(context.Background(), []byte(`{"vehicleID":"VHL2023","notes":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, 1, cache.calls)
	assert.Len(t, sub.C, 1)
}

func TestIngest_LatestSummaryConvergence(t *testing.T) {
	store := &fakeEventStore{}
	ing, _ := newTestIngestor(store, nil)

	for _, notes := range []string{"first", "second", "third"} {
		_, err := ing.Ingest(context.Background(),
			[]byte(`{"vehicleID":"VHL2023","notes":"`+notes+`"}`))
		require.NoError(t, err)
	}

	assert.Equal(t, "third", store.summaries[len(store.summaries)-1])
}
