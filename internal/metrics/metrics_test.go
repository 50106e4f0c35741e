package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestObserveHelpersDoNotPanic(t *testing.T) {
	ObservePublish("경향신문", nil)
	ObservePublish("경향신문", errors.New("boom"))
	ObserveConsume()
	ObservePersist("indexed")
	ObserveEnrichment("summary", 250*time.Millisecond)
	ObserveFetch("headless", time.Second)
	ObserveSnapshotFailure()
	IncActiveWorkers()
	DecActiveWorkers()
}

func TestHandlerServesRegistry(t *testing.T) {
	ObservePersist("duplicate")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "newspipe_records_persisted_total")
}
