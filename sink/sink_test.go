package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avlgateway/ingest"
)

func TestDispatcher_DeliversBatchToFleetAPI(t *testing.T) {
	var mu sync.Mutex
	var gotAuth string
	var gotPath string
	var gotBody Batch

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, "topsecret", 8, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)

	d.Enqueue(Batch{
		IMEI:    "356307042441013",
		Records: []ingest.Point{{TimestampMS: 1}, {TimestampMS: 2}, {TimestampMS: 3}},
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return gotPath != ""
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "Bearer topsecret", gotAuth)
	assert.Equal(t, "/api/gps/ingest", gotPath)
	assert.Equal(t, "356307042441013", gotBody.IMEI)
	assert.Len(t, gotBody.Records, 3)
	mu.Unlock()

	cancel()
}

func TestDispatcher_DropsOldestUnderBackpressure(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(block)

	d := NewDispatcher(srv.URL, "s", 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Enqueue(Batch{IMEI: "first"})
	time.Sleep(20 * time.Millisecond) // let Run pull the first batch into delivery
	d.Enqueue(Batch{IMEI: "second"})
	d.Enqueue(Batch{IMEI: "third"})

	assert.Equal(t, uint64(1), d.DroppedCount())
}
