// Package sink delivers normalized points to the fleet API over HTTP,
// asynchronously and without blocking the connection goroutine that
// produced them.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"avlgateway/ingest"
	"avlgateway/telemetry"
)

// Batch is the outbound wire payload: every record decoded from one
// accepted AVL frame, for one device, delivered as a single POST.
type Batch struct {
	IMEI    string         `json:"imei"`
	Records []ingest.Point `json:"records"`
}

// Dispatcher delivers Batches to FLEET_API_URL/api/gps/ingest over a
// bounded channel. When the channel is full, the oldest queued batch is
// dropped to make room — an ingest gateway favors a steady flow of new
// batches over a backlog of ones a slow device might never repeat.
type Dispatcher struct {
	url        string
	secret     string
	httpClient *http.Client
	telemetry  *telemetry.Provider

	queue chan Batch

	droppedCount atomic.Uint64
}

func NewDispatcher(fleetAPIURL, sharedSecret string, queueSize int, tp *telemetry.Provider) *Dispatcher {
	return &Dispatcher{
		url:        fleetAPIURL,
		secret:     sharedSecret,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		telemetry:  tp,
		queue:      make(chan Batch, queueSize),
	}
}

// Enqueue submits a batch for asynchronous delivery. It never blocks:
// under backpressure it drops the oldest queued batch and logs once per
// drop, per the bounded-queue drop-oldest policy.
func (d *Dispatcher) Enqueue(b Batch) {
	select {
	case d.queue <- b:
		return
	default:
	}

	select {
	case old := <-d.queue:
		n := d.droppedCount.Add(1)
		log.WithFields(log.Fields{
			"imei":    old.IMEI,
			"dropped": n,
		}).Warn("sink queue full, dropping oldest batch")
	default:
	}

	select {
	case d.queue <- b:
	default:
		log.Warn("sink queue full, dropping newest batch")
	}
}

// Run drains the queue and delivers each batch until ctx is canceled and
// the queue empties.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case b := <-d.queue:
			d.deliver(ctx, b)
		case <-ctx.Done():
			d.drain()
			return
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case b := <-d.queue:
			deliverCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			d.deliver(deliverCtx, b)
			cancel()
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, b Batch) {
	var span trace.Span
	if d.telemetry != nil {
		ctx, span = d.telemetry.StartSpan(ctx, telemetry.SpanSinkDeliver)
		span.SetAttributes(
			attribute.String("imei", b.IMEI),
			attribute.Int("record_count", len(b.Records)),
		)
		defer span.End()
	}

	body, err := json.Marshal(b)
	if err != nil {
		log.WithError(err).Error("sink: failed to marshal batch")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url+"/api/gps/ingest", bytes.NewReader(body))
	if err != nil {
		log.WithError(err).Error("sink: failed to build request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", d.secret))

	resp, err := d.httpClient.Do(req)
	if err != nil {
		log.WithFields(log.Fields{"imei": b.IMEI, "error": err}).Warn("sink: delivery failed")
		return
	}
	defer resp.Body.Close()
	if span != nil {
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	}

	if resp.StatusCode >= 300 {
		log.WithFields(log.Fields{"imei": b.IMEI, "status": resp.StatusCode}).Warn("sink: fleet API rejected batch")
	}
}

// DroppedCount returns the number of batches dropped under backpressure
// since startup.
func (d *Dispatcher) DroppedCount() uint64 {
	return d.droppedCount.Load()
}
