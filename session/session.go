// Package session tracks per-connection protocol state: the
// Unauthenticated -> Authenticated -> Closed lifecycle, and the
// process-wide registry of live sessions used for observability.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is a session's position in its lifecycle.
type State int

const (
	Unauthenticated State = iota
	Authenticated
	Closed
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

const MaxBufferSize = 64 * 1024

// Session is the server-side state of one accepted TCP connection. It is
// owned exclusively by that connection's goroutine. ID and RemoteAddr are
// fixed at creation. State is written only from that goroutine, under mu,
// because Snapshot reports it; the fields below mu are guarded by mu
// because the registry's snapshots read them concurrently.
type Session struct {
	ID         uuid.UUID
	RemoteAddr string

	State State

	mu              sync.RWMutex
	imei            string
	connectedAt     time.Time
	lastDataAt      time.Time
	packetsReceived uint64
	bytesReceived   uint64
}

// New creates a session in the Unauthenticated state.
func New(remoteAddr string) *Session {
	now := time.Now()
	return &Session{
		ID:          uuid.New(),
		RemoteAddr:  remoteAddr,
		State:       Unauthenticated,
		connectedAt: now,
		lastDataAt:  now,
	}
}

// IMEI returns the authenticated device identity, or "" before login.
func (s *Session) IMEI() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.imei
}

func (s *Session) setIMEI(imei string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imei = imei
}

// RecordBytes updates last-data-at and the received-byte counter. Called
// by the owning connection goroutine on every read.
func (s *Session) RecordBytes(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bytesReceived += uint64(n)
	s.lastDataAt = time.Now()
}

// RecordPacket increments the accepted-frame counter. Called once per
// successful Consumed emission handed to the state machine.
func (s *Session) RecordPacket() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packetsReceived++
}

// Snapshot is the internal, full-detail read-only projection — a copy,
// never a live handle — used for diagnostics and tests. It is not what
// the status API serializes; see StatusView for that narrower surface.
type Snapshot struct {
	ID              uuid.UUID `json:"id"`
	IMEI            string    `json:"imei,omitempty"`
	RemoteAddr      string    `json:"remoteAddr"`
	State           string    `json:"state"`
	ConnectedAt     time.Time `json:"connectedAt"`
	LastDataAt      time.Time `json:"lastDataAt"`
	PacketsReceived uint64    `json:"packetsReceived"`
	BytesReceived   uint64    `json:"bytesReceived"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ID:              s.ID,
		IMEI:            s.imei,
		RemoteAddr:      s.RemoteAddr,
		State:           s.State.String(),
		ConnectedAt:     s.connectedAt,
		LastDataAt:      s.lastDataAt,
		PacketsReceived: s.packetsReceived,
		BytesReceived:   s.bytesReceived,
	}
}

// StatusView is the projection the status HTTP API serializes: exactly
// session_id, imei, connected_at, and packets_received, nothing else.
type StatusView struct {
	SessionID       uuid.UUID `json:"session_id"`
	IMEI            string    `json:"imei,omitempty"`
	ConnectedAt     time.Time `json:"connected_at"`
	PacketsReceived uint64    `json:"packets_received"`
}

func (s *Session) Status() StatusView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StatusView{
		SessionID:       s.ID,
		IMEI:            s.imei,
		ConnectedAt:     s.connectedAt,
		PacketsReceived: s.packetsReceived,
	}
}

func (s *Session) ConnectedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connectedAt
}

func (s *Session) LastDataAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastDataAt
}
