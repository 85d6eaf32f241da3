package session

import (
	"encoding/binary"

	"avlgateway/codec"
)

// FaultKind classifies a state-machine-level rejection, distinct from a
// codec.FaultKind: these are violations of session protocol, not the
// wire grammar.
type FaultKind string

const (
	UnexpectedLogin FaultKind = "UnexpectedLogin"
	UnexpectedAvl   FaultKind = "UnexpectedAvl"
)

type FaultError struct {
	Kind FaultKind
}

func (e *FaultError) Error() string { return "session: " + string(e.Kind) }

// Accept applies a decoded frame to the session's current state, advances
// State as needed, and returns the bytes that must be written back to the
// device (a 1-byte login ACK or a 4-byte record-count ACK). A non-nil
// error means the connection must be closed without writing anything.
func (s *Session) Accept(frame *codec.Frame) ([]byte, error) {
	switch s.State {
	case Unauthenticated:
		if frame.Login == nil {
			return nil, &FaultError{Kind: UnexpectedAvl}
		}
		s.setIMEI(frame.Login.IMEI)
		s.mu.Lock()
		s.State = Authenticated
		s.mu.Unlock()
		s.RecordPacket()
		return []byte{0x01}, nil

	case Authenticated:
		if frame.Login != nil {
			return nil, &FaultError{Kind: UnexpectedLogin}
		}
		ack := make([]byte, 4)
		binary.BigEndian.PutUint32(ack, uint32(len(frame.AVL.Records)))
		s.RecordPacket()
		return ack, nil

	default:
		return nil, &FaultError{Kind: UnexpectedLogin}
	}
}

// ExpectLogin reports which codec.Decode grammar applies to the session's
// current state.
func (s *Session) ExpectLogin() bool {
	return s.State == Unauthenticated
}
