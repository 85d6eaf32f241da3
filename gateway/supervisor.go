// Package gateway runs the TCP accept loop: one goroutine per connection,
// wiring the frame reader, session state machine, record normalizer, and
// sink dispatcher together for the lifetime of that connection.
package gateway

import (
	"context"
	"fmt"
	"net"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"avlgateway/codec"
	"avlgateway/ingest"
	"avlgateway/session"
	"avlgateway/sink"
	"avlgateway/telemetry"
)

type Supervisor struct {
	port        int
	idleTimeout time.Duration
	registry    *session.Registry
	dispatcher  *sink.Dispatcher
	telemetry   *telemetry.Provider

	listener net.Listener
}

func New(port int, idleTimeout time.Duration, registry *session.Registry, dispatcher *sink.Dispatcher, tp *telemetry.Provider) *Supervisor {
	return &Supervisor{
		port:        port,
		idleTimeout: idleTimeout,
		registry:    registry,
		dispatcher:  dispatcher,
		telemetry:   tp,
	}
}

// Run accepts connections until ctx is canceled, spawning a handler
// goroutine per connection.
func (s *Supervisor) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return err
	}
	s.listener = ln

	go func() {
		<-ctx.Done()
		log.Info("gateway: shutting down listener")
		ln.Close()
	}()

	log.Infof("gateway: listening on port %d", s.port)
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				log.WithError(err).Warn("gateway: accept failed")
				continue
			}
		}
		go s.handle(ctx, conn)
	}
}

func (s *Supervisor) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	sess := session.New(conn.RemoteAddr().String())
	s.registry.Add(sess)
	defer s.registry.Remove(sess.ID)

	logEntry := log.WithFields(log.Fields{"session": sess.ID, "remote": sess.RemoteAddr})
	logEntry.Info("gateway: connection accepted")

	reader := ingest.NewReader()
	buf := make([]byte, 4096)

	for {
		conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		n, err := conn.Read(buf)
		if err != nil {
			logEntry.WithError(err).Info("gateway: connection closed")
			return
		}
		sess.RecordBytes(n)

		var writeErr error
		feedErr := reader.Feed(buf[:n], sess.ExpectLogin, func(frame *codec.Frame) error {
			if s.telemetry != nil {
				_, span := s.telemetry.StartSpan(ctx, telemetry.SpanDecodeFrame)
				if frame.AVL != nil {
					span.SetAttributes(
						attribute.Int("codec_id", int(frame.AVL.CodecID)),
						attribute.Int("record_count", len(frame.AVL.Records)),
					)
				}
				span.End()
			}

			ack, err := sess.Accept(frame)
			if err != nil {
				return err
			}
			if frame.Login != nil {
				logEntry = logEntry.WithField("imei", frame.Login.IMEI)
			}

			if frame.AVL != nil && len(frame.AVL.Records) > 0 {
				points := make([]ingest.Point, len(frame.AVL.Records))
				for i, rec := range frame.AVL.Records {
					points[i] = ingest.Normalize(rec)
				}
				s.dispatcher.Enqueue(sink.Batch{IMEI: sess.IMEI(), Records: points})
			}

			if _, err := conn.Write(ack); err != nil {
				writeErr = err
				return err
			}
			return nil
		})

		if writeErr != nil {
			logEntry.WithError(writeErr).Warn("gateway: ack write failed")
			return
		}
		if feedErr != nil {
			logEntry.WithError(feedErr).Warn("gateway: frame rejected, closing connection")
			return
		}
	}
}
