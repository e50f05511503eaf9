package ingest

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dexwatch/dexwatch/pkg/types"
)

// Source is the unbounded asynchronous stream of pair events the pipeline
// consumes. Implementations surface connection failures to the Runner,
// which owns retry policy.
type Source interface {
	// Connect (re)establishes the stream.
	Connect(ctx context.Context) error
	// Next blocks for the next event or fails with the connection.
	Next(ctx context.Context) (types.PairEvent, error)
	// Close tears the stream down.
	Close() error
}

// WSSource streams pair events over a WebSocket feed.
type WSSource struct {
	url         string
	dialTimeout time.Duration
	conn        *websocket.Conn
	logger      *zap.Logger
}

// WSConfig holds WebSocket source configuration.
type WSConfig struct {
	URL         string
	DialTimeout time.Duration
	Logger      *zap.Logger
}

// NewWSSource creates a WebSocket-backed source.
func NewWSSource(cfg *WSConfig) *WSSource {
	return &WSSource{
		url:         cfg.URL,
		dialTimeout: cfg.DialTimeout,
		logger:      cfg.Logger,
	}
}

// Connect dials the feed, replacing any previous connection.
func (s *WSSource) Connect(ctx context.Context) error {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: s.dialTimeout}

	s.logger.Info("connecting-to-feed", zap.String("url", s.url))

	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial feed: %w", err)
	}

	s.conn = conn
	s.logger.Info("feed-connected")
	return nil
}

// Next reads and decodes one pair event frame. A frame that fails to
// decode is returned as an error distinct from connection loss; the
// Runner drops it and keeps the connection.
func (s *WSSource) Next(ctx context.Context) (types.PairEvent, error) {
	var event types.PairEvent

	if s.conn == nil {
		return event, fmt.Errorf("feed not connected")
	}

	deadline, ok := ctx.Deadline()
	if ok {
		_ = s.conn.SetReadDeadline(deadline)
	}

	// ReadMessage has no cancellation of its own; a silent feed would
	// otherwise pin the loop past shutdown. Closing the connection is
	// the only way to unblock the read.
	conn := s.conn
	readDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-readDone:
		}
	}()

	_, frame, err := conn.ReadMessage()
	close(readDone)
	if err != nil {
		if ctx.Err() != nil {
			s.conn = nil
			return event, ctx.Err()
		}
		return event, fmt.Errorf("read frame: %w", err)
	}

	err = json.Unmarshal(frame, &event)
	if err != nil {
		return event, &FrameError{Err: err}
	}

	return event, nil
}

// Close closes the connection.
func (s *WSSource) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// FrameError marks a malformed frame. The connection itself is fine.
type FrameError struct {
	Err error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("malformed frame: %v", e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }
