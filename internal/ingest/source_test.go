package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// startSilentFeed serves a websocket that accepts the connection and
// never sends a frame, holding it open until the client goes away.
func startSilentFeed(t *testing.T) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestRunner_CancelUnblocksSilentFeed(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	source := NewWSSource(&WSConfig{
		URL:         startSilentFeed(t),
		DialTimeout: time.Second,
		Logger:      logger,
	})
	runner := NewRunner(&RunnerConfig{
		Source:    source,
		Processor: &countingProcessor{},
		RetryWait: 10 * time.Millisecond,
		Logger:    logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	// Let the dial finish and the first read block on the quiet feed.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("ingestion loop still blocked after cancel")
	}
}

func TestWSSource_NextWithoutConnect(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	source := NewWSSource(&WSConfig{URL: "ws://unused", DialTimeout: time.Second, Logger: logger})

	_, err := source.Next(context.Background())
	assert.Error(t, err)
}
