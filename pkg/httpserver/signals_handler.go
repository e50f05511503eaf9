package httpserver

import (
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// SignalsHandler exposes signal bus introspection.
type SignalsHandler struct {
	depth  DepthReader
	logger *zap.Logger
}

// NewSignalsHandler creates the handler.
func NewSignalsHandler(depth DepthReader, logger *zap.Logger) *SignalsHandler {
	return &SignalsHandler{
		depth:  depth,
		logger: logger,
	}
}

// DepthResponse is the body of GET /api/signals/depth.
type DepthResponse struct {
	Channel string `json:"channel"`
	Depth   int64  `json:"depth"`
}

// HandleDepth reports the number of pending messages for ?channel=.
func (h *SignalsHandler) HandleDepth(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		http.Error(w, "missing channel parameter", http.StatusBadRequest)
		return
	}

	depth, err := h.depth.Depth(r.Context(), channel)
	if err != nil {
		h.logger.Error("depth-query-failed",
			zap.String("channel", channel),
			zap.Error(err))
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(DepthResponse{Channel: channel, Depth: depth})
}
