package api

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/notifyd/notifyd/internal/notify"
)

// waitPayloadSize is the exact size of the wait request body: a
// little-endian signed 32-bit number of seconds.
const waitPayloadSize = 4

// ChannelHandler exposes the notification channels over HTTP
type ChannelHandler struct {
	registry *notify.Registry
	maxWait  time.Duration
	logger   *slog.Logger
}

// NewChannelHandler creates a new channel handler
func NewChannelHandler(registry *notify.Registry, maxWait time.Duration, logger *slog.Logger) *ChannelHandler {
	return &ChannelHandler{
		registry: registry,
		maxWait:  maxWait,
		logger:   logger.With("component", "channels"),
	}
}

// ChannelStatus describes one channel's observable state
type ChannelStatus struct {
	Index      int    `json:"index"`
	Generation uint64 `json:"generation"`
	Waiters    int    `json:"waiters"`
}

// ChannelListResponse is the response for the channel list endpoint
type ChannelListResponse struct {
	Channels []ChannelStatus `json:"channels"`
	Count    int             `json:"count"`
}

// SignalResponse reports the generation reached by a signal
type SignalResponse struct {
	Index      int    `json:"index"`
	Generation uint64 `json:"generation"`
}

// WaitResponse reports how a wait request ended
type WaitResponse struct {
	Index            int    `json:"index"`
	Outcome          string `json:"outcome"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	Generation       uint64 `json:"generation"`
}

// List handles GET /api/v1/channels
func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	statuses := make([]ChannelStatus, 0, h.registry.Len())
	for i := 0; i < h.registry.Len(); i++ {
		ch, err := h.registry.Channel(i)
		if handleNotifyError(w, r, err) {
			return
		}
		statuses = append(statuses, ChannelStatus{
			Index:      i,
			Generation: ch.Generation(),
			Waiters:    ch.Waiters(),
		})
	}

	sendJSON(w, http.StatusOK, ChannelListResponse{Channels: statuses, Count: len(statuses)})
}

// Get handles GET /api/v1/channels/{index}
func (h *ChannelHandler) Get(w http.ResponseWriter, r *http.Request) {
	index, ok := parseIndexParam(w, r)
	if !ok {
		return
	}

	ch, err := h.registry.Channel(index)
	if handleNotifyError(w, r, err) {
		return
	}

	sendJSON(w, http.StatusOK, ChannelStatus{
		Index:      index,
		Generation: ch.Generation(),
		Waiters:    ch.Waiters(),
	})
}

// Signal handles POST /api/v1/channels/{index}/signal. It advances the
// channel's generation and wakes every waiter currently blocked on it.
func (h *ChannelHandler) Signal(w http.ResponseWriter, r *http.Request) {
	index, ok := parseIndexParam(w, r)
	if !ok {
		return
	}

	ch, err := h.registry.Channel(index)
	if handleNotifyError(w, r, err) {
		return
	}

	generation, err := ch.Signal()
	if handleNotifyError(w, r, err) {
		return
	}

	h.logger.Debug("channel signalled",
		"index", index,
		"generation", generation,
	)

	sendJSON(w, http.StatusOK, SignalResponse{Index: index, Generation: generation})
}

// Wait handles POST /api/v1/channels/{index}/wait. The body must be
// exactly 4 bytes: the wait budget in seconds, little-endian signed
// 32-bit. The call blocks until the channel is signalled, the budget
// elapses, or the request is cancelled, and reports which of the three
// happened along with the remaining whole seconds.
func (h *ChannelHandler) Wait(w http.ResponseWriter, r *http.Request) {
	index, ok := parseIndexParam(w, r)
	if !ok {
		return
	}

	ch, err := h.registry.Channel(index)
	if handleNotifyError(w, r, err) {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, waitPayloadSize+1))
	if err != nil {
		sendError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", "Failed to read request body", nil)
		return
	}
	if len(body) != waitPayloadSize {
		sendError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT",
			fmt.Sprintf("Wait payload must be exactly %d bytes", waitPayloadSize), nil)
		return
	}

	seconds := int32(binary.LittleEndian.Uint32(body))
	if seconds < 0 {
		sendError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", "Wait duration must be non-negative", nil)
		return
	}

	budget := time.Duration(seconds) * time.Second
	if h.maxWait > 0 && budget > h.maxWait {
		sendError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT",
			fmt.Sprintf("Wait duration exceeds the configured cap of %v", h.maxWait), nil)
		return
	}

	res, err := ch.AwaitChange(r.Context(), budget)
	if handleNotifyError(w, r, err) {
		return
	}

	h.logger.Debug("wait completed",
		"index", index,
		"outcome", res.Outcome.String(),
		"remaining", res.Remaining,
		"generation", res.Generation,
	)

	sendJSON(w, http.StatusOK, WaitResponse{
		Index:            index,
		Outcome:          res.Outcome.String(),
		RemainingSeconds: int64(res.Remaining / time.Second),
		Generation:       res.Generation,
	})
}
