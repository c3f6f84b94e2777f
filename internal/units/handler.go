package units

import (
	"encoding/json"
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/park63/lead-intake/pkg/logging"
)

// Handler serves the counter snapshot and the realtime stream.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates a units handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if store == nil {
		panic("units: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// SnapshotResponse is the GET /api/available-units body.
type SnapshotResponse struct {
	AvailableUnits int `json:"available_units"`
}

// Snapshot handles GET /api/available-units.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	remaining, err := h.store.Remaining(r.Context())
	if err != nil {
		h.logger.Error("units snapshot failed", "error", err)
		http.Error(w, "units unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SnapshotResponse{AvailableUnits: remaining})
}

// streamMessage is one websocket frame on the stream.
type streamMessage struct {
	AvailableUnits int `json:"available_units"`
}

// Stream handles GET /api/available-units/stream. It pushes the current
// value on connect and every published change after, until the client
// disconnects.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveStream(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveStream(conn *websocket.Conn, r *http.Request) {
	ctx := r.Context()

	sub, err := h.store.Subscribe(ctx)
	if err != nil {
		h.logger.Error("units stream subscribe failed", "error", err)
		return
	}
	defer sub.Close()

	remaining, err := h.store.Remaining(ctx)
	if err == nil {
		if err := websocket.JSON.Send(conn, streamMessage{AvailableUnits: remaining}); err != nil {
			return
		}
	}

	// Detect client disconnect: the read loop fails as soon as the peer
	// goes away, which unblocks the send loop below via closed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		var discard string
		for {
			if err := websocket.Message.Receive(conn, &discard); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case n, ok := <-sub.Updates():
			if !ok {
				return
			}
			if err := websocket.JSON.Send(conn, streamMessage{AvailableUnits: n}); err != nil {
				return
			}
		}
	}
}
