package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/BioHazard786/chessrelay/internal/lobby"
	"github.com/BioHazard786/chessrelay/internal/protocol"
)

// Greeting is the static body served on / and /health.
const Greeting = "Hello to Chess Master API"

// Options configures the router.
type Options struct {
	Hub            *lobby.Hub
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter wires the HTTP endpoints around hub.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", healthCheckHandler)
	mux.HandleFunc("GET /health", healthCheckHandler)
	mux.HandleFunc("GET /stats", statsHandler(opts.Hub, logger))
	mux.HandleFunc("GET /ws", ServeWs(opts.Hub, NewUpgrader(opts.AllowedOrigins), logger))
	return mux
}

// NewUpgrader builds the websocket upgrader. "*" in origins allows any origin.
// Requests without an Origin header (non-browser clients) are always allowed.
func NewUpgrader(origins []string) *websocket.Upgrader {
	allowAll := false
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return &websocket.Upgrader{
		ReadBufferSize:  4 * 1024,
		WriteBufferSize: 4 * 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if allowAll || origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(Greeting))
}

func statsHandler(hub *lobby.Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := hub.Stats(r.Context())
		if err != nil {
			if errors.Is(err, lobby.ErrHubStopped) {
				http.Error(w, "shutting down", http.StatusServiceUnavailable)
				return
			}
			logger.Debug("stats request abandoned", "error", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stats); err != nil {
			logger.Warn("write stats", "error", err)
		}
	}
}

// ServeWs returns an http.HandlerFunc that upgrades the request and hands the
// connection to the hub. Each connection gets a fresh identity and is seated
// as soon as it is registered.
func ServeWs(hub *lobby.Hub, upgrader *websocket.Upgrader, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codec, err := protocol.LookupCodec(r.URL.Query().Get("codec"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		// Upgrade the HTTP connection to a WebSocket
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("failed to upgrade connection", "remote", r.RemoteAddr, "error", err)
			return
		}

		client := lobby.NewClient(hub, conn, uuid.NewString(), codec)

		select {
		case hub.Register <- client:
		case <-hub.Done():
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
