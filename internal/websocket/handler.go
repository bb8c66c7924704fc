package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// HandlerOptions configures HandleWebSocket.
type HandlerOptions struct {
	// OriginPatterns lists the hosts allowed to connect cross-origin. Empty
	// allows any origin.
	OriginPatterns []string
	// Greeting, when set, builds the first message each new client receives.
	Greeting func() Message
	Logger   *slog.Logger
}

// HandleWebSocket returns an HTTP handler that upgrades connections to WebSocket
// and runs them as Hub clients.
func HandleWebSocket(hub *Hub, opts HandlerOptions) http.HandlerFunc {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	accept := &ws.AcceptOptions{OriginPatterns: opts.OriginPatterns}
	if len(opts.OriginPatterns) == 0 {
		accept.InsecureSkipVerify = true
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, accept)
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}
		defer conn.CloseNow()

		client := NewClient(hub, conn)
		if opts.Greeting != nil {
			if err := client.Greet(opts.Greeting()); err != nil {
				logger.Error("websocket greeting", "error", err)
			}
		}
		client.Run(r.Context())
	}
}
