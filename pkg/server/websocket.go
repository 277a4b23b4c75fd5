package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/toolgate-io/toolgate/pkg/rpc"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsConn wraps a WebSocket connection with a write lock so concurrent
// dispatches can interleave responses safely.
type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsConn) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// handleWebSocket serves the same JSON-RPC envelopes over a WebSocket
// connection, one request per text frame. Each frame is dispatched in its
// own goroutine so a slow tool call never blocks the read loop.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.shutdownMu.RLock()
	if s.isShuttingDown {
		s.shutdownMu.RUnlock()
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.shutdownMu.RUnlock()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &wsConn{conn: conn}
	logger := s.logger.With().Str("ip", s.getClientIP(r)).Str("transport", "websocket").Logger()
	logger.Info().Msg("WebSocket client connected")

	defer func() {
		conn.Close()
		logger.Info().Msg("WebSocket client disconnected")
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}

		s.inFlightReqs.Add(1)
		go s.dispatchFrame(r, client, message, logger)
	}
}

func (s *Server) dispatchFrame(r *http.Request, client *wsConn, message []byte, logger zerolog.Logger) {
	defer s.inFlightReqs.Done()

	req, rpcErr := rpc.ParseRequest(message)
	if rpcErr != nil {
		resp := &rpc.Response{JSONRPC: "2.0", Error: rpcErr, ID: requestIDFromRaw(message)}
		if err := client.writeJSON(resp); err != nil {
			logger.Error().Err(err).Msg("Failed to write WebSocket response")
		}
		return
	}

	resp := s.dispatcher.Dispatch(r.Context(), req)
	if err := client.writeJSON(resp); err != nil {
		logger.Error().Err(err).Str("method", req.Method).Msg("Failed to write WebSocket response")
	}
}
