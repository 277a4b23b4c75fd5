package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/toolgate-io/toolgate/internal/metrics"
	"github.com/toolgate-io/toolgate/pkg/rpc"
	"github.com/toolgate-io/toolgate/pkg/tool"
)

// Options configures the RPC server
type Options struct {
	Host        string // Server host (default: "0.0.0.0")
	Port        int    // Server port (default: 8001)
	Name        string // Server name reported by /schema
	Description string // Server description reported by /schema
	Version     string // Server version reported by /schema
}

// SchemaResponse is the introspection document served on GET /schema
type SchemaResponse struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Version     string            `json:"version"`
	Tools       []tool.Descriptor `json:"tools"`
}

// Server exposes the tool registry over HTTP: JSON-RPC on POST /mcp, the
// same envelopes over WebSocket on GET /mcp/ws, and read-only introspection
// on GET /schema.
type Server struct {
	options        Options
	server         *http.Server
	dispatcher     *rpc.Dispatcher
	registry       *tool.Registry
	metrics        *metrics.Metrics
	logger         zerolog.Logger
	startTime      time.Time
	isShuttingDown bool
	shutdownMu     sync.RWMutex
	inFlightReqs   sync.WaitGroup
}

// New creates a new RPC server. Metrics may be nil when disabled.
func New(options Options, registry *tool.Registry, dispatcher *rpc.Dispatcher, m *metrics.Metrics, logger zerolog.Logger) (*Server, error) {
	if options.Port == 0 {
		options.Port = 8001
	}
	if options.Host == "" {
		options.Host = "0.0.0.0"
	}
	if options.Name == "" {
		options.Name = "toolgate"
	}

	if registry == nil {
		return nil, fmt.Errorf("tool registry is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	return &Server{
		options:    options,
		dispatcher: dispatcher,
		registry:   registry,
		metrics:    m,
		logger:     logger.With().Str("component", "rpc-server").Logger(),
		startTime:  time.Now(),
	}, nil
}

// Handler builds the HTTP handler serving all endpoints. Exposed separately
// from Start so tests can drive it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/mcp", s.handleRPC)
	mux.HandleFunc("/mcp/ws", s.handleWebSocket)
	mux.HandleFunc("/schema", s.handleSchema)
	mux.HandleFunc("/health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}

	return mux
}

// Start starts the RPC server and blocks until it stops
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.options.Host, s.options.Port),
		Handler: s.Handler(),
	}

	s.logger.Info().
		Str("host", s.options.Host).
		Int("port", s.options.Port).
		Int("tools", s.registry.Len()).
		Msg("Starting RPC server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start RPC server: %w", err)
	}

	return nil
}

// Stop gracefully stops the server, waiting for in-flight requests
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down RPC server")

	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("All in-flight requests completed")
	case <-time.After(30 * time.Second):
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
	}

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown RPC server: %w", err)
		}
	}

	s.logger.Info().Msg("RPC server stopped")
	return nil
}

// handleRPC handles JSON-RPC requests on POST /mcp
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.shutdownMu.RLock()
	if s.isShuttingDown {
		s.shutdownMu.RUnlock()
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.shutdownMu.RUnlock()

	s.inFlightReqs.Add(1)
	defer s.inFlightReqs.Done()

	startTime := time.Now()
	requestID := uuid.NewString()
	logger := s.logger.With().Str("request_id", requestID).Str("ip", s.getClientIP(r)).Logger()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read request body")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	req, rpcErr := rpc.ParseRequest(body)
	if rpcErr != nil {
		logger.Warn().Int("code", rpcErr.Code).Str("reason", rpcErr.Message).Msg("Rejected RPC envelope")
		s.writeResponse(w, &rpc.Response{JSONRPC: "2.0", Error: rpcErr, ID: requestIDFromRaw(body)})
		return
	}

	logger.Info().Str("method", req.Method).Msg("Received RPC request")

	resp := s.dispatcher.Dispatch(r.Context(), req)

	logger.Info().
		Str("method", req.Method).
		Bool("ok", resp.Error == nil).
		Int64("duration", time.Since(startTime).Milliseconds()).
		Msg("RPC request completed")

	s.writeResponse(w, resp)
}

// handleSchema serves the server identity plus all tool descriptors
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := SchemaResponse{
		Name:        s.options.Name,
		Description: s.options.Description,
		Version:     s.options.Version,
		Tools:       s.registry.Descriptors(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status":    "ok",
		"uptime":    time.Since(s.startTime).Seconds(),
		"toolCount": s.registry.Len(),
		"timestamp": time.Now().UnixMilli(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// writeResponse writes a JSON-RPC response. Protocol faults still travel in
// a 200 response; HTTP status codes are reserved for transport problems.
func (s *Server) writeResponse(w http.ResponseWriter, resp *rpc.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write RPC response")
	}
}

// getClientIP extracts the client IP from the request
func (s *Server) getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// requestIDFromRaw salvages the id field from an envelope that failed full
// parsing so the error response can still echo it.
func requestIDFromRaw(body []byte) json.RawMessage {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil
	}
	return probe.ID
}
