// Package rest provides the HTTP surface of the gateway: the synchronous
// invocation binding, discovery endpoints, and the mounted streaming
// binding. All paths except the liveness root sit behind the auth gate.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/FreePeak/db-mcp-gateway/internal/domain"
	"github.com/FreePeak/db-mcp-gateway/internal/infrastructure/logging"
	"github.com/FreePeak/db-mcp-gateway/internal/infrastructure/server"
	"github.com/FreePeak/db-mcp-gateway/internal/usecases"
)

// Server is the HTTP server hosting both transport bindings.
type Server struct {
	service    *usecases.GatewayService
	sse        *server.SSEServer
	httpServer *http.Server
	logger     *logging.Logger
}

// NewServer wires the gateway core to its HTTP surface.
func NewServer(service *usecases.GatewayService, registry *server.SessionRegistry, authToken, addr string, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Default()
	}

	s := &Server{
		service: service,
		logger:  logger,
	}

	s.sse = server.NewSSEServer(registry, service.HandleMessage,
		server.WithMessageEndpoint("/stream-post"),
		server.WithLogger(logger),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleBanner)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/tools", s.handleListTools)
	mux.HandleFunc("POST /api/tools/{name}/execute", s.handleExecute)
	mux.HandleFunc("GET /stream", s.sse.HandleSSE)
	mux.HandleFunc("POST /stream-post", s.sse.HandleMessage)
	mux.HandleFunc("/", s.handleNotFound)

	gate := NewAuthGate(authToken, logger)
	handler := gate.Wrap(s.recovered(mux))
	handler = cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(handler)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	return s
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	name, version := s.service.ServerInfo()
	s.logger.Info("starting gateway", logging.Fields{
		"name":    name,
		"version": version,
		"addr":    s.httpServer.Addr,
	})
	return s.httpServer.ListenAndServe()
}

// Stop closes all streaming sessions and shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	s.sse.Shutdown()
	return s.httpServer.Shutdown(ctx)
}

// recovered converts a panic escaping any handler into a generic 500
// without leaking internal state to the caller.
func (s *Server) recovered(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic in request handler", logging.Fields{
					"path":  r.URL.Path,
					"panic": fmt.Sprint(rec),
				})
				server.WriteError(w, domain.NewSetupError("internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleBanner(w http.ResponseWriter, r *http.Request) {
	name, version := s.service.ServerInfo()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%s v%s\n", name, version)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	name, version := s.service.ServerInfo()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"name":    name,
		"version": version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	tools := s.service.ListTools()

	toolList := make([]map[string]interface{}, len(tools))
	for i, tool := range tools {
		toolList[i] = map[string]interface{}{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": tool.InputSchema,
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tools": toolList})
}

// handleExecute is the synchronous binding: one request, one pipeline
// run, one reply. No session is involved.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		server.WriteError(w, domain.NewInvalidInputError([]domain.FieldViolation{
			{Field: "", Message: "reading request body: " + err.Error()},
		}))
		return
	}

	var args map[string]interface{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &args); err != nil {
			server.WriteError(w, domain.NewInvalidInputError([]domain.FieldViolation{
				{Field: "", Message: "request body is not a JSON object"},
			}))
			return
		}
	}

	result, err := s.service.ExecuteTool(r.Context(), name, args)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"result": result})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	server.WriteError(w, domain.NewRouteNotFoundError(r.URL.Path))
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
