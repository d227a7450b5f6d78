package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/standardbeagle/usersoap/internal/config"
	"github.com/standardbeagle/usersoap/internal/debug"
	"github.com/standardbeagle/usersoap/internal/service"
	"github.com/standardbeagle/usersoap/internal/soap"
	"github.com/standardbeagle/usersoap/internal/types"
	"github.com/standardbeagle/usersoap/internal/version"
)

// RootMessage is the informational text served at GET /
const RootMessage = "SOAP API Server - send requests with POST /soap"

// UserServer exposes the user service over HTTP
type UserServer struct {
	svc       *service.Service
	cfg       config.Server
	logger    *slog.Logger
	listener  net.Listener
	server    *http.Server
	startTime time.Time
	wg        sync.WaitGroup
	mu        sync.RWMutex
	running   bool
}

// NewUserServer creates a server for svc. Nothing listens until Start.
func NewUserServer(cfg config.Server, svc *service.Service, logger *slog.Logger) *UserServer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &UserServer{
		svc:       svc,
		cfg:       cfg,
		logger:    logger,
		startTime: time.Now(),
	}
}

// Handler returns the routed handler with access logging and the body limit
func (s *UserServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerHandlers(mux)
	return s.withAccessLog(s.withBodyLimit(mux))
}

// Start begins listening on the configured address
func (s *UserServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.ReadTimeout(),
		WriteTimeout:      s.cfg.WriteTimeout(),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	s.running = true
	s.logger.Info("server started", "addr", listener.Addr().String(), "backend", s.svc.Store().Backend())
	return nil
}

// Addr returns the address the server listens on, or "" before Start
func (s *UserServer) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *UserServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.wg.Wait()

	s.logger.Info("server shut down cleanly")
	return nil
}

// registerHandlers sets up the routes
func (s *UserServer) registerHandlers(mux *http.ServeMux) {
	mux.HandleFunc("POST /soap", s.handleSOAP)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /ping", s.handlePing)
	mux.HandleFunc("GET /status", s.handleStatus)
}

// handleSOAP interprets the payload, runs the operation and writes the
// envelope. Everything but a storage failure is a 200 response; unreadable
// or oversized bodies get a soap:Client fault, storage failures a 500 with a
// soap:Server fault.
func (s *UserServer) handleSOAP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeEnvelope(w, http.StatusOK,
				soap.Fault(soap.FaultClient, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)))
			return
		}
		writeEnvelope(w, http.StatusOK, soap.Fault(soap.FaultClient, "failed to read request body"))
		return
	}

	req := soap.Parse(string(body))
	debug.LogServer("POST /soap operation=%q (%d bytes)", req.Operation(), len(body))

	resp, err := s.svc.Dispatch(r.Context(), req)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "operation failed", "operation", req.Operation().String(), "error", err)
		writeEnvelope(w, http.StatusInternalServerError, soap.Fault(soap.FaultServer, "Internal storage error"))
		return
	}

	fragment, err := soap.Fragment(resp)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to render response", "operation", req.Operation().String(), "error", err)
		writeEnvelope(w, http.StatusInternalServerError, soap.Fault(soap.FaultServer, "Internal error"))
		return
	}

	writeEnvelope(w, http.StatusOK, soap.Wrap(fragment))
}

// handleRoot describes how to use the service
func (s *UserServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	ops := make([]string, 0, len(types.Operations))
	for _, op := range types.Operations {
		ops = append(ops, op.String())
	}
	writeJSON(w, http.StatusOK, RootResponse{Message: RootMessage, Operations: ops})
}

// handlePing responds to health check requests
func (s *UserServer) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PingResponse{
		Uptime:  time.Since(s.startTime).Seconds(),
		Version: version.Version,
	})
}

// handleStatus reports whether the store can be read
func (s *UserServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, StatusResponse{
			Backend: s.svc.Store().Backend(),
			Error:   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Ready:     true,
		UserCount: stats.UserCount,
		Backend:   stats.Backend,
		Revision:  stats.Revision,
	})
}

func (s *UserServer) withBodyLimit(next http.Handler) http.Handler {
	limit := s.cfg.MaxBodyBytes
	if limit <= 0 {
		limit = config.DefaultMaxBodyBytes
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code for the access log
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *UserServer) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.LogAttrs(r.Context(), slog.LevelInfo, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func writeEnvelope(w http.ResponseWriter, status int, envelope string) {
	w.Header().Set("Content-Type", soap.ContentType)
	w.WriteHeader(status)
	_, _ = io.WriteString(w, envelope)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
