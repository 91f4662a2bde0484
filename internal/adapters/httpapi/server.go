// Package httpapi exposes the contact inbox over HTTP.
package httpapi

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/sheet-inbox/internal/adapters/export"
	"github.com/mikey/sheet-inbox/internal/core"
)

// Inbox is the service the API serves
type Inbox interface {
	Refresh(ctx context.Context) (*core.RefreshResult, error)
	List(query string) []core.ContactView
	Contact(phone string) (core.ContactView, error)
	SetChecked(phone string, checked bool) error
	Delete(phone string) error
	Restore(phone string) error
	ResetOverlay()
	DraftReply(ctx context.Context, phone string) (*core.ReplyDraft, error)
	Status() core.Status
}

// Options configures the server
type Options struct {
	ListenAddress string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	Username      string
	Password      string
	EditURL       string
	Location      *time.Location
}

// Server serves the inbox API
type Server struct {
	inbox  Inbox
	logger *zap.Logger
	opts   Options
	mux    *http.ServeMux

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewServer creates a new API server
func NewServer(inbox Inbox, logger *zap.Logger, opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	s := &Server{
		inbox:  inbox,
		logger: logger,
		opts:   opts,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/clients", s.handleList)
	s.mux.HandleFunc("GET /api/clients/{phone}", s.handleContact)
	s.mux.HandleFunc("PUT /api/clients/{phone}/checked", s.handleChecked)
	s.mux.HandleFunc("DELETE /api/clients/{phone}", s.handleDelete)
	s.mux.HandleFunc("POST /api/clients/{phone}/restore", s.handleRestore)
	s.mux.HandleFunc("GET /api/clients/{phone}/reply", s.handleReply)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	s.mux.HandleFunc("POST /api/overlay/reset", s.handleReset)
	s.mux.HandleFunc("GET /api/export.xlsx", s.handleExport)
}

// Handler returns the HTTP handler, behind basic auth when configured
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.opts.Username != "" && s.opts.Password != "" {
		h = s.basicAuth(h)
	}
	return h
}

// basicAuth guards everything but /health
func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, s.opts.Username) || !secureCompare(p, s.opts.Password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="sheet-inbox", charset="UTF-8"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.ListenAddress, err)
	}

	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		ErrorLog:     zap.NewStdLog(s.logger.Named("http")),
	}

	s.mu.Lock()
	s.server = srv
	s.listener = l
	s.mu.Unlock()

	s.logger.Info("Starting HTTP API", zap.String("address", l.Addr().String()))

	go func() {
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP API error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address once started
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP API")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP API: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	core.Status
	EditURL string `json:"edit_url,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: s.inbox.Status(), EditURL: s.opts.EditURL})
}

type listResponse struct {
	Clients []core.ContactView `json:"clients"`
	Count   int                `json:"count"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	clients := s.inbox.List(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, listResponse{Clients: clients, Count: len(clients)})
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	c, err := s.inbox.Contact(r.PathValue("phone"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type checkedRequest struct {
	Checked *bool `json:"checked"`
}

func (s *Server) handleChecked(w http.ResponseWriter, r *http.Request) {
	var req checkedRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil || req.Checked == nil {
		writeError(w, http.StatusBadRequest, `body must be {"checked": true|false}`)
		return
	}

	phone := r.PathValue("phone")
	if err := s.inbox.SetChecked(phone, *req.Checked); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.handleContact(w, r)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.inbox.Delete(r.PathValue("phone")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if err := s.inbox.Restore(r.PathValue("phone")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReply(w http.ResponseWriter, r *http.Request) {
	draft, err := s.inbox.DraftReply(r.Context(), r.PathValue("phone"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := s.inbox.Refresh(r.Context())
	if err != nil {
		s.logger.Warn("Manual refresh failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.inbox.ResetOverlay()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, s.inbox.List(r.URL.Query().Get("q")), s.opts.Location); err != nil {
		s.logger.Error("Failed to export contacts", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="clientes.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, core.ErrUnknownContact) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if errors.Is(err, context.Canceled) {
		writeError(w, http.StatusServiceUnavailable, "request canceled")
		return
	}
	s.logger.Error("Request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
