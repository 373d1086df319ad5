package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"variantshare/internal/api"
	"variantshare/internal/artifact"
	"variantshare/internal/config"
	"variantshare/internal/dispatch"
	"variantshare/internal/document"
	"variantshare/internal/logging"
	"variantshare/internal/services"
	"variantshare/internal/userdb"
	"variantshare/internal/variant"
)

const maxVariantBytes = 8 << 20

type apiServer struct {
	bind        string
	logger      *slog.Logger
	daemon      *Daemon
	limiter     *rate.Limiter
	translated  bool
	handler     http.Handler
	server      *http.Server
	listenerMu  sync.Mutex
	listener    net.Listener
	writeBudget time.Duration
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:       strings.TrimSpace(cfg.Paths.APIBind),
		logger:     logging.NewComponentLogger(logger, "api-server"),
		daemon:     d,
		limiter:    sendLimiter(cfg.API.SendPerMinute, cfg.API.SendBurst),
		translated: cfg.Export.TranslatedDefault,
	}

	sessions := http.NewServeMux()
	sessions.HandleFunc("/api/sessions", srv.handleSessions)
	sessions.HandleFunc("/api/sessions/{id}", srv.handleSession)
	sessions.HandleFunc("/api/sessions/{id}/generate", srv.handleGenerate)
	sessions.HandleFunc("/api/sessions/{id}/cancel", srv.handleCancel)
	sessions.HandleFunc("/api/sessions/{id}/send", srv.handleSend)
	sessions.HandleFunc("/api/sessions/{id}/artifact", srv.handleArtifact)
	sessions.HandleFunc("/api/previews/{token}", srv.handlePreview)
	sessions.HandleFunc("/api/", srv.handleNotFound)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/userinDB", srv.handleUserLookup)
	mux.Handle("/api/", authMiddleware(strings.TrimSpace(cfg.Paths.APIToken), sessions))
	mux.HandleFunc("/", srv.handleNotFound)
	srv.handler = srv.recoverMiddleware(srv.requestIDMiddleware(mux))

	// Generation runs inside the request, so the write deadline must cover
	// the record fetch plus remote rendering.
	srv.writeBudget = cfg.SearchTimeout() + cfg.DocGenTimeout() + 15*time.Second
	srv.server = &http.Server{
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      srv.writeBudget,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func sendLimiter(perMinute, burst int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60), burst)
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api bind address is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listenerMu.Lock()
	s.listener = listener
	s.listenerMu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) address() string {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

func (s *apiServer) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

func (s *apiServer) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logging.WithContext(r.Context(), s.logger).Error("handler panic",
					logging.String("path", r.URL.Path),
					logging.Any("panic", rec),
				)
				s.writeJSON(w, http.StatusInternalServerError, api.Message("internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, api.HealthResponse{Message: "ok"})
}

func (s *apiServer) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	s.writeError(w, http.StatusNotFound, "not found")
}

func (s *apiServer) handleUserLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	raw := strings.TrimSpace(r.URL.Query().Get("email"))
	if raw == "" {
		s.writeError(w, http.StatusBadRequest, "email query parameter is required")
		return
	}
	email, err := userdb.NormalizeEmail(raw)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	user, err := s.daemon.users.FindByEmail(r.Context(), email)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if user == nil {
		s.writeError(w, http.StatusNotFound, "user not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.UserResponse{Data: api.FromUser(user)})
}

func (s *apiServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var filter artifact.State
		if raw := r.URL.Query().Get("state"); raw != "" {
			state, ok := artifact.ParseState(raw)
			if !ok {
				s.writeError(w, http.StatusBadRequest, "unknown state "+raw)
				return
			}
			filter = state
		}
		list := s.daemon.sessions.list()
		resp := api.SessionListResponse{Sessions: make([]api.Session, 0, len(list))}
		for _, sess := range list {
			if filter != "" && sess.manager.State() != filter {
				continue
			}
			resp.Sessions = append(resp.Sessions, sess.view())
		}
		s.writeJSON(w, http.StatusOK, resp)
	case http.MethodPost:
		v, err := variant.Decode(http.MaxBytesReader(w, r.Body, maxVariantBytes))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		id, err := s.daemon.OpenSession(v)
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}
		sess, _ := s.daemon.sessions.get(id)
		w.Header().Set("Location", "/api/sessions/"+id)
		s.writeJSON(w, http.StatusCreated, sess.view())
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, sess.view())
	case http.MethodDelete:
		s.daemon.CloseSession(sess.id)
		w.WriteHeader(http.StatusNoContent)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var req api.GenerateRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	format, err := document.ParseFormat(req.Format)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	mode, err := s.parseMode(req.Mode)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// A disconnecting client must not abort the remote call; the manager
	// still records the outcome.
	ctx := services.WithSessionID(context.WithoutCancel(r.Context()), sess.id)
	if _, err := sess.manager.Generate(ctx, format, mode); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.view())
}

func (s *apiServer) parseMode(raw string) (document.Mode, error) {
	if strings.TrimSpace(raw) == "" && s.translated {
		return document.ModeTranslated, nil
	}
	return document.ParseMode(raw)
}

func (s *apiServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	if err := sess.manager.Cancel(); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.view())
}

func (s *apiServer) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var req api.SendRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Only sends that can reach the transport spend a token.
	if sess.manager.State() != artifact.StatePreviewable {
		s.writeFailure(w, r, artifact.ErrNotPreviewable)
		return
	}
	if !s.limiter.Allow() {
		w.Header().Set("Retry-After", "60")
		s.writeError(w, http.StatusTooManyRequests, "send rate limit exceeded")
		return
	}
	ctx := services.WithSessionID(r.Context(), sess.id)
	err := sess.manager.Send(ctx, dispatch.Request{
		To:      req.To,
		CC:      req.CC,
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.view())
}

func (s *apiServer) handleArtifact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	a, err := sess.manager.Artifact()
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeArtifact(w, a, "attachment")
}

func (s *apiServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	handle, ok := s.daemon.previews.Lookup(r.PathValue("token"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "preview not found")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeArtifact(w, handle.Artifact(), "inline")
}

func writeArtifact(w http.ResponseWriter, a *document.Artifact, disposition string) {
	w.Header().Set("Content-Type", a.MIME)
	w.Header().Set("Content-Length", strconv.Itoa(a.Size()))
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, a.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Data)
}

func (s *apiServer) lookupSession(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, ok := s.daemon.sessions.get(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// statusFor maps lifecycle, build, dispatch and service errors to HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, artifact.ErrBusy), errors.Is(err, artifact.ErrNotPreviewable):
		return http.StatusConflict
	case errors.Is(err, artifact.ErrClosed):
		return http.StatusGone
	}
	switch services.Kind(err) {
	case "validation":
		return http.StatusBadRequest
	case "unauthorized":
		return http.StatusUnauthorized
	case "not_found":
		return http.StatusNotFound
	case "build":
		return http.StatusUnprocessableEntity
	case "external":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := logging.WithContext(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		logger.Warn("request failed", logging.String("path", r.URL.Path), logging.Int("status", status), logging.Error(err))
	} else {
		logger.Debug("request rejected", logging.String("path", r.URL.Path), logging.Int("status", status), logging.Error(err))
	}
	s.writeJSON(w, status, api.NewError(err))
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.Message(message))
}
