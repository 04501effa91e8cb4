// Package server exposes the translation endpoint over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"
	"golang.org/x/text/encoding/charmap"

	"github.com/valpere/deeplserver/internal"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 3001

	// maxErrorRunes bounds how much provider error text reaches clients.
	maxErrorRunes = 100

	shutdownTimeout = 5 * time.Second
)

const (
	msgMissingParams = "Missing required parameters: from, to, text"
	msgNotFound      = "Not Found"
	msgNotAllowed    = "Method Not Allowed"
	msgGenericError  = "Translation error: Internal server error"
)

// Translator produces the response payload for a validated request.
type Translator interface {
	Translate(ctx context.Context, req internal.TranslationRequest) (*internal.TranslationResult, error)
}

type Server struct {
	translator Translator
	logger     *slog.Logger
	httpServer *http.Server
}

func New(addr string, t Translator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{translator: t, logger: logger}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
	return s
}

// Handler returns the routed handler wrapped in CORS and request logging.
func (s *Server) Handler() http.Handler {
	var h http.Handler = http.HandlerFunc(s.route)
	h = allowAnyOrigin(h)
	h = cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}).Handler(h)
	return s.logRequests(h)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("translation server running", "url", "http://"+ln.Addr().String(), "endpoint", "/api/translate")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, msgNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/health":
		s.handleHealth(w, r)
	case "/api/translate":
		s.handleTranslate(w, r)
	default:
		writeError(w, http.StatusNotFound, msgNotFound)
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "alive", Message: "Server is running"})
}

// GET /api/translate?engine=deepl&from=en&to=ru&text=hello
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req := internal.TranslationRequest{
		Engine:     internal.ParseEngine(query.Get("engine")),
		SourceLang: query.Get("from"),
		TargetLang: query.Get("to"),
		Text:       query.Get("text"),
	}
	if req.SourceLang == "" || req.TargetLang == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, msgMissingParams)
		return
	}

	result, err := s.translator.Translate(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, translationErrorMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// translationErrorMessage truncates err to maxErrorRunes characters and
// falls back to a generic message when the text is not representable in
// ISO-8859-1.
func translationErrorMessage(err error) string {
	detail := []rune(err.Error())
	if len(detail) > maxErrorRunes {
		detail = detail[:maxErrorRunes]
	}
	msg := fmt.Sprintf("Translation error: %s...", string(detail))
	if _, encErr := charmap.ISO8859_1.NewEncoder().String(msg); encErr != nil {
		return msgGenericError
	}
	return msg
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
