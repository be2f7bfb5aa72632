// Package server exposes the email pipeline over HTTP.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spigell/coldmail/internal/jobs"
	"github.com/spigell/coldmail/internal/pipeline"
	"go.uber.org/zap"
)

//go:embed static/index.html
var static embed.FS

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

type emailComposer interface {
	ComposeForJob(ctx context.Context, posting jobs.Posting) (*pipeline.Result, error)
}

// GenerateRequest is the body of POST /generate-email. Skills is a comma separated list.
type GenerateRequest struct {
	Role        string `json:"role" validate:"required"`
	Experience  string `json:"experience"`
	Skills      string `json:"skills" validate:"required"`
	Description string `json:"description"`
}

type Server struct {
	composer emailComposer
	logger   *zap.Logger
	validate *validator.Validate
}

func New(composer emailComposer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		composer: composer,
		logger:   logger,
		validate: validator.New(),
	}
}

// Handler returns the routed handler wrapped with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /generate-email", s.handleGenerateEmail)

	return s.logRequests(mux)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Info("shutting down http server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerateEmail(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	req.Role = strings.TrimSpace(req.Role)
	req.Skills = strings.TrimSpace(req.Skills)

	if err := s.validate.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	posting := jobs.Posting{
		Role:        req.Role,
		Experience:  strings.TrimSpace(req.Experience),
		Skills:      jobs.SplitSkills(req.Skills),
		Description: strings.TrimSpace(req.Description),
	}

	result, err := s.composer.ComposeForJob(r.Context(), posting)
	if err != nil {
		s.logger.Error("generating email", zap.String("role", posting.Role), zap.Error(err))
		errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"email": result.Email})
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	missing := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		missing = append(missing, strings.ToLower(fe.Field()))
	}

	return "missing required fields: " + strings.Join(missing, ", ")
}

func jsonResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
