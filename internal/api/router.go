package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kalambet/loanbot/internal/catalog"
	"github.com/kalambet/loanbot/internal/chat"
	"github.com/kalambet/loanbot/internal/eligibility"
	"github.com/kalambet/loanbot/internal/profile"
)

const maxRequestBodySize = 1 << 20 // 1MB

// ChatService runs chat turns and exposes session history.
type ChatService interface {
	Respond(ctx context.Context, sessionID, message string) (reply, id string, err error)
	History(ctx context.Context, sessionID string) ([]chat.Turn, error)
	ClearSession(ctx context.Context, sessionID string) error
}

// DNAService synthesizes Loan DNA reports. It never fails.
type DNAService interface {
	Synthesize(ctx context.Context, in profile.Input) profile.Report
}

// Deps holds the core components the HTTP surface delegates to.
type Deps struct {
	Catalog     *catalog.Catalog
	Evaluator   *eligibility.Evaluator
	Chat        ChatService
	DNA         DNAService // optional; nil leaves /api/v1/dna unmounted
	CORSOrigins []string
}

// NewHandler returns the loanbot REST API.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	r.Use(middleware.StripSlashes)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs", http.StatusTemporaryRedirect)
	})
	r.Get("/docs", handleDocs)
	r.Get("/openapi.json", handleOpenAPI)
	r.Get("/health", handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/loans", handleListLoans(deps.Catalog))
		r.Get("/loans/{type}", handleGetLoan(deps.Catalog))
		r.Post("/eligibility", handleEligibility(deps.Evaluator))
		r.Post("/emi-calculator", handleEMI)
		r.Post("/chat", handleChat(deps.Chat))
		r.Get("/chat/{session_id}", handleChatHistory(deps.Chat))
		r.Delete("/chat/{session_id}", handleChatClear(deps.Chat))
		if deps.DNA != nil {
			r.Post("/dna", handleDNA(deps.DNA))
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpError(w, http.StatusNotFound, "not_found", "no route for %s %s", r.Method, r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpError(w, http.StatusMethodNotAllowed, "invalid_request_error", "method %s not allowed on %s", r.Method, r.URL.Path)
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		rid := middleware.GetReqID(r.Context())
		if rid == "" {
			rid = "N/A"
		}
		slog.Info("request",
			"rid", rid,
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", ww.Status(),
			"completed_in_ms", fmt.Sprintf("%.2f", float64(time.Since(start).Microseconds())/1000),
		)
	})
}

// recoverer turns panics into the generic 500 envelope.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.Error("panic serving request",
				"rid", middleware.GetReqID(r.Context()),
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			internalError(w)
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encoding response", "error", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}

func internalError(w http.ResponseWriter) {
	httpError(w, http.StatusInternalServerError, "api_error", "An internal server error occurred.")
}

// decodeBody reads a JSON body into dst and validates it. On failure it
// writes the error response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpError(w, http.StatusRequestEntityTooLarge, "invalid_request_error", "request body exceeds %d bytes", tooLarge.Limit)
			return false
		}
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		httpError(w, http.StatusUnprocessableEntity, "validation_error", "%s", validationMessage(err))
		return false
	}
	return true
}

func logInternal(r *http.Request, msg string, err error) {
	slog.Error(msg, "rid", middleware.GetReqID(r.Context()), "path", r.URL.Path, "error", err)
}
