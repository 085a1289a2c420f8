package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/internal/generation"
	"github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/internal/store"
	"github.com/AI-gora-Boostcamp-AI-Tech-8-NLP-02/PTMT-Backend/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Create(ctx context.Context, c types.Curriculum) (types.Curriculum, error)
	Generate(ctx context.Context, id string) error
	Status(ctx context.Context, id string) (types.GenerationStatusResponse, error)
	Graph(ctx context.Context, id string) (types.GraphResponse, error)
	QueueStatus(taskID, taskType string) types.QueueStatusResponse
	Ready() bool
}

// CreateCurriculumRequest is the body of POST /curriculums.
type CreateCurriculumRequest struct {
	Title      string   `json:"title"`
	PaperTitle string   `json:"paper_title,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	// Optional initial status; defaults to options_saved so the record is
	// immediately generatable.
	Status types.CurriculumStatus `json:"status,omitempty"`
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Post("/curriculums", func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req CreateCurriculumRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		status := req.Status
		if status == "" {
			status = types.StatusOptionsSaved
		}
		cur, err := svc.Create(r.Context(), types.Curriculum{
			Title:      req.Title,
			PaperTitle: req.PaperTitle,
			Keywords:   req.Keywords,
			Status:     status,
		})
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(cur)
	})

	r.Post("/curriculums/{id}/generate", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		start := time.Now()
		lvl := requestLogLevel(r)
		// Join server base context with request context so shutdown cancels
		// the synchronous part too; the generation job itself is detached.
		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		err := svc.Generate(joinedCtx, id)
		status := http.StatusAccepted
		switch {
		case err == nil:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(types.GenerationStartResponse{
				CurriculumID: id,
				Status:       string(types.StatusGenerating),
			})
		case store.IsNotFound(err):
			status = http.StatusNotFound
			writeJSONError(w, status, err.Error())
		case generation.IsInvalidState(err):
			status = http.StatusConflict
			writeJSONError(w, status, err.Error())
		case generation.IsQueueFull(err):
			status = http.StatusTooManyRequests
			IncrementBackpressure("generation_queue")
			writeJSONError(w, status, err.Error())
		default:
			if he, ok := err.(HTTPError); ok {
				status = he.StatusCode()
			} else {
				status = http.StatusInternalServerError
			}
			writeJSONError(w, status, err.Error())
		}
		if lvl >= LevelInfo && zlog != nil {
			z := zlog.Info().Str("curriculum_id", id).Int("status", status).Dur("dur", time.Since(start))
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Msg("generate")
		}
	})

	r.Get("/curriculums/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		resp, err := svc.Status(r.Context(), id)
		if err != nil {
			if store.IsNotFound(err) {
				writeJSONError(w, http.StatusNotFound, err.Error())
				return
			}
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
		}
	})

	r.Get("/curriculums/{id}/graph", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		resp, err := svc.Graph(r.Context(), id)
		if err != nil {
			switch {
			case store.IsNotFound(err):
				writeJSONError(w, http.StatusNotFound, err.Error())
			case generation.IsNotReady(err):
				writeJSONError(w, http.StatusConflict, err.Error())
			default:
				writeJSONError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
		}
	})

	r.Get("/queue-status", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		resp := svc.QueueStatus(q.Get("task_id"), q.Get("task_type"))
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("starting"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	// Swagger UI (enabled with -tags=swagger)
	MountSwagger(r)

	return r
}
