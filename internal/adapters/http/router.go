package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mpetrenko/doc-enrichment/internal/core/domain"
	"github.com/mpetrenko/doc-enrichment/internal/core/ports"
	"github.com/mpetrenko/doc-enrichment/internal/observability/metrics"
)

const maxUploadBytes = 64 << 20

type Router struct {
	ingest   ports.DocumentIngestor
	enricher ports.DocumentEnricher
	manager  ports.DocumentManager
	cfg      TrafficConfig
	metrics  *metrics.HTTPMetrics
}

// TrafficConfig tunes the rate-limit and backpressure middleware.
type TrafficConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	MaxQueueWait   time.Duration
}

func NewRouter(
	ingest ports.DocumentIngestor,
	enricher ports.DocumentEnricher,
	manager ports.DocumentManager,
	cfg TrafficConfig,
	httpMetrics *metrics.HTTPMetrics,
) *Router {
	if cfg.MaxQueueWait <= 0 {
		cfg.MaxQueueWait = 2 * time.Second
	}
	return &Router{
		ingest:   ingest,
		enricher: enricher,
		manager:  manager,
		cfg:      cfg,
		metrics:  httpMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.documents)
	mux.HandleFunc("/v1/documents/", rt.documentByID)

	var handler http.Handler = mux
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	handler = backpressureMiddleware(handler, rt.cfg.MaxInFlight, rt.cfg.MaxQueueWait)
	handler = rt.metricsMiddleware(handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) documents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.uploadDocument(w, r)
	case http.MethodGet:
		rt.listDocuments(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	hints := ports.UploadHints{
		DocumentType:       r.FormValue("document_type"),
		AssignedDepartment: r.FormValue("assigned_department"),
	}

	doc, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		hints,
		file,
	)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := rt.manager.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (rt *Router) documentByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if rest == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	if id, ok := strings.CutSuffix(rest, "/process"); ok {
		rt.processDocument(w, r, strings.TrimSuffix(id, "/"))
		return
	}
	if strings.Contains(rest, "/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown route"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		rt.getDocument(w, r, rest)
	case http.MethodPatch:
		rt.patchDocument(w, r, rest)
	case http.MethodDelete:
		rt.deleteDocument(w, r, rest)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := rt.manager.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) patchDocument(w http.ResponseWriter, r *http.Request, id string) {
	var patch domain.DocumentPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	doc, err := rt.manager.Update(r.Context(), id, patch)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request, id string) {
	if err := rt.manager.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "document deleted"})
}

// processDocument is the manual synchronous re-process trigger.
func (rt *Router) processDocument(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.enricher.ProcessByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) metricsMiddleware(next http.Handler) http.Handler {
	if rt.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rt.metrics.RequestStarted()
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(recorder, r)

		rt.metrics.RequestFinished()
		rt.metrics.Observe(r.Method, routePattern(r.URL.Path), recorder.statusCode, time.Since(start))
	})
}

// routePattern collapses ids so metrics cardinality stays bounded.
func routePattern(path string) string {
	if path == "/v1/documents" || path == "/healthz" {
		return path
	}
	if strings.HasPrefix(path, "/v1/documents/") {
		if strings.HasSuffix(path, "/process") {
			return "/v1/documents/{id}/process"
		}
		return "/v1/documents/{id}"
	}
	return "other"
}

func respondError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
