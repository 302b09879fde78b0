package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/ygg-project/yggcore/internal/auth"
	"github.com/ygg-project/yggcore/internal/engine"
	"github.com/ygg-project/yggcore/internal/impactmetrics"
	"github.com/ygg-project/yggcore/internal/model"
	"github.com/ygg-project/yggcore/internal/snapshot"
	"github.com/ygg-project/yggcore/internal/store"
	"github.com/ygg-project/yggcore/internal/telemetry"
	"github.com/ygg-project/yggcore/internal/validation"
)

// maxFeaturesBodySize bounds the size of an uploaded features document.
const maxFeaturesBodySize = 5 << 20 // 5 MiB

// Server is the HTTP driver around a Store, an engine State and the ambient
// auth/metrics stack.
type Server struct {
	store       store.Store
	environment string
	engine      *engine.State
	auth        *auth.Authenticator
	keyStore    *auth.MemoryKeyStore
	auditLogger *auth.MemoryAuditLogger
	metrics     *impactmetrics.Registry
}

// NewServer wires a Store to the shared engine state and ambient auth/metrics.
func NewServer(s store.Store, environment, legacyAdminKey string) *Server {
	keyStore := auth.NewMemoryKeyStore()
	authenticator := auth.NewAuthenticator(keyStore, legacyAdminKey)

	return &Server{
		store:       s,
		environment: environment,
		engine:      snapshot.State(),
		auth:        authenticator,
		keyStore:    keyStore,
		auditLogger: auth.NewMemoryAuditLogger(),
		metrics:     impactmetrics.NewRegistry(),
	}
}

// Close releases the authenticator's background worker.
func (s *Server) Close() error {
	return s.auth.Close()
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(telemetry.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-None-Match"},
		ExposedHeaders:   []string{"ETag"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))
		r.Use(httprate.LimitByIP(100, time.Minute))

		r.Get("/healthz", s.handleHealth)
		r.Get("/metrics", promhttp.Handler().ServeHTTP)

		r.Get("/v1/client/features", s.handleFeatures)

		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(300, time.Minute))
			r.Get("/v1/frontend/is-enabled/{name}", s.handleIsEnabled)
			r.Post("/v1/frontend/is-enabled/{name}", s.handleIsEnabled)
			r.Get("/v1/frontend/variant/{name}", s.handleGetVariant)
			r.Post("/v1/frontend/variant/{name}", s.handleGetVariant)
			r.Get("/v1/frontend/resolve/{name}", s.handleResolve)
			r.Post("/v1/frontend/resolve/{name}", s.handleResolve)
			r.Get("/v1/frontend/resolve-all", s.handleResolveAll)
		})

		r.Route("/v1/admin/features", func(r chi.Router) {
			r.Use(s.auth.RequireAuth(auth.RoleAdmin))
			r.Post("/{env}", s.handlePushFeatures)
			r.Get("/{env}", s.handleGetFeatures)
		})
		r.With(s.auth.RequireAuth(auth.RoleReadonly)).Get("/v1/admin/environments", s.handleListEnvironments)

		r.Route("/v1/admin/keys", func(r chi.Router) {
			r.Use(s.auth.RequireAuth(auth.RoleSuperadmin))
			r.Post("/", s.handleCreateAPIKey)
			r.Get("/", s.handleListAPIKeys)
			r.Delete("/{id}", s.handleRevokeAPIKey)
		})

		r.With(s.auth.RequireAuth(auth.RoleAdmin)).Get("/v1/admin/audit-logs", s.handleListAuditLogs)
		r.With(s.auth.RequireAuth(auth.RoleAdmin)).Get("/v1/admin/metrics", telemetry.ImpactMetricsHandler(s.metrics))
	})

	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(30, time.Minute))
		r.Get("/v1/client/stream", s.handleStream)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleFeatures(w http.ResponseWriter, req *http.Request) {
	snap := snapshot.Load()
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("ETag", snap.ETag)

	if inm := req.Header.Get("If-None-Match"); inm != "" && inm == snap.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	updates, unsubscribe := snapshot.Subscribe()
	defer unsubscribe()

	telemetry.SSEClients.Inc()
	defer telemetry.SSEClients.Dec()

	snap := snapshot.Load()
	writeSSE(w, "init", map[string]string{"etag": snap.ETag})
	flusher.Flush()

	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case etag, ok := <-updates:
			if !ok {
				return
			}
			writeSSE(w, "update", map[string]string{"etag": etag})
			flusher.Flush()

		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()

		case <-ctx.Done():
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		dataJSON = []byte(`{"error":"marshal failed"}`)
	}
	w.Write([]byte("event: " + event + "\n"))
	w.Write([]byte("data: "))
	w.Write(dataJSON)
	w.Write([]byte("\n\n"))
}

// handlePushFeatures stores a new features document for {env} and installs
// it into the shared engine state, harvesting the prior state's metrics
// into s.metrics as a counter labeled by toggle and outcome (yes/no) before
// it is lost; the prior state's variant counts are not carried over.
func (s *Server) handlePushFeatures(w http.ResponseWriter, r *http.Request) {
	env := strings.TrimSpace(chi.URLParam(r, "env"))
	if env == "" {
		env = s.environment
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFeaturesBodySize)
	defer r.Body.Close()

	var features model.ClientFeatures
	if err := json.NewDecoder(r.Body).Decode(&features); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "Invalid JSON: "+err.Error())
		return
	}

	if result := validation.ValidateFeatures(env, features); !result.Valid {
		BadRequestError(w, r, ErrCodeValidation, formatValidationErrors(result))
		return
	}

	if err := s.store.PutFeatures(r.Context(), env, features); err != nil {
		InternalError(w, r, "Failed to persist features")
		return
	}

	bucket, err := snapshot.Update(features)
	if err != nil {
		InternalError(w, r, "Failed to compile features: "+err.Error())
		return
	}
	harvestIntoRegistry(s.metrics, bucket)
	telemetry.SnapshotToggles.Set(float64(len(features.Features)))

	s.auditLog(r, "features.push", "features:"+env, http.StatusOK)

	snap := snapshot.Load()
	writeJSON(w, http.StatusOK, featuresPushResponse{OK: true, ETag: snap.ETag, Count: len(features.Features)})
}

func (s *Server) handleGetFeatures(w http.ResponseWriter, r *http.Request) {
	env := strings.TrimSpace(chi.URLParam(r, "env"))
	features, err := s.store.GetFeatures(r.Context(), env)
	if err != nil {
		InternalError(w, r, "Failed to load features")
		return
	}
	writeJSON(w, http.StatusOK, features)
}

func (s *Server) handleListEnvironments(w http.ResponseWriter, r *http.Request) {
	envs, err := s.store.ListEnvironments(r.Context())
	if err != nil {
		InternalError(w, r, "Failed to list environments")
		return
	}
	writeJSON(w, http.StatusOK, environmentsResponse{Environments: envs})
}

// harvestIntoRegistry folds an engine metric bucket into the impact-metrics
// registry so it rides the same /v1/admin/metrics exposition as
// caller-defined counters.
func harvestIntoRegistry(registry *impactmetrics.Registry, bucket *model.MetricBucket) {
	if bucket == nil {
		return
	}
	registry.DefineCounter("toggle_checks_total", "Total enabled/disabled evaluations per toggle")
	for name, stats := range bucket.Toggles {
		registry.IncCounterWithLabels("toggle_checks_total", int64(stats.Yes), impactmetrics.Labels{"toggle": name, "outcome": "yes"})
		registry.IncCounterWithLabels("toggle_checks_total", int64(stats.No), impactmetrics.Labels{"toggle": name, "outcome": "no"})
	}
}

func (s *Server) auditLog(r *http.Request, action, resource string, status int) {
	apiKeyID, _ := auth.GetAPIKeyIDFromContext(r.Context())
	if err := s.auditLogger.CreateAuditLog(r.Context(), apiKeyID, action, resource, auth.GetIPAddress(r), r.UserAgent(), status, nil); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("audit log write failed")
	}
}

// ---- API key management ----

type createKeyRequest struct {
	Role      string     `json:"role"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type createKeyResponse struct {
	ID  uuid.UUID `json:"id"`
	Key string    `json:"key"`
}

func (s *Server) handleCreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "Invalid JSON: "+err.Error())
		return
	}
	if !auth.ValidateRole(req.Role) {
		ValidationError(w, r, "Invalid role", map[string]string{"role": "must be one of readonly, admin, superadmin"})
		return
	}

	key, err := auth.GenerateAPIKey()
	if err != nil {
		InternalError(w, r, "Failed to generate key")
		return
	}
	hash, err := auth.HashAPIKey(key)
	if err != nil {
		InternalError(w, r, "Failed to hash key")
		return
	}

	id := s.keyStore.CreateKey(auth.Role(req.Role), hash, req.ExpiresAt)
	s.auditLog(r, "keys.create", id.String(), http.StatusCreated)

	writeJSON(w, http.StatusCreated, createKeyResponse{ID: id, Key: key})
}

func (s *Server) handleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.keyStore.ListAPIKeys(r.Context())
	if err != nil {
		InternalError(w, r, "Failed to list keys")
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

func (s *Server) handleRevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		BadRequestError(w, r, ErrCodeInvalidKey, "Invalid key id")
		return
	}
	if !s.keyStore.RevokeKey(id) {
		NotFoundError(w, r, "Key not found")
		return
	}
	s.auditLog(r, "keys.revoke", idParam, http.StatusOK)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.auditLogger.Entries())
}
