// Evaluation handlers for the frontend-facing read endpoints:
// is-enabled/get-variant/resolve/resolve-all against the live engine state.
//
// Each has a GET form (context assembled from query parameters, convenient
// for curl and simple SDKs) and is-enabled/get-variant/resolve additionally
// accept a POST body of {"context": ContextDTO} for callers with a context
// too wide for a query string.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ygg-project/yggcore/internal/ctx"
)

type evaluateRequest struct {
	Context ContextDTO `json:"context"`
}

// resolveContext reads the evaluation context from the request body for a
// POST, or from query parameters for any other method.
func resolveContext(r *http.Request) (ctx.Context, error) {
	if r.Method != http.MethodPost {
		return contextFromQuery(r), nil
	}
	if r.ContentLength == 0 {
		return contextFromQuery(r), nil
	}
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ctx.Context{}, err
	}
	return contextFromDTO(req.Context), nil
}

func (s *Server) handleIsEnabled(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	c, err := resolveContext(r)
	if err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "Invalid JSON: "+err.Error())
		return
	}

	enabled := s.engine.IsEnabled(name, c)
	writeJSON(w, http.StatusOK, isEnabledResponse{Name: name, Enabled: enabled})
}

func (s *Server) handleGetVariant(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	c, err := resolveContext(r)
	if err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "Invalid JSON: "+err.Error())
		return
	}

	v := s.engine.GetVariant(name, c)
	writeJSON(w, http.StatusOK, variantResponse{Name: name, Variant: toVariantView(v)})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	c, err := resolveContext(r)
	if err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "Invalid JSON: "+err.Error())
		return
	}

	resolved, ok := s.engine.Resolve(name, c)
	if !ok {
		NotFoundError(w, r, "Toggle '"+name+"' not found")
		return
	}
	writeJSON(w, http.StatusOK, toResolvedView(resolved))
}

func (s *Server) handleResolveAll(w http.ResponseWriter, r *http.Request) {
	c := contextFromQuery(r)

	all := s.engine.ResolveAll(c)
	out := make(map[string]resolvedView, len(all))
	for name, resolved := range all {
		out[name] = toResolvedView(resolved)
	}
	writeJSON(w, http.StatusOK, resolveAllResponse{Toggles: out})
}
