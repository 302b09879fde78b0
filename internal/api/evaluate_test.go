package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ygg-project/yggcore/internal/model"
)

func pushTestFeatures(t *testing.T, srv *Server, features model.ClientFeatures) {
	t.Helper()
	handler := srv.Router()
	body, err := json.Marshal(features)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/features/default", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer admin-key")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestHandleIsEnabled_SimpleToggle(t *testing.T) {
	srv, _ := newTestServer(t)
	pushTestFeatures(t, srv, model.ClientFeatures{
		Version:  2,
		Features: []model.Toggle{{Name: "enabled-toggle", Enabled: true}},
	})
	handler := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/v1/frontend/is-enabled/enabled-toggle?userId=user-1", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp isEnabledResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.True(t, resp.Enabled)
	require.Equal(t, "enabled-toggle", resp.Name)
}

func TestHandleIsEnabled_DisabledToggle(t *testing.T) {
	srv, _ := newTestServer(t)
	pushTestFeatures(t, srv, model.ClientFeatures{
		Version:  2,
		Features: []model.Toggle{{Name: "disabled-toggle", Enabled: false}},
	})
	handler := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/v1/frontend/is-enabled/disabled-toggle?userId=user-1", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp isEnabledResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.False(t, resp.Enabled)
}

func TestHandleIsEnabled_UnknownToggleIsDisabled(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/v1/frontend/is-enabled/missing?userId=user-1", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp isEnabledResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.False(t, resp.Enabled)
}

func TestHandleIsEnabled_POSTWithJSONContext(t *testing.T) {
	srv, _ := newTestServer(t)
	pushTestFeatures(t, srv, model.ClientFeatures{
		Version:  2,
		Features: []model.Toggle{{Name: "json-toggle", Enabled: true}},
	})
	handler := srv.Router()

	body := `{"context":{"userId":"user-1","properties":{"country":"no"}}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/frontend/is-enabled/json-toggle", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp isEnabledResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.True(t, resp.Enabled)
}

func TestHandleIsEnabled_InvalidJSONBody(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/v1/frontend/is-enabled/any", bytes.NewBufferString("not json"))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleGetVariant_ResolvesDisabledWhenNoVariants(t *testing.T) {
	srv, _ := newTestServer(t)
	pushTestFeatures(t, srv, model.ClientFeatures{
		Version:  2,
		Features: []model.Toggle{{Name: "no-variants", Enabled: true}},
	})
	handler := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/v1/frontend/variant/no-variants?userId=user-1", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp variantResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Equal(t, "disabled", resp.Variant.Name)
}

func TestHandleGetVariant_ResolvesConfiguredVariant(t *testing.T) {
	srv, _ := newTestServer(t)
	pushTestFeatures(t, srv, model.ClientFeatures{
		Version: 2,
		Features: []model.Toggle{{
			Name:    "variant-toggle",
			Enabled: true,
			Variants: []model.Variant{
				{Name: "only", Weight: 1000, Stickiness: "default"},
			},
		}},
	})
	handler := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/v1/frontend/variant/variant-toggle?userId=user-1", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp variantResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Equal(t, "only", resp.Variant.Name)
	require.True(t, resp.Variant.Enabled)
}

func TestHandleResolve_UnknownToggleReturns404(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/v1/frontend/resolve/missing?userId=user-1", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleResolve_KnownToggle(t *testing.T) {
	srv, _ := newTestServer(t)
	pushTestFeatures(t, srv, model.ClientFeatures{
		Version:  2,
		Features: []model.Toggle{{Name: "resolve-me", Enabled: true, Project: "web"}},
	})
	handler := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/v1/frontend/resolve/resolve-me?userId=user-1", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp resolvedView
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.True(t, resp.Enabled)
	require.Equal(t, "web", resp.Project)
}

func TestHandleResolveAll_ResolvesEveryAppliedToggle(t *testing.T) {
	srv, _ := newTestServer(t)
	pushTestFeatures(t, srv, model.ClientFeatures{
		Version: 2,
		Features: []model.Toggle{
			{Name: "all-a", Enabled: true},
			{Name: "all-b", Enabled: false},
		},
	})
	handler := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/v1/frontend/resolve-all?userId=user-1", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp resolveAllResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Contains(t, resp.Toggles, "all-a")
	require.Contains(t, resp.Toggles, "all-b")
	require.True(t, resp.Toggles["all-a"].Enabled)
	require.False(t, resp.Toggles["all-b"].Enabled)
}

func TestHandleIsEnabled_Deterministic(t *testing.T) {
	srv, _ := newTestServer(t)
	pushTestFeatures(t, srv, model.ClientFeatures{
		Version: 2,
		Features: []model.Toggle{{
			Name:    "rollout-toggle",
			Enabled: true,
			Strategies: []model.Strategy{{
				Name:       "flexibleRollout",
				Parameters: map[string]string{"rollout": "50", "stickiness": "default", "groupId": "rollout-toggle"},
			}},
		}},
	})
	handler := srv.Router()

	var results []bool
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/frontend/is-enabled/rollout-toggle?userId=user-123", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		var resp isEnabledResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		results = append(results, resp.Enabled)
	}

	for i := 1; i < len(results); i++ {
		require.Equal(t, results[0], results[i], "evaluation must be deterministic for the same user")
	}
	_ = context.Background
}
