package client_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ygg-project/yggcore/internal/client"
	"github.com/ygg-project/yggcore/internal/ctx"
	"github.com/ygg-project/yggcore/internal/model"
	"github.com/ygg-project/yggcore/internal/testutil"
)

func newTestAPI(t *testing.T) (*client.Client, *httptest.Server) {
	t.Helper()
	srv, _ := testutil.NewTestServer(t, "default", "admin-key")
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close()
	})
	return client.NewClient(ts.URL, "admin-key"), ts
}

func TestClient_ApplyAndGetState(t *testing.T) {
	c, _ := newTestAPI(t)
	ctxBg := context.Background()

	features := model.ClientFeatures{
		Version:  2,
		Features: []model.Toggle{{Name: "client-toggle", Enabled: true}},
	}

	require.NoError(t, c.ApplyState(ctxBg, "default", features))

	got, err := c.GetState(ctxBg, "default")
	require.NoError(t, err)
	require.Len(t, got.Features, 1)
	require.Equal(t, "client-toggle", got.Features[0].Name)
}

func TestClient_ListEnvironments(t *testing.T) {
	c, _ := newTestAPI(t)
	ctxBg := context.Background()

	require.NoError(t, c.ApplyState(ctxBg, "staging", model.ClientFeatures{Version: 2}))

	envs, err := c.ListEnvironments(ctxBg)
	require.NoError(t, err)
	require.Contains(t, envs, "staging")
}

func TestClient_IsEnabled(t *testing.T) {
	c, _ := newTestAPI(t)
	ctxBg := context.Background()

	require.NoError(t, c.ApplyState(ctxBg, "default", model.ClientFeatures{
		Version:  2,
		Features: []model.Toggle{{Name: "on-toggle", Enabled: true}},
	}))

	enabled, err := c.IsEnabled(ctxBg, "on-toggle", ctx.Context{UserID: "user-1"})
	require.NoError(t, err)
	require.True(t, enabled)
}

func TestClient_GetVariant(t *testing.T) {
	c, _ := newTestAPI(t)
	ctxBg := context.Background()

	require.NoError(t, c.ApplyState(ctxBg, "default", model.ClientFeatures{
		Version: 2,
		Features: []model.Toggle{{
			Name:    "variant-toggle",
			Enabled: true,
			Variants: []model.Variant{
				{Name: "red", Weight: 1000, Stickiness: "default"},
			},
		}},
	}))

	variant, err := c.GetVariant(ctxBg, "variant-toggle", ctx.Context{UserID: "user-1"})
	require.NoError(t, err)
	require.Equal(t, "red", variant.Name)
}

func TestClient_Evaluate(t *testing.T) {
	c, _ := newTestAPI(t)
	ctxBg := context.Background()

	require.NoError(t, c.ApplyState(ctxBg, "default", model.ClientFeatures{
		Version:  2,
		Features: []model.Toggle{{Name: "resolve-toggle", Enabled: true, Project: "checkout"}},
	}))

	resolved, err := c.Evaluate(ctxBg, "resolve-toggle", ctx.Context{UserID: "user-1"})
	require.NoError(t, err)
	require.True(t, resolved.Enabled)
	require.Equal(t, "checkout", resolved.Project)
}

func TestClient_EvaluateAll(t *testing.T) {
	c, _ := newTestAPI(t)
	ctxBg := context.Background()

	require.NoError(t, c.ApplyState(ctxBg, "default", model.ClientFeatures{
		Version: 2,
		Features: []model.Toggle{
			{Name: "all-a", Enabled: true},
			{Name: "all-b", Enabled: false},
		},
	}))

	all, err := c.EvaluateAll(ctxBg, ctx.Context{UserID: "user-1"})
	require.NoError(t, err)
	require.True(t, all["all-a"].Enabled)
	require.False(t, all["all-b"].Enabled)
}

func TestClient_Stream_ReceivesInitEvent(t *testing.T) {
	c, _ := newTestAPI(t)
	ctxBg := context.Background()
	require.NoError(t, c.ApplyState(ctxBg, "default", model.ClientFeatures{Version: 2}))

	streamCtx, cancel := context.WithTimeout(ctxBg, 2*time.Second)
	defer cancel()

	events, err := c.Stream(streamCtx)
	require.NoError(t, err)

	select {
	case ev, ok := <-events:
		require.True(t, ok)
		require.Equal(t, "init", ev.Event)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for init event")
	}
}

func TestClient_ApplyState_RequiresAuth(t *testing.T) {
	_, ts := newTestAPI(t)
	c := client.NewClient(ts.URL, "wrong-key")

	err := c.ApplyState(context.Background(), "default", model.ClientFeatures{Version: 2})
	require.Error(t, err)
}
