package testutil

import (
	"context"
	"net/http"
	"testing"

	"github.com/ygg-project/yggcore/internal/model"
)

func TestNewTestServer(t *testing.T) {
	server, memStore := NewTestServer(t, "test", "test-key")

	if server == nil {
		t.Fatal("Expected non-nil server")
	}
	if memStore == nil {
		t.Fatal("Expected non-nil store")
	}

	ctx := context.Background()
	err := memStore.PutFeatures(ctx, "test", model.ClientFeatures{
		Version:  2,
		Features: []model.Toggle{{Name: "test", Enabled: true}},
	})
	if err != nil {
		t.Fatalf("Store should be functional: %v", err)
	}
}

func TestHTTPRequest_Do(t *testing.T) {
	server, _ := NewTestServer(t, "test", "test-key")
	handler := server.Router()

	req := &HTTPRequest{
		Method: "GET",
		Path:   "/healthz",
	}

	rr := req.Do(t, handler)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("Expected body 'ok', got '%s'", rr.Body.String())
	}
}

func TestHTTPRequest_DoWithBody(t *testing.T) {
	server, _ := NewTestServer(t, "test", "test-key")
	handler := server.Router()

	req := &HTTPRequest{
		Method: "POST",
		Path:   "/v1/admin/features/test",
		Body:   `{"version":2,"features":[{"name":"test","enabled":true}]}`,
		Headers: map[string]string{
			"Authorization": "Bearer test-key",
		},
	}

	rr := req.Do(t, handler)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHTTPRequest_DoWithHeaders(t *testing.T) {
	server, _ := NewTestServer(t, "test", "test-key")
	handler := server.Router()

	req := &HTTPRequest{
		Method: "GET",
		Path:   "/v1/client/features",
		Headers: map[string]string{
			"If-None-Match": "test-etag",
			"Custom-Header": "custom-value",
		},
	}

	rr := req.Do(t, handler)

	// Should get 200 (not 304 since etag won't match)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
}

func TestHTTPRequest_ContentTypeAutoSet(t *testing.T) {
	server, _ := NewTestServer(t, "test", "test-key")
	handler := server.Router()

	// When Body is provided, Content-Type should be set to application/json
	req := &HTTPRequest{
		Method: "POST",
		Path:   "/v1/admin/features/test",
		Body:   `{"version":2,"features":[]}`,
		Headers: map[string]string{
			"Authorization": "Bearer test-key",
		},
	}

	rr := req.Do(t, handler)

	if rr == nil {
		t.Fatal("Expected non-nil response recorder")
	}
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHTTPRequest_EmptyBody(t *testing.T) {
	server, _ := NewTestServer(t, "test", "test-key")
	handler := server.Router()

	req := &HTTPRequest{
		Method: "GET",
		Path:   "/healthz",
		Body:   "",
	}

	rr := req.Do(t, handler)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
}

func TestHTTPRequest_HeaderOverride(t *testing.T) {
	server, _ := NewTestServer(t, "test", "test-key")
	handler := server.Router()

	// An explicit Content-Type header overrides the auto-set one; the invalid
	// JSON body then produces a parse error
	req := &HTTPRequest{
		Method: "POST",
		Path:   "/v1/admin/features/test",
		Body:   `not json`,
		Headers: map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer test-key",
		},
	}

	rr := req.Do(t, handler)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid JSON, got %d", rr.Code)
	}
}

func TestSeedFeatures(t *testing.T) {
	_, memStore := NewTestServer(t, "test", "test-key")
	ctx := context.Background()

	features := model.ClientFeatures{
		Version: 2,
		Features: []model.Toggle{
			{Name: "flag1", Enabled: true},
			{Name: "flag2", Enabled: false},
			{Name: "flag3", Enabled: true},
		},
	}

	if err := SeedFeatures(ctx, memStore, "test", features); err != nil {
		t.Fatalf("SeedFeatures failed: %v", err)
	}

	got, err := memStore.GetFeatures(ctx, "test")
	if err != nil {
		t.Fatalf("GetFeatures failed: %v", err)
	}

	if len(got.Features) != 3 {
		t.Errorf("Expected 3 toggles, got %d", len(got.Features))
	}
}

func TestSeedFeatures_DifferentEnvironments(t *testing.T) {
	_, memStore := NewTestServer(t, "test", "test-key")
	ctx := context.Background()

	if err := SeedFeatures(ctx, memStore, "prod", model.ClientFeatures{
		Version:  2,
		Features: []model.Toggle{{Name: "flag1", Enabled: true}, {Name: "flag3", Enabled: true}},
	}); err != nil {
		t.Fatalf("SeedFeatures failed: %v", err)
	}
	if err := SeedFeatures(ctx, memStore, "dev", model.ClientFeatures{
		Version:  2,
		Features: []model.Toggle{{Name: "flag2", Enabled: true}},
	}); err != nil {
		t.Fatalf("SeedFeatures failed: %v", err)
	}

	prodFeatures, err := memStore.GetFeatures(ctx, "prod")
	if err != nil {
		t.Fatalf("GetFeatures failed: %v", err)
	}
	if len(prodFeatures.Features) != 2 {
		t.Errorf("Expected 2 prod toggles, got %d", len(prodFeatures.Features))
	}

	devFeatures, err := memStore.GetFeatures(ctx, "dev")
	if err != nil {
		t.Fatalf("GetFeatures failed: %v", err)
	}
	if len(devFeatures.Features) != 1 {
		t.Errorf("Expected 1 dev toggle, got %d", len(devFeatures.Features))
	}
}
