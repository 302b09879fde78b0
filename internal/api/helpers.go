package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/ygg-project/yggcore/internal/ctx"
	"github.com/ygg-project/yggcore/internal/model"
	"github.com/ygg-project/yggcore/internal/validation"
)

// ===== HTTP Helpers =====

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{
		"error":   http.StatusText(code),
		"message": msg,
	})
}

// formatValidationErrors renders a *validation.ValidationResult's field
// errors as a single deterministic message for an error response.
func formatValidationErrors(result *validation.ValidationResult) string {
	fields := make([]string, 0, len(result.Errors))
	for field := range result.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, result.Errors[field]))
	}
	return strings.Join(parts, "; ")
}

// ===== Context helpers =====

// contextFromDTO converts a wire-level ContextDTO into an engine Context.
func contextFromDTO(dto ContextDTO) ctx.Context {
	return ctx.Context{
		UserID:          dto.UserID,
		SessionID:       dto.SessionID,
		Environment:     dto.Environment,
		AppName:         dto.AppName,
		CurrentTime:     dto.CurrentTime,
		RemoteAddress:   dto.RemoteAddress,
		Properties:      dto.Properties,
		ExternalResults: dto.ExternalResults,
	}
}

// contextFromQuery assembles a Context from GET query parameters. The
// well-known keys map onto their Context fields; every other key becomes a
// context Property under its own name.
func contextFromQuery(r *http.Request) ctx.Context {
	q := r.URL.Query()
	properties := make(map[string]string)
	for key, values := range q {
		if len(values) == 0 {
			continue
		}
		switch key {
		case "userId":
			continue
		case "sessionId", "environment", "appName", "currentTime", "remoteAddress":
			continue
		default:
			properties[key] = values[0]
		}
	}
	if len(properties) == 0 {
		properties = nil
	}
	return ctx.Context{
		UserID:        q.Get("userId"),
		SessionID:     q.Get("sessionId"),
		Environment:   q.Get("environment"),
		AppName:       q.Get("appName"),
		CurrentTime:   q.Get("currentTime"),
		RemoteAddress: q.Get("remoteAddress"),
		Properties:    properties,
	}
}

// ===== View conversion helpers =====

func toVariantView(v model.VariantDef) variantView {
	view := variantView{Name: v.Name, Enabled: v.Enabled}
	if v.Payload != nil {
		view.Payload = &payloadView{Type: v.Payload.Type, Value: v.Payload.Value}
	}
	return view
}

func toResolvedView(r model.ResolvedToggle) resolvedView {
	return resolvedView{
		Enabled:        r.Enabled,
		ImpressionData: r.ImpressionData,
		Project:        r.Project,
		Variant:        toVariantView(r.Variant),
	}
}
