package api

// ContextDTO is the wire shape of an evaluation context, accepted either as
// a JSON POST body or assembled from query parameters on a GET request.
type ContextDTO struct {
	UserID          string            `json:"userId,omitempty"`
	SessionID       string            `json:"sessionId,omitempty"`
	Environment     string            `json:"environment,omitempty"`
	AppName         string            `json:"appName,omitempty"`
	CurrentTime     string            `json:"currentTime,omitempty"`
	RemoteAddress   string            `json:"remoteAddress,omitempty"`
	Properties      map[string]string `json:"properties,omitempty"`
	ExternalResults map[string]bool   `json:"externalResults,omitempty"`
}

// isEnabledResponse is the payload for GET /v1/frontend/is-enabled/{name}.
type isEnabledResponse struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// variantResponse is the payload for GET /v1/frontend/variant/{name}.
type variantResponse struct {
	Name    string      `json:"name"`
	Variant variantView `json:"variant"`
}

// variantView mirrors model.VariantDef for the wire, keeping the API
// response shape independent of the engine's internal type.
type variantView struct {
	Name    string         `json:"name"`
	Payload *payloadView   `json:"payload,omitempty"`
	Enabled bool           `json:"enabled"`
}

type payloadView struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// resolvedView is the payload shape for resolve/resolve-all.
type resolvedView struct {
	Enabled        bool        `json:"enabled"`
	ImpressionData bool        `json:"impressionData"`
	Project        string      `json:"project"`
	Variant        variantView `json:"variant"`
}

// resolveAllResponse is the payload for GET /v1/frontend/resolve-all.
type resolveAllResponse struct {
	Toggles map[string]resolvedView `json:"toggles"`
}

// featuresPushResponse is returned after a features document is applied.
type featuresPushResponse struct {
	OK    bool   `json:"ok"`
	ETag  string `json:"etag"`
	Count int    `json:"toggleCount"`
}

// environmentsResponse lists the environments with a stored document.
type environmentsResponse struct {
	Environments []string `json:"environments"`
}
