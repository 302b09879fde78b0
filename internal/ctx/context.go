// Package ctx defines the evaluation context types passed into the engine.
//
// Context is caller-owned: it must not be mutated while an evaluation call
// that borrowed it is in flight. EnrichedContext is built once per
// evaluation from a Context plus the name of the toggle under evaluation and
// is what rule predicates actually read.
package ctx

// Context is the caller-supplied evaluation input.
type Context struct {
	UserID         string
	SessionID      string
	Environment    string
	AppName        string
	CurrentTime    string
	RemoteAddress  string
	Properties     map[string]string
	ExternalResults map[string]bool
}

// Property looks up an arbitrary context property by name.
func (c Context) Property(name string) (string, bool) {
	if c.Properties == nil {
		return "", false
	}
	v, ok := c.Properties[name]
	return v, ok
}

// ExternalValue looks up a caller-supplied boolean strategy result.
func (c Context) ExternalValue(name string) (bool, bool) {
	if c.ExternalResults == nil {
		return false, false
	}
	v, ok := c.ExternalResults[name]
	return v, ok
}

// EnrichedContext is a Context plus the toggle it is being evaluated
// against. Rule predicates only ever see an EnrichedContext.
type EnrichedContext struct {
	Context
	ToggleName      string
	RuntimeHostname string
}

// Enrich builds an EnrichedContext for evaluating toggleName.
func Enrich(c Context, toggleName string) EnrichedContext {
	return EnrichedContext{Context: c, ToggleName: toggleName}
}

// Field resolves one of the well-known context fields by its DSL token
// name. ok is false for a field that is absent or unknown.
func (c Context) Field(name string) (string, bool) {
	switch name {
	case "user_id", "userId":
		return nonEmpty(c.UserID)
	case "session_id", "sessionId":
		return nonEmpty(c.SessionID)
	case "environment":
		return nonEmpty(c.Environment)
	case "app_name", "appName":
		return nonEmpty(c.AppName)
	case "current_time", "currentTime":
		return nonEmpty(c.CurrentTime)
	case "remote_address", "remoteAddress":
		return nonEmpty(c.RemoteAddress)
	default:
		return c.Property(name)
	}
}

func nonEmpty(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	return s, true
}
