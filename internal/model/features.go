// Package model defines the JSON wire types for the Unleash client-feature
// schema: the declarative bundle of toggles, strategies, constraints,
// segments, and variants that apply_state/take_state consume.
//
// Unknown fields in the input JSON are ignored (the zero value for fields
// this package does not model), per spec.
package model

// ClientFeatures is the top-level input bundle.
type ClientFeatures struct {
	Version  int       `json:"version"`
	Features []Toggle  `json:"features"`
	Segments []Segment `json:"segments,omitempty"`
	Query    any        `json:"query,omitempty"`
}

// Toggle is one feature flag definition.
type Toggle struct {
	Name            string       `json:"name"`
	Enabled         bool         `json:"enabled"`
	Strategies      []Strategy   `json:"strategies,omitempty"`
	Variants        []Variant    `json:"variants,omitempty"`
	ImpressionData  bool         `json:"impressionData,omitempty"`
	Project         string       `json:"project,omitempty"`
	Dependencies    []Dependency `json:"dependencies,omitempty"`
}

// Dependency names a parent toggle this toggle requires to be enabled
// (and, optionally, resolved to one of a set of variants) before its own
// rule is even considered.
type Dependency struct {
	Feature  string   `json:"feature"`
	Enabled  *bool    `json:"enabled,omitempty"`
	Variants []string `json:"variants,omitempty"`
}

// Strategy is one enablement rule attached to a Toggle.
type Strategy struct {
	Name        string            `json:"name"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Constraints []Constraint      `json:"constraints,omitempty"`
	Segments    []int             `json:"segments,omitempty"`
	Variants    []Variant         `json:"variants,omitempty"`
}

// Param reads a named strategy parameter.
func (s Strategy) Param(key string) (string, bool) {
	if s.Parameters == nil {
		return "", false
	}
	v, ok := s.Parameters[key]
	return v, ok
}

// Operator enumerates the constraint comparison kinds.
type Operator string

const (
	OpIn            Operator = "IN"
	OpNotIn         Operator = "NOT_IN"
	OpStrStartsWith Operator = "STR_STARTS_WITH"
	OpStrEndsWith   Operator = "STR_ENDS_WITH"
	OpStrContains   Operator = "STR_CONTAINS"
	OpNumEq         Operator = "NUM_EQ"
	OpNumGt         Operator = "NUM_GT"
	OpNumGte        Operator = "NUM_GTE"
	OpNumLt         Operator = "NUM_LT"
	OpNumLte        Operator = "NUM_LTE"
	OpDateAfter     Operator = "DATE_AFTER"
	OpDateBefore    Operator = "DATE_BEFORE"
	OpSemverEq      Operator = "SEMVER_EQ"
	OpSemverLt      Operator = "SEMVER_LT"
	OpSemverGt      Operator = "SEMVER_GT"
)

// Constraint is an atomic predicate over one context field.
type Constraint struct {
	ContextName    string   `json:"contextName"`
	Operator       Operator `json:"operator"`
	Values         []string `json:"values,omitempty"`
	Value          string   `json:"value,omitempty"`
	CaseInsensitive bool    `json:"caseInsensitive,omitempty"`
	Inverted       bool     `json:"inverted,omitempty"`
}

// Segment is a named, reusable bundle of constraints referenced by id from
// a Strategy.
type Segment struct {
	ID          int          `json:"id"`
	Constraints []Constraint `json:"constraints,omitempty"`
}

// Payload is a variant's attached value.
type Payload struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Override forces a specific variant when a context field's value is among
// the listed values.
type Override struct {
	ContextName string   `json:"contextName"`
	Values      []string `json:"values"`
}

// Variant is one weighted alternative a toggle may resolve to.
type Variant struct {
	Name       string     `json:"name"`
	Weight     int        `json:"weight"`
	Stickiness string     `json:"stickiness,omitempty"`
	Payload    *Payload   `json:"payload,omitempty"`
	Overrides  []Override `json:"overrides,omitempty"`
}

// VariantDef is the resolved variant returned to a caller.
type VariantDef struct {
	Name    string   `json:"name"`
	Payload *Payload `json:"payload,omitempty"`
	Enabled bool     `json:"enabled"`
}

// DisabledVariant is the constant default returned whenever no variant
// resolves (toggle disabled, no variants configured, or zero total weight).
var DisabledVariant = VariantDef{Name: "disabled", Enabled: false}

// ToggleStats is the per-toggle slice of a MetricBucket.
type ToggleStats struct {
	Yes      uint32            `json:"yes"`
	No       uint32            `json:"no"`
	Variants map[string]uint32 `json:"variants"`
}

// MetricBucket is the aggregated yes/no/variant counters for a harvest
// window.
type MetricBucket struct {
	Start   string                 `json:"start"`
	Stop    string                 `json:"stop"`
	Toggles map[string]ToggleStats `json:"toggles"`
}

// ResolvedToggle is the result of Resolve/ResolveAll.
type ResolvedToggle struct {
	Enabled        bool       `json:"enabled"`
	ImpressionData bool       `json:"impressionData"`
	Project        string     `json:"project"`
	Variant        VariantDef `json:"variant"`
}
