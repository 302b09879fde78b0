// Package validation provides validation rules for applied toggle documents
// and their environment names.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ygg-project/yggcore/internal/model"
)

const (
	// MaxNameLength is the maximum length for a toggle or variant name.
	MaxNameLength = 64
	// MaxEnvLength is the maximum length for environment names.
	MaxEnvLength = 32
)

// namePattern matches alphanumeric characters, underscores, hyphens, and dots.
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// ValidationResult holds the result of validation
type ValidationResult struct {
	Valid  bool
	Errors map[string]string
}

// NewValidationResult creates a new validation result
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:  true,
		Errors: make(map[string]string),
	}
}

// AddError adds a field error and marks the result as invalid
func (v *ValidationResult) AddError(field, message string) {
	v.Valid = false
	v.Errors[field] = message
}

// Merge combines another validation result into this one
func (v *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	for field, message := range other.Errors {
		v.AddError(field, message)
	}
}

// ValidateEnv validates an environment name
func ValidateEnv(env string) *ValidationResult {
	result := NewValidationResult()
	env = strings.TrimSpace(env)

	if env == "" {
		result.AddError("env", "Environment is required")
		return result
	}

	if utf8.RuneCountInString(env) > MaxEnvLength {
		result.AddError("env", "Environment must not exceed 32 characters")
		return result
	}

	return result
}

// ValidateToggleName validates a single toggle's name.
func ValidateToggleName(name string) *ValidationResult {
	result := NewValidationResult()
	name = strings.TrimSpace(name)

	if name == "" {
		result.AddError("name", "Toggle name is required")
		return result
	}

	if utf8.RuneCountInString(name) > MaxNameLength {
		result.AddError("name", "Toggle name must not exceed 64 characters")
		return result
	}

	if !namePattern.MatchString(name) {
		result.AddError("name", "Toggle name must contain only alphanumeric characters, underscores, hyphens, and dots")
		return result
	}

	return result
}

// ValidateVariants validates one toggle's variant list: names must be
// non-empty, unique, and weights non-negative. Unlike a fixed-percentage
// rollout, variant weights here are arbitrary non-negative integers
// normalized by their sum (see internal/variant), so they need not total
// any particular value.
func ValidateVariants(variants []model.Variant) *ValidationResult {
	result := NewValidationResult()
	if len(variants) == 0 {
		return result
	}

	seenNames := make(map[string]bool, len(variants))
	for _, v := range variants {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			result.AddError("variants", "Variant name cannot be empty")
			continue
		}
		if utf8.RuneCountInString(name) > MaxNameLength {
			result.AddError("variants", "Variant name must not exceed 64 characters")
			continue
		}
		if seenNames[name] {
			result.AddError("variants", "Duplicate variant name: "+name)
			continue
		}
		seenNames[name] = true

		if v.Weight < 0 {
			result.AddError("variants", "Variant weight must not be negative")
		}
	}

	return result
}

// ValidateFeatures validates a whole toggles document before it is
// persisted and compiled: every toggle must have a well-formed name, names
// must be unique within the document, and every toggle's variants and
// strategies must be well-formed.
func ValidateFeatures(env string, features model.ClientFeatures) *ValidationResult {
	result := NewValidationResult()
	result.Merge(ValidateEnv(env))

	seenToggleNames := make(map[string]bool, len(features.Features))
	for _, toggle := range features.Features {
		result.Merge(ValidateToggleName(toggle.Name))

		if seenToggleNames[toggle.Name] {
			result.AddError("features", "Duplicate toggle name: "+toggle.Name)
		}
		seenToggleNames[toggle.Name] = true

		result.Merge(ValidateVariants(toggle.Variants))

		for _, strategy := range toggle.Strategies {
			if strings.TrimSpace(strategy.Name) == "" {
				result.AddError("strategies", "Strategy name is required on toggle: "+toggle.Name)
			}
			result.Merge(ValidateVariants(strategy.Variants))
		}
	}

	return result
}
