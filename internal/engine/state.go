// New engine state container: compiles a ClientFeatures document into
// ready-to-evaluate toggles and serves is_enabled/get_variant/resolve
// queries against whatever state was last applied.
//
// Grounded on original_source/unleash-yggdrasil/src/lib.rs (EngineState,
// CompiledToggle, compile_state, get_variant, resolve_variant, enabled,
// harvest_metrics). The strategy compiler (toggle.strategies -> predicate)
// pipeline is internal/upgrade followed by internal/ruledsl.Compile; the
// closures that held the compiled predicate in the source become a
// RulePredicate field here (see internal/ruledsl's tagged-AST choice).
package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/ygg-project/yggcore/internal/ctx"
	"github.com/ygg-project/yggcore/internal/model"
	"github.com/ygg-project/yggcore/internal/ruledsl"
	"github.com/ygg-project/yggcore/internal/upgrade"
	"github.com/ygg-project/yggcore/internal/variant"
)

// CompiledToggle is a Toggle with its rule compiled once and its metrics
// counters ready for concurrent, lock-free increments.
type CompiledToggle struct {
	Name           string
	Enabled        bool
	Rule           ruledsl.RulePredicate
	Variants       []model.Variant
	ImpressionData bool
	Project        string
	Dependencies   []model.Dependency

	yes, no        atomic.Uint32
	defaultVariant atomic.Uint32
	variantCounts  map[string]*atomic.Uint32
}

func newVariantCounts(variants []model.Variant) map[string]*atomic.Uint32 {
	m := make(map[string]*atomic.Uint32, len(variants))
	for _, v := range variants {
		m[v.Name] = &atomic.Uint32{}
	}
	return m
}

// compiledState is a point-in-time compiled toggle set, swapped atomically
// on every ApplyState/TakeState call.
type compiledState map[string]*CompiledToggle

// CompileState upgrades and compiles every toggle in features into a ready-
// to-evaluate snapshot. A toggle whose strategy rule source fails to
// compile is dropped and logged: it can never match and is simply absent
// from the compiled set, exactly like an unknown toggle name, instead of
// poisoning every other toggle in the same document.
func CompileState(features model.ClientFeatures) compiledState {
	segmentMap := make(map[int]model.Segment, len(features.Segments))
	for _, s := range features.Segments {
		segmentMap[s.ID] = s
	}

	out := make(compiledState, len(features.Features))
	for _, toggle := range features.Features {
		ruleSource := upgrade.Upgrade(toggle.Strategies, segmentMap)
		rule, err := ruledsl.Compile(ruleSource)
		if err != nil {
			log.Warn().Err(err).Str("toggle", toggle.Name).Str("rule", ruleSource).
				Msg("dropping toggle: rule failed to compile")
			continue
		}
		project := toggle.Project
		if project == "" {
			project = "default"
		}
		out[toggle.Name] = &CompiledToggle{
			Name:           toggle.Name,
			Enabled:        toggle.Enabled,
			Rule:           rule,
			Variants:       toggle.Variants,
			ImpressionData: toggle.ImpressionData,
			Project:        project,
			Dependencies:   toggle.Dependencies,
			variantCounts:  newVariantCounts(toggle.Variants),
		}
	}
	return out
}

// State is the engine's live, concurrency-safe view of the flag
// evaluation universe. ApplyState/TakeState and GetMetrics take the write
// lock, so they serialize with each other; the read operations (IsEnabled,
// GetVariant, Resolve, ResolveAll) run concurrently under the read lock.
type State struct {
	mu      sync.RWMutex
	state   compiledState
	started time.Time
}

// NewState builds an empty engine with no applied toggles.
func NewState() *State {
	return &State{started: time.Now().UTC()}
}

// ApplyState compiles and installs a new toggle set, returning the metric
// bucket harvested from whatever state was previously installed (nil if
// this is the first apply). Per-toggle compile failures never fail the
// call as a whole; see CompileState.
func (s *State) ApplyState(features model.ClientFeatures) (*model.MetricBucket, error) {
	compiled := CompileState(features)
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.harvestLocked()
	s.state = compiled
	return bucket, nil
}

// TakeState is ApplyState under the name the grounding source uses at its
// call sites; the two are identical operations.
func (s *State) TakeState(features model.ClientFeatures) (*model.MetricBucket, error) {
	return s.ApplyState(features)
}

func (s *State) getToggle(name string) *CompiledToggle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil
	}
	return s.state[name]
}

// harvestLocked must be called with s.mu held for writing (apply/take) or
// explicitly for GetMetrics, which takes its own lock below.
func (s *State) harvestLocked() *model.MetricBucket {
	if s.state == nil {
		return nil
	}
	toggles := make(map[string]model.ToggleStats, len(s.state))
	for name, t := range s.state {
		variants := make(map[string]uint32, len(t.variantCounts)+1)
		for vn, c := range t.variantCounts {
			variants[vn] = c.Swap(0)
		}
		variants[model.DisabledVariant.Name] = t.defaultVariant.Swap(0)
		toggles[name] = model.ToggleStats{
			Yes:      t.yes.Swap(0),
			No:       t.no.Swap(0),
			Variants: variants,
		}
	}
	stop := time.Now().UTC()
	bucket := &model.MetricBucket{
		Start:   s.started.Format(time.RFC3339),
		Stop:    stop.Format(time.RFC3339),
		Toggles: toggles,
	}
	s.started = stop
	return bucket
}

// GetMetrics harvests and resets every toggle's counters, exactly like
// ApplyState's harvest but without installing new state.
func (s *State) GetMetrics() *model.MetricBucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.harvestLocked()
}

// enabled evaluates a toggle's compiled rule, honoring parent dependencies
// one level deep, and records the yes/no counter.
func (s *State) enabled(t *CompiledToggle, c ctx.Context) bool {
	if !s.dependenciesSatisfied(t, c) {
		t.no.Add(1)
		return false
	}
	enriched := ctx.Enrich(c, t.Name)
	result := t.Enabled && t.Rule.Eval(enriched)
	if result {
		t.yes.Add(1)
	} else {
		t.no.Add(1)
	}
	return result
}

// dependenciesSatisfied resolves a toggle's parent dependencies exactly
// one level deep: a parent that itself has dependencies, or that is
// missing from the compiled state, makes the dependent not-enabled. The
// parent's rule and variant are evaluated against the same context under
// the parent's name; this does not touch the parent's own metrics counters.
func (s *State) dependenciesSatisfied(t *CompiledToggle, c ctx.Context) bool {
	for _, dep := range t.Dependencies {
		parent := s.getToggle(dep.Feature)
		if parent == nil || len(parent.Dependencies) > 0 {
			return false
		}
		wantEnabled := true
		if dep.Enabled != nil {
			wantEnabled = *dep.Enabled
		}
		parentEnabled := parent.Enabled && parent.Rule.Eval(ctx.Enrich(c, parent.Name))
		if parentEnabled != wantEnabled {
			return false
		}
		if wantEnabled && len(dep.Variants) > 0 {
			chosen, ok := variant.Resolve(parent.Name, parent.Variants, c)
			if !ok {
				chosen = model.Variant{Name: model.DisabledVariant.Name}
			}
			if !hasAnyVariantNamed([]model.Variant{chosen}, dep.Variants) {
				return false
			}
		}
	}
	return true
}

func hasAnyVariantNamed(variants []model.Variant, names []string) bool {
	for _, name := range names {
		if hasVariantNamed(variants, name) {
			return true
		}
	}
	return false
}

func hasVariantNamed(variants []model.Variant, name string) bool {
	for _, v := range variants {
		if v.Name == name {
			return true
		}
	}
	return false
}

// IsEnabled reports whether name is enabled for c, recording a metrics
// sample. An unknown toggle name is simply not enabled.
func (s *State) IsEnabled(name string, c ctx.Context) bool {
	t := s.getToggle(name)
	if t == nil {
		return false
	}
	return s.enabled(t, c)
}

// GetVariant resolves name's variant for c. A disabled toggle (or unknown
// name) always resolves to the disabled default.
func (s *State) GetVariant(name string, c ctx.Context) model.VariantDef {
	t := s.getToggle(name)
	if t == nil {
		return model.DisabledVariant
	}
	chosen, resolvedOK := variant.Resolve(t.Name, t.Variants, c)
	enabled := s.enabled(t, c)
	if !enabled {
		t.defaultVariant.Add(1)
		return model.DisabledVariant
	}
	if !resolvedOK {
		t.defaultVariant.Add(1)
		return model.DisabledVariant
	}
	if counter, ok := t.variantCounts[chosen.Name]; ok {
		counter.Add(1)
	}
	return variant.ToDef(chosen, true, true)
}

// Resolve returns the full resolved view (enabled, variant, impression
// data, project) of one toggle, or ok=false if name is unknown.
func (s *State) Resolve(name string, c ctx.Context) (model.ResolvedToggle, bool) {
	t := s.getToggle(name)
	if t == nil {
		return model.ResolvedToggle{}, false
	}
	return model.ResolvedToggle{
		Enabled:        s.enabled(t, c),
		ImpressionData: t.ImpressionData,
		Project:        t.Project,
		Variant:        s.GetVariant(name, c),
	}, true
}

// ResolveAll resolves every currently applied toggle against c.
func (s *State) ResolveAll(c ctx.Context) map[string]model.ResolvedToggle {
	s.mu.RLock()
	names := make([]string, 0, len(s.state))
	for name := range s.state {
		names = append(names, name)
	}
	s.mu.RUnlock()

	out := make(map[string]model.ResolvedToggle, len(names))
	for _, name := range names {
		if resolved, ok := s.Resolve(name, c); ok {
			out[name] = resolved
		}
	}
	return out
}
