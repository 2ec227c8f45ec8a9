package registry

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/reviewgen/internal/backend"
	"gopkg.in/yaml.v3"
)

//go:embed overrides.yaml
var overridesYAML []byte

// Override is one row of the table. Nil fields fall through to the
// generic mapping.
type Override struct {
	Provider    backend.Provider `yaml:"provider"`
	Model       string           `yaml:"model"`
	Temperature *float64         `yaml:"temperature,omitempty"`
	TokenBudget *int             `yaml:"tokenBudget,omitempty"`
}

// IsPattern reports whether the override matches a model prefix.
func (o Override) IsPattern() bool {
	return strings.HasSuffix(o.Model, "*")
}

func (o Override) matches(model string) bool {
	if o.IsPattern() {
		return strings.HasPrefix(model, strings.TrimSuffix(o.Model, "*"))
	}
	return o.Model == model
}

// Defaults is the generic mapping applied to models without an override.
type Defaults struct {
	Temperature         float64                      `yaml:"temperature"`
	TokenBudget         int                          `yaml:"tokenBudget"`
	ThinkingMultiplier  int                          `yaml:"thinkingMultiplier"`
	ThinkingTemperature map[backend.Provider]float64 `yaml:"thinkingTemperature"`
}

// Params are the effective generation parameters for one request.
type Params struct {
	Temperature       float64
	TokenBudget       int
	ForcedTemperature bool
}

type table struct {
	Defaults  Defaults   `yaml:"defaults"`
	Overrides []Override `yaml:"overrides"`
}

type key struct {
	provider backend.Provider
	model    string
}

// Registry resolves per-model parameters.
type Registry struct {
	defaults Defaults
	exact    map[key]Override
	patterns []Override
	all      []Override
}

// MinTokenBudget is the smallest budget a table may assign. A content
// retry needs room to ask for strictly fewer tokens.
const MinTokenBudget = 2

// Load parses a YAML table. Duplicate provider/model rows are rejected.
func Load(data []byte) (*Registry, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing override table: %w", err)
	}
	if t.Defaults.TokenBudget < MinTokenBudget {
		return nil, fmt.Errorf("override table: defaults.tokenBudget must be at least %d", MinTokenBudget)
	}
	if t.Defaults.ThinkingMultiplier <= 0 {
		t.Defaults.ThinkingMultiplier = 2
	}

	r := &Registry{
		defaults: t.Defaults,
		exact:    make(map[key]Override),
	}
	seen := make(map[key]bool)
	for _, o := range t.Overrides {
		if o.Model == "" || o.Provider == "" {
			return nil, fmt.Errorf("override table: provider and model are required")
		}
		if o.TokenBudget != nil && *o.TokenBudget < MinTokenBudget {
			return nil, fmt.Errorf("override table: %s/%s tokenBudget must be at least %d", o.Provider, o.Model, MinTokenBudget)
		}
		k := key{o.Provider, o.Model}
		if seen[k] {
			return nil, fmt.Errorf("override table: duplicate entry for %s/%s", o.Provider, o.Model)
		}
		seen[k] = true
		if o.IsPattern() {
			r.patterns = append(r.patterns, o)
		} else {
			r.exact[k] = o
		}
		r.all = append(r.all, o)
	}
	// Longest prefix first so the most specific pattern matches.
	sort.SliceStable(r.patterns, func(i, j int) bool {
		return len(r.patterns[i].Model) > len(r.patterns[j].Model)
	})
	return r, nil
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := Load(overridesYAML)
	if err != nil {
		panic(err)
	}
	return r
})

// Default returns the registry built from the embedded table.
func Default() *Registry {
	return defaultRegistry()
}

// Lookup returns the override for a model, if any. An exact id beats a
// pattern.
func (r *Registry) Lookup(provider backend.Provider, model string) (Override, bool) {
	if o, ok := r.exact[key{provider, model}]; ok {
		return o, true
	}
	for _, o := range r.patterns {
		if o.Provider == provider && o.matches(model) {
			return o, true
		}
	}
	return Override{}, false
}

// Resolve returns the effective parameters for a model and thinking flag.
func (r *Registry) Resolve(provider backend.Provider, model string, thinking bool) Params {
	p := Params{
		Temperature: r.defaults.Temperature,
		TokenBudget: r.defaults.TokenBudget,
	}
	if thinking {
		if t, ok := r.defaults.ThinkingTemperature[provider]; ok {
			p.Temperature = t
		}
	}

	o, ok := r.Lookup(provider, model)
	if ok && o.TokenBudget != nil {
		p.TokenBudget = *o.TokenBudget
	}
	if thinking {
		p.TokenBudget *= r.defaults.ThinkingMultiplier
	}
	if ok && o.Temperature != nil {
		p.Temperature = *o.Temperature
		p.ForcedTemperature = true
	}
	return p
}

// Overrides returns every row in table order.
func (r *Registry) Overrides() []Override {
	out := make([]Override, len(r.all))
	copy(out, r.all)
	return out
}

// Defaults returns the generic mapping.
func (r *Registry) Defaults() Defaults {
	return r.defaults
}
