package registry

import (
	"testing"

	"github.com/dshills/reviewgen/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveUnknownModel(t *testing.T) {
	r := Default()
	for _, provider := range []backend.Provider{backend.ProviderOpenAI, backend.ProviderAnthropic} {
		off := r.Resolve(provider, "some-unknown-model", false)
		assert.Equal(t, 0.0, off.Temperature)
		assert.Equal(t, 1024, off.TokenBudget)
		assert.False(t, off.ForcedTemperature)

		on := r.Resolve(provider, "some-unknown-model", true)
		assert.Equal(t, 2*off.TokenBudget, on.TokenBudget)
		assert.Greater(t, on.Temperature, 0.0)
	}
	assert.Equal(t, 0.2, r.Resolve(backend.ProviderOpenAI, "x", true).Temperature)
	assert.Equal(t, 1.0, r.Resolve(backend.ProviderAnthropic, "x", true).Temperature)
}

func TestResolveForcedTemperature(t *testing.T) {
	r := Default()
	for _, model := range []string{"o1-preview", "o3-mini", "o4-mini", "gpt-5", "gpt-5-codex", "gpt-5.2"} {
		for _, thinking := range []bool{false, true} {
			p := r.Resolve(backend.ProviderOpenAI, model, thinking)
			assert.Equal(t, 1.0, p.Temperature, "%s thinking=%v", model, thinking)
			assert.True(t, p.ForcedTemperature)
		}
	}
}

func TestLookupPrecedence(t *testing.T) {
	r := Default()

	o, ok := r.Lookup(backend.ProviderOpenAI, "gpt-5-codex")
	require.True(t, ok)
	assert.Equal(t, "gpt-5-codex", o.Model, "exact id beats gpt-5* pattern")
	assert.Equal(t, 4096, r.Resolve(backend.ProviderOpenAI, "gpt-5-codex", false).TokenBudget)

	o, ok = r.Lookup(backend.ProviderOpenAI, "gpt-5-mini")
	require.True(t, ok)
	assert.Equal(t, "gpt-5*", o.Model)

	_, ok = r.Lookup(backend.ProviderAnthropic, "gpt-5")
	assert.False(t, ok, "overrides are per provider")
}

func TestLoadLongestPatternWins(t *testing.T) {
	r, err := Load([]byte(`
defaults:
  tokenBudget: 1000
overrides:
  - {provider: openai, model: "gpt*", tokenBudget: 10}
  - {provider: openai, model: "gpt-4o*", tokenBudget: 20}
`))
	require.NoError(t, err)
	assert.Equal(t, 20, r.Resolve(backend.ProviderOpenAI, "gpt-4o-mini", false).TokenBudget)
	assert.Equal(t, 10, r.Resolve(backend.ProviderOpenAI, "gpt-3.5", false).TokenBudget)
	assert.Equal(t, 40, r.Resolve(backend.ProviderOpenAI, "gpt-4o", true).TokenBudget)
}

func TestLoadRejectsDuplicates(t *testing.T) {
	_, err := Load([]byte(`
defaults:
  tokenBudget: 1000
overrides:
  - {provider: openai, model: "o3*", temperature: 1}
  - {provider: openai, model: "o3*", temperature: 0}
`))
	assert.ErrorContains(t, err, "duplicate")
}

func TestLoadRequiresBudget(t *testing.T) {
	_, err := Load([]byte(`overrides: []`))
	assert.Error(t, err)
}

func TestLoadRejectsUnusableOverrideBudget(t *testing.T) {
	for _, budget := range []string{"0", "-5", "1"} {
		t.Run(budget, func(t *testing.T) {
			_, err := Load([]byte(`
defaults:
  tokenBudget: 1000
overrides:
  - {provider: openai, model: "tiny", tokenBudget: ` + budget + `}
`))
			assert.ErrorContains(t, err, "tokenBudget must be at least 2")
		})
	}
}

func TestLoadRejectsUnusableDefaultBudget(t *testing.T) {
	_, err := Load([]byte("defaults:\n  tokenBudget: 1\n"))
	assert.ErrorContains(t, err, "defaults.tokenBudget")
}
