package sentiment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/ticketsense/ai/mocks"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		resp string
		want Label
	}{
		{"plain negative", "Negative.", Negative},
		{"padded upper", "  POSITIVE \n", Positive},
		{"neutral", "neutral", Neutral},
		{"positive wins over negative", "negative? no, positive overall", Positive},
		{"negative wins over neutral", "not neutral, clearly negative", Negative},
		{"empty", "", Neutral},
		{"whitespace only", " \t\n", Neutral},
		{"no keyword", "The customer seems upset.", Neutral},
		{"keyword inside sentence", "The sentiment is: Negative", Negative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.resp))
		})
	}
}

func TestClassifier_Classify(t *testing.T) {
	m := mocks.NewMockLLM().WithDefaultResponse("Negative.")
	c := NewClassifier(m, Options{})

	label, err := c.Classify(context.Background(), "I am furious")
	require.NoError(t, err)
	assert.Equal(t, Negative, label)

	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, promptPrefix+"I am furious", calls[0])
	assert.True(t, strings.HasPrefix(calls[0], "Determine the sentiment (positive, negative, or neutral)"))
}

func TestClassifier_SoftPolicyNeverFails(t *testing.T) {
	tests := []struct {
		name string
		llm  *mocks.MockLLM
	}{
		{"provider error", mocks.NewMockLLM().WithHandler(func(string) (string, error) {
			return "", errors.New("provider down")
		})},
		{"empty response", mocks.NewMockLLM().WithDefaultResponse("")},
		{"unrecognized response", mocks.NewMockLLM().WithDefaultResponse("I cannot tell")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(tt.llm, Options{Policy: PolicySoft})
			label, err := c.Classify(context.Background(), "anything")
			require.NoError(t, err)
			assert.Equal(t, Neutral, label)
		})
	}
}

func TestClassifier_SoftPolicyCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClassifier(mocks.NewMockLLM().WithDefaultResponse("positive"), Options{})
	label, err := c.Classify(ctx, "great service")
	require.NoError(t, err)
	assert.Equal(t, Neutral, label)
}

func TestClassifier_StrictPolicyPropagates(t *testing.T) {
	boom := errors.New("provider down")
	m := mocks.NewMockLLM().WithHandler(func(string) (string, error) { return "", boom })
	c := NewClassifier(m, Options{Policy: PolicyStrict})

	_, err := c.Classify(context.Background(), "anything")
	assert.ErrorIs(t, err, boom)

	// Unrecognized output is still a label, not an error.
	c = NewClassifier(mocks.NewMockLLM().WithDefaultResponse("unsure"), Options{Policy: PolicyStrict})
	label, err := c.Classify(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, Neutral, label)
}

func TestClassifier_Cache(t *testing.T) {
	m := mocks.NewMockLLM().WithDefaultResponse("positive")
	c := NewClassifier(m, Options{CacheSize: 10, CacheTTL: time.Minute})

	for i := 0; i < 3; i++ {
		label, err := c.Classify(context.Background(), "thanks, all fixed")
		require.NoError(t, err)
		assert.Equal(t, Positive, label)
	}
	assert.Len(t, m.Calls(), 1)

	stats, ok := c.cacheStats()
	require.True(t, ok)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestClassifier_CacheLookupHook(t *testing.T) {
	var lookups []bool
	m := mocks.NewMockLLM().WithDefaultResponse("negative")
	c := NewClassifier(m, Options{
		CacheSize:     4,
		OnCacheLookup: func(hit bool) { lookups = append(lookups, hit) },
	})

	for i := 0; i < 2; i++ {
		_, err := c.Classify(context.Background(), "still broken")
		require.NoError(t, err)
	}
	assert.Equal(t, []bool{false, true}, lookups)
}

func TestClassifier_CacheSkipsFailures(t *testing.T) {
	fail := true
	m := mocks.NewMockLLM().WithHandler(func(string) (string, error) {
		if fail {
			return "", errors.New("flaky")
		}
		return "negative", nil
	})
	c := NewClassifier(m, Options{CacheSize: 10})

	label, err := c.Classify(context.Background(), "refund me")
	require.NoError(t, err)
	assert.Equal(t, Neutral, label)

	fail = false
	label, err = c.Classify(context.Background(), "refund me")
	require.NoError(t, err)
	assert.Equal(t, Negative, label)
	assert.Len(t, m.Calls(), 2)
}

func TestClassifier_NoCacheByDefault(t *testing.T) {
	m := mocks.NewMockLLM().WithDefaultResponse("neutral")
	c := NewClassifier(m, Options{})

	for i := 0; i < 3; i++ {
		_, err := c.Classify(context.Background(), "same text")
		require.NoError(t, err)
	}
	assert.Len(t, m.Calls(), 3)

	_, ok := c.cacheStats()
	assert.False(t, ok)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicySoft, p)

	p, err = ParsePolicy(" Strict ")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	_, err = ParsePolicy("lenient")
	assert.Error(t, err)
}
