package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classify(t *testing.T, query string, explicit Mode) (Mode, float64, IntentSignals) {
	t.Helper()
	normalized := Normalize(query)
	mode, conf, signals, err := Classify(normalized, Extract(normalized), explicit)
	require.NoError(t, err)
	return mode, conf, signals
}

func TestClassifyEmptyQuery(t *testing.T) {
	_, _, _, err := Classify("", nil, "")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestClassifyShortQAQuery(t *testing.T) {
	mode, conf, _ := classify(t, "what is amma vodi", "")
	assert.Equal(t, ModeQA, mode)
	assert.Equal(t, 0.9, conf)
}

func TestClassifySpecificEntityIsQA(t *testing.T) {
	mode, conf, _ := classify(t, "Implications and analysis around Section 12 of the RTE Act please", "")
	assert.Equal(t, ModeQA, mode)
	assert.Equal(t, 0.85, conf)
}

func TestClassifyLongNeutralQueryIsDeepThink(t *testing.T) {
	query := strings.Repeat("school enrollment ", 8) + "numbers across districts over recent years"
	mode, conf, _ := classify(t, query, "")
	assert.Equal(t, ModeDeepThink, mode)
	assert.Equal(t, 0.7, conf)
}

func TestClassifyKeywordScores(t *testing.T) {
	mode, conf, _ := classify(t, "brainstorm creative innovative ideas suggestions strategies for better schooling outcomes overall", "")
	assert.Equal(t, ModeBrainstorm, mode)
	assert.GreaterOrEqual(t, conf, 0.6)
	assert.LessOrEqual(t, conf, 0.95)
}

func TestClassifyExplicitOverride(t *testing.T) {
	mode, conf, _ := classify(t, "what is section 12", ModeBrainstorm)
	assert.Equal(t, ModeBrainstorm, mode)
	assert.Equal(t, 1.0, conf)
}

func TestClassifySignalsNormalized(t *testing.T) {
	_, _, signals := classify(t, "analyze the complete comprehensive policy framework and evaluate impact", "")
	for name, v := range map[string]float64{
		"qa":            signals.QAScore,
		"deep_think":    signals.DeepThinkScore,
		"brainstorm":    signals.BrainstormScore,
		"comprehensive": signals.ComprehensiveScore,
		"specificity":   signals.SpecificityScore,
	} {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 1.0, name)
	}
	assert.Greater(t, signals.DeepThinkScore, 0.0)
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"", "qa", "deep_think", "brainstorm"} {
		_, ok := ParseMode(valid)
		assert.True(t, ok, valid)
	}
	_, ok := ParseMode("chat")
	assert.False(t, ok)
}
