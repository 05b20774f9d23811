package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSection(t *testing.T) {
	entities := Extract(Normalize("What is Section 12A(1) of RTE Act?"))
	require.NotEmpty(t, entities[EntitySection])
	assert.Equal(t, "12a(1)", entities[EntitySection][0].Normalized)
}

func TestExtractGONumber(t *testing.T) {
	cases := map[string]string{
		"g.o.ms.no.190 school education": "190",
		"go 26 dated 16-02-2019":         "26",
		"notification no. 42 of 2021":    "42",
		"g.o.ms.no.026":                  "26",
	}
	for query, want := range cases {
		entities := Extract(query)
		require.NotEmpty(t, entities[EntityGONumber], "query: %s", query)
		assert.Equal(t, want, entities[EntityGONumber][0].Normalized, "query: %s", query)
	}
}

func TestExtractYear(t *testing.T) {
	entities := Extract("enrollment data for 2020-21 and 2023")
	require.Len(t, entities[EntityYear], 2)
	assert.Equal(t, "2020-21", entities[EntityYear][0].Normalized)
	assert.Equal(t, "2023", entities[EntityYear][1].Normalized)
}

func TestExtractCaseNumber(t *testing.T) {
	entities := Extract(Normalize("W.P. No. 123 of 2020 regarding fee regulation"))
	require.NotEmpty(t, entities[EntityCaseNumber])
	assert.Equal(t, "123/2020", entities[EntityCaseNumber][0].Normalized)
}

func TestExtractActName(t *testing.T) {
	entities := Extract(Normalize("Right to Education Act, 2009"))
	require.NotEmpty(t, entities[EntityActName])
	assert.Contains(t, entities[EntityActName][0].Normalized, "Act")
	assert.Contains(t, entities[EntityActName][0].Normalized, "2009")
}

func TestExtractSpans(t *testing.T) {
	query := "section 12 and section 12"
	entities := Extract(query)
	require.Len(t, entities[EntitySection], 2)

	first, second := entities[EntitySection][0], entities[EntitySection][1]
	assert.Equal(t, first.Normalized, second.Normalized)
	assert.Less(t, first.Start, second.Start)
	assert.Equal(t, "section 12", query[first.Start:first.End])
}

func TestUniqueNormalized(t *testing.T) {
	entities := Extract("section 12 and section 12 and section 21")
	unique := UniqueNormalized(entities[EntitySection])
	assert.Equal(t, []string{"12", "21"}, unique)
}

func TestExtractIdempotentOnNormalizedOutput(t *testing.T) {
	entities := Extract("go 190")
	require.NotEmpty(t, entities[EntityGONumber])
	norm := entities[EntityGONumber][0].Normalized

	again := Extract("go " + norm)
	require.NotEmpty(t, again[EntityGONumber])
	assert.Equal(t, norm, again[EntityGONumber][0].Normalized)
}
