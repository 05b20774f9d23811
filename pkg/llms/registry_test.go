package llms

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/cache"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/httpclient"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/observability"
)

// fakeGenerator scripts one generator's behavior for failover tests.
type fakeGenerator struct {
	name  string
	reply string
	err   error
	calls int
}

func (g *fakeGenerator) Name() string  { return g.name }
func (g *fakeGenerator) Model() string { return g.name + "-model" }
func (g *fakeGenerator) Close() error  { return nil }

func (g *fakeGenerator) Generate(_ context.Context, _ Request) (*Response, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &Response{Text: g.reply, Model: g.Model()}, nil
}

func TestRegistryFirstGeneratorWins(t *testing.T) {
	primary := &fakeGenerator{name: "primary", reply: "from primary"}
	backup := &fakeGenerator{name: "backup", reply: "from backup"}
	r := NewRegistry(primary, backup)

	resp, err := r.Generate(context.Background(), Request{Prompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, "from primary", resp.Text)
	assert.Zero(t, backup.calls)
}

func TestRegistryTransientFailover(t *testing.T) {
	primary := &fakeGenerator{name: "primary", err: errors.New("connection refused")}
	backup := &fakeGenerator{name: "backup", reply: "from backup"}
	r := NewRegistry(primary, backup)

	resp, err := r.Generate(context.Background(), Request{Prompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, "from backup", resp.Text)

	// Transient errors do not disable; the primary is retried next call.
	_, err = r.Generate(context.Background(), Request{Prompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, 2, primary.calls)
}

func TestRegistryPermanentFailureDisables(t *testing.T) {
	primary := &fakeGenerator{name: "primary", err: &httpclient.StatusError{StatusCode: 403, Message: "forbidden"}}
	backup := &fakeGenerator{name: "backup", reply: "from backup"}
	r := NewRegistry(primary, backup)

	resp, err := r.Generate(context.Background(), Request{Prompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, "from backup", resp.Text)

	_, err = r.Generate(context.Background(), Request{Prompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.True(t, r.Available())
}

func TestRegistryAllDisabled(t *testing.T) {
	only := &fakeGenerator{name: "only", err: &httpclient.StatusError{StatusCode: 401, Message: "bad key"}}
	r := NewRegistry(only)

	_, err := r.Generate(context.Background(), Request{Prompt: "q"})
	assert.Error(t, err)
	assert.False(t, r.Available())

	_, err = r.Generate(context.Background(), Request{Prompt: "q"})
	assert.Error(t, err)
	assert.Equal(t, 1, only.calls)
}

func TestRegistryAllFail(t *testing.T) {
	a := &fakeGenerator{name: "a", err: errors.New("boom")}
	b := &fakeGenerator{name: "b", err: errors.New("bust")}
	r := NewRegistry(a, b)

	_, err := r.Generate(context.Background(), Request{Prompt: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all generators failed")
}

// recordingMetrics captures LLM call and cache lookup recordings from the
// global sink.
type recordingMetrics struct {
	observability.NoopMetrics
	mu      sync.Mutex
	llm     []string
	lookups map[string]int
}

func (m *recordingMetrics) RecordLLMCall(model string, _ time.Duration, _, _ int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	outcome := "ok"
	if err != nil {
		outcome = "err"
	}
	m.llm = append(m.llm, model+":"+outcome)
}

func (m *recordingMetrics) RecordCacheLookup(cache string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	if m.lookups == nil {
		m.lookups = make(map[string]int)
	}
	m.lookups[cache+":"+outcome]++
}

func installRecordingMetrics(t *testing.T) *recordingMetrics {
	t.Helper()
	rec := &recordingMetrics{}
	observability.SetGlobalMetrics(rec)
	t.Cleanup(func() { observability.SetGlobalMetrics(observability.NoopMetrics{}) })
	return rec
}

func TestRegistryRecordsLLMCalls(t *testing.T) {
	rec := installRecordingMetrics(t)

	primary := &fakeGenerator{name: "primary", err: errors.New("connection refused")}
	backup := &fakeGenerator{name: "backup", reply: "from backup"}
	r := NewRegistry(primary, backup)

	_, err := r.Generate(context.Background(), Request{Prompt: "q"})
	require.NoError(t, err)

	assert.Equal(t, []string{"primary-model:err", "backup-model:ok"}, rec.llm)
}

func TestCachedSynthesizerRecordsCacheLookups(t *testing.T) {
	rec := installRecordingMetrics(t)

	store, err := cache.NewFileCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	inner := &fakeGenerator{name: "inner", reply: "answer"}
	s := NewCachedSynthesizer(inner, store, "inner-model", 0.2)
	req := Request{TaskType: "compose", Prompt: "q", Temperature: 0.1}

	_, err = s.Generate(context.Background(), req)
	require.NoError(t, err)
	_, err = s.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.lookups["llm:miss"])
	assert.Equal(t, 1, rec.lookups["llm:hit"])
}

func TestCachedSynthesizerRoundTrip(t *testing.T) {
	store, err := cache.NewFileCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	inner := &fakeGenerator{name: "inner", reply: "cached answer"}
	s := NewCachedSynthesizer(inner, store, "inner-model", 0.2)
	req := Request{TaskType: "compose", Prompt: "q", Temperature: 0.1}

	first, err := s.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := s.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, "cached answer", second.Text)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedSynthesizerHotCallsBypass(t *testing.T) {
	store, err := cache.NewFileCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	inner := &fakeGenerator{name: "inner", reply: "fresh each time"}
	s := NewCachedSynthesizer(inner, store, "inner-model", 0.2)
	req := Request{TaskType: "compose", Prompt: "q", Temperature: 0.4}

	_, err = s.Generate(context.Background(), req)
	require.NoError(t, err)
	_, err = s.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSynthesizerNilStorePassesThrough(t *testing.T) {
	inner := &fakeGenerator{name: "inner", reply: "direct"}
	s := NewCachedSynthesizer(inner, nil, "inner-model", 0.2)

	resp, err := s.Generate(context.Background(), Request{Prompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, "direct", resp.Text)
}

func TestCachedSynthesizerDistinctPrompts(t *testing.T) {
	store, err := cache.NewFileCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	inner := &fakeGenerator{name: "inner", reply: "answer"}
	s := NewCachedSynthesizer(inner, store, "inner-model", 0.2)

	_, err = s.Generate(context.Background(), Request{TaskType: "compose", Prompt: "one"})
	require.NoError(t, err)
	_, err = s.Generate(context.Background(), Request{TaskType: "compose", Prompt: "two"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}
