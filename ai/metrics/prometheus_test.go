package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/ticketsense/ai/core/llm"
)

// counterValue sums every sample of the named family whose labels include want.
func counterValue(t *testing.T, e *PrometheusExporter, name string, want map[string]string) float64 {
	t.Helper()
	families, err := e.Registry().Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue metrics
				}
			}
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return total
}

func TestPrometheusExporter_LLMCalls(t *testing.T) {
	e := NewPrometheusExporter(DefaultConfig())

	e.ObserveLLMCall("openai", "gpt-4", 800*time.Millisecond, &llm.LLMCallStats{PromptTokens: 120, CompletionTokens: 30}, nil)
	e.ObserveLLMCall("openai", "gpt-4", 200*time.Millisecond, &llm.LLMCallStats{PromptTokens: 80, CompletionTokens: 10, CacheReadTokens: 64}, nil)
	e.ObserveLLMCall("openai", "gpt-4", time.Second, nil, errors.New("429"))

	assert.Equal(t, 2.0, counterValue(t, e, "ticketsense_ai_llm_calls_total", map[string]string{"status": "success"}))
	assert.Equal(t, 1.0, counterValue(t, e, "ticketsense_ai_llm_calls_total", map[string]string{"status": "error"}))
	assert.Equal(t, 200.0, counterValue(t, e, "ticketsense_ai_llm_tokens_total", map[string]string{"token_type": "prompt"}))
	assert.Equal(t, 40.0, counterValue(t, e, "ticketsense_ai_llm_tokens_total", map[string]string{"token_type": "completion"}))
	assert.Equal(t, 64.0, counterValue(t, e, "ticketsense_ai_llm_tokens_total", map[string]string{"token_type": "cached"}))
	assert.Equal(t, 3.0, counterValue(t, e, "ticketsense_ai_llm_latency_seconds", nil))
}

func TestPrometheusExporter_Pipeline(t *testing.T) {
	e := NewPrometheusExporter(DefaultConfig())

	e.RecordIngest(2*time.Second, 3, nil)
	e.RecordIngest(time.Second, 0, errors.New("reduce failed"))
	e.RecordSearch(time.Second, false, nil)
	e.RecordSearch(time.Second, true, nil)
	e.RecordSearch(time.Second, true, errors.New("embed failed"))
	e.RecordSentiment("negative")
	e.RecordSentiment("negative")
	e.SetIndexSize(7)
	e.RecordCacheHit("sentiment")
	e.RecordCacheMiss("sentiment")

	assert.Equal(t, 1.0, counterValue(t, e, "ticketsense_ai_ingest_total", map[string]string{"status": "success"}))
	assert.Equal(t, 1.0, counterValue(t, e, "ticketsense_ai_ingest_total", map[string]string{"status": "error"}))
	assert.Equal(t, 1.0, counterValue(t, e, "ticketsense_ai_ingest_chunks", nil), "failed ingests have no chunk count")
	assert.Equal(t, 1.0, counterValue(t, e, "ticketsense_ai_search_total", map[string]string{"status": "success"}))
	assert.Equal(t, 1.0, counterValue(t, e, "ticketsense_ai_search_total", map[string]string{"status": "fallback"}))
	assert.Equal(t, 1.0, counterValue(t, e, "ticketsense_ai_search_total", map[string]string{"status": "error"}))
	assert.Equal(t, 2.0, counterValue(t, e, "ticketsense_ai_sentiment_total", map[string]string{"label": "negative"}))
	assert.Equal(t, 7.0, counterValue(t, e, "ticketsense_ai_index_records", nil))
	assert.Equal(t, 1.0, counterValue(t, e, "ticketsense_ai_cache_hits_total", map[string]string{"cache_type": "sentiment"}))
}

func TestPrometheusExporter_AsCallObserver(t *testing.T) {
	e := NewPrometheusExporter(DefaultConfig())
	var observer llm.CallObserver = e.ObserveLLMCall

	observer("deepseek", "deepseek-chat", time.Millisecond, &llm.LLMCallStats{PromptTokens: 5}, nil)
	assert.Equal(t, 1.0, counterValue(t, e, "ticketsense_ai_llm_calls_total", map[string]string{"provider": "deepseek"}))
}

func TestPrometheusExporter_Handler(t *testing.T) {
	e := NewPrometheusExporter(DefaultConfig())
	e.RecordIngest(time.Second, 1, nil)
	e.SetIndexSize(1)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "ticketsense_ai_ingest_total")
	assert.Contains(t, body, "ticketsense_ai_index_records 1")
}

func TestPrometheusExporter_DefaultBuckets(t *testing.T) {
	e := NewPrometheusExporter(Config{})
	e.RecordSearch(90*time.Second, false, nil)

	families, err := e.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "ticketsense_ai_search_latency_seconds" {
			buckets := mf.GetMetric()[0].GetHistogram().GetBucket()
			assert.Len(t, buckets, len(DefaultConfig().LatencyBuckets))
			return
		}
	}
	t.Fatal("search latency histogram not exported")
}
