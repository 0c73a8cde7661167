package insight

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hindsight/internal/domain"
)

type fakeProvider struct {
	response    *Response
	err         error
	lastReq     *Request
	hadDeadline bool
}

func (p *fakeProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	p.lastReq = req
	_, p.hadDeadline = ctx.Deadline()
	if p.err != nil {
		return nil, p.err
	}
	return p.response, nil
}

func reviewed(title, outcome string, confidence int) domain.Decision {
	return domain.Decision{
		Title:      title,
		Context:    "career",
		Confidence: confidence,
		Review:     &domain.Review{Outcome: outcome, WhatHappened: "x"},
	}
}

func TestAnalyzeEmptyLog(t *testing.T) {
	a := Analyzer{Provider: &fakeProvider{}}
	in := a.Analyze(context.Background(), nil)
	assert.Empty(t, in.Patterns)
	require.Len(t, in.SuggestedReflections, 1)
	assert.Contains(t, in.SuggestedReflections[0], "Start tracking decisions")
}

func TestAnalyzeBelowThreshold(t *testing.T) {
	p := &fakeProvider{}
	a := Analyzer{Provider: p, Threshold: 3}
	in := a.Analyze(context.Background(), []domain.Decision{
		reviewed("one", "success", 5),
		{Title: "pending", Context: "other", Confidence: 4},
	})
	// only one reviewed decision, provider never called
	assert.Nil(t, p.lastReq)
	assert.Equal(t, []string{"Unable to analyze patterns at this time."}, in.Patterns)
}

func TestAnalyzeParsesProviderOutput(t *testing.T) {
	p := &fakeProvider{response: &Response{Content: "Here is my analysis:\n```json\n" + `{
		"patterns": ["You decide fast under pressure"],
		"cognitive_biases": ["overconfidence"],
		"suggested_reflections": ["What would change your mind?"]
	}` + "\n```"}}
	a := Analyzer{Provider: p}
	in := a.Analyze(context.Background(), []domain.Decision{reviewed("one", "failure", 9)})
	require.Equal(t, []string{"You decide fast under pressure"}, in.Patterns)
	assert.Equal(t, []string{"overconfidence"}, in.CognitiveBiases)
	assert.Equal(t, []string{"What would change your mind?"}, in.SuggestedReflections)

	require.NotNil(t, p.lastReq)
	assert.Contains(t, p.lastReq.SystemPrompt, "cognitive")
	assert.Contains(t, p.lastReq.UserPrompt, "one")
	// pending decisions stay out of the prompt
	assert.NotContains(t, p.lastReq.UserPrompt, "pending")
}

func TestAnalyzeProviderFailureFallsBack(t *testing.T) {
	a := Analyzer{Provider: &fakeProvider{err: errors.New("rate limited")}}
	in := a.Analyze(context.Background(), []domain.Decision{reviewed("one", "success", 5)})
	assert.Equal(t, []string{"Unable to analyze patterns at this time."}, in.Patterns)
	assert.Equal(t, []string{"Take some time to manually review your failed assumptions."}, in.SuggestedReflections)
}

func TestAnalyzeGarbageOutputFallsBack(t *testing.T) {
	a := Analyzer{Provider: &fakeProvider{response: &Response{Content: "I cannot answer that."}}}
	in := a.Analyze(context.Background(), []domain.Decision{reviewed("one", "success", 5)})
	assert.Equal(t, []string{"Unable to analyze patterns at this time."}, in.Patterns)
}

func TestParseInsightFillsNilSlices(t *testing.T) {
	in, err := parseInsight(`{"patterns": ["p"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"p"}, in.Patterns)
	assert.NotNil(t, in.CognitiveBiases)
	assert.NotNil(t, in.SuggestedReflections)
}

func TestNewProviderParsing(t *testing.T) {
	_, err := NewProvider("gemini:gemini-pro")
	assert.Error(t, err)
	_, err = NewProvider("nocolon")
	assert.Error(t, err)

	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err = NewProvider("anthropic:claude-sonnet-4-20250514")
	assert.Error(t, err)

	t.Setenv("ANTHROPIC_API_KEY", "sk-test-key-for-construction-only")
	p, err := NewProvider("anthropic:claude-sonnet-4-20250514")
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestAnthropicProviderRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"test-model","content":[{"type":"text","text":"{\"patterns\":[]}"}]}`))
	}))
	defer srv.Close()
	SetAnthropicAPIURL(srv.URL)
	defer SetAnthropicAPIURL("https://api.anthropic.com/v1/messages")

	p := &anthropicProvider{model: "test-model", apiKey: "sk-test"}
	resp, err := p.Complete(context.Background(), &Request{UserPrompt: "hello"})
	require.NoError(t, err)
	assert.True(t, strings.Contains(resp.Content, "patterns"))
}

func TestAnalyzeTimeoutIsBounded(t *testing.T) {
	p := &fakeProvider{response: &Response{Content: "{}"}}
	a := Analyzer{Provider: p, Timeout: time.Second}
	_ = a.Analyze(context.Background(), []domain.Decision{reviewed("one", "success", 5)})
	require.NotNil(t, p.lastReq)
	assert.True(t, p.hadDeadline)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hello...", truncate("hello world", 5))
}
