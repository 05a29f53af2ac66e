package research

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quantforge/llmcore/llm"
	"github.com/quantforge/llmcore/llm/providers"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestExpensiveModelGate(t *testing.T) {
	cases := []struct {
		name           string
		allowExpensive bool
		reasoningMode  string
		wantModel      string
	}{
		{"default model without reasoning", true, "", "sonar"},
		{"deep research allowed", true, "extended", "sonar-deep-research"},
		{"deep research blocked", false, "extended", "sonar"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotModel string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body providers.OpenAICompatRequest
				_ = json.NewDecoder(r.Body).Decode(&body)
				gotModel = body.Model
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(providers.OpenAICompatResponse{
					ID: "id", Model: body.Model,
					Choices: []providers.OpenAICompatChoice{
						{Index: 0, FinishReason: "stop", Message: providers.OpenAICompatMessage{Role: "assistant", Content: "ok"}},
					},
				})
			}))
			defer server.Close()

			p := New(providers.PerplexityConfig{
				BaseProviderConfig: providers.BaseProviderConfig{APIKey: "k", BaseURL: server.URL},
				AllowExpensive:     tc.allowExpensive,
			}, zap.NewNop())

			_, err := p.Completion(context.Background(), &llm.ChatRequest{
				ReasoningMode: tc.reasoningMode,
				Messages:      []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
			})
			assert.NoError(t, err)
			assert.Equal(t, tc.wantModel, gotModel)
		})
	}
}

func TestDoesNotSupportNativeToolCalling(t *testing.T) {
	p := New(providers.PerplexityConfig{}, zap.NewNop())
	assert.False(t, p.SupportsNativeFunctionCalling())
}
