package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdb/askdb/internal/askerrors"
	"github.com/askdb/askdb/internal/models"
	"github.com/askdb/askdb/internal/prompt"
)

func newChatClient(baseURL string) *ChatClient {
	return NewChatClient(ChatParams{
		APIKey:      "test-key",
		BaseURL:     baseURL,
		Model:       "gpt-3.5-turbo",
		Temperature: 0.7,
		TopP:        1.0,
	})
}

func chatResponse(content string) string {
	return `{"id":"cmpl-1","object":"chat.completion","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` + mustJSON(content) + `}}]}`
}

func mustJSON(s string) string {
	out, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	return string(out)
}

func TestChatClient_Generate(t *testing.T) {
	t.Run("maps prompt roles onto chat messages", func(t *testing.T) {
		var received map[string]any

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(chatResponse("```sql\nSELECT COUNT(*) FROM users;\n```")))
		}))
		defer srv.Close()

		qa := []models.ScoredArtifact{{
			Artifact: models.TrainingArtifact{
				Kind:     models.ArtifactKindQA,
				Question: "How many orders shipped?",
				SQL:      "SELECT COUNT(*) FROM orders WHERE shipped;",
			},
			Score: 0.9,
		}}
		p := prompt.NewAssembler("PostgreSQL", 100000).Assemble("how many users?", qa, nil, nil)

		out, err := newChatClient(srv.URL).Generate(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, "```sql\nSELECT COUNT(*) FROM users;\n```", out)

		assert.Equal(t, "gpt-3.5-turbo", received["model"])
		assert.InDelta(t, 0.7, received["temperature"].(float64), 1e-9)
		assert.InDelta(t, 1.0, received["top_p"].(float64), 1e-9)

		messages, ok := received["messages"].([]any)
		require.True(t, ok)
		require.Len(t, messages, 4)

		roles := make([]string, 0, len(messages))
		for _, m := range messages {
			roles = append(roles, m.(map[string]any)["role"].(string))
		}
		assert.Equal(t, []string{"system", "user", "assistant", "user"}, roles)

		last := messages[3].(map[string]any)
		assert.Equal(t, "how many users?", last["content"])
	})

	t.Run("unreachable endpoint is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()

		_, err := newChatClient(srv.URL).Generate(context.Background(), prompt.Prompt{})
		assert.ErrorIs(t, err, askerrors.ErrInferenceUnavailable)
	})

	t.Run("empty assistant content is a protocol error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(chatResponse("   ")))
		}))
		defer srv.Close()

		_, err := newChatClient(srv.URL).Generate(context.Background(), prompt.Prompt{})
		assert.ErrorIs(t, err, askerrors.ErrInferenceProtocol)
	})

	t.Run("response without choices is a protocol error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"cmpl-2","object":"chat.completion","choices":[]}`))
		}))
		defer srv.Close()

		_, err := newChatClient(srv.URL).Generate(context.Background(), prompt.Prompt{})
		assert.ErrorIs(t, err, askerrors.ErrInferenceProtocol)
	})
}
