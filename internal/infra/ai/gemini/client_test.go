package gemini

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/ai"
)

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", "", "")
	assert.Error(t, err)
}

func TestComplete(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"overallScore\":55}"}]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), "k", "gemini-2.5-flash", srv.URL)
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), ai.CompletionRequest{System: "sys", Prompt: "p", MaxTokens: 16384})
	require.NoError(t, err)
	assert.Equal(t, `{"overallScore":55}`, out)
	assert.True(t, strings.Contains(path, "gemini-2.5-flash:generateContent"), path)
}

func TestComplete_Quota(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`)
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), "k", "", srv.URL)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), ai.CompletionRequest{Prompt: "p"})
	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
}
