package http

import (
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zen-manager/internal/config"
	"zen-manager/internal/shell/shelltest"
)

func setup(t *testing.T, allow, deny []string, timeout time.Duration) *Plugin {
	t.Helper()
	m, err := config.Default()
	require.NoError(t, err)
	m.Plugins.HTTP = config.HTTPConfig{Allow: allow, Deny: deny, Timeout: timeout}

	h := shelltest.NewHost(m)
	t.Cleanup(h.Bus.Shutdown)

	p := New()
	require.NoError(t, p.Setup(context.Background(), h))
	t.Cleanup(p.Shutdown)
	return p
}

func TestScope(t *testing.T) {
	s, err := NewScope(
		[]string{"https://api.groq.com/*", "http://localhost:11434/*"},
		[]string{"https://api.groq.com/admin/*"},
	)
	require.NoError(t, err)

	assert.True(t, s.Allows("https://api.groq.com/openai/v1/chat/completions"))
	assert.True(t, s.Allows("http://localhost:11434/api/tags"))
	assert.False(t, s.Allows("https://api.groq.com/admin/keys"))
	assert.False(t, s.Allows("https://api.groq.com.evil.net/x"))
	assert.False(t, s.Allows("http://localhost:8080/api/tags"))

	wild, err := NewScope([]string{"https://*.example.com/*"}, nil)
	require.NoError(t, err)
	assert.True(t, wild.Allows("https://api.example.com/v1"))
	assert.False(t, wild.Allows("https://attacker.test/x.example.com/steal"))
	assert.False(t, wild.Allows("https://user@attacker.test/.example.com/"))
	assert.False(t, wild.Allows("http://api.example.com/v1"))

	origin, err := NewScope([]string{"http://localhost:11434"}, nil)
	require.NoError(t, err)
	assert.True(t, origin.Allows("http://localhost:11434/"))
	assert.False(t, origin.Allows("http://localhost:11434/api/tags"))

	empty, err := NewScope(nil, nil)
	require.NoError(t, err)
	assert.False(t, empty.Allows("https://example.com/"))
}

func TestFetchPostsAndReturnsResponse(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, nethttp.MethodPost, r.Method)
		assert.Equal(t, "/openai/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.JSONEq(t, `{"model":"llama"}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(nethttp.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	p := setup(t, []string{server.URL + "/*"}, nil, time.Second)

	resp, err := p.Fetch(context.Background(), FetchRequest{
		Method:  "post",
		URL:     server.URL + "/openai/v1/chat/completions",
		Headers: map[string]string{"Authorization": "Bearer key", "Content-Type": "application/json"},
		Body:    []byte(`{"model":"llama"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, nethttp.StatusCreated, resp.Status)
	assert.Equal(t, "Created", resp.StatusText)
	assert.True(t, resp.OK())
	assert.JSONEq(t, `{"ok":true}`, resp.Text())
	assert.Equal(t, []string{"application/json"}, resp.Headers["Content-Type"])
}

func TestNonSuccessStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusTooManyRequests)
	}))
	defer server.Close()

	p := setup(t, []string{server.URL + "/*"}, nil, time.Second)

	resp, err := p.Fetch(context.Background(), FetchRequest{URL: server.URL + "/api/tags"})
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusTooManyRequests, resp.Status)
	assert.False(t, resp.OK())
}

func TestFetchRejectsOutOfScope(t *testing.T) {
	p := setup(t, []string{"https://api.groq.com/*"}, nil, time.Second)

	_, err := p.Fetch(context.Background(), FetchRequest{URL: "https://example.com/"})
	assert.ErrorIs(t, err, ErrURLNotAllowed)

	_, err = p.Fetch(context.Background(), FetchRequest{URL: "file:///etc/passwd"})
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestFetchRejectsRedirectOutOfScope(t *testing.T) {
	outside := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte("secret"))
	}))
	defer outside.Close()

	allowed := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.Redirect(w, r, outside.URL+"/data", nethttp.StatusFound)
	}))
	defer allowed.Close()

	p := setup(t, []string{allowed.URL + "/*"}, nil, time.Second)

	resp, err := p.Fetch(context.Background(), FetchRequest{URL: allowed.URL + "/start"})
	assert.ErrorIs(t, err, ErrURLNotAllowed)
	assert.Nil(t, resp)
}

func TestFetchFollowsRedirectInScope(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path == "/old" {
			nethttp.Redirect(w, r, "/new", nethttp.StatusMovedPermanently)
			return
		}
		_, _ = w.Write([]byte("moved"))
	}))
	defer server.Close()

	p := setup(t, []string{server.URL + "/*"}, nil, time.Second)

	resp, err := p.Fetch(context.Background(), FetchRequest{URL: server.URL + "/old"})
	require.NoError(t, err)
	assert.Equal(t, "moved", resp.Text())
	assert.Equal(t, server.URL+"/new", resp.URL)
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	p := setup(t, []string{server.URL + "/*"}, nil, time.Minute)

	start := time.Now()
	_, err := p.Fetch(context.Background(), FetchRequest{URL: server.URL + "/slow", Timeout: 30 * time.Millisecond})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFetchBeforeSetup(t *testing.T) {
	_, err := New().Fetch(context.Background(), FetchRequest{URL: "https://api.groq.com/x"})
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestFetchCommand(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	p := setup(t, []string{server.URL + "/*"}, nil, time.Second)

	args, err := json.Marshal(map[string]interface{}{"url": server.URL + "/api/tags", "timeoutMs": 1000})
	require.NoError(t, err)

	out, err := p.Commands()["fetch"](context.Background(), args)
	require.NoError(t, err)

	resp, ok := out.(*FetchResponse)
	require.True(t, ok)
	assert.Equal(t, nethttp.StatusOK, resp.Status)
	assert.JSONEq(t, `{"models":[]}`, resp.Text())
}
