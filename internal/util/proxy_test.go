package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProxyFunc_Explicit(t *testing.T) {
	fn := NewProxyFunc("http://proxy.local:3128", "", "internal.example")

	req := httptest.NewRequest(http.MethodGet, "https://api.groq.com/openai/v1", nil)
	u, err := fn(req)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "proxy.local:3128", u.Host)

	req = httptest.NewRequest(http.MethodGet, "http://internal.example/x", nil)
	u, err = fn(req)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestNewProxyFunc_HTTPSOverride(t *testing.T) {
	fn := NewProxyFunc("http://plain.local:80", "http://secure.local:443", "")

	u, err := fn(httptest.NewRequest(http.MethodGet, "https://example.com", nil))
	require.NoError(t, err)
	assert.Equal(t, "secure.local:443", u.Host)

	u, err = fn(httptest.NewRequest(http.MethodGet, "http://example.com", nil))
	require.NoError(t, err)
	assert.Equal(t, "plain.local:80", u.Host)
}

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient(5*time.Second, "", "", "")
	assert.Equal(t, 5*time.Second, c.Timeout)
	assert.NotNil(t, c.Transport)
}
