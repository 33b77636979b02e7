package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth0Service_GetUserInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/userinfo", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid_token"}`))
			return
		}
		w.Write([]byte(`{"sub":"auth0|123","email":"kim@example.com","name":"Kim"}`))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Auth0Domain = server.URL
	svc := NewAuth0Service(cfg)

	info, err := svc.GetUserInfo(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Equal(t, "auth0|123", info.Sub)
	assert.Equal(t, "kim@example.com", info.Email)

	_, err = svc.GetUserInfo(context.Background(), "bad-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestNewAuth0Service_AddsScheme(t *testing.T) {
	cfg := testConfig()
	cfg.Auth0Domain = "arco.auth0.com"

	svc := NewAuth0Service(cfg)
	assert.Equal(t, "https://arco.auth0.com", svc.baseURL)
}
