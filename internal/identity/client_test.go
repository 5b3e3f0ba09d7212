package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyTokenSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u1","email":"alice@example.com","user_metadata":{"username":"alice"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "anon-key")
	user, err := client.VerifyToken(context.Background(), "tok123")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "alice", user.Username)
}

func TestVerifyTokenRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	_, err := client.VerifyToken(context.Background(), "expired")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenEmptyToken(t *testing.T) {
	client := NewClient("http://identity.invalid", "")
	_, err := client.VerifyToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	_, err := client.VerifyToken(context.Background(), "tok")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidToken))
}

func TestVerifyTokenMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"email":"ghost@example.com"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	_, err := client.VerifyToken(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
