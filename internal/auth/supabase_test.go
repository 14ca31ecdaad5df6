package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supabase-community/gotrue-go"

	"github.com/invisireel/backend/internal/models"
)

func newFakeGoTrue(t *testing.T, userID uuid.UUID) *httptest.Server {
	t.Helper()
	user := map[string]interface{}{
		"id":            userID.String(),
		"email":         "creator@example.com",
		"user_metadata": map[string]interface{}{"full_name": "Creator"},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "right" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "access", "refresh_token": "refresh", "expires_in": 3600, "user": user,
		})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid JWT"}`))
			return
		}
		if r.Method == http.MethodPut {
			var body struct {
				Data map[string]interface{} `json:"data"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			meta := user["user_metadata"].(map[string]interface{})
			for k, v := range body.Data {
				meta[k] = v
			}
		}
		_ = json.NewEncoder(w).Encode(user)
	})
	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/signup", func(w http.ResponseWriter, r *http.Request) {
		// email confirmation on: user only, no session
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": uuid.NewString(), "email": "new@example.com"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestSupabase(t *testing.T, secret string) (*SupabaseProvider, uuid.UUID) {
	id := uuid.New()
	srv := newFakeGoTrue(t, id)
	client := gotrue.New("test", "anon").WithCustomGoTrueURL(srv.URL)
	return newSupabaseProvider(client, secret, nil), id
}

func TestSupabaseSignInAndSession(t *testing.T) {
	p, id := newTestSupabase(t, "")
	ctx := context.Background()

	_, err := p.SignIn(ctx, Credentials{Email: "creator@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	sess, err := p.SignIn(ctx, Credentials{Email: "creator@example.com", Password: "right"})
	require.NoError(t, err)
	assert.Equal(t, "access", sess.AccessToken)
	assert.Equal(t, 3600, sess.ExpiresIn)
	assert.Equal(t, id, sess.Identity.ID)

	identity, err := p.Session(ctx, "access")
	require.NoError(t, err)
	assert.Equal(t, "Creator", identity.DisplayName())

	_, err = p.Session(ctx, "stale")
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.NoError(t, p.SignOut(ctx, "access"))
	_, err = p.Session(ctx, "access")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSupabaseUpdateMetadata(t *testing.T) {
	p, _ := newTestSupabase(t, "")
	identity, err := p.UpdateMetadata(context.Background(), "access", map[string]interface{}{"bio": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", identity.Metadata["bio"])
	assert.Equal(t, "Creator", identity.Metadata["full_name"])
}

func TestSupabaseSignUpWithoutSession(t *testing.T) {
	p, _ := newTestSupabase(t, "")
	sess, err := p.SignUp(context.Background(), Credentials{Email: "new@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Empty(t, sess.AccessToken)
	assert.Equal(t, "new@example.com", sess.Identity.Email)
}

func TestSupabaseLocalVerification(t *testing.T) {
	p, _ := newTestSupabase(t, "project-secret")
	signer := NewJWTService("project-secret", 1)
	in := &models.Identity{ID: uuid.New(), Email: "jwt@example.com"}
	tok, err := signer.Generate(in)
	require.NoError(t, err)

	identity, err := p.Session(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, in.ID, identity.ID)

	_, err = p.Session(context.Background(), "access")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSupabaseSignOutRevokesLocallyVerifiedToken(t *testing.T) {
	p, _ := newTestSupabase(t, "project-secret")
	signer := NewJWTService("project-secret", 1)
	ctx := context.Background()
	in := &models.Identity{ID: uuid.New(), Email: "jwt@example.com"}
	tok, err := signer.Generate(in)
	require.NoError(t, err)
	other, err := signer.Generate(in)
	require.NoError(t, err)

	_, err = p.Session(ctx, tok)
	require.NoError(t, err)
	require.NoError(t, p.SignOut(ctx, tok))

	_, err = p.Session(ctx, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = p.Session(ctx, other)
	assert.NoError(t, err)
}
