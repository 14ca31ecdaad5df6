package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTreatsPlaceholdersAsUnset(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://your-project.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "your-anon-key")
	t.Setenv("ELEVENLABS_API_KEY", "your-elevenlabs-key")
	t.Setenv("PEXELS_API_KEY", "")
	t.Setenv("AUTH_PROVIDER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.Supabase.URL)
	assert.Empty(t, cfg.Supabase.AnonKey)
	assert.Empty(t, cfg.ElevenLabs.APIKey)
	assert.False(t, cfg.Supabase.Configured())
	assert.True(t, cfg.DemoMode())
}

func TestLoadFallsBackToViteNames(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("VITE_SUPABASE_URL", "https://abc.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "")
	t.Setenv("VITE_SUPABASE_ANON_KEY", "anon")
	t.Setenv("AUTH_PROVIDER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://abc.supabase.co", cfg.Supabase.URL)
	assert.Equal(t, AuthProviderSupabase, cfg.ResolvedAuthProvider())
	assert.False(t, cfg.DemoMode())
}

func TestResolvedAuthProvider(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "supabaseRequestedButUnconfigured",
			cfg:  Config{Auth: AuthConfig{Provider: AuthProviderSupabase}},
			want: AuthProviderNone,
		},
		{
			name: "localWithSecretAndDatabase",
			cfg: Config{
				Auth:     AuthConfig{Provider: AuthProviderLocal, JWTSecret: "s"},
				Database: DatabaseConfig{URL: "postgres://localhost/db"},
			},
			want: AuthProviderLocal,
		},
		{
			name: "localWithoutDatabase",
			cfg:  Config{Auth: AuthConfig{Provider: AuthProviderLocal, JWTSecret: "s"}},
			want: AuthProviderNone,
		},
		{
			name: "explicitNone",
			cfg: Config{
				Auth:     AuthConfig{Provider: AuthProviderNone},
				Supabase: SupabaseConfig{URL: "https://abc.supabase.co", AnonKey: "k"},
			},
			want: AuthProviderNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.ResolvedAuthProvider())
		})
	}
}

func TestLoadProcessingDelay(t *testing.T) {
	t.Setenv("CREATION_PROCESSING_DELAY", "250ms")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Creation.ProcessingDelay)

	t.Setenv("CREATION_PROCESSING_DELAY", "soon")
	_, err = Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	assert.Empty(t, DatabaseConfig{}.DSN())
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable",
		DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", DBName: "d", SSLMode: "disable"}.DSN())
	assert.Equal(t, "postgres://x", DatabaseConfig{URL: "postgres://x", Host: "h"}.DSN())
}

func TestSupabaseTableKey(t *testing.T) {
	assert.Equal(t, "anon", SupabaseConfig{AnonKey: "anon"}.TableKey())
	assert.Equal(t, "service", SupabaseConfig{AnonKey: "anon", ServiceKey: "service"}.TableKey())
}
