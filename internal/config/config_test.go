package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/farum-panel/internal/adapters/auth"
	"github.com/PabloGalante/farum-panel/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"FARUM_CONFIG", "FARUM_ADDR", "FARUM_PORT", "FARUM_DEBUG", "FARUM_BACKEND",
		"FARUM_USE_MOCK_LLM", "FARUM_GCP_PROJECT", "FARUM_GCP_LOCATION", "FARUM_MODEL_NAME",
		"FARUM_API_KEY", "FARUM_BACKEND_URL", "FARUM_FIRESTORE_TELEMETRY", "FARUM_BACKEND_TIMEOUT",
		"FARUM_MOCK_DELAY", "FARUM_RETRY_DELAY", "FARUM_TELEMETRY_BUFFER", "FARUM_CREDENTIAL_EXPIRES_AT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, config.BackendMock, cfg.Backend)
	assert.Equal(t, 20*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, "mock", cfg.Credential())
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "farum.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
backend: http
backend_url: http://assistant.local/chat
retry_delay: 50ms
allowed_origins: ["vscode-webview://x"]
`), 0o600))

	t.Setenv("FARUM_API_KEY", "k")
	t.Setenv("FARUM_PORT", "9100")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Addr)
	assert.Equal(t, config.BackendHTTP, cfg.Backend)
	assert.Equal(t, "http://assistant.local/chat", cfg.BackendURL)
	assert.Equal(t, 50*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, []string{"vscode-webview://x"}, cfg.AllowedOrigins)
	assert.Equal(t, "k", cfg.Credential())
}

func TestLoadUsesConfigEnvVar(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "farum.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: true\n"), 0o600))
	t.Setenv("FARUM_CONFIG", path)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]map[string]string{
		"genai without credentials": {"FARUM_BACKEND": "genai"},
		"http without url":          {"FARUM_BACKEND": "http"},
		"unknown backend":           {"FARUM_BACKEND": "carrier-pigeon"},
		"firestore without project": {"FARUM_FIRESTORE_TELEMETRY": "1"},
		"bad duration":              {"FARUM_RETRY_DELAY": "soon"},
		"zero retry delay":          {"FARUM_RETRY_DELAY": "0s"},
		"bad expiry":                {"FARUM_CREDENTIAL_EXPIRES_AT": "tomorrow"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := config.Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGenAICredential(t *testing.T) {
	clearEnv(t)
	t.Setenv("FARUM_BACKEND", "genai")
	t.Setenv("FARUM_GCP_PROJECT", "proj")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "proj", cfg.Credential())
}

func TestHTTPBackendWithoutKeyIsAuthenticated(t *testing.T) {
	clearEnv(t)
	t.Setenv("FARUM_BACKEND", "http")
	t.Setenv("FARUM_BACKEND_URL", "http://localhost:9000/chat")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/chat", cfg.Credential())

	state, err := auth.NewConfigProvider(cfg.Credential(), cfg.CredentialExpiresAt).GetCredentialState(context.Background())
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestHTTPBackendPrefersKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("FARUM_BACKEND", "http")
	t.Setenv("FARUM_BACKEND_URL", "http://localhost:9000/chat")
	t.Setenv("FARUM_API_KEY", "secret")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Credential())
}
