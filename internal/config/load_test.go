package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "promptworks.hcl")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

func TestLoad_EmptyPathYieldsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")

	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Listen)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
	require.Zero(t, cfg.Workers)
	require.Empty(t, cfg.Providers)
}

func TestLoad_FullConfig(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := writeConfig(t, `
server {
  listen = ":9090"
}

logging {
  level  = "debug"
  format = "text"
}

analysis {
  workers = 8
}

provider "openai" {
  name          = "OpenAI"
  api_key       = "sk-test"
  default_model = "gpt-4o-mini"

  params = {
    max_tokens = 256
    stop       = ["###"]
  }

  model "gpt-4o-mini" {
    capability        = "chat"
    concurrency_limit = 4
    quota             = 1000
  }

  model "gpt-4o" {}
}
`)

	// --- Act ---
	cfg, err := Load(path)

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Listen)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "text", cfg.LogFormat)
	require.Equal(t, 8, cfg.Workers)

	require.Len(t, cfg.Providers, 1)
	provider := cfg.Providers[0]
	require.Equal(t, "openai", provider.Key)
	require.Equal(t, "OpenAI", provider.Name)
	require.Equal(t, "sk-test", provider.APIKey)
	require.Equal(t, "gpt-4o-mini", provider.DefaultModel)
	require.Equal(t, 256.0, provider.Params["max_tokens"])
	require.Equal(t, []any{"###"}, provider.Params["stop"])

	require.Len(t, provider.Models, 2)
	require.Equal(t, "gpt-4o-mini", provider.Models[0].Name)
	require.Equal(t, 4, provider.Models[0].ConcurrencyLimit)
	require.Equal(t, "gpt-4o", provider.Models[1].Name)
}

func TestLoad_PartialConfigKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
logging {
  level = "warn"
}
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Listen)
	require.Equal(t, "warn", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_SyntaxErrorFails(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `server { listen = `)

	_, err := Load(path)

	require.Error(t, err)
	require.Contains(t, err.Error(), "config:")
}

func TestLoad_MissingFileFails(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.hcl"))

	require.Error(t, err)
}
