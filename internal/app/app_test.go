package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/promptworks/modules/perfsummary"
)

func TestNewApp_RegistersCoreModules(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	out := &bytes.Buffer{}

	// --- Act ---
	application := NewApp(out, &Options{})

	// --- Assert ---
	_, err := application.Registry().Get(perfsummary.ModuleID)
	require.NoError(t, err)
}

func TestNewApp_SeedsProvidersFromConfig(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	configHCL := `
provider "openai" {
  api_key       = "sk-test"
  default_model = "gpt-4o-mini"

  model "gpt-4o-mini" {}
}

provider "inhouse" {
  name     = "In-house"
  base_url = "http://llm.internal/v1"
}
`
	path := filepath.Join(t.TempDir(), "promptworks.hcl")
	require.NoError(t, os.WriteFile(path, []byte(configHCL), 0600))

	// --- Act ---
	application := NewApp(&bytes.Buffer{}, &Options{ConfigPath: path})

	// --- Assert ---
	providers := application.Store().ListProviders("", 50, 0)
	require.Len(t, providers, 2)

	byName := map[string]bool{}
	for _, p := range providers {
		byName[p.ProviderName] = p.IsCustom
	}
	require.Contains(t, byName, "OpenAI")
	require.False(t, byName["OpenAI"], "preset providers are not custom")
	require.Contains(t, byName, "In-house")
	require.True(t, byName["In-house"])
}

func TestNewApp_PanicsOnBrokenConfig(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := filepath.Join(t.TempDir(), "broken.hcl")
	require.NoError(t, os.WriteFile(path, []byte("server {"), 0600))

	// --- Act / Assert ---
	require.Panics(t, func() {
		NewApp(&bytes.Buffer{}, &Options{ConfigPath: path})
	})
}

func TestApplyOverrides(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	application := NewApp(&bytes.Buffer{}, &Options{
		Listen:    ":7070",
		LogLevel:  "debug",
		LogFormat: "text",
		Workers:   3,
	})

	// --- Assert ---
	require.Equal(t, ":7070", application.config.Listen)
	require.Equal(t, "debug", application.config.LogLevel)
	require.Equal(t, "text", application.config.LogFormat)
	require.Equal(t, 3, application.config.Workers)
}
