package config

import "github.com/zclconf/go-cty/cty"

// fileModel is the gohcl decoding target for a configuration file.
type fileModel struct {
	Server    *serverBlock     `hcl:"server,block"`
	Logging   *loggingBlock    `hcl:"logging,block"`
	Analysis  *analysisBlock   `hcl:"analysis,block"`
	Providers []*providerBlock `hcl:"provider,block"`
}

type serverBlock struct {
	Listen string `hcl:"listen,optional"`
}

type loggingBlock struct {
	Level  string `hcl:"level,optional"`
	Format string `hcl:"format,optional"`
}

type analysisBlock struct {
	Workers int `hcl:"workers,optional"`
}

type providerBlock struct {
	Key          string        `hcl:"key,label"`
	Name         string        `hcl:"name,optional"`
	APIKey       string        `hcl:"api_key,optional"`
	BaseURL      string        `hcl:"base_url,optional"`
	DefaultModel string        `hcl:"default_model,optional"`
	LogoEmoji    string        `hcl:"logo_emoji,optional"`
	Params       cty.Value     `hcl:"params,optional"`
	Models       []*modelBlock `hcl:"model,block"`
}

type modelBlock struct {
	Name             string `hcl:"name,label"`
	Capability       string `hcl:"capability,optional"`
	ConcurrencyLimit int    `hcl:"concurrency_limit,optional"`
	Quota            int    `hcl:"quota,optional"`
}

// Config is the resolved application configuration.
type Config struct {
	Listen    string
	LogLevel  string
	LogFormat string
	Workers   int
	Providers []Provider
}

// Provider is one provider seed from the configuration file.
type Provider struct {
	Key          string
	Name         string
	APIKey       string
	BaseURL      string
	DefaultModel string
	LogoEmoji    string
	Params       map[string]any
	Models       []Model
}

// Model is one model seed under a configured provider.
type Model struct {
	Name             string
	Capability       string
	ConcurrencyLimit int
	Quota            int
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Listen:    ":8080",
		LogLevel:  "info",
		LogFormat: "json",
		Workers:   0, // execution service applies its own default
	}
}
