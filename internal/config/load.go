package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// Load parses the HCL configuration at path and resolves it against the
// built-in defaults. An empty path yields the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: parsing %s: %w", path, diags)
	}

	var model fileModel
	if diags := gohcl.DecodeBody(file.Body, nil, &model); diags.HasErrors() {
		return nil, fmt.Errorf("config: decoding %s: %w", path, diags)
	}

	if model.Server != nil && model.Server.Listen != "" {
		cfg.Listen = model.Server.Listen
	}
	if model.Logging != nil {
		if model.Logging.Level != "" {
			cfg.LogLevel = model.Logging.Level
		}
		if model.Logging.Format != "" {
			cfg.LogFormat = model.Logging.Format
		}
	}
	if model.Analysis != nil {
		cfg.Workers = model.Analysis.Workers
	}

	for _, block := range model.Providers {
		provider := Provider{
			Key:          block.Key,
			Name:         block.Name,
			APIKey:       block.APIKey,
			BaseURL:      block.BaseURL,
			DefaultModel: block.DefaultModel,
			LogoEmoji:    block.LogoEmoji,
			Params:       ctyToParams(block.Params),
		}
		for _, m := range block.Models {
			provider.Models = append(provider.Models, Model{
				Name:             m.Name,
				Capability:       m.Capability,
				ConcurrencyLimit: m.ConcurrencyLimit,
				Quota:            m.Quota,
			})
		}
		cfg.Providers = append(cfg.Providers, provider)
	}

	return cfg, nil
}

// ctyToParams converts a loosely-typed HCL params object into plain Go
// values for the store.
func ctyToParams(value cty.Value) map[string]any {
	if value.IsNull() || !value.IsKnown() {
		return nil
	}
	if !value.Type().IsObjectType() && !value.Type().IsMapType() {
		return nil
	}
	params := make(map[string]any)
	for key, attr := range value.AsValueMap() {
		params[key] = ctyToGo(attr)
	}
	return params
}

// ctyToGo lowers a single cty value to its Go counterpart. Unknown or
// unsupported values become nil rather than failing the load.
func ctyToGo(value cty.Value) any {
	if value.IsNull() || !value.IsKnown() {
		return nil
	}
	ty := value.Type()
	switch {
	case ty == cty.String:
		return value.AsString()
	case ty == cty.Bool:
		return value.True()
	case ty == cty.Number:
		f, _ := value.AsBigFloat().Float64()
		return f
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		var items []any
		for _, item := range value.AsValueSlice() {
			items = append(items, ctyToGo(item))
		}
		return items
	case ty.IsObjectType() || ty.IsMapType():
		obj := make(map[string]any)
		for key, attr := range value.AsValueMap() {
			obj[key] = ctyToGo(attr)
		}
		return obj
	default:
		return nil
	}
}
