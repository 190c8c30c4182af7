// Package perfsummary implements the built-in latency/tokens analysis
// module. It groups execution records by test unit, computes descriptive
// latency and token statistics per unit, and produces chart-ready summaries
// plus natural-language insights.
package perfsummary

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vk/promptworks/internal/analysis"
	"github.com/vk/promptworks/internal/stats"
)

// ModuleID is the stable identifier this module registers under.
const ModuleID = "latency_tokens_summary"

// Module implements the analysis.Module interface for this package.
type Module struct{}

// Register installs the module into the registry. Replace is used so that
// re-running startup registration never trips the duplicate check.
func (m *Module) Register(r *analysis.Registry) {
	if err := r.Replace(definition(), analysis.HandlerFunc(run)); err != nil {
		panic(fmt.Sprintf("perfsummary: registration failed: %v", err))
	}
}

func definition() *analysis.Definition {
	return &analysis.Definition{
		ModuleID:        ModuleID,
		Name:            "Latency & Tokens Overview",
		Description:     "Aggregates latency and token usage per test unit to assess performance and cost.",
		Parameters:      []analysis.ParameterSpec{},
		RequiredColumns: []string{"latency_ms", "tokens_used"},
		Tags:            []string{"performance", "cost"},
		ProtocolVersion: "v1",
		AllowLLM:        false,
	}
}

// unitStat holds the computed metrics for one test unit. Pointer fields are
// nil when the underlying series was empty after dropping unparseable
// values.
type unitStat struct {
	id    any
	name  string
	label string

	sampleCount int

	avgLatency *float64
	p95Latency *float64
	maxLatency *float64
	minLatency *float64

	avgTokens   *float64
	p95Tokens   *float64
	maxTokens   *int64
	totalTokens *int64

	avgTokensPerReq *float64
	avgThroughput   *float64
}

func run(ds *analysis.Dataset, params map[string]any, actx *analysis.Context) (*analysis.Result, error) {
	units := buildUnitStats(ds)
	actx.Log().Debug("Computed per-unit performance stats.", "units", len(units), "rows", ds.Len())

	insights, details := buildInsights(units)
	charts := buildChartConfigs(units)

	return &analysis.Result{
		Table:           buildTable(units),
		ColumnsMeta:     columnsMeta(),
		Insights:        insights,
		ProtocolVersion: "v1",
		Extra: map[string]any{
			"module_id":       ModuleID,
			"charts":          charts,
			"unit_links":      buildUnitLinks(units),
			"insight_details": details,
		},
	}, nil
}

// buildUnitStats groups rows by test unit and reduces each group to its
// metric set. Groups are enumerated in first-encountered order, and short
// labels are purely positional: "unit1", "unit2", ... by that order.
func buildUnitStats(ds *analysis.Dataset) []*unitStat {
	if ds.Len() == 0 {
		return nil
	}

	hasUnitID := ds.HasColumn("unit_id")
	hasUnitName := ds.HasColumn("unit_name")

	groups := ds.GroupBy(func(index int, row analysis.Row) any {
		if !hasUnitID {
			// Implicit single unit when the dataset carries no grouping
			// dimension.
			return int64(1)
		}
		return normalizeUnitID(row["unit_id"], int64(index+1))
	})

	units := make([]*unitStat, 0, len(groups))
	for i, group := range groups {
		unit := reduceGroup(group, hasUnitID, hasUnitName)
		unit.label = fmt.Sprintf("unit%d", i+1)
		units = append(units, unit)
	}
	return units
}

// normalizeUnitID converts a raw grouping-key value to its canonical form.
// Integers pass through; NaN/Inf floats fall back to the supplied default;
// finite floats with an integral value collapse to int; numeric strings
// parse and follow the same rules; blank strings fall back; other strings
// pass through.
func normalizeUnitID(raw any, fallback any) any {
	switch v := raw.(type) {
	case nil:
		return fallback
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float32:
		return normalizeUnitFloat(float64(v), fallback)
	case float64:
		return normalizeUnitFloat(v, fallback)
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return fallback
		}
		if parsed, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return normalizeUnitFloat(parsed, fallback)
		}
		return v
	default:
		return fmt.Sprint(v)
	}
}

func normalizeUnitFloat(v float64, fallback any) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	// Collapse to int64 only inside its representable range; converting an
	// out-of-range float is implementation-defined.
	if v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64 {
		return int64(v)
	}
	return v
}

// reduceGroup computes the metric set for one group of rows.
func reduceGroup(group *analysis.Group, hasUnitID, hasUnitName bool) *unitStat {
	unit := &unitStat{
		id:          group.Key,
		sampleCount: len(group.Rows),
	}

	if !hasUnitID {
		unit.name = "overall"
	} else if hasUnitName {
		for _, row := range group.Rows {
			if name, ok := row["unit_name"].(string); ok && strings.TrimSpace(name) != "" {
				unit.name = name
				break
			}
		}
	}
	if unit.name == "" {
		unit.name = fmt.Sprint(group.Key)
	}

	var latencies, tokens []float64
	var pairedTokens, throughputs []float64
	for _, row := range group.Rows {
		latency, latOK := stats.ToFloat(row["latency_ms"])
		tok, tokOK := stats.ToFloat(row["tokens_used"])
		if latOK {
			latencies = append(latencies, latency)
		}
		if tokOK {
			tokens = append(tokens, tok)
		}
		if latOK && tokOK {
			pairedTokens = append(pairedTokens, tok)
			// Zero-latency rows produce an infinite rate (or NaN when the
			// token count is also zero) and are discarded before averaging.
			if rate := tok / (latency / 1000.0); !math.IsInf(rate, 0) && !math.IsNaN(rate) {
				throughputs = append(throughputs, rate)
			}
		}
	}

	if mean, ok := stats.Mean(latencies); ok {
		unit.avgLatency = round2Ptr(mean)
	}
	if p95, ok := stats.Percentile(latencies, 0.95); ok {
		unit.p95Latency = round2Ptr(p95)
	}
	if max, ok := stats.Max(latencies); ok {
		unit.maxLatency = round2Ptr(max)
	}
	if min, ok := stats.Min(latencies); ok {
		unit.minLatency = round2Ptr(min)
	}

	if mean, ok := stats.Mean(tokens); ok {
		unit.avgTokens = round2Ptr(mean)
	}
	if p95, ok := stats.Percentile(tokens, 0.95); ok {
		unit.p95Tokens = round2Ptr(p95)
	}
	if max, ok := stats.Max(tokens); ok {
		rounded := int64(max)
		unit.maxTokens = &rounded
	}
	if len(tokens) > 0 {
		total := int64(stats.Sum(tokens))
		unit.totalTokens = &total
	}

	if mean, ok := stats.Mean(pairedTokens); ok {
		unit.avgTokensPerReq = round2Ptr(mean)
	}
	if mean, ok := stats.Mean(throughputs); ok {
		unit.avgThroughput = round2Ptr(mean)
	}

	return unit
}

func round2Ptr(v float64) *float64 {
	rounded := stats.Round2(v)
	return &rounded
}

// resultColumns is the result table's column order.
var resultColumns = []string{
	"unit_label",
	"unit_name",
	"sample_count",
	"avg_latency_ms",
	"p95_latency_ms",
	"max_latency_ms",
	"min_latency_ms",
	"avg_tokens",
	"p95_tokens",
	"max_tokens",
	"total_tokens",
	"avg_tokens_per_request",
	"avg_throughput_tokens_per_s",
}

func buildTable(units []*unitStat) *analysis.Dataset {
	table := analysis.NewDataset(resultColumns...)
	for _, unit := range units {
		table.Append(analysis.Row{
			"unit_label":                  unit.label,
			"unit_name":                   unit.name,
			"sample_count":                unit.sampleCount,
			"avg_latency_ms":              floatCell(unit.avgLatency),
			"p95_latency_ms":              floatCell(unit.p95Latency),
			"max_latency_ms":              floatCell(unit.maxLatency),
			"min_latency_ms":              floatCell(unit.minLatency),
			"avg_tokens":                  floatCell(unit.avgTokens),
			"p95_tokens":                  floatCell(unit.p95Tokens),
			"max_tokens":                  intCell(unit.maxTokens),
			"total_tokens":                intCell(unit.totalTokens),
			"avg_tokens_per_request":      floatCell(unit.avgTokensPerReq),
			"avg_throughput_tokens_per_s": floatCell(unit.avgThroughput),
		})
	}
	return table
}

func floatCell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func intCell(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func columnsMeta() []analysis.ColumnMeta {
	bar := []string{"bar"}
	none := []string{}
	return []analysis.ColumnMeta{
		{Name: "unit_label", Label: "Unit", Description: "Short positional label for the test unit.", Visualizable: none},
		{Name: "unit_name", Label: "Unit Name", Description: "Configured name of the test unit.", Visualizable: none},
		{Name: "sample_count", Label: "Samples", Description: "Number of execution records in the unit.", Visualizable: bar},
		{Name: "avg_latency_ms", Label: "Avg Latency (ms)", Description: "Mean request latency.", Visualizable: bar},
		{Name: "p95_latency_ms", Label: "P95 Latency (ms)", Description: "95th percentile latency, linear-interpolated.", Visualizable: bar},
		{Name: "max_latency_ms", Label: "Max Latency (ms)", Description: "Slowest request latency.", Visualizable: bar},
		{Name: "min_latency_ms", Label: "Min Latency (ms)", Description: "Fastest request latency.", Visualizable: bar},
		{Name: "avg_tokens", Label: "Avg Tokens", Description: "Mean tokens used per record.", Visualizable: bar},
		{Name: "p95_tokens", Label: "P95 Tokens", Description: "95th percentile token usage.", Visualizable: bar},
		{Name: "max_tokens", Label: "Max Tokens", Description: "Highest token usage in a single record.", Visualizable: bar},
		{Name: "total_tokens", Label: "Total Tokens", Description: "Sum of tokens across the unit.", Visualizable: bar},
		{Name: "avg_tokens_per_request", Label: "Avg Tokens/Request", Description: "Mean tokens over records with both a valid latency and token count.", Visualizable: bar},
		{Name: "avg_throughput_tokens_per_s", Label: "Avg Throughput (tokens/s)", Description: "Mean tokens per second over paired records.", Visualizable: bar},
	}
}
