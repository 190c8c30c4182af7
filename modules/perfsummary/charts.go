package perfsummary

// chartMeta lists parallel arrays of unit labels/ids/names so consumers can
// cross-reference chart positions back to units.
type chartMeta struct {
	UnitLabels []string `json:"unit_labels"`
	UnitIDs    []any    `json:"unit_ids"`
	UnitNames  []string `json:"unit_names"`
}

// chartConfig is one chart-ready descriptor in the result's extra payload.
// Option follows the ECharts bar-chart shape the frontend renders directly.
type chartConfig struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Option      map[string]any `json:"option"`
	Meta        chartMeta      `json:"meta"`
}

// unitLink ties a unit's identifier to its positional short label.
type unitLink struct {
	UnitID    any    `json:"unit_id"`
	UnitName  string `json:"unit_name"`
	UnitLabel string `json:"unit_label"`
}

// chartableMetric describes one per-unit metric that may become a chart.
type chartableMetric struct {
	id    string
	title string
	desc  string
	yName string
	color string
	value func(*unitStat) *float64
}

func chartableMetrics() []chartableMetric {
	return []chartableMetric{
		{
			id: "avg_latency", title: "Average Latency per Unit",
			desc:  "Mean request latency by test unit",
			yName: "ms", color: "#5470C6",
			value: func(u *unitStat) *float64 { return u.avgLatency },
		},
		{
			id: "p95_latency", title: "P95 Latency per Unit",
			desc:  "95th percentile latency by test unit",
			yName: "ms", color: "#91CC75",
			value: func(u *unitStat) *float64 { return u.p95Latency },
		},
		{
			id: "avg_tokens", title: "Average Tokens per Unit",
			desc:  "Mean token usage by test unit",
			yName: "tokens", color: "#FAC858",
			value: func(u *unitStat) *float64 { return u.avgTokens },
		},
		{
			id: "total_tokens", title: "Total Tokens per Unit",
			desc:  "Summed token usage by test unit",
			yName: "tokens", color: "#EE6666",
			value: func(u *unitStat) *float64 {
				if u.totalTokens == nil {
					return nil
				}
				total := float64(*u.totalTokens)
				return &total
			},
		},
		{
			id: "avg_throughput", title: "Average Throughput per Unit",
			desc:  "Mean tokens per second by test unit",
			yName: "tokens/s", color: "#73C0DE",
			value: func(u *unitStat) *float64 { return u.avgThroughput },
		},
	}
}

// buildChartConfigs emits one bar chart per metric that has at least one
// non-null value across the units. Null entries render as 0; a metric that
// is null everywhere produces no chart at all.
func buildChartConfigs(units []*unitStat) []chartConfig {
	charts := []chartConfig{}
	if len(units) == 0 {
		return charts
	}

	meta := chartMeta{
		UnitLabels: make([]string, 0, len(units)),
		UnitIDs:    make([]any, 0, len(units)),
		UnitNames:  make([]string, 0, len(units)),
	}
	for _, unit := range units {
		meta.UnitLabels = append(meta.UnitLabels, unit.label)
		meta.UnitIDs = append(meta.UnitIDs, unit.id)
		meta.UnitNames = append(meta.UnitNames, unit.name)
	}

	for _, metric := range chartableMetrics() {
		series := make([]float64, len(units))
		hasValue := false
		for i, unit := range units {
			if v := metric.value(unit); v != nil {
				series[i] = *v
				hasValue = true
			}
		}
		if !hasValue {
			continue
		}

		charts = append(charts, chartConfig{
			ID:          metric.id,
			Title:       metric.title,
			Description: metric.desc,
			Option: map[string]any{
				"tooltip": map[string]any{"trigger": "axis"},
				"grid": map[string]any{
					"left": "6%", "right": "4%", "bottom": "8%", "containLabel": true,
				},
				"xAxis": map[string]any{
					"type":     "category",
					"data":     meta.UnitLabels,
					"axisTick": map[string]any{"alignWithLabel": true},
				},
				"yAxis": map[string]any{"type": "value", "name": metric.yName},
				"series": []any{
					map[string]any{
						"type":      "bar",
						"data":      series,
						"itemStyle": map[string]any{"color": metric.color},
						"barWidth":  "45%",
					},
				},
			},
			Meta: meta,
		})
	}
	return charts
}

// buildUnitLinks maps each unit's identifier to its short label.
func buildUnitLinks(units []*unitStat) []unitLink {
	links := []unitLink{}
	for _, unit := range units {
		links = append(links, unitLink{UnitID: unit.id, UnitName: unit.name, UnitLabel: unit.label})
	}
	return links
}
