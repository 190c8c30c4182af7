package perfsummary

import "fmt"

// insufficientDataInsight is the single fallback sentence emitted when no
// unit yields any latency or token metric.
const insufficientDataInsight = "Not enough latency or token data to generate statistics."

// unitRef identifies one unit referenced by a structured insight detail.
type unitRef struct {
	UnitID    any     `json:"unit_id"`
	UnitName  string  `json:"unit_name"`
	UnitLabel string  `json:"unit_label"`
	Value     float64 `json:"value"`
}

// insightDetail is the structured companion to one prose insight, for
// downstream consumers such as UI highlighting.
type insightDetail struct {
	Kind  string    `json:"kind"`
	Units []unitRef `json:"units"`
}

func ref(unit *unitStat, value float64) unitRef {
	return unitRef{UnitID: unit.id, UnitName: unit.name, UnitLabel: unit.label, Value: value}
}

// buildInsights generates the prose insights and their structured details.
// Sentence order is fixed: latency comparison, then token usage, then
// throughput; when nothing can be computed the single fallback sentence is
// emitted instead.
func buildInsights(units []*unitStat) ([]string, []insightDetail) {
	insights := []string{}
	details := []insightDetail{}

	var withLatency []*unitStat
	for _, unit := range units {
		if unit.avgLatency != nil {
			withLatency = append(withLatency, unit)
		}
	}

	if len(withLatency) > 0 {
		fastest, slowest := withLatency[0], withLatency[0]
		for _, unit := range withLatency[1:] {
			if *unit.avgLatency < *fastest.avgLatency {
				fastest = unit
			}
			if *unit.avgLatency > *slowest.avgLatency {
				slowest = unit
			}
		}
		if len(withLatency) >= 2 && fastest.id != slowest.id {
			insights = append(insights, fmt.Sprintf(
				"%s (%s) is the fastest unit with an average latency of %.2f ms, while %s (%s) is the slowest at %.2f ms.",
				fastest.name, fastest.label, *fastest.avgLatency,
				slowest.name, slowest.label, *slowest.avgLatency,
			))
			details = append(details, insightDetail{
				Kind:  "latency_fastest_slowest",
				Units: []unitRef{ref(fastest, *fastest.avgLatency), ref(slowest, *slowest.avgLatency)},
			})
		} else {
			single := withLatency[0]
			insights = append(insights, fmt.Sprintf(
				"%s (%s) has an average latency of %.2f ms.",
				single.name, single.label, *single.avgLatency,
			))
			details = append(details, insightDetail{
				Kind:  "latency_single",
				Units: []unitRef{ref(single, *single.avgLatency)},
			})
		}
	}

	var topTokens *unitStat
	for _, unit := range units {
		if unit.avgTokensPerReq == nil {
			continue
		}
		if topTokens == nil || *unit.avgTokensPerReq > *topTokens.avgTokensPerReq {
			topTokens = unit
		}
	}
	if topTokens != nil {
		insights = append(insights, fmt.Sprintf(
			"%s (%s) consumes the most tokens per request on average: %.2f.",
			topTokens.name, topTokens.label, *topTokens.avgTokensPerReq,
		))
		details = append(details, insightDetail{
			Kind:  "tokens_top_unit",
			Units: []unitRef{ref(topTokens, *topTokens.avgTokensPerReq)},
		})
	}

	var topThroughput *unitStat
	for _, unit := range units {
		if unit.avgThroughput == nil {
			continue
		}
		if topThroughput == nil || *unit.avgThroughput > *topThroughput.avgThroughput {
			topThroughput = unit
		}
	}
	if topThroughput != nil {
		insights = append(insights, fmt.Sprintf(
			"%s (%s) delivers the highest average throughput at %.2f tokens/s.",
			topThroughput.name, topThroughput.label, *topThroughput.avgThroughput,
		))
		details = append(details, insightDetail{
			Kind:  "throughput_top_unit",
			Units: []unitRef{ref(topThroughput, *topThroughput.avgThroughput)},
		})
	}

	if len(insights) == 0 {
		insights = append(insights, insufficientDataInsight)
	}
	return insights, details
}
