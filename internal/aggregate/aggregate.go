// Package aggregate groups enriched articles by source, synthesizes the
// cross-article narrative, and computes sentiment and entity trend statistics.
package aggregate

import (
	"context"
	"fmt"
	"sort"

	"newsdive/internal/core"
	"newsdive/internal/llm"
	"newsdive/internal/logger"
	"newsdive/internal/retry"
)

// Narrator is the slice of the AI client used for narrative synthesis.
type Narrator interface {
	Takeaways(ctx context.Context, timeFrame, summariesContext string) (string, error)
}

// Result is the aggregation output consumed by the rendering layer.
type Result struct {
	BySource    map[string][]core.EnrichedArticle
	SourceNames []string // alphabetical, for stable presentation
	Narrative   string   // empty when narrative generation failed
}

// TopEntityCount is how many entities per category the trend analysis reports.
const TopEntityCount = 5

// Aggregate groups the articles by source and issues one retry-wrapped
// takeaways call over the concatenation of all summaries. Narrative failure
// yields an empty narrative, never a pipeline failure; downstream substitutes
// a placeholder.
func Aggregate(ctx context.Context, narrator Narrator, policy retry.Policy, timeFrame string, enriched []core.EnrichedArticle) Result {
	result := Result{BySource: make(map[string][]core.EnrichedArticle)}

	for _, article := range enriched {
		result.BySource[article.SourceName] = append(result.BySource[article.SourceName], article)
	}
	for name := range result.BySource {
		result.SourceNames = append(result.SourceNames, name)
	}
	sort.Strings(result.SourceNames)

	if len(enriched) == 0 {
		return result
	}

	logger.Info("Generating actionable investor takeaways", "time_frame", timeFrame, "articles", len(enriched))
	summariesContext := llm.BuildSummariesContext(enriched)
	narrative, ok := retry.Do(policy, "takeaways", func() (string, error) {
		return narrator.Takeaways(ctx, timeFrame, summariesContext)
	})
	if ok {
		result.Narrative = narrative
	}

	return result
}

// ComputeTrends computes the sentiment percentage distribution and the top
// entities per category across the input set. Ties are broken by first-seen
// order among equally ranked items.
func ComputeTrends(enriched []core.EnrichedArticle) core.Trends {
	counts := map[string]int{}
	total := 0
	for _, article := range enriched {
		switch article.Sentiment {
		case core.SentimentPositive, core.SentimentNegative, core.SentimentNeutral, core.SentimentUnknown:
			counts[article.Sentiment]++
			total++
		}
	}

	percent := func(label string) string {
		if total == 0 {
			return "0%"
		}
		return fmt.Sprintf("%.1f%%", 100*float64(counts[label])/float64(total))
	}

	trends := core.Trends{
		Sentiment: core.SentimentSummary{
			Positive: percent(core.SentimentPositive),
			Negative: percent(core.SentimentNegative),
			Neutral:  percent(core.SentimentNeutral),
		},
		TopEntities: map[string][]string{},
	}

	for _, category := range []string{core.EntityCompanies, core.EntityPeople, core.EntityTopics} {
		trends.TopEntities[category] = topEntities(enriched, category, TopEntityCount)
	}
	return trends
}

// topEntities counts entity mentions in a category and returns the n most
// frequent, first-seen order breaking ties.
func topEntities(enriched []core.EnrichedArticle, category string, n int) []string {
	counts := map[string]int{}
	var order []string
	for _, article := range enriched {
		for _, name := range article.Entities[category] {
			if _, seen := counts[name]; !seen {
				order = append(order, name)
			}
			counts[name]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > n {
		order = order[:n]
	}
	return order
}
