// Package enrich runs the worker pool that turns candidate articles into
// enriched articles via the external summarization and classification calls.
package enrich

import (
	"context"
	"sync"

	"newsdive/internal/core"
	"newsdive/internal/llm"
	"newsdive/internal/logger"
	"newsdive/internal/retry"
)

// Service is the slice of the AI client the pool depends on. Tests inject a
// fake with controllable failure patterns.
type Service interface {
	Summarize(ctx context.Context, articleText string) (string, error)
	Classify(ctx context.Context, articleText string) (llm.Classification, error)
}

// DefaultWorkers is the fixed pool size, independent of input size.
const DefaultWorkers = 4

// Pool enriches candidates concurrently with bounded parallelism.
type Pool struct {
	service Service
	policy  retry.Policy
	workers int
}

// NewPool creates a pool over the given AI service. workers <= 0 selects the
// default pool size.
func NewPool(service Service, policy retry.Policy, workers int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Pool{service: service, policy: policy, workers: workers}
}

// EnrichAll processes every candidate and returns the enriched articles in
// worker completion order. A candidate whose summarization fails after all
// retries is dropped and logged; a classification failure only defaults the
// sentiment to Unknown and the entities to empty. EnrichAll returns after all
// workers have finished, so callers can treat the result as the run's
// synchronization barrier.
func (p *Pool) EnrichAll(ctx context.Context, candidates []core.CandidateArticle) []core.EnrichedArticle {
	if len(candidates) == 0 {
		return nil
	}

	logger.Info("Summarizing and analyzing articles concurrently",
		"articles", len(candidates), "workers", p.workers)

	jobs := make(chan core.CandidateArticle)
	results := make(chan core.EnrichedArticle)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for candidate := range jobs {
				if enriched, ok := p.enrichOne(ctx, candidate); ok {
					results <- enriched
				}
			}
		}()
	}

	go func() {
		for _, candidate := range candidates {
			jobs <- candidate
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var enriched []core.EnrichedArticle
	for article := range results {
		enriched = append(enriched, article)
	}

	logger.Info("Enrichment complete", "succeeded", len(enriched), "dropped", len(candidates)-len(enriched))
	return enriched
}

// enrichOne summarizes and classifies a single candidate. The second return
// is false when the candidate must be dropped.
func (p *Pool) enrichOne(ctx context.Context, candidate core.CandidateArticle) (core.EnrichedArticle, bool) {
	summary, ok := retry.Do(p.policy, "summarize", func() (string, error) {
		return p.service.Summarize(ctx, candidate.BodyText)
	})
	if !ok {
		logger.Warn("Failed to summarize article, dropping", "title", candidate.Title, "url", candidate.URL)
		return core.EnrichedArticle{}, false
	}

	classification, ok := retry.Do(p.policy, "classify", func() (llm.Classification, error) {
		return p.service.Classify(ctx, summary)
	})
	if !ok {
		classification = llm.Classification{
			Sentiment: core.SentimentUnknown,
			Entities:  core.EntityMap{},
		}
	}

	return core.EnrichedArticle{
		ID:          candidate.ID,
		SourceName:  candidate.SourceName,
		Title:       candidate.Title,
		URL:         candidate.URL,
		PublishedAt: candidate.PublishedAt,
		Summary:     summary,
		Sentiment:   classification.Sentiment,
		Entities:    classification.Entities,
		IsFullText:  candidate.IsFullText,
	}, true
}
