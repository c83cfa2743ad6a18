// Package feeds polls the configured news sources and resolves each entry's
// best-available body text: full-text extraction from the article page when it
// succeeds and yields strictly more text than the feed summary, the feed
// summary otherwise.
package feeds

import (
	"context"
	"strings"
	"time"

	"newsdive/internal/config"
	"newsdive/internal/core"
	"newsdive/internal/logger"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
)

// Extractor resolves the full article text behind a URL. Implementations must
// respect the timeout; any failure means the caller falls back to the feed
// summary.
type Extractor interface {
	Extract(url string, timeout time.Duration) (string, error)
}

// readabilityExtractor extracts article text with go-readability.
type readabilityExtractor struct{}

func (readabilityExtractor) Extract(url string, timeout time.Duration) (string, error) {
	article, err := readability.FromURL(url, timeout)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(article.TextContent), nil
}

// Fetcher polls feed sources and produces candidate articles for enrichment.
type Fetcher struct {
	parser        *gofeed.Parser
	extractor     Extractor
	fetchTimeout  time.Duration
	minBodyLength int
}

// NewFetcher creates a fetcher from the feeds configuration.
func NewFetcher(cfg config.Feeds) *Fetcher {
	parser := gofeed.NewParser()
	parser.UserAgent = cfg.UserAgent

	minBody := cfg.MinBodyLength
	if minBody <= 0 {
		minBody = 100
	}

	return &Fetcher{
		parser:        parser,
		extractor:     readabilityExtractor{},
		fetchTimeout:  cfg.FeedTimeout(),
		minBodyLength: minBody,
	}
}

// NewFetcherWithExtractor creates a fetcher with a custom extractor, used by
// tests to simulate extraction outcomes.
func NewFetcherWithExtractor(cfg config.Feeds, extractor Extractor) *Fetcher {
	f := NewFetcher(cfg)
	f.extractor = extractor
	return f
}

// Fetch polls each source in order and returns the new candidate articles,
// source-major, entry-minor. A source that fails to parse or yields no entries
// is logged and skipped; it never aborts the run. Entries whose link is empty
// or already processed are skipped, and entries whose resolved body text is
// too short to summarize are dropped.
func (f *Fetcher) Fetch(ctx context.Context, sources []core.Source, maxPerSource int, processed map[string]struct{}) []core.CandidateArticle {
	logger.Info("Fetching news from all sources", "sources", len(sources))

	var candidates []core.CandidateArticle
	for _, source := range sources {
		feed, err := f.parser.ParseURLWithContext(source.URL, ctx)
		if err != nil {
			logger.Warn("Could not fetch feed, skipping source", "source", source.Name, "error", err.Error())
			continue
		}
		if len(feed.Items) == 0 {
			logger.Warn("Feed returned no entries, skipping source", "source", source.Name)
			continue
		}

		items := feed.Items
		if maxPerSource > 0 && len(items) > maxPerSource {
			items = items[:maxPerSource]
		}

		for _, item := range items {
			if item.Link == "" {
				continue
			}
			if _, seen := processed[item.Link]; seen {
				logger.Debug("Skipping already processed article", "title", item.Title)
				continue
			}

			body, isFullText := f.resolveBody(item)
			if len(body) <= f.minBodyLength {
				logger.Debug("Dropping entry with too little text", "title", item.Title, "length", len(body))
				continue
			}

			candidates = append(candidates, core.CandidateArticle{
				ID:          uuid.NewString(),
				SourceName:  source.Name,
				URL:         item.Link,
				Title:       item.Title,
				PublishedAt: item.Published,
				BodyText:    body,
				IsFullText:  isFullText,
			})
		}
	}

	logger.Info("Prepared new articles for processing", "count", len(candidates))
	return candidates
}

// resolveBody attempts full-text extraction and falls back to the feed
// summary. Full text is used only when it is strictly longer than the summary,
// a proxy for having extracted the real article rather than a stub page.
func (f *Fetcher) resolveBody(item *gofeed.Item) (string, bool) {
	summary := stripHTML(item.Description)

	fullText, err := f.extractor.Extract(item.Link, f.fetchTimeout)
	if err != nil {
		logger.Debug("Full text download failed, using feed summary", "link", item.Link, "error", err.Error())
		return summary, false
	}
	if len(fullText) > len(summary) {
		return fullText, true
	}
	return summary, false
}

// stripHTML flattens feed-provided HTML summaries to plain text.
func stripHTML(html string) string {
	if !strings.Contains(html, "<") {
		return strings.TrimSpace(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	return strings.TrimSpace(doc.Text())
}
