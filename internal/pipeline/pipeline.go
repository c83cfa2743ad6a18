// Package pipeline orchestrates the daily, weekly and deep-dive runs over the
// ledger, feed fetcher, enrichment pool, archive and delivery collaborators.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"newsdive/internal/aggregate"
	"newsdive/internal/config"
	"newsdive/internal/core"
	"newsdive/internal/ledger"
	"newsdive/internal/llm"
	"newsdive/internal/logger"
	"newsdive/internal/report"
	"newsdive/internal/retry"
)

// Fetcher pulls new candidate articles from the configured feeds.
type Fetcher interface {
	Fetch(ctx context.Context, sources []core.Source, maxPerSource int, processed map[string]struct{}) []core.CandidateArticle
}

// Enricher turns candidates into enriched articles.
type Enricher interface {
	EnrichAll(ctx context.Context, candidates []core.CandidateArticle) []core.EnrichedArticle
}

// Analyst is the slice of the AI client the orchestration layer calls
// directly.
type Analyst interface {
	Takeaways(ctx context.Context, timeFrame, summariesContext string) (string, error)
	SelectCompanies(ctx context.Context, summariesContext string) ([]core.Company, error)
	InvestmentMemo(ctx context.Context, company core.Company, financials core.Financials, summariesContext string, asOf time.Time) (string, error)
}

// FinancialData fetches company figures for the deep-dive memos.
type FinancialData interface {
	Lookup(ctx context.Context, ticker string) core.Financials
}

// Archive is the per-day record store.
type Archive interface {
	Append(now time.Time, records []core.EnrichedArticle) error
	LoadRange(now time.Time, daysBack int) []core.EnrichedArticle
	Evict(now time.Time, olderThanDays int)
}

// Mailer delivers the generated reports.
type Mailer interface {
	Configured() bool
	SendWithAttachment(subject, body, filename string, attachment []byte) error
	SendHTML(subject, htmlBody string) error
	NotifyFailure(runName string, runErr error)
}

// Pipeline wires the run collaborators together.
type Pipeline struct {
	cfg      *config.Config
	ledger   *ledger.Ledger
	fetcher  Fetcher
	enricher Enricher
	analyst  Analyst
	finance  FinancialData
	archive  Archive
	mailer   Mailer
	policy   retry.Policy
	now      func() time.Time
}

// Options carries the collaborators for New. Now defaults to time.Now.
type Options struct {
	Config   *config.Config
	Ledger   *ledger.Ledger
	Fetcher  Fetcher
	Enricher Enricher
	Analyst  Analyst
	Finance  FinancialData
	Archive  Archive
	Mailer   Mailer
	Policy   retry.Policy
	Now      func() time.Time
}

// New builds a pipeline from its collaborators.
func New(opts Options) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		cfg:      opts.Config,
		ledger:   opts.Ledger,
		fetcher:  opts.Fetcher,
		enricher: opts.Enricher,
		analyst:  opts.Analyst,
		finance:  opts.Finance,
		archive:  opts.Archive,
		mailer:   opts.Mailer,
		policy:   opts.Policy,
		now:      opts.Now,
	}
}

// Run executes fn under the top-level failure handler: a returned error or a
// panic triggers the failure-notification mail before propagating.
func (p *Pipeline) Run(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run %s panicked: %v", name, r)
			logger.Error("Run died unexpectedly", err, "run", name)
			p.mailer.NotifyFailure(name, err)
		}
	}()

	logger.Info("Starting run", "run", name)
	if err = fn(ctx); err != nil {
		logger.Error("Run failed", err, "run", name)
		p.mailer.NotifyFailure(name, err)
		return err
	}
	logger.Info("Run finished", "run", name)
	return nil
}

// DailyRun fetches, enriches, reports and archives today's articles.
func (p *Pipeline) DailyRun(ctx context.Context) error {
	now := p.now()

	entries := p.ledger.Load()
	kept := ledger.Purge(entries, now, p.cfg.Pipeline.RetentionDays)
	if purged := len(entries) - len(kept); purged > 0 {
		logger.Info("Purged old URLs from the processed ledger", "purged", purged)
	}

	candidates := p.fetcher.Fetch(ctx, p.cfg.Feeds.Sources, p.cfg.Feeds.MaxPerSource, kept.URLSet())
	if len(candidates) == 0 {
		logger.Info("No new articles fetched")
		return p.ledger.Save(kept)
	}

	enriched := p.enricher.EnrichAll(ctx, candidates)
	if len(enriched) == 0 {
		logger.Warn("No articles were successfully summarized, no report will be sent")
		return nil
	}

	result := aggregate.Aggregate(ctx, p.analyst, p.policy, "daily", enriched)
	if result.Narrative == "" {
		result.Narrative = "Takeaway generation failed."
	}

	html, err := report.RenderDaily(result, now)
	if err != nil {
		return fmt.Errorf("failed to render daily report: %w", err)
	}

	if p.mailer.Configured() {
		date := report.ReportDate(now)
		subject := fmt.Sprintf("Your Industry News Summary - %s", date)
		body := fmt.Sprintf("Attached is your industry news summary, containing %d successfully summarized new articles.", len(enriched))
		filename := fmt.Sprintf("news_summary_%s.html", now.Format("2006-01-02"))
		if err := p.mailer.SendWithAttachment(subject, body, filename, []byte(html)); err != nil {
			logger.Error("Failed to send daily report email", err)
		}
	}

	for _, article := range enriched {
		kept[article.URL] = now.UTC()
	}
	if err := p.ledger.Save(kept); err != nil {
		return fmt.Errorf("failed to save processed ledger: %w", err)
	}

	if err := p.archive.Append(now, enriched); err != nil {
		logger.Error("Failed to archive enriched articles", err)
	}
	p.archive.Evict(now, p.cfg.Pipeline.ArchiveKeepDays)

	return nil
}

// WeeklyRun analyzes the archived week and mails the HTML briefing. The mail
// is skipped entirely when takeaway generation fails.
func (p *Pipeline) WeeklyRun(ctx context.Context) error {
	now := p.now()
	daysBack := p.cfg.Pipeline.AnalysisDaysBack

	records := p.archive.LoadRange(now, daysBack)
	if len(records) == 0 {
		logger.Info("No archived articles to analyze")
		return nil
	}
	logger.Info("Loaded archived articles for weekly analysis", "articles", len(records), "days", daysBack)

	summariesContext := llm.BuildSummariesContext(records)
	narrative, ok := retry.Do(p.policy, "weekly takeaways", func() (string, error) {
		return p.analyst.Takeaways(ctx, "weekly", summariesContext)
	})
	if !ok {
		logger.Warn("Failed to generate weekly takeaways, no briefing will be sent")
		return nil
	}

	trends := aggregate.ComputeTrends(records)
	html, err := report.RenderWeekly(narrative, trends, daysBack)
	if err != nil {
		return fmt.Errorf("failed to render weekly briefing: %w", err)
	}

	subject := fmt.Sprintf("Your Weekly Investor Briefing for %s", report.ReportDate(now))
	if err := p.mailer.SendHTML(subject, html); err != nil {
		return fmt.Errorf("failed to send weekly briefing: %w", err)
	}
	return nil
}

// DeepDiveRun selects the week's most featured companies and mails one
// investment memo per company, enriched with financial data.
func (p *Pipeline) DeepDiveRun(ctx context.Context) error {
	now := p.now()

	records := p.archive.LoadRange(now, p.cfg.Pipeline.AnalysisDaysBack)
	if len(records) == 0 {
		logger.Info("No archived articles to analyze")
		return nil
	}

	summariesContext := llm.BuildSummariesContext(records)
	companies, ok := retry.Do(p.policy, "company selection", func() ([]core.Company, error) {
		return p.analyst.SelectCompanies(ctx, summariesContext)
	})
	if !ok || len(companies) == 0 {
		logger.Warn("Could not identify any companies for deep-dive analysis")
		return nil
	}
	logger.Info("Identified companies for deep-dive analysis", "companies", len(companies))

	var memos []string
	for _, company := range companies {
		logger.Info("Analyzing company", "ticker", company.Ticker, "name", company.Name)
		financials := p.finance.Lookup(ctx, company.Ticker)
		memoContext := relevantContext(records, company)
		memo, ok := retry.Do(p.policy, "investment memo", func() (string, error) {
			return p.analyst.InvestmentMemo(ctx, company, financials, memoContext, now)
		})
		if ok {
			memos = append(memos, memo)
		}
	}
	if len(memos) == 0 {
		logger.Warn("Failed to generate any investment memos, no report will be sent")
		return nil
	}

	html, err := report.RenderDeepDive(memos, now)
	if err != nil {
		return fmt.Errorf("failed to render deep-dive report: %w", err)
	}

	date := now.Format("2006-01-02")
	subject := fmt.Sprintf("Deep-Dive Analysis (with Financial Data) for %s", date)
	body := "Attached is your deep-dive investment memo, enriched with quantitative financial data."
	filename := fmt.Sprintf("deep_dive_%s.html", date)
	if err := p.mailer.SendWithAttachment(subject, body, filename, []byte(html)); err != nil {
		return fmt.Errorf("failed to send deep-dive report: %w", err)
	}
	return nil
}

// relevantContext narrows the summaries context to articles mentioning the
// company; the full set is used when nothing matches.
func relevantContext(records []core.EnrichedArticle, company core.Company) string {
	var matched []core.EnrichedArticle
	for _, record := range records {
		if strings.Contains(record.Summary, company.Ticker) || strings.Contains(record.Summary, company.Name) {
			matched = append(matched, record)
		}
	}
	if len(matched) == 0 {
		matched = records
	}
	return llm.BuildSummariesContext(matched)
}
