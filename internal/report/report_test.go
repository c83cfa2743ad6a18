package report

import (
	"strings"
	"testing"
	"time"

	"newsdive/internal/aggregate"
	"newsdive/internal/core"
)

func sampleResult() aggregate.Result {
	return aggregate.Result{
		BySource: map[string][]core.EnrichedArticle{
			"Retail Dive": {{
				SourceName:  "Retail Dive",
				Title:       "Store closures accelerate",
				URL:         "https://example.com/closures",
				PublishedAt: "Mon, 09 Mar 2026 14:00:00 -0400",
				Summary:     "**Headline:** Closures rise\nKey details follow.",
				Sentiment:   core.SentimentNegative,
				IsFullText:  true,
			}},
			"Banking Dive": {{
				SourceName: "Banking Dive",
				Title:      "Rates hold steady",
				URL:        "https://example.com/rates",
				Summary:    "**Headline:** No change",
				Sentiment:  core.SentimentNeutral,
				IsFullText: false,
			}},
		},
		SourceNames: []string{"Banking Dive", "Retail Dive"},
		Narrative:   "**1. Thesis Title**\nRetail weakness persists.",
	}
}

func TestRenderDaily(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	html, err := RenderDaily(sampleResult(), now)
	if err != nil {
		t.Fatalf("RenderDaily failed: %v", err)
	}

	for _, want := range []string{
		"Daily Industry News Summary",
		"March 10, 2026",
		"Actionable Investor Takeaways",
		"<b>1. Thesis Title</b>",
		"Store closures accelerate",
		"https://example.com/closures",
		"Sentiment: Negative",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("Daily report missing %q", want)
		}
	}

	// Banking Dive article used the RSS summary only.
	if !strings.Contains(html, "based on the short RSS description") {
		t.Error("Expected RSS-only note for non-full-text article")
	}
	// Source index lists both groups.
	if strings.Index(html, "Banking Dive") > strings.Index(html, "Retail Dive") {
		t.Error("Sources should appear in the given alphabetical order")
	}
}

func TestRenderDaily_NoNarrativeSection(t *testing.T) {
	result := sampleResult()
	result.Narrative = ""

	html, err := RenderDaily(result, time.Now())
	if err != nil {
		t.Fatalf("RenderDaily failed: %v", err)
	}
	if strings.Contains(html, "Actionable Investor Takeaways") {
		t.Error("Takeaways section should be omitted when the narrative is empty")
	}
}

func TestRenderDaily_EscapesArticleContent(t *testing.T) {
	result := aggregate.Result{
		BySource: map[string][]core.EnrichedArticle{
			"Test Dive": {{
				SourceName: "Test Dive",
				Title:      "Injection <script>alert(1)</script>",
				URL:        "https://example.com/x",
				Summary:    "<img src=x>",
				Sentiment:  core.SentimentNeutral,
				IsFullText: true,
			}},
		},
		SourceNames: []string{"Test Dive"},
	}

	html, err := RenderDaily(result, time.Now())
	if err != nil {
		t.Fatalf("RenderDaily failed: %v", err)
	}
	if strings.Contains(html, "<script>alert(1)</script>") || strings.Contains(html, "<img src=x>") {
		t.Error("Article content must be HTML-escaped")
	}
}

func TestRenderWeekly(t *testing.T) {
	trends := core.Trends{
		Sentiment: core.SentimentSummary{Positive: "41.7%", Negative: "33.3%", Neutral: "25.0%"},
		TopEntities: map[string][]string{
			core.EntityCompanies: {"Acme Corp", "Globex"},
			core.EntityPeople:    {},
			core.EntityTopics:    {"Tariffs"},
		},
	}

	html, err := RenderWeekly("**1. Thematic Shift**\nRates stay high.", trends, 7)
	if err != nil {
		t.Fatalf("RenderWeekly failed: %v", err)
	}

	for _, want := range []string{
		"Weekly Investor Briefing",
		"past 7 days",
		"41.7%",
		"Acme Corp",
		"<b>1. Thematic Shift</b>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("Weekly report missing %q", want)
		}
	}
	if !strings.Contains(html, "None mentioned") {
		t.Error("Empty entity category should render as 'None mentioned'")
	}
}

func TestRenderDeepDive(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	memos := []string{
		"**INVESTMENT MEMO**\nThesis for Acme.",
		"**INVESTMENT MEMO**\nThesis for Globex.",
	}

	html, err := RenderDeepDive(memos, now)
	if err != nil {
		t.Fatalf("RenderDeepDive failed: %v", err)
	}
	if !strings.Contains(html, "Thesis for Acme.") || !strings.Contains(html, "Thesis for Globex.") {
		t.Error("Both memos should be rendered")
	}
	if strings.Count(html, "<hr>") != 1 {
		t.Errorf("Memos should be separated by one divider, found %d", strings.Count(html, "<hr>"))
	}
}

func TestReportDate_Eastern(t *testing.T) {
	// 03:00 UTC on March 11 is still March 10 Eastern.
	now := time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC)
	if got := ReportDate(now); got != "March 10, 2026" {
		t.Errorf("Expected Eastern calendar date, got %s", got)
	}
}
