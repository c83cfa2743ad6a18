// Package report renders the HTML documents and email bodies for the daily,
// weekly and deep-dive runs. Display glue only; all analysis happens upstream.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"newsdive/internal/aggregate"
	"newsdive/internal/core"
)

var boldRe = regexp.MustCompile(`\*\*(.+?)\*\*`)

// easternLocation resolves the timezone used for report headers, falling back
// to UTC when zoneinfo is unavailable.
func easternLocation() *time.Location {
	location, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return location
}

// ReportDate formats now as the long-form Eastern date used in subjects and
// headers.
func ReportDate(now time.Time) string {
	return now.In(easternLocation()).Format("January 2, 2006")
}

// formatNarrative escapes AI-generated text and converts the **bold** markers
// and newlines the prompts ask for into HTML.
func formatNarrative(text string) template.HTML {
	escaped := template.HTMLEscapeString(text)
	escaped = boldRe.ReplaceAllString(escaped, "<b>$1</b>")
	escaped = strings.ReplaceAll(escaped, "\n", "<br>\n")
	return template.HTML(escaped)
}

// sentimentClass maps a sentiment label to its CSS class.
func sentimentClass(sentiment string) string {
	switch sentiment {
	case core.SentimentPositive:
		return "sentiment-positive"
	case core.SentimentNegative:
		return "sentiment-negative"
	case core.SentimentNeutral:
		return "sentiment-neutral"
	}
	return "sentiment-unknown"
}

// publishedLabel renders a feed timestamp for display, "Date not available"
// when it cannot be parsed.
func publishedLabel(dateStr string) string {
	t := core.ParseFeedDate(dateStr)
	if t.IsZero() {
		return "Date not available"
	}
	return t.In(easternLocation()).Format("Jan 2, 2006 at 3:04 PM MST")
}

var reportFuncs = template.FuncMap{
	"narrative":      formatNarrative,
	"sentimentClass": sentimentClass,
	"published":      publishedLabel,
}

const baseCSS = `
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 700px; margin: 20px auto; padding: 20px; border: 1px solid #ddd; border-radius: 8px; }
h1 { color: #2c3e50; }
h2 { color: #34495e; border-bottom: 2px solid #ecf0f1; padding-bottom: 5px; }
.summary-box { background-color: #f9f9f9; padding: 15px; border-radius: 5px; margin-bottom: 20px; }
.article { border-bottom: 1px solid #ecf0f1; padding: 12px 0; }
.meta { font-size: 13px; color: #7f8c8d; }
.note { font-size: 13px; color: #c0392b; font-style: italic; }
.sentiment-positive { color: #27ae60; font-weight: bold; }
.sentiment-negative { color: #c0392b; font-weight: bold; }
.sentiment-neutral { color: #7f8c8d; font-weight: bold; }
.sentiment-unknown { color: #333; font-weight: bold; }
ul { padding-left: 20px; }
`

const dailyTemplate = `<!DOCTYPE html>
<html><head><meta charset="UTF-8"><style>{{.CSS}}</style></head>
<body><div class="container">
<h1>Daily Industry News Summary</h1>
<p class="meta">Report generated on {{.Date}}</p>

{{if .Narrative}}
<h2>Actionable Investor Takeaways</h2>
<div class="summary-box">{{narrative .Narrative}}</div>
{{end}}

<h2>Articles in this Report</h2>
<ul>
{{range .SourceNames}}<li><b>{{.}}</b> ({{len (index $.BySource .)}})</li>
{{end}}</ul>

{{range $source := .SourceNames}}
<h2>{{$source}}</h2>
{{range index $.BySource $source}}
<div class="article">
<h3>{{.Title}}</h3>
<p class="meta">Published: {{published .PublishedAt}} | <a href="{{.URL}}">Link to full article</a></p>
<p><span class="{{sentimentClass .Sentiment}}">Sentiment: {{.Sentiment}}</span></p>
{{if not .IsFullText}}<p class="note">Note: summary is based on the short RSS description, not the full article.</p>{{end}}
<div>{{narrative .Summary}}</div>
</div>
{{end}}
{{end}}
</div></body></html>`

const weeklyTemplate = `<!DOCTYPE html>
<html><head><meta charset="UTF-8"><style>{{.CSS}}</style></head>
<body><div class="container">
<h1>Weekly Investor Briefing</h1>
<p>Here are the top insights based on news from the past {{.Days}} days.</p>

<h2>Weekly Trend Analysis</h2>
<div class="summary-box">
<b>Overall News Sentiment:</b>
<ul>
<li>Positive: <span class="sentiment-positive">{{.Trends.Sentiment.Positive}}</span></li>
<li>Negative: <span class="sentiment-negative">{{.Trends.Sentiment.Negative}}</span></li>
<li>Neutral: <span class="sentiment-neutral">{{.Trends.Sentiment.Neutral}}</span></li>
</ul>
<b>Most Mentioned This Week:</b>
<ul>
<li><b>Companies:</b><ul>{{template "entityList" .TopCompanies}}</ul></li>
<li><b>People:</b><ul>{{template "entityList" .TopPeople}}</ul></li>
<li><b>Topics:</b><ul>{{template "entityList" .TopTopics}}</ul></li>
</ul>
</div>

<h2>Actionable Takeaways</h2>
<p>{{narrative .Narrative}}</p>
</div></body></html>

{{define "entityList"}}{{if .}}{{range .}}<li>{{.}}</li>{{end}}{{else}}<li>None mentioned</li>{{end}}{{end}}`

const deepDiveTemplate = `<!DOCTYPE html>
<html><head><meta charset="UTF-8"><style>{{.CSS}}</style></head>
<body><div class="container">
<h1>Deep-Dive Investment Memos</h1>
<p class="meta">Report generated on {{.Date}}</p>
{{range $i, $memo := .Memos}}
{{if $i}}<hr>{{end}}
<div>{{narrative $memo}}</div>
{{end}}
</div></body></html>`

// RenderDaily produces the daily report document from the aggregation output.
func RenderDaily(result aggregate.Result, now time.Time) (string, error) {
	data := struct {
		CSS         template.CSS
		Date        string
		Narrative   string
		SourceNames []string
		BySource    map[string][]core.EnrichedArticle
	}{
		CSS:         template.CSS(baseCSS),
		Date:        ReportDate(now),
		Narrative:   result.Narrative,
		SourceNames: result.SourceNames,
		BySource:    result.BySource,
	}
	return execute("daily", dailyTemplate, data)
}

// RenderWeekly produces the weekly briefing email body.
func RenderWeekly(narrative string, trends core.Trends, days int) (string, error) {
	data := struct {
		CSS          template.CSS
		Days         int
		Trends       core.Trends
		TopCompanies []string
		TopPeople    []string
		TopTopics    []string
		Narrative    string
	}{
		CSS:          template.CSS(baseCSS),
		Days:         days,
		Trends:       trends,
		TopCompanies: trends.TopEntities[core.EntityCompanies],
		TopPeople:    trends.TopEntities[core.EntityPeople],
		TopTopics:    trends.TopEntities[core.EntityTopics],
		Narrative:    narrative,
	}
	return execute("weekly", weeklyTemplate, data)
}

// RenderDeepDive produces the combined memo document.
func RenderDeepDive(memos []string, now time.Time) (string, error) {
	data := struct {
		CSS   template.CSS
		Date  string
		Memos []string
	}{
		CSS:   template.CSS(baseCSS),
		Date:  ReportDate(now),
		Memos: memos,
	}
	return execute("deepdive", deepDiveTemplate, data)
}

func execute(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Funcs(reportFuncs).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", name, err)
	}
	return buf.String(), nil
}
