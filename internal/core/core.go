// Package core defines the shared data types that flow through the
// ingestion-and-enrichment pipeline.
package core

import "time"

// Sentiment labels assigned by the classification call.
const (
	SentimentPositive = "Positive"
	SentimentNegative = "Negative"
	SentimentNeutral  = "Neutral"
	SentimentUnknown  = "Unknown"
)

// Entity categories returned by the classification call.
const (
	EntityCompanies = "companies"
	EntityPeople    = "people"
	EntityTopics    = "topics"
)

// EntityMap maps an entity category to the extracted names, in the order the
// classification call returned them.
type EntityMap map[string][]string

// Source is a named feed to poll.
type Source struct {
	Name string `mapstructure:"name" json:"name"`
	URL  string `mapstructure:"url" json:"url"`
}

// CandidateArticle is a raw fetched item before AI enrichment. BodyText holds
// either the full extracted article text or the feed-supplied summary;
// IsFullText is true only when extraction succeeded and produced strictly more
// text than the feed summary.
type CandidateArticle struct {
	ID          string `json:"id"`
	SourceName  string `json:"source"`
	URL         string `json:"link"`
	Title       string `json:"title"`
	PublishedAt string `json:"date"` // loosely formatted, parsed best-effort downstream
	BodyText    string `json:"body_text"`
	IsFullText  bool   `json:"is_full_text"`
}

// EnrichedArticle is a candidate plus AI-generated summary, sentiment and
// entities. Created once per candidate per run and immutable thereafter.
// The ID carries over from the candidate so archive records keep a stable
// identifier; the remaining JSON tags match the archive file layout.
type EnrichedArticle struct {
	ID          string    `json:"id"`
	SourceName  string    `json:"source"`
	Title       string    `json:"title"`
	URL         string    `json:"link"`
	PublishedAt string    `json:"date"`
	Summary     string    `json:"summary"`
	Sentiment   string    `json:"sentiment"`
	Entities    EntityMap `json:"entities"`
	IsFullText  bool      `json:"is_full_text"`
}

// Company identifies a publicly traded company selected for deep-dive analysis.
type Company struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// Financials holds the key figures fetched for a ticker. The zero value means
// no data was available; rendering falls back to "N/A" fields.
type Financials struct {
	Ticker     string `json:"Ticker"`
	Price      string `json:"Price"`
	MarketCap  string `json:"MarketCap"`
	PERatio    string `json:"PERatio"`
	Week52High string `json:"52WeekHigh"`
	Week52Low  string `json:"52WeekLow"`
}

// IsEmpty reports whether no financial data was fetched.
func (f Financials) IsEmpty() bool {
	return f == Financials{}
}

// SentimentSummary holds the percentage distribution of sentiment labels
// across a set of enriched articles, formatted for presentation (e.g. "41.7%").
type SentimentSummary struct {
	Positive string `json:"Positive"`
	Negative string `json:"Negative"`
	Neutral  string `json:"Neutral"`
}

// Trends is the cross-article statistics variant of the aggregation stage.
type Trends struct {
	Sentiment   SentimentSummary    `json:"sentiment_summary"`
	TopEntities map[string][]string `json:"top_entities"`
}

// ParseFeedDate parses a loosely formatted feed timestamp, trying the formats
// feeds are seen to emit. The zero time is returned when nothing matches;
// callers render it as "Date not available".
func ParseFeedDate(dateStr string) time.Time {
	formats := []string{
		time.RFC1123Z,
		time.RFC1123,
		time.RFC3339,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 MST",
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
