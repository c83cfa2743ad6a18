// Package llm wraps the external Gemini service behind the operations the
// pipeline needs: article summarization, sentiment/entity classification,
// company selection, cross-article takeaways, and investment memos. The
// service is a black box that can fail arbitrarily; callers wrap every method
// in the shared retry policy.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"newsdive/internal/core"

	"google.golang.org/genai"
)

const (
	// DefaultModel is the default Gemini model used for all calls.
	DefaultModel = "gemini-flash-lite-latest"

	// SummarizePromptTemplate produces the structured multi-section brief for
	// a single article. The model must not add information absent from the
	// article text.
	SummarizePromptTemplate = `You are a disciplined financial news analyst. Summarize the following article in a compact briefing style for an investor. Use ONLY information explicitly present in the article text; if a section has nothing to draw on, write "Not mentioned in the article."

Structure your response using exactly these components:
1. **Headline:** a short, impactful headline (8-12 words).
2. **Key details:** 3-5 sentences on the new developments as described in the article.
3. **Why it matters:** 3-5 sentences on the significance for the company or industry.
4. **The big picture:** 3-5 sentences of background or context from the article.
5. **By the numbers:** up to 5 bullet points (using '*') with the most important figures.
6. **Key Players:** bullet points listing companies and people named in the article with a short note on their involvement.
7. **Looking Forward:** 1-2 bullet points on the next event or data point to watch.
8. **The Bottom Line:** one sentence (under 15 words) with the ultimate takeaway.

Here is the article text:
---
%s`

	// ClassifyPromptTemplate asks for a structured sentiment/entity object.
	ClassifyPromptTemplate = `Analyze the following news article. Provide a structured JSON output containing two keys: "sentiment" and "entities".
1. "sentiment": classify the overall tone as "Positive", "Negative", or "Neutral".
2. "entities": the top 3-5 most important named entities grouped as "companies", "people", and "topics".
Provide your response ONLY as a valid JSON object.
Example: {"sentiment": "Negative", "entities": {"companies": ["Company A"], "people": ["John Doe"], "topics": ["Inflation"]}}
Here is the article text:
---
%s`

	// TakeawaysPromptTemplate synthesizes the cross-article narrative.
	TakeawaysPromptTemplate = `You are a senior analyst at a US-focused long-short hedge fund. %s
Analyze the provided news summaries below to identify overarching themes, cross-sector trends, risks, and opportunities. Distill your analysis into your top 3-5 actionable takeaways.
For each takeaway:
- Give it a clear, bolded title (e.g., %s).
- Provide a 3-5 sentence analysis explaining the "so what" for an investor.
- Mention specific sectors or companies from the articles that exemplify this trend.
- Be concise, forward-looking, and focus on what could materially impact investment decisions %s.
Here is the full context of the news summaries:
---
%s`

	// SelectCompaniesPromptTemplate identifies tickers for deep-dive analysis.
	SelectCompaniesPromptTemplate = `Analyze the provided news summaries to identify U.S. publicly traded companies. Provide a structured JSON output containing a single key "companies": a list of objects with keys "ticker" (e.g., "AAPL") and "name" (e.g., "Apple Inc."). Extract the 5-7 most prominently featured companies.
Provide your response ONLY as a valid JSON object, with no text before or after it.
Here is the context from the news articles:
---
%s`

	// MemoPromptTemplate generates an investment memo for one company.
	MemoPromptTemplate = `You are a long-short equity investment analyst with a data-driven, skeptical investment philosophy. Generate an institutional-quality investment memo for %s (%s), synthesizing the provided qualitative news summaries with the provided quantitative financial data.

Provided financial data:
%s

Provided news summaries:
---
%s
---

Structure the memo with these sections, each with a bolded heading:
**1. Executive Summary & Investment Thesis** (recommendation, price target horizon, thesis in bullets, key catalysts, conviction level)
**2. Business & Competitive Landscape**
**3. Synthesis of Recent News Flow**
**4. The Bull Case**
**5. The Bear Case**
**6. Valuation Analysis** (grounded in the provided price, P/E and market cap)
**7. Recommendation & Portfolio Implementation**
Date the memo %s and address it to the Investment Committee.`
)

// Classification is the parsed result of a classification call.
type Classification struct {
	Sentiment string         `json:"sentiment"`
	Entities  core.EntityMap `json:"entities"`
}

// Client talks to the Gemini API.
type Client struct {
	modelName string
	gClient   *genai.Client
}

// NewClient creates a Gemini client with the given API key and model. The
// model falls back to DefaultModel when empty.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{modelName: modelName, gClient: gClient}, nil
}

// generateContent wraps the SDK's GenerateContent call.
func (c *Client) generateContent(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	resp, err := c.gClient.Models.GenerateContent(ctx, c.modelName, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// Summarize produces the structured brief for one article's body text.
func (c *Client) Summarize(ctx context.Context, articleText string) (string, error) {
	return c.generateContent(ctx, fmt.Sprintf(SummarizePromptTemplate, articleText))
}

// Classify returns the sentiment and entities for a summarized article.
func (c *Client) Classify(ctx context.Context, articleText string) (Classification, error) {
	raw, err := c.generateContent(ctx, fmt.Sprintf(ClassifyPromptTemplate, articleText))
	if err != nil {
		return Classification{}, err
	}
	return ParseClassification(raw)
}

// Takeaways generates the cross-article narrative for the given time frame
// ("daily" or "weekly") from the concatenated summaries context.
func (c *Client) Takeaways(ctx context.Context, timeFrame, summariesContext string) (string, error) {
	promptContext := "You have been given a compilation of today's key industry news summaries."
	titleExample := `**1. Thesis Title**`
	forwardLook := "that could materially impact investment decisions"
	if strings.EqualFold(timeFrame, "weekly") {
		promptContext = "You have been given a compilation of all key industry news summaries from the past week. Synthesize all this information and identify the most critical, actionable takeaways for your portfolio manager."
		titleExample = `**1. Thematic Shift**`
		forwardLook = "in the coming weeks"
	}

	prompt := fmt.Sprintf(TakeawaysPromptTemplate, promptContext, titleExample, forwardLook, summariesContext)
	return c.generateContent(ctx, prompt)
}

// SelectCompanies identifies the most prominently featured companies across
// the given summaries context.
func (c *Client) SelectCompanies(ctx context.Context, summariesContext string) ([]core.Company, error) {
	raw, err := c.generateContent(ctx, fmt.Sprintf(SelectCompaniesPromptTemplate, summariesContext))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Companies []core.Company `json:"companies"`
	}
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse company selections: %w", err)
	}
	return parsed.Companies, nil
}

// InvestmentMemo generates a deep-dive memo for one company, combining the
// summaries context with its financial data. The memo is dated asOf, the
// pipeline's run clock.
func (c *Client) InvestmentMemo(ctx context.Context, company core.Company, financials core.Financials, summariesContext string, asOf time.Time) (string, error) {
	prompt, err := memoPrompt(company, financials, summariesContext, asOf)
	if err != nil {
		return "", err
	}
	return c.generateContent(ctx, prompt)
}

// memoPrompt renders the memo prompt for one company.
func memoPrompt(company core.Company, financials core.Financials, summariesContext string, asOf time.Time) (string, error) {
	finJSON, err := json.MarshalIndent(financials, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode financial data: %w", err)
	}

	date := asOf.Format("January 2, 2006")
	return fmt.Sprintf(MemoPromptTemplate, company.Name, company.Ticker, string(finJSON), summariesContext, date), nil
}

// ParseClassification decodes a classification response, tolerating markdown
// code fences around the JSON body. The sentiment is normalized to one of the
// known labels; anything unrecognized becomes Unknown.
func ParseClassification(raw string) (Classification, error) {
	var parsed Classification
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &parsed); err != nil {
		return Classification{}, fmt.Errorf("failed to parse classification: %w", err)
	}

	switch parsed.Sentiment {
	case core.SentimentPositive, core.SentimentNegative, core.SentimentNeutral:
	default:
		parsed.Sentiment = core.SentimentUnknown
	}
	if parsed.Entities == nil {
		parsed.Entities = core.EntityMap{}
	}
	return parsed, nil
}

// stripJSONFences removes ```json fences models wrap structured output in.
func stripJSONFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// BuildSummariesContext concatenates enriched article summaries into the
// context block shared by the takeaways, company-selection and memo prompts.
func BuildSummariesContext(articles []core.EnrichedArticle) string {
	parts := make([]string, 0, len(articles))
	for _, a := range articles {
		parts = append(parts, fmt.Sprintf("Source: %s\nTitle: %s\nSummary:\n%s", a.SourceName, a.Title, a.Summary))
	}
	return strings.Join(parts, "\n\n---\n\n")
}
