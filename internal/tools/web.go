package tools

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"engram/internal/agent"

	"github.com/PuerkitoBio/goquery"
	bravesearch "github.com/cnosuke/go-brave-search"
)

// Web provides web_search (Brave) and web_fetch.
type Web struct {
	brave *bravesearch.Client
}

func NewWeb(braveAPIKey string) *Web {
	w := &Web{}
	if braveAPIKey != "" {
		client, err := bravesearch.NewClient(braveAPIKey)
		if err != nil {
			slog.Warn("tools: brave client", "error", err)
		}
		w.brave = client
	}
	return w
}

type searchArgs struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

type fetchArgs struct {
	URL string `json:"url"`
}

func (w *Web) Tools() []agent.Tool {
	return []agent.Tool{
		&tool[searchArgs]{
			name:        "web_search",
			service:     "Web search",
			description: "Search the web for recent information. Returns titles, URLs and snippets.",
			schema: object(
				str("query", "Search query"),
				num("count", "Number of results (default 5, max 20)"),
			),
			run: w.search,
		},
		&tool[fetchArgs]{
			name:        "web_fetch",
			service:     "Web fetch",
			description: "Fetch a web page and return its visible text.",
			schema:      object(str("url", "Absolute http(s) URL to fetch")),
			run:         w.fetch,
		},
	}
}

func (w *Web) search(ctx context.Context, args searchArgs) (string, error) {
	if w.brave == nil {
		return "", unavailable("set services.brave.api_key or BRAVE_API_KEY")
	}
	if args.Query == "" {
		return "", fmt.Errorf("query is required")
	}
	count := clamp(args.Count, 1, 20, 5)

	slog.Debug("web: searching", "query", args.Query, "count", count)
	resp, err := w.brave.WebSearch(ctx, args.Query, &bravesearch.WebSearchParams{
		Count: count,
	})
	if err != nil {
		return "", fmt.Errorf("brave search: %w", err)
	}

	results := resp.GetWebResults()
	if len(results) == 0 {
		return "No results found.", nil
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		fmt.Fprintf(&b, "%s\n%s\n%s", r.Title, r.URL, r.Description)
	}
	return b.String(), nil
}

func (w *Web) fetch(ctx context.Context, args fetchArgs) (string, error) {
	if !strings.HasPrefix(args.URL, "http://") && !strings.HasPrefix(args.URL, "https://") {
		return "", fmt.Errorf("url must be an absolute http(s) URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.URL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "engram/1.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %s", resp.Status)
	}

	const maxBody = 100 * 1024
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("parsing page: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		text = title + "\n\n" + text
	}

	slog.Debug("web: fetch done", "url", args.URL, "bytes", len(text))
	return text, nil
}
