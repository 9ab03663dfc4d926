package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"engram/internal/agent"
	"engram/internal/config"
)

const notionVersion = "2022-06-28"

// Notion talks to the Notion API with an internal integration token.
type Notion struct {
	cfg    config.NotionConfig
	client *restClient
}

func NewNotion(cfg config.NotionConfig) *Notion {
	return &Notion{
		cfg: cfg,
		client: &restClient{
			baseURL: "https://api.notion.com/v1",
			auth:    bearer(cfg.Token),
			header:  http.Header{"Notion-Version": {notionVersion}},
		},
	}
}

type notionCreateArgs struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	ParentPageID string `json:"parent_page_id"`
}

type notionSearchArgs struct {
	Query    string `json:"query"`
	PageSize int    `json:"page_size"`
}

type notionReadArgs struct {
	PageID string `json:"page_id"`
}

type richText struct {
	PlainText string `json:"plain_text"`
}

func (n *Notion) Tools() []agent.Tool {
	return []agent.Tool{
		&tool[notionCreateArgs]{
			name:        "notion_create_page",
			service:     "Notion",
			description: "Create a Notion page with a title and markdown-ish content (# headings, - bullets, plain paragraphs).",
			schema: object(
				str("title", "Page title"),
				str("content", "Page body, one block per line"),
				str("parent_page_id", "Parent page ID; empty for the configured default"),
			),
			run: n.create,
		},
		&tool[notionSearchArgs]{
			name:        "notion_search",
			service:     "Notion",
			description: "Search Notion pages shared with the integration.",
			schema: object(
				str("query", "Search text"),
				num("page_size", "Number of results (default 5, max 20)"),
			),
			run: n.search,
		},
		&tool[notionReadArgs]{
			name:        "notion_read_page",
			service:     "Notion",
			description: "Read the text content of a Notion page.",
			schema:      object(str("page_id", "Page ID")),
			run:         n.read,
		},
	}
}

func (n *Notion) check() error {
	if n.cfg.Token == "" {
		return unavailable("set services.notion.token or NOTION_TOKEN")
	}
	return nil
}

func (n *Notion) create(ctx context.Context, args notionCreateArgs) (string, error) {
	if err := n.check(); err != nil {
		return "", err
	}
	parent := args.ParentPageID
	if parent == "" {
		parent = n.cfg.DefaultParent
	}
	if parent == "" {
		return "", unavailable("no parent page: set services.notion.default_parent or pass parent_page_id")
	}
	if args.Title == "" {
		return "", fmt.Errorf("title is required")
	}

	var children []map[string]any
	for _, line := range strings.Split(args.Content, "\n") {
		if block := lineToBlock(line); block != nil {
			children = append(children, block)
		}
		if len(children) == 100 {
			break
		}
	}

	var out struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	err := n.client.do(ctx, http.MethodPost, "/pages", nil, map[string]any{
		"parent": map[string]string{"page_id": parent},
		"properties": map[string]any{
			"title": map[string]any{"title": textContent(args.Title)},
		},
		"children": children,
	}, &out)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Created Notion page %q: %s", args.Title, out.URL), nil
}

func (n *Notion) search(ctx context.Context, args notionSearchArgs) (string, error) {
	if err := n.check(); err != nil {
		return "", err
	}
	var out struct {
		Results []struct {
			ID         string `json:"id"`
			URL        string `json:"url"`
			Object     string `json:"object"`
			Properties map[string]struct {
				Type  string     `json:"type"`
				Title []richText `json:"title"`
			} `json:"properties"`
		} `json:"results"`
	}
	err := n.client.do(ctx, http.MethodPost, "/search", nil, map[string]any{
		"query":     args.Query,
		"page_size": clamp(args.PageSize, 1, 20, 5),
	}, &out)
	if err != nil {
		return "", err
	}
	if len(out.Results) == 0 {
		return "No Notion pages found.", nil
	}

	var b strings.Builder
	for _, r := range out.Results {
		title := "(untitled)"
		for _, p := range r.Properties {
			if p.Type == "title" && len(p.Title) > 0 {
				title = plain(p.Title)
			}
		}
		fmt.Fprintf(&b, "%s [%s] %s\n", title, r.ID, r.URL)
	}
	return b.String(), nil
}

func (n *Notion) read(ctx context.Context, args notionReadArgs) (string, error) {
	if err := n.check(); err != nil {
		return "", err
	}
	if args.PageID == "" {
		return "", fmt.Errorf("page_id is required")
	}
	var out struct {
		Results []map[string]any `json:"results"`
	}
	err := n.client.do(ctx, http.MethodGet, "/blocks/"+url.PathEscape(args.PageID)+"/children",
		url.Values{"page_size": {"100"}}, nil, &out)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range out.Results {
		typ, _ := block["type"].(string)
		body, _ := block[typ].(map[string]any)
		texts, _ := body["rich_text"].([]any)
		var line strings.Builder
		for _, t := range texts {
			if m, ok := t.(map[string]any); ok {
				s, _ := m["plain_text"].(string)
				line.WriteString(s)
			}
		}
		if line.Len() == 0 {
			continue
		}
		switch typ {
		case "heading_1", "heading_2", "heading_3":
			b.WriteString("# ")
		case "bulleted_list_item", "numbered_list_item", "to_do":
			b.WriteString("- ")
		}
		b.WriteString(line.String())
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		return "The page has no text content.", nil
	}
	return b.String(), nil
}

func lineToBlock(line string) map[string]any {
	line = strings.TrimRight(line, " \t")
	if strings.TrimSpace(line) == "" {
		return nil
	}
	typ := "paragraph"
	switch {
	case strings.HasPrefix(line, "### "):
		typ, line = "heading_3", line[4:]
	case strings.HasPrefix(line, "## "):
		typ, line = "heading_2", line[3:]
	case strings.HasPrefix(line, "# "):
		typ, line = "heading_1", line[2:]
	case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
		typ, line = "bulleted_list_item", line[2:]
	}
	return map[string]any{
		"object": "block",
		"type":   typ,
		typ:      map[string]any{"rich_text": textContent(line)},
	}
}

// textContent splits s into rich-text items under Notion's 2000 character
// limit per item.
func textContent(s string) []map[string]any {
	var out []map[string]any
	for s != "" {
		chunk := agent.Truncate(s, 2000)
		s = s[len(chunk):]
		out = append(out, map[string]any{"type": "text", "text": map[string]string{"content": chunk}})
	}
	return out
}

func plain(texts []richText) string {
	var b strings.Builder
	for _, t := range texts {
		b.WriteString(t.PlainText)
	}
	return b.String()
}
