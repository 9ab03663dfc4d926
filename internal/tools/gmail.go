package tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"engram/internal/agent"
	"engram/internal/config"
)

// Gmail uses the Gmail REST API with an OAuth access token.
type Gmail struct {
	cfg    config.GmailConfig
	client *restClient
}

func NewGmail(cfg config.GmailConfig) *Gmail {
	return &Gmail{
		cfg:    cfg,
		client: &restClient{baseURL: "https://gmail.googleapis.com/gmail/v1/users/me", auth: bearer(cfg.AccessToken)},
	}
}

type emailArgs struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	CC      string `json:"cc"`
}

type inboxArgs struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

func (g *Gmail) Tools() []agent.Tool {
	emailSchema := object(
		str("to", "Recipient email address"),
		str("subject", "Subject line"),
		str("body", "Plain-text body"),
		str("cc", "Optional CC addresses, comma separated"),
	)
	return []agent.Tool{
		&tool[emailArgs]{
			name:        "gmail_send_email",
			service:     "Gmail",
			description: "Send an email from the connected Gmail account.",
			schema:      emailSchema,
			run:         g.send,
		},
		&tool[emailArgs]{
			name:        "gmail_create_draft",
			service:     "Gmail",
			description: "Save an email as a Gmail draft for review instead of sending it.",
			schema:      emailSchema,
			run:         g.draft,
		},
		&tool[inboxArgs]{
			name:        "gmail_read_emails",
			service:     "Gmail",
			description: "Read recent emails matching a Gmail search query.",
			schema: object(
				str("query", "Gmail search query, e.g. is:unread from:alice; empty for the inbox"),
				num("max_results", "Number of emails (default 5, max 20)"),
			),
			run: g.read,
		},
	}
}

func (g *Gmail) check() error {
	if g.cfg.AccessToken == "" {
		return unavailable("set services.gmail.access_token or GMAIL_ACCESS_TOKEN")
	}
	return nil
}

// raw renders an RFC 2822 message, base64url encoded as the API expects.
func (g *Gmail) raw(args emailArgs) (string, error) {
	if args.To == "" || args.Subject == "" {
		return "", fmt.Errorf("to and subject are required")
	}
	var b strings.Builder
	if g.cfg.Sender != "" {
		fmt.Fprintf(&b, "From: %s\r\n", g.cfg.Sender)
	}
	fmt.Fprintf(&b, "To: %s\r\n", args.To)
	if args.CC != "" {
		fmt.Fprintf(&b, "Cc: %s\r\n", args.CC)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", args.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(args.Body)
	return base64.URLEncoding.EncodeToString([]byte(b.String())), nil
}

func (g *Gmail) send(ctx context.Context, args emailArgs) (string, error) {
	if err := g.check(); err != nil {
		return "", err
	}
	raw, err := g.raw(args)
	if err != nil {
		return "", err
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := g.client.do(ctx, http.MethodPost, "/messages/send", nil, map[string]string{"raw": raw}, &out); err != nil {
		return "", err
	}
	return fmt.Sprintf("Email sent to %s with subject %q (id=%s).", args.To, args.Subject, out.ID), nil
}

func (g *Gmail) draft(ctx context.Context, args emailArgs) (string, error) {
	if err := g.check(); err != nil {
		return "", err
	}
	raw, err := g.raw(args)
	if err != nil {
		return "", err
	}
	var out struct {
		ID string `json:"id"`
	}
	body := map[string]any{"message": map[string]string{"raw": raw}}
	if err := g.client.do(ctx, http.MethodPost, "/drafts", nil, body, &out); err != nil {
		return "", err
	}
	return fmt.Sprintf("Draft saved for %s with subject %q (id=%s).", args.To, args.Subject, out.ID), nil
}

func (g *Gmail) read(ctx context.Context, args inboxArgs) (string, error) {
	if err := g.check(); err != nil {
		return "", err
	}
	query := args.Query
	if query == "" {
		query = "is:inbox"
	}

	var list struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	err := g.client.do(ctx, http.MethodGet, "/messages", url.Values{
		"q":          {query},
		"maxResults": {strconv.Itoa(clamp(args.MaxResults, 1, 20, 5))},
	}, nil, &list)
	if err != nil {
		return "", err
	}
	if len(list.Messages) == 0 {
		return "No emails found.", nil
	}

	var b strings.Builder
	for _, m := range list.Messages {
		var msg struct {
			Snippet string `json:"snippet"`
			Payload struct {
				Headers []struct {
					Name  string `json:"name"`
					Value string `json:"value"`
				} `json:"headers"`
			} `json:"payload"`
		}
		err := g.client.do(ctx, http.MethodGet, "/messages/"+url.PathEscape(m.ID), url.Values{
			"format":          {"metadata"},
			"metadataHeaders": {"From", "Subject", "Date"},
		}, nil, &msg)
		if err != nil {
			return "", err
		}
		headers := map[string]string{}
		for _, h := range msg.Payload.Headers {
			headers[h.Name] = h.Value
		}
		fmt.Fprintf(&b, "From: %s\nSubject: %s\nDate: %s\n%s\n---\n",
			headers["From"], headers["Subject"], headers["Date"], msg.Snippet)
	}
	return b.String(), nil
}
