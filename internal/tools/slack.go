package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"engram/internal/agent"
	"engram/internal/config"
)

// Slack talks to the Slack Web API with a bot token.
type Slack struct {
	cfg    config.SlackConfig
	client *restClient
}

func NewSlack(cfg config.SlackConfig) *Slack {
	return &Slack{
		cfg:    cfg,
		client: &restClient{baseURL: "https://slack.com/api", auth: bearer(cfg.BotToken)},
	}
}

type slackResponse struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error"`
	TS       string `json:"ts"`
	Channel  string `json:"channel"`
	Messages []struct {
		User string `json:"user"`
		Text string `json:"text"`
		TS   string `json:"ts"`
	} `json:"messages"`
	Channels []struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		NumMembers int    `json:"num_members"`
	} `json:"channels"`
}

type slackPostArgs struct {
	Message string `json:"message"`
	Channel string `json:"channel"`
}

type slackReadArgs struct {
	Channel string `json:"channel"`
	Limit   int    `json:"limit"`
}

type noArgs struct{}

func (s *Slack) Tools() []agent.Tool {
	return []agent.Tool{
		&tool[slackPostArgs]{
			name:        "slack_post_message",
			service:     "Slack",
			description: "Post a message to a Slack channel.",
			schema: object(
				str("message", "Message text (Slack mrkdwn supported)"),
				str("channel", "Channel name like #general or ID; empty for the default channel"),
			),
			run: s.post,
		},
		&tool[slackReadArgs]{
			name:        "slack_read_messages",
			service:     "Slack",
			description: "Read the most recent messages from a Slack channel.",
			schema: object(
				str("channel", "Channel name like #general or ID; empty for the default channel"),
				num("limit", "Number of messages (default 10, max 50)"),
			),
			run: s.read,
		},
		&tool[noArgs]{
			name:        "slack_list_channels",
			service:     "Slack",
			description: "List the public Slack channels in the workspace.",
			schema:      object(),
			run:         func(ctx context.Context, _ noArgs) (string, error) { return s.list(ctx) },
		},
	}
}

func (s *Slack) call(ctx context.Context, method, endpoint string, query url.Values, body any) (*slackResponse, error) {
	if s.cfg.BotToken == "" {
		return nil, unavailable("set services.slack.bot_token or SLACK_BOT_TOKEN")
	}
	var out slackResponse
	if err := s.client.do(ctx, method, endpoint, query, body, &out); err != nil {
		return nil, err
	}
	if !out.OK {
		return nil, fmt.Errorf("%s: %s", strings.TrimPrefix(endpoint, "/"), out.Error)
	}
	return &out, nil
}

func (s *Slack) channel(name string) string {
	if name == "" {
		name = s.cfg.DefaultChannel
	}
	return name
}

func (s *Slack) post(ctx context.Context, args slackPostArgs) (string, error) {
	if args.Message == "" {
		return "", fmt.Errorf("message is required")
	}
	channel := s.channel(args.Channel)
	out, err := s.call(ctx, http.MethodPost, "/chat.postMessage", nil, map[string]string{
		"channel": channel,
		"text":    args.Message,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Message posted to %s (ts=%s).", channel, out.TS), nil
}

func (s *Slack) read(ctx context.Context, args slackReadArgs) (string, error) {
	channel, err := s.resolve(ctx, s.channel(args.Channel))
	if err != nil {
		return "", err
	}
	out, err := s.call(ctx, http.MethodGet, "/conversations.history", url.Values{
		"channel": {channel},
		"limit":   {strconv.Itoa(clamp(args.Limit, 1, 50, 10))},
	}, nil)
	if err != nil {
		return "", err
	}
	if len(out.Messages) == 0 {
		return "No messages found.", nil
	}
	var b strings.Builder
	for _, m := range out.Messages {
		fmt.Fprintf(&b, "[%s] %s: %s\n", m.TS, m.User, m.Text)
	}
	return b.String(), nil
}

func (s *Slack) list(ctx context.Context) (string, error) {
	out, err := s.call(ctx, http.MethodGet, "/conversations.list", url.Values{
		"types":            {"public_channel"},
		"exclude_archived": {"true"},
		"limit":            {"200"},
	}, nil)
	if err != nil {
		return "", err
	}
	if len(out.Channels) == 0 {
		return "No channels found.", nil
	}
	var b strings.Builder
	for _, c := range out.Channels {
		fmt.Fprintf(&b, "#%s (%s, %d members)\n", c.Name, c.ID, c.NumMembers)
	}
	return b.String(), nil
}

// resolve maps a "#name" channel to its ID; conversations.history only
// accepts IDs.
func (s *Slack) resolve(ctx context.Context, channel string) (string, error) {
	if !strings.HasPrefix(channel, "#") {
		return channel, nil
	}
	out, err := s.call(ctx, http.MethodGet, "/conversations.list", url.Values{
		"types": {"public_channel,private_channel"},
		"limit": {"1000"},
	}, nil)
	if err != nil {
		return "", err
	}
	name := strings.TrimPrefix(channel, "#")
	for _, c := range out.Channels {
		if c.Name == name {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("channel %s not found", channel)
}
