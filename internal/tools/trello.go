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

// Trello uses the Trello REST API with an API key and user token.
type Trello struct {
	cfg    config.TrelloConfig
	client *restClient
}

func NewTrello(cfg config.TrelloConfig) *Trello {
	return &Trello{cfg: cfg, client: &restClient{baseURL: "https://api.trello.com/1"}}
}

type boardArgs struct {
	BoardID string `json:"board_id"`
}

type commentArgs struct {
	CardID  string `json:"card_id"`
	Comment string `json:"comment"`
}

func (t *Trello) Tools() []agent.Tool {
	return []agent.Tool{
		&tool[noArgs]{
			name:        "trello_list_boards",
			service:     "Trello",
			description: "List the Trello boards the account can access.",
			schema:      object(),
			run:         func(ctx context.Context, _ noArgs) (string, error) { return t.boards(ctx) },
		},
		&tool[boardArgs]{
			name:        "trello_get_board_cards",
			service:     "Trello",
			description: "List the open cards on a Trello board, grouped by list.",
			schema:      object(str("board_id", "Board ID from trello_list_boards")),
			run:         t.cards,
		},
		&tool[commentArgs]{
			name:        "trello_add_comment",
			service:     "Trello",
			description: "Add a comment to a Trello card.",
			schema: object(
				str("card_id", "Card ID"),
				str("comment", "Comment text"),
			),
			run: t.comment,
		},
	}
}

func (t *Trello) auth() (url.Values, error) {
	if t.cfg.APIKey == "" || t.cfg.Token == "" {
		return nil, unavailable("set services.trello.api_key and token (TRELLO_API_KEY, TRELLO_TOKEN)")
	}
	return url.Values{"key": {t.cfg.APIKey}, "token": {t.cfg.Token}}, nil
}

func (t *Trello) boards(ctx context.Context) (string, error) {
	q, err := t.auth()
	if err != nil {
		return "", err
	}
	q.Set("filter", "open")
	q.Set("fields", "name,url")

	var boards []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	if err := t.client.do(ctx, http.MethodGet, "/members/me/boards", q, nil, &boards); err != nil {
		return "", err
	}
	if len(boards) == 0 {
		return "No boards found.", nil
	}
	var b strings.Builder
	for _, board := range boards {
		fmt.Fprintf(&b, "%s [%s] %s\n", board.Name, board.ID, board.URL)
	}
	return b.String(), nil
}

func (t *Trello) cards(ctx context.Context, args boardArgs) (string, error) {
	q, err := t.auth()
	if err != nil {
		return "", err
	}
	if args.BoardID == "" {
		return "", fmt.Errorf("board_id is required")
	}
	board := "/boards/" + url.PathEscape(args.BoardID)

	var lists []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := t.client.do(ctx, http.MethodGet, board+"/lists", q, nil, &lists); err != nil {
		return "", err
	}

	var cards []struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		IDList string `json:"idList"`
		Due    string `json:"due"`
	}
	if err := t.client.do(ctx, http.MethodGet, board+"/cards/open", q, nil, &cards); err != nil {
		return "", err
	}
	if len(cards) == 0 {
		return "The board has no open cards.", nil
	}

	var b strings.Builder
	for _, l := range lists {
		header := false
		for _, c := range cards {
			if c.IDList != l.ID {
				continue
			}
			if !header {
				fmt.Fprintf(&b, "## %s\n", l.Name)
				header = true
			}
			fmt.Fprintf(&b, "- %s [%s]", c.Name, c.ID)
			if c.Due != "" {
				fmt.Fprintf(&b, " due %s", c.Due)
			}
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

func (t *Trello) comment(ctx context.Context, args commentArgs) (string, error) {
	q, err := t.auth()
	if err != nil {
		return "", err
	}
	if args.CardID == "" || args.Comment == "" {
		return "", fmt.Errorf("card_id and comment are required")
	}
	q.Set("text", args.Comment)
	if err := t.client.do(ctx, http.MethodPost, "/cards/"+url.PathEscape(args.CardID)+"/actions/comments", q, nil, nil); err != nil {
		return "", err
	}
	return fmt.Sprintf("Comment added to card %s.", args.CardID), nil
}
