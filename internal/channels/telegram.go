package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"engram/internal/agent"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	telegramAPIBase      = "https://api.telegram.org/bot%s"
	telegramSendMsg      = "/sendMessage"
	telegramChatAction   = "/sendChatAction"
	telegramSetWebhook   = "/setWebhook"
	telegramActionTyping = "typing"

	// Telegram rejects messages longer than this many characters.
	telegramMaxMessage = 4096

	defaultAgentType = "orchestrator"
)

// Telegram answers webhook updates by running one agent turn per message.
// "/<agent_type> text" picks the agent; plain text goes to the orchestrator.
type Telegram struct {
	sessions   SessionFactory
	catalog    *agent.Catalog
	apiURL     string
	webhookURL string
	client     *http.Client

	mu      sync.Mutex
	baseCtx context.Context
	stopped bool
	wg      sync.WaitGroup
}

func NewTelegram(botToken, webhookURL string, sessions SessionFactory, catalog *agent.Catalog) *Telegram {
	return &Telegram{
		sessions:   sessions,
		catalog:    catalog,
		apiURL:     fmt.Sprintf(telegramAPIBase, botToken),
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseCtx: context.Background(),
	}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhook/telegram", t.handleWebhook)
}

// Start registers the webhook when a public URL is configured, then waits
// for ctx and for in-flight replies to finish.
func (t *Telegram) Start(ctx context.Context) error {
	t.mu.Lock()
	t.baseCtx = ctx
	t.mu.Unlock()

	if t.webhookURL != "" {
		if err := t.post(ctx, telegramSetWebhook, map[string]any{"url": t.webhookURL}); err != nil {
			return fmt.Errorf("telegram: set webhook: %w", err)
		}
		slog.Info("telegram: webhook registered", "url", t.webhookURL)
	}

	<-ctx.Done()
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
	t.wg.Wait()
	return nil
}

type telegramUpdate struct {
	Message *telegramMessage `json:"message"`
}

type telegramMessage struct {
	Chat telegramChat `json:"chat"`
	Text string       `json:"text"`
}

type telegramChat struct {
	ID int64 `json:"id"`
}

type telegramSendRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

func (t *Telegram) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update telegramUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		slog.Error("telegram: failed to decode update", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	// Telegram retries anything that is not a 200, so always acknowledge.
	w.WriteHeader(http.StatusOK)
	if update.Message == nil || strings.TrimSpace(update.Message.Text) == "" {
		return
	}

	chatID := update.Message.Chat.ID
	agentType, text := ParseCommand(update.Message.Text)
	slog.Info("telegram: received message", "chat_id", chatID, "agent", agentType)

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	ctx := t.baseCtx
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		t.reply(ctx, chatID, agentType, text)
	}()
}

func (t *Telegram) reply(ctx context.Context, chatID int64, agentType, text string) {
	if agentType == "start" || agentType == "help" || text == "" {
		t.send(ctx, chatID, t.usage())
		return
	}

	sess, err := t.sessions.NewSingle(agentType, text)
	if err != nil {
		t.send(ctx, chatID, err.Error()+"\n\n"+t.usage())
		return
	}

	t.sendTyping(ctx, chatID)
	answer, err := sess.Collect(ctx)
	if err != nil {
		slog.Error("telegram: session failed", "chat_id", chatID, "session_id", sess.ID, "error", err)
		answer = "Sorry, something went wrong: " + err.Error()
	}
	t.send(ctx, chatID, answer)
}

func (t *Telegram) usage() string {
	var b strings.Builder
	b.WriteString("Send a message to the orchestrator, or pick an agent with /<agent_type> <message>:\n")
	for _, typ := range t.catalog.Types() {
		m, _ := t.catalog.Meta(typ)
		fmt.Fprintf(&b, "/%s - %s\n", typ, m.Name)
	}
	return b.String()
}

// ParseCommand splits "/sales@bot draft an email" into ("sales", "draft an
// email"). Text without a leading command goes to the orchestrator.
func ParseCommand(text string) (agentType, message string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return defaultAgentType, text
	}
	cmd, rest, _ := strings.Cut(text[1:], " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd), strings.TrimSpace(rest)
}

func (t *Telegram) sendTyping(ctx context.Context, chatID int64) {
	if err := t.post(ctx, telegramChatAction, map[string]any{
		"chat_id": chatID,
		"action":  telegramActionTyping,
	}); err != nil {
		slog.Warn("telegram: failed to send typing action", "chat_id", chatID, "error", err)
	}
}

func (t *Telegram) send(ctx context.Context, chatID int64, text string) {
	for _, part := range splitMessage(text, telegramMaxMessage) {
		if err := t.post(ctx, telegramSendMsg, telegramSendRequest{ChatID: chatID, Text: part}); err != nil {
			slog.Error("telegram: failed to send message", "chat_id", chatID, "error", err)
			return
		}
	}
}

func (t *Telegram) post(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL+method, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned %d", resp.StatusCode)
	}
	return nil
}

func splitMessage(text string, limit int) []string {
	var parts []string
	for text != "" {
		part := agent.Truncate(text, limit)
		parts = append(parts, part)
		text = text[len(part):]
	}
	return parts
}
