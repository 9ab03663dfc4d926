package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"engram/internal/agent"
	"engram/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCoversCatalog(t *testing.T) {
	reg := NewRegistry(config.ServicesConfig{})
	assert.Equal(t, 17, reg.Len())

	cat := agent.DefaultCatalog()
	for _, typ := range cat.Types() {
		p, _ := cat.Profile(typ)
		for _, name := range p.Tools {
			_, ok := reg.Get(name)
			assert.True(t, ok, "%s lists unknown tool %s", typ, name)
		}
	}
}

func TestToolSchemasAreStrict(t *testing.T) {
	for _, tl := range NewRegistry(config.ServicesConfig{}).All() {
		schema, ok := tl.InputSchema().(map[string]any)
		require.True(t, ok, tl.Name())
		assert.Equal(t, false, schema["additionalProperties"], tl.Name())
		props := schema["properties"].(map[string]any)
		assert.Len(t, schema["required"], len(props), tl.Name())
	}
}

func TestUnconfiguredToolsDegrade(t *testing.T) {
	reg := NewRegistry(config.ServicesConfig{})

	tests := map[string]string{
		"web_search":                    `{"query":"go","count":3}`,
		"slack_post_message":            `{"message":"hi","channel":""}`,
		"slack_read_messages":           `{"channel":"","limit":0}`,
		"slack_list_channels":           `{}`,
		"gmail_send_email":              `{"to":"a@b.c","subject":"s","body":"b","cc":""}`,
		"gmail_create_draft":            `{"to":"a@b.c","subject":"s","body":"b","cc":""}`,
		"gmail_read_emails":             `{"query":"","max_results":0}`,
		"notion_create_page":            `{"title":"t","content":"c","parent_page_id":""}`,
		"notion_search":                 `{"query":"q","page_size":0}`,
		"notion_read_page":              `{"page_id":"p"}`,
		"trello_list_boards":            ``,
		"trello_get_board_cards":        `{"board_id":"b"}`,
		"trello_add_comment":            `{"card_id":"c","comment":"x"}`,
		"whatsapp_send_message":         `{"message":"hi","to":"+15550001"}`,
		"whatsapp_check_message_status": `{"message_sid":"SM1"}`,
		"twilio_make_voice_call":        `{"to":"+15550001","message":"hi"}`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			tl, ok := reg.Get(name)
			require.True(t, ok)
			out, err := tl.Execute(context.Background(), input)
			require.NoError(t, err)
			assert.Regexp(t, `^\[[A-Za-z ]+ not configured\] `, out)
		})
	}
}

func TestExecuteRejectsBadJSON(t *testing.T) {
	tl, _ := NewRegistry(config.ServicesConfig{}).Get("slack_post_message")
	_, err := tl.Execute(context.Background(), "{not json")
	assert.ErrorContains(t, err, "parsing slack_post_message input")
}

func find(t *testing.T, tools []agent.Tool, name string) agent.Tool {
	t.Helper()
	for _, tl := range tools {
		if tl.Name() == name {
			return tl
		}
	}
	t.Fatalf("tool %s not found", name)
	return nil
}

func TestSlackPostMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		assert.Equal(t, "Bearer xoxb-1", r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "#general", body["channel"])
		assert.Equal(t, "ship it", body["text"])
		w.Write([]byte(`{"ok":true,"ts":"1700.01","channel":"C1"}`))
	}))
	defer srv.Close()

	s := NewSlack(config.SlackConfig{BotToken: "xoxb-1", DefaultChannel: "#general"})
	s.client.baseURL = srv.URL

	out, err := find(t, s.Tools(), "slack_post_message").Execute(context.Background(), `{"message":"ship it","channel":""}`)
	require.NoError(t, err)
	assert.Equal(t, "Message posted to #general (ts=1700.01).", out)
}

func TestSlackAPIErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer srv.Close()

	s := NewSlack(config.SlackConfig{BotToken: "xoxb-1"})
	s.client.baseURL = srv.URL

	_, err := find(t, s.Tools(), "slack_post_message").Execute(context.Background(), `{"message":"x","channel":"C9"}`)
	assert.EqualError(t, err, "Slack: chat.postMessage: channel_not_found")
}

func TestGmailSendEncodesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages/send", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		raw, err := base64.URLEncoding.DecodeString(body["raw"])
		require.NoError(t, err)
		assert.Contains(t, string(raw), "To: lead@example.com\r\n")
		assert.Contains(t, string(raw), "Subject: Follow-up\r\n")
		assert.True(t, strings.HasSuffix(string(raw), "\r\n\r\nThanks!"))
		w.Write([]byte(`{"id":"m1"}`))
	}))
	defer srv.Close()

	g := NewGmail(config.GmailConfig{AccessToken: "ya29"})
	g.client.baseURL = srv.URL

	out, err := find(t, g.Tools(), "gmail_send_email").Execute(context.Background(),
		`{"to":"lead@example.com","subject":"Follow-up","body":"Thanks!","cc":""}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Email sent to lead@example.com")
}

func TestNotionCreatePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, notionVersion, r.Header.Get("Notion-Version"))
		var body struct {
			Parent   map[string]string `json:"parent"`
			Children []map[string]any  `json:"children"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "parent-1", body.Parent["page_id"])
		require.Len(t, body.Children, 2)
		assert.Equal(t, "heading_1", body.Children[0]["type"])
		assert.Equal(t, "bulleted_list_item", body.Children[1]["type"])
		w.Write([]byte(`{"id":"p2","url":"https://notion.so/p2"}`))
	}))
	defer srv.Close()

	n := NewNotion(config.NotionConfig{Token: "secret", DefaultParent: "parent-1"})
	n.client.baseURL = srv.URL

	out, err := find(t, n.Tools(), "notion_create_page").Execute(context.Background(),
		`{"title":"Plan","content":"# Goals\n\n- ship","parent_page_id":""}`)
	require.NoError(t, err)
	assert.Equal(t, `Created Notion page "Plan": https://notion.so/p2`, out)
}

func TestTrelloBoardCards(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		switch r.URL.Path {
		case "/boards/b1/lists":
			w.Write([]byte(`[{"id":"l1","name":"Doing"},{"id":"l2","name":"Done"}]`))
		case "/boards/b1/cards/open":
			w.Write([]byte(`[{"id":"c1","name":"Deploy","idList":"l1","due":""}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tr := NewTrello(config.TrelloConfig{APIKey: "k", Token: "t"})
	tr.client.baseURL = srv.URL

	out, err := find(t, tr.Tools(), "trello_get_board_cards").Execute(context.Background(), `{"board_id":"b1"}`)
	require.NoError(t, err)
	assert.Equal(t, "## Doing\n- Deploy [c1]\n", out)
}

func TestTwilioWhatsApp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC1", user)
		assert.Equal(t, "tok", pass)
		body, _ := io.ReadAll(r.Body)
		form, err := url.ParseQuery(string(body))
		require.NoError(t, err)
		assert.Equal(t, "whatsapp:+14155238886", form.Get("From"))
		assert.Equal(t, "whatsapp:+15550001", form.Get("To"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	}))
	defer srv.Close()

	tw := NewTwilio(config.TwilioConfig{AccountSID: "AC1", AuthToken: "tok", WhatsAppFrom: "whatsapp:+14155238886"})
	tw.client.baseURL = srv.URL

	out, err := find(t, tw.Tools(), "whatsapp_send_message").Execute(context.Background(), `{"message":"hi","to":"+15550001"}`)
	require.NoError(t, err)
	assert.Equal(t, "WhatsApp message queued to +15550001 (sid=SM1, status=queued).", out)
}

func TestWebFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><style>p{}</style><script>var x=1;</script></head><body><h1>Hello</h1>
			<p>world</p></body></html>`))
	}))
	defer srv.Close()

	fetch := find(t, NewWeb("").Tools(), "web_fetch")
	out, err := fetch.Execute(context.Background(), `{"url":"`+srv.URL+`"}`)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", out)

	_, err = fetch.Execute(context.Background(), `{"url":"file:///etc/passwd"}`)
	assert.Error(t, err)
}

func TestWebFetchPrefixesTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title> Pricing </title></head><body><noscript>enable js</noscript>
			<main>Starter  $9</main></body></html>`))
	}))
	defer srv.Close()

	out, err := find(t, NewWeb("").Tools(), "web_fetch").Execute(context.Background(), `{"url":"`+srv.URL+`"}`)
	require.NoError(t, err)
	assert.Equal(t, "Pricing\n\nStarter $9", out)
}

func TestAPIErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"bad token"}`))
	}))
	defer srv.Close()

	n := NewNotion(config.NotionConfig{Token: "x"})
	n.client.baseURL = srv.URL

	_, err := find(t, n.Tools(), "notion_search").Execute(context.Background(), `{"query":"q","page_size":0}`)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestTruncateKeepsRunes(t *testing.T) {
	s := strings.Repeat("a", maxOutputBytes-1) + "é"
	out := truncate([]byte(s + "tail"))
	assert.True(t, strings.HasSuffix(out, "a\n... (truncated)"))
}
