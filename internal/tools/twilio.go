package tools

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"engram/internal/agent"
	"engram/internal/config"
)

// Twilio sends WhatsApp messages and places voice calls through the Twilio
// REST API.
type Twilio struct {
	cfg    config.TwilioConfig
	client *restClient
}

func NewTwilio(cfg config.TwilioConfig) *Twilio {
	return &Twilio{
		cfg: cfg,
		client: &restClient{
			baseURL: "https://api.twilio.com/2010-04-01/Accounts/" + url.PathEscape(cfg.AccountSID),
			auth:    func(r *http.Request) { r.SetBasicAuth(cfg.AccountSID, cfg.AuthToken) },
		},
	}
}

type whatsappArgs struct {
	Message string `json:"message"`
	To      string `json:"to"`
}

type messageStatusArgs struct {
	MessageSID string `json:"message_sid"`
}

type callArgs struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

type twilioMessage struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	To           string `json:"to"`
	ErrorMessage string `json:"error_message"`
	DateSent     string `json:"date_sent"`
}

func (t *Twilio) Tools() []agent.Tool {
	return []agent.Tool{
		&tool[whatsappArgs]{
			name:        "whatsapp_send_message",
			service:     "WhatsApp",
			description: "Send a WhatsApp message through Twilio.",
			schema: object(
				str("message", "Message text"),
				str("to", "Recipient number in E.164 form; empty for the configured default"),
			),
			run: t.sendWhatsApp,
		},
		&tool[messageStatusArgs]{
			name:        "whatsapp_check_message_status",
			service:     "WhatsApp",
			description: "Check the delivery status of a sent WhatsApp message.",
			schema:      object(str("message_sid", "Message SID returned when sending")),
			run:         t.status,
		},
		&tool[callArgs]{
			name:        "twilio_make_voice_call",
			service:     "Voice call",
			description: "Place a phone call that reads a short message aloud.",
			schema: object(
				str("to", "Phone number in E.164 form; empty for the configured default"),
				str("message", "What the call should say"),
			),
			run: t.call,
		},
	}
}

func (t *Twilio) check() error {
	if t.cfg.AccountSID == "" || t.cfg.AuthToken == "" {
		return unavailable("set services.twilio.account_sid and auth_token (TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN)")
	}
	return nil
}

func whatsappAddr(n string) string {
	if n == "" || strings.HasPrefix(n, "whatsapp:") {
		return n
	}
	return "whatsapp:" + n
}

func (t *Twilio) sendWhatsApp(ctx context.Context, args whatsappArgs) (string, error) {
	if err := t.check(); err != nil {
		return "", err
	}
	to := args.To
	if to == "" {
		to = t.cfg.WhatsAppTo
	}
	if to == "" || args.Message == "" {
		return "", fmt.Errorf("message and a recipient are required")
	}

	var out twilioMessage
	err := t.client.do(ctx, http.MethodPost, "/Messages.json", nil, url.Values{
		"From": {whatsappAddr(t.cfg.WhatsAppFrom)},
		"To":   {whatsappAddr(to)},
		"Body": {args.Message},
	}, &out)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("WhatsApp message queued to %s (sid=%s, status=%s).", to, out.SID, out.Status), nil
}

func (t *Twilio) status(ctx context.Context, args messageStatusArgs) (string, error) {
	if err := t.check(); err != nil {
		return "", err
	}
	if args.MessageSID == "" {
		return "", fmt.Errorf("message_sid is required")
	}
	var out twilioMessage
	if err := t.client.do(ctx, http.MethodGet, "/Messages/"+url.PathEscape(args.MessageSID)+".json", nil, nil, &out); err != nil {
		return "", err
	}
	s := fmt.Sprintf("Message %s to %s: %s", out.SID, out.To, out.Status)
	if out.ErrorMessage != "" {
		s += " (" + out.ErrorMessage + ")"
	}
	return s, nil
}

func (t *Twilio) call(ctx context.Context, args callArgs) (string, error) {
	if err := t.check(); err != nil {
		return "", err
	}
	to := args.To
	if to == "" {
		to = t.cfg.PhoneTo
	}
	if to == "" || t.cfg.PhoneFrom == "" {
		return "", unavailable("set services.twilio.phone_from and a recipient number")
	}
	message := args.Message
	if message == "" {
		message = "This is an automated call from Engram."
	}

	var say strings.Builder
	if err := xml.EscapeText(&say, []byte(message)); err != nil {
		return "", err
	}
	var out struct {
		SID    string `json:"sid"`
		Status string `json:"status"`
	}
	err := t.client.do(ctx, http.MethodPost, "/Calls.json", nil, url.Values{
		"From":  {t.cfg.PhoneFrom},
		"To":    {to},
		"Twiml": {"<Response><Say>" + say.String() + "</Say></Response>"},
	}, &out)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Call placed to %s (sid=%s, status=%s).", to, out.SID, out.Status), nil
}
