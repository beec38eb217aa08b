package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/01moynul/retail-orders/internal/apperr"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// ErrRejected means the mail API refused the message itself. Sending it
// again cannot succeed.
var ErrRejected = apperr.Validation("mail_rejected", "mail api rejected the message")

// Message is one plain-text email.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Sender delivers email. Transport mechanics live behind it.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender is the placeholder transport: instead of sending a real email,
// it writes the message to the log. Used when no mail API is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("email: no recipients")
	}
	log.Info().
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("email (placeholder transport)")
	return nil
}

// APISender posts messages as JSON to an HTTP mail API.
type APISender struct {
	URL    string
	From   string
	Client *resty.Client
}

type apiPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

func NewAPISender(url, apiKey, from string) *APISender {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &APISender{URL: url, From: from, Client: client}
}

func (s *APISender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("email: no recipients")
	}

	resp, err := s.Client.R().
		SetContext(ctx).
		SetBody(apiPayload{From: s.From, To: msg.To, Subject: msg.Subject, Text: msg.Body}).
		Post(s.URL)
	if err != nil {
		return fmt.Errorf("email: send to %s: %w", strings.Join(msg.To, ","), err)
	}
	if resp.IsError() {
		msg := fmt.Sprintf("email: mail api responded %s: %s", resp.Status(), strings.TrimSpace(resp.String()))
		if resp.StatusCode() < http.StatusInternalServerError {
			return ErrRejected.WithMessage(msg)
		}
		return errors.New(msg)
	}
	return nil
}
