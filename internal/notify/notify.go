// Package notify turns order events into email tasks and delivers them
// from the worker.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/01moynul/retail-orders/internal/email"
	"github.com/01moynul/retail-orders/internal/models"
	"github.com/01moynul/retail-orders/internal/tasks"
	"github.com/rs/zerolog/log"
)

// TaskSendEmail is the task name of one templated email.
const TaskSendEmail = "email.send"

// EmailArgs are the arguments of a TaskSendEmail task.
type EmailArgs struct {
	To       []string       `json:"to"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
}

type Notifier struct {
	tasks      tasks.Submitter
	adminEmail string
}

func NewNotifier(submitter tasks.Submitter, adminEmail string) *Notifier {
	return &Notifier{tasks: submitter, adminEmail: adminEmail}
}

// OrderPlaced queues the client confirmation and the administrator alert.
// Both are attempted even if the first submit fails.
func (n *Notifier) OrderPlaced(ctx context.Context, order *models.Order, clientEmail string) error {
	data := map[string]any{
		"order_id":     order.ID,
		"items":        len(order.Items),
		"total":        order.Total.StringFixed(2),
		"client_email": clientEmail,
	}

	var errs []error
	if clientEmail != "" {
		errs = append(errs, n.submit(ctx, EmailArgs{To: []string{clientEmail}, Template: TemplateOrderConfirmation, Data: data}))
	}
	if n.adminEmail != "" {
		errs = append(errs, n.submit(ctx, EmailArgs{To: []string{n.adminEmail}, Template: TemplateAdminNewOrder, Data: data}))
	}
	return errors.Join(errs...)
}

// StatusChanged queues the status-change email for the order's client.
func (n *Notifier) StatusChanged(ctx context.Context, change models.StatusChange) error {
	if change.Old == change.New {
		return nil
	}
	return n.submit(ctx, EmailArgs{
		To:       []string{change.ClientEmail},
		Template: TemplateStatusChanged,
		Data: map[string]any{
			"order_id":   change.OrderID,
			"old_status": string(change.Old),
			"new_status": string(change.New),
		},
	})
}

func (n *Notifier) submit(ctx context.Context, args EmailArgs) error {
	id, err := n.tasks.Submit(ctx, TaskSendEmail, args)
	if err != nil {
		return fmt.Errorf("notify: queue %s: %w", args.Template, err)
	}
	log.Debug().Str("task_id", id).Str("template", args.Template).Strs("to", args.To).Msg("email queued")
	return nil
}

// SendEmailHandler renders and delivers TaskSendEmail tasks.
func SendEmailHandler(sender email.Sender) tasks.HandlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args EmailArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, tasks.Permanent(fmt.Errorf("notify: decode email args: %w", err))
		}
		if len(args.To) == 0 {
			return nil, tasks.Permanent(errors.New("notify: email has no recipients"))
		}

		subject, body, err := Render(args.Template, args.Data)
		if err != nil {
			return nil, err
		}
		if err := sender.Send(ctx, email.Message{To: args.To, Subject: subject, Body: body}); err != nil {
			return nil, err
		}
		return map[string]any{"template": args.Template, "sent_to": args.To}, nil
	}
}
