package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/01moynul/retail-orders/internal/apperr"
)

const (
	TemplateOrderConfirmation = "order_confirmation"
	TemplateAdminNewOrder     = "admin_new_order"
	TemplateStatusChanged     = "order_status_changed"
)

var ErrUnknownTemplate = apperr.Validation("unknown_template", "unknown email template")

type emailTemplate struct {
	subject *template.Template
	body    *template.Template
}

func mustTemplate(name, subject, body string) emailTemplate {
	return emailTemplate{
		subject: template.Must(template.New(name + ".subject").Option("missingkey=error").Parse(subject)),
		body:    template.Must(template.New(name + ".body").Option("missingkey=error").Parse(body)),
	}
}

var templates = map[string]emailTemplate{
	TemplateOrderConfirmation: mustTemplate(TemplateOrderConfirmation,
		"Order #{{.order_id}} confirmed",
		`Thank you for your order!

Order #{{.order_id}} has been placed with {{.items}} item(s) for a total of {{.total}}.
We will let you know when its status changes.
`),
	TemplateAdminNewOrder: mustTemplate(TemplateAdminNewOrder,
		"New order #{{.order_id}}",
		`A new order #{{.order_id}} was placed by {{.client_email}}.

Items: {{.items}}
Total: {{.total}}
`),
	TemplateStatusChanged: mustTemplate(TemplateStatusChanged,
		"Order #{{.order_id}} is now {{.new_status}}",
		`The status of your order #{{.order_id}} changed from {{.old_status}} to {{.new_status}}.
`),
}

// Render produces the subject and body of the named template.
func Render(name string, data map[string]any) (subject, body string, err error) {
	tmpl, ok := templates[name]
	if !ok {
		return "", "", ErrUnknownTemplate.WithMessage(fmt.Sprintf("unknown email template %q", name))
	}

	var buf bytes.Buffer
	if err := tmpl.subject.Execute(&buf, data); err != nil {
		return "", "", apperr.Validation("template_error", err.Error())
	}
	subject = buf.String()

	buf.Reset()
	if err := tmpl.body.Execute(&buf, data); err != nil {
		return "", "", apperr.Validation("template_error", err.Error())
	}
	return subject, buf.String(), nil
}
