// Package mailer renders and delivers the templated emails the auth flows
// produce: the one-time login code and the account confirmation code.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
)

// Kind selects the email template.
type Kind int

const (
	KindAuthCode Kind = iota
	KindConfirm
)

// Email is a fully rendered message ready for delivery.
type Email struct {
	Subject   string
	Recipient string
	HTMLBody  string
}

// Sender delivers a rendered email. Implementations must honor the context
// deadline; delivery failures surface to the caller so compensating actions
// can run.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// Context carries the template values. Only the fields relevant to the
// chosen kind are read.
type Context struct {
	Username    string
	AuthCode    int64
	ConfirmCode string
	TTLMinutes  int
}

var authCodeTemplate = template.Must(template.New("auth_code").Parse(`<html>
<body>
<p>Hello, {{.Username}}!</p>
<p>Your one-time login code: <strong>{{.AuthCode}}</strong></p>
<p>The code expires in {{.TTLMinutes}} minutes.</p>
</body>
</html>`))

var confirmTemplate = template.Must(template.New("confirm").Parse(`<html>
<body>
<p>Hello, {{.Username}}!</p>
<p>Your account confirmation code: <strong>{{.ConfirmCode}}</strong></p>
</body>
</html>`))

type renderer struct {
	subject  string
	template *template.Template
}

var renderers = map[Kind]renderer{
	KindAuthCode: {subject: "Your login code", template: authCodeTemplate},
	KindConfirm:  {subject: "Confirm your account", template: confirmTemplate},
}

// Render produces the message for the given kind and recipient.
func Render(kind Kind, recipient string, tctx Context) (Email, error) {
	r, ok := renderers[kind]
	if !ok {
		return Email{}, fmt.Errorf("unknown email kind: %d", kind)
	}

	var body bytes.Buffer
	if err := r.template.Execute(&body, tctx); err != nil {
		return Email{}, err
	}

	return Email{
		Subject:   r.subject,
		Recipient: recipient,
		HTMLBody:  body.String(),
	}, nil
}
