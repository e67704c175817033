// Package mailer renders and delivers the platform's transactional e-mails.
package mailer

import (
	"bytes"
	"context"
	"html/template"
	"net/mail"

	"github.com/pkg/errors"
)

type Message struct {
	To      mail.Address
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var (
	otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <h1>OTP Verification</h1>
  <p>Hello {{.Name}}, your (One-Time Password) for your account verification is:</p>
  <p style="font-size: 32px; letter-spacing: 6px;"><strong>{{.OTP}}</strong></p>
  <p>The code expires in a few minutes.</p>
</body>
</html>`))

	resetTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <h1>Reset Password</h1>
  <p>Hello {{.Name}}, click the link below to reset your password:</p>
  <p><a href="{{.Link}}">Reset Password</a></p>
  <p>If you did not request this, please ignore this email.</p>
</body>
</html>`))
)

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "render %s mail", t.Name())
	}
	return buf.String(), nil
}

// OTPMessage is the registration code mail.
func OTPMessage(name, email, otp string) (Message, error) {
	html, err := render(otpTemplate, map[string]string{"Name": name, "OTP": otp})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      mail.Address{Name: name, Address: email},
		Subject: "E learning - OTP for verification",
		Text:    "Hello " + name + ", your OTP is " + otp,
		HTML:    html,
	}, nil
}

// ResetMessage is the password reset link mail.
func ResetMessage(name, email, link string) (Message, error) {
	html, err := render(resetTemplate, map[string]string{"Name": name, "Link": link})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      mail.Address{Name: name, Address: email},
		Subject: "E learning - Reset Password",
		Text:    "Hello " + name + ", reset your password here: " + link,
		HTML:    html,
	}, nil
}
