package mailer

import (
	"context"

	"go.uber.org/zap"
)

// Console writes mails to the log instead of delivering them.
type Console struct {
	from   string
	logger *zap.SugaredLogger
}

func NewConsole(from string, logger *zap.SugaredLogger) *Console {
	return &Console{from: from, logger: logger}
}

func (c *Console) Send(_ context.Context, msg Message) error {
	c.logger.Infow("mail",
		"from", c.from,
		"to", msg.To.String(),
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return nil
}
