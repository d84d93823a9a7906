package mailer

import "context"

// LogMailer records messages in the application log instead of sending them.
// It is the development default when no provider is configured.
type LogMailer struct {
	logger Logger
}

func NewLogMailer(logger Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Provider() string {
	return "log"
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	m.logger.Info("Email delivered to log", "to", msg.To.Email, "subject", msg.Subject, "html_bytes", len(msg.HTML))
	return nil
}
