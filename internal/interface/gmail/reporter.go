package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	"airfare-collector/internal/domain/entity"
	"airfare-collector/internal/domain/repository"
	"airfare-collector/pkg/logger"
	"airfare-collector/templates"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailReporter mails run summaries through the Gmail API
type GmailReporter struct {
	gmailService *gmail.Service
	to           []string
	logger       logger.Logger
}

// NewGmailReporter creates a new Gmail run reporter
func NewGmailReporter(ctx context.Context, tokenSource oauth2.TokenSource, to []string, logger logger.Logger) (repository.RunReporter, error) {
	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, err
	}

	return &GmailReporter{
		gmailService: service,
		to:           to,
		logger:       logger,
	}, nil
}

// Report sends the rendered summary to every recipient
func (r *GmailReporter) Report(ctx context.Context, summary entity.RunSummary) error {
	body, err := templates.RenderRunReport(summary)
	if err != nil {
		return err
	}
	raw := buildMessage(r.to, templates.RunReportSubject(summary), body)

	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	sent, err := r.gmailService.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to send run report: %w", err)
	}

	r.logger.Info("Run report sent", "messageId", sent.Id, "recipients", len(r.to))
	return nil
}

// buildMessage renders an RFC 822 plain text message
func buildMessage(to []string, subject, body string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.BEncoding.Encode("UTF-8", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	buf.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return buf.Bytes()
}
