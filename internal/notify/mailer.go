// =============================================================================
// Lab Discrepancy Reconciler - SMTP Mailer
// =============================================================================
//
// The mailer delivers the per-artifact report over authenticated SMTP with
// STARTTLS, attaching the processed spreadsheet. When the transport is not
// actively configured (no host, the localhost placeholder, or missing
// credentials) delivery is skipped with a warning rather than failed: local
// and development runs work without a mail server.
//
// A delivery failure on a configured transport is an error. The report is
// part of the artifact's contract with its recipients, so the artifact is
// treated as unprocessed rather than silently completed without its report.
//
// =============================================================================

package notify

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/config"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/types"
)

// Mailer sends reconciliation reports for processed artifacts.
type Mailer struct {
	cfg    config.MailConfig
	logger zerolog.Logger
}

// NewMailer builds a Mailer over the given transport configuration.
func NewMailer(cfg config.MailConfig, logger zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: logger}
}

// Send delivers the report for one artifact, attaching the spreadsheet at
// artifactPath. It must be called while the artifact still lives at that
// path.
//
// PARAMETERS:
//   - ctx: Bounds the SMTP dial and delivery.
//   - artifactPath: The processed spreadsheet; attached and named in the
//     subject.
//   - sheetName: The reconciled sheet, named in the subject.
//   - stats: The statistics rendered into the body.
//
// RETURNS:
//   - nil when the report was delivered, or when the transport is not
//     configured and delivery was skipped.
//   - A *DeliveryError when a configured transport failed to deliver.
func (m *Mailer) Send(ctx context.Context, artifactPath, sheetName string, stats types.RunStatistics) error {
	subject := Subject(artifactPath, sheetName)

	if !m.cfg.Configured() {
		m.logger.Warn().
			Str("subject", subject).
			Msg("skipping email: SMTP server/credentials not configured")
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.Sender); err != nil {
		return &DeliveryError{Recipient: m.cfg.Recipient, Err: err}
	}
	if err := msg.To(m.cfg.Recipient); err != nil {
		return &DeliveryError{Recipient: m.cfg.Recipient, Err: err}
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, Body(stats))
	msg.AttachFile(artifactPath)

	client, err := mail.NewClient(m.cfg.SMTPHost,
		mail.WithPort(m.cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return &DeliveryError{Recipient: m.cfg.Recipient, Err: err}
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return &DeliveryError{Recipient: m.cfg.Recipient, Err: err}
	}

	m.logger.Info().
		Str("recipient", m.cfg.Recipient).
		Str("subject", subject).
		Msg("email sent successfully")
	return nil
}
