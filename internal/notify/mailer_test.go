// =============================================================================
// Lab Discrepancy Reconciler - Mailer Tests
// =============================================================================

package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/config"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/logging"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/types"
)

func TestSendSkipsWhenNotConfigured(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.MailConfig
	}{
		{"no host", config.MailConfig{Username: "svc", Password: "secret"}},
		{"localhost placeholder", config.MailConfig{
			SMTPHost: "localhost", Username: "svc", Password: "secret",
		}},
		{"missing credentials", config.MailConfig{SMTPHost: "smtp.example.com"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mailer := NewMailer(tc.cfg, logging.Nop)
			err := mailer.Send(context.Background(), "report.xlsx", "Week 32", types.RunStatistics{})
			assert.NoError(t, err)
		})
	}
}

func TestSendRejectsBadAddresses(t *testing.T) {
	// Address validation happens before any network activity, so a
	// configured transport with broken addresses fails locally.
	base := config.MailConfig{
		SMTPHost: "smtp.example.com",
		SMTPPort: 587,
		Username: "svc",
		Password: "secret",
	}

	t.Run("invalid sender", func(t *testing.T) {
		cfg := base
		cfg.Sender = "not an address"
		cfg.Recipient = "ops@example.com"

		mailer := NewMailer(cfg, logging.Nop)
		err := mailer.Send(context.Background(), "report.xlsx", "Week 32", types.RunStatistics{})

		var delivery *DeliveryError
		require.ErrorAs(t, err, &delivery)
		assert.Equal(t, "ops@example.com", delivery.Recipient)
	})

	t.Run("missing recipient", func(t *testing.T) {
		cfg := base
		cfg.Sender = "noreply@example.com"

		mailer := NewMailer(cfg, logging.Nop)
		err := mailer.Send(context.Background(), "report.xlsx", "Week 32", types.RunStatistics{})

		var delivery *DeliveryError
		require.ErrorAs(t, err, &delivery)
	})
}
