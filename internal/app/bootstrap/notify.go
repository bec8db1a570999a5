package bootstrap

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/afyalink/afya-platform/internal/config"
	"github.com/afyalink/afya-platform/internal/notify"
	"github.com/afyalink/afya-platform/pkg/logging"
)

// memoryQueueBuffer bounds the in-process email queue. Deliveries past the
// buffer block the sender until the worker drains, which is acceptable for
// the single-binary deployment the memory queue exists for.
const memoryQueueBuffer = 256

// BuildQueue selects the notification fan-out queue. The in-memory queue is
// the default so a bare deployment works without AWS; SQS requires a queue
// URL and is rejected back to memory when one is missing.
func BuildQueue(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) notify.Queue {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil || cfg.UseMemoryQueue {
		logger.Info("using in-memory notification queue")
		return notify.NewMemoryQueue(memoryQueueBuffer)
	}
	queueURL := strings.TrimSpace(cfg.NotificationQueueURL)
	if queueURL == "" {
		logger.Warn("NOTIFICATION_QUEUE_URL empty; falling back to in-memory queue")
		return notify.NewMemoryQueue(memoryQueueBuffer)
	}
	logger.Info("using SQS notification queue", "queue_url", queueURL)
	return notify.NewSQSQueue(sqs.NewFromConfig(awsCfg), queueURL)
}

// BuildEmailSender creates an email sender based on the configured provider.
// Returns the sender, the provider name, and a reason when no sender could
// be built. A nil sender disables email delivery; the in-app feed still works.
func BuildEmailSender(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (notify.EmailSender, string, string) {
	if cfg == nil {
		return nil, "", "missing config"
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			return nil, "sendgrid", "SENDGRID_API_KEY empty"
		}
		return notify.NewRetryingSender(sender, logger), "sendgrid", ""
	case "ses":
		sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			return nil, "ses", "SES client unavailable"
		}
		return notify.NewRetryingSender(sender, logger), "ses", ""
	case "stub":
		return notify.NewStubEmailSender(logger), "stub", ""
	case "", "none":
		return nil, "none", "email delivery disabled"
	default:
		return nil, cfg.EmailProvider, "unknown email provider"
	}
}
