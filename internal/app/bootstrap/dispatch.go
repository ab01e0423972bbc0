package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/callkaidsroofing/lead-intake/internal/archive"
	appconfig "github.com/callkaidsroofing/lead-intake/internal/config"
	"github.com/callkaidsroofing/lead-intake/internal/events"
	"github.com/callkaidsroofing/lead-intake/internal/notify"
	"github.com/callkaidsroofing/lead-intake/internal/observability/metrics"
	"github.com/callkaidsroofing/lead-intake/internal/queue"
	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

// Handler names. They key deduplication, so renaming one resends its emails
// for events still in the outbox.
const (
	HandlerOwnerEmail    = "owner-email"
	HandlerCustomerReply = "customer-reply"
	HandlerQueue         = "sqs"
	HandlerArchive       = "s3-archive"
)

// DispatchDeps are the optional collaborators of the lead event fan-out.
type DispatchDeps struct {
	// AWS is nil when no AWS integration is configured.
	AWS     *aws.Config
	Pool    *pgxpool.Pool
	Metrics *metrics.LeadMetrics
}

// BuildEmailSender picks the provider named by cfg.EmailProvider. It returns
// nil when the provider lacks credentials, which disables lead emails.
func BuildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.EmailProvider {
	case appconfig.EmailResend:
		if s := notify.NewResendSender(notify.ResendConfig{
			APIKey:    cfg.ResendAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger); s != nil {
			return s
		}
	case appconfig.EmailSendGrid:
		if s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger); s != nil {
			return s
		}
	case appconfig.EmailSES:
		if awsCfg != nil {
			return notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
				FromEmail: cfg.EmailFromAddress,
				FromName:  cfg.EmailFromName,
			}, logger)
		}
	case appconfig.EmailStub:
		return notify.NewStubEmailSender(logger)
	}
	logger.Warn("lead emails disabled", "provider", cfg.EmailProvider)
	return nil
}

// BuildDispatcher registers every configured lead handler.
func BuildDispatcher(cfg *appconfig.Config, deps DispatchDeps, logger *logging.Logger) *events.Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	d := events.NewDispatcher(logger)
	if deps.Metrics != nil {
		d.WithObserver(deps.Metrics)
	}
	if deps.Pool != nil {
		d.WithDeduper(events.NewProcessedStore(deps.Pool))
	}

	notifier := notify.NewLeadNotifier(BuildEmailSender(cfg, deps.AWS, logger), notify.LeadNotifierConfig{
		OwnerEmails:       cfg.OwnerEmails,
		CustomerAutoReply: cfg.CustomerAutoReply,
		BusinessPhone:     cfg.FallbackPhone,
	}, logger)
	if deps.Metrics != nil {
		notifier.WithObserver(deps.Metrics)
	}
	d.Register(HandlerOwnerEmail, notifier.OwnerHandler())
	d.Register(HandlerCustomerReply, notifier.CustomerHandler())

	if cfg.LeadQueueURL != "" {
		if deps.AWS == nil {
			logger.Warn("lead queue configured without AWS config; skipping", "queue_url", cfg.LeadQueueURL)
		} else {
			d.Register(HandlerQueue, queue.NewSQSPublisher(sqs.NewFromConfig(*deps.AWS), cfg.LeadQueueURL, logger))
		}
	}
	if cfg.LeadArchiveBucket != "" {
		if deps.AWS == nil {
			logger.Warn("lead archive configured without AWS config; skipping", "bucket", cfg.LeadArchiveBucket)
		} else {
			client := s3.NewFromConfig(*deps.AWS, func(o *s3.Options) {
				o.UsePathStyle = cfg.AWSEndpointOverride != ""
			})
			d.Register(HandlerArchive, archive.NewStore(client, cfg.LeadArchiveBucket, logger))
		}
	}

	logger.Info("lead event handlers registered", "handlers", d.Handlers())
	return d
}
