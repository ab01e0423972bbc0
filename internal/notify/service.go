package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/callkaidsroofing/lead-intake/internal/events"
	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

// EmailObserver counts sends. metrics.LeadMetrics satisfies it.
type EmailObserver interface {
	ObserveEmail(kind string, err error)
}

// LeadNotifierConfig controls who hears about a new lead.
type LeadNotifierConfig struct {
	OwnerEmails []string
	// CustomerAutoReply sends the thank-you email when the lead left an address.
	CustomerAutoReply bool
	BusinessPhone     string
}

// LeadNotifier emails the business owner about each new lead and thanks the
// customer.
type LeadNotifier struct {
	email    EmailSender
	cfg      LeadNotifierConfig
	logger   *logging.Logger
	observer EmailObserver
}

// NewLeadNotifier creates a notifier. With no sender every email is skipped.
func NewLeadNotifier(email EmailSender, cfg LeadNotifierConfig, logger *logging.Logger) *LeadNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	owners := make([]string, 0, len(cfg.OwnerEmails))
	for _, addr := range cfg.OwnerEmails {
		if addr = strings.TrimSpace(addr); addr != "" {
			owners = append(owners, addr)
		}
	}
	cfg.OwnerEmails = owners
	if cfg.BusinessPhone == "" {
		cfg.BusinessPhone = "0435 900 709"
	}
	return &LeadNotifier{email: email, cfg: cfg, logger: logger}
}

func (n *LeadNotifier) WithObserver(o EmailObserver) *LeadNotifier {
	n.observer = o
	return n
}

// HandleLeadSubmitted sends both emails and joins their errors.
func (n *LeadNotifier) HandleLeadSubmitted(ctx context.Context, evt events.LeadSubmittedV1) error {
	return errors.Join(n.NotifyOwner(ctx, evt), n.ReplyToCustomer(ctx, evt))
}

// OwnerHandler and CustomerHandler let a Dispatcher retry the two emails
// independently.
func (n *LeadNotifier) OwnerHandler() events.LeadHandler {
	return events.LeadHandlerFunc(n.NotifyOwner)
}

func (n *LeadNotifier) CustomerHandler() events.LeadHandler {
	return events.LeadHandlerFunc(n.ReplyToCustomer)
}

// NotifyOwner emails every owner address. One failed recipient does not stop
// the others.
func (n *LeadNotifier) NotifyOwner(ctx context.Context, evt events.LeadSubmittedV1) error {
	if n.email == nil {
		n.logger.Debug("notify: email sender not configured, skipping owner notification")
		return nil
	}
	if len(n.cfg.OwnerEmails) == 0 {
		n.logger.Warn("notify: no owner emails configured", "reference", evt.Lead.Reference)
		return nil
	}

	view := newLeadView(evt.Lead, evt.SubmittedAt, n.cfg.BusinessPhone)
	html, err := render(ownerTemplate, view)
	if err != nil {
		return err
	}
	msg := EmailMessage{
		Subject: ownerSubject(view),
		Body:    ownerText(view),
		HTML:    html,
		ReplyTo: evt.Lead.Email,
	}

	var errs []error
	for _, to := range n.cfg.OwnerEmails {
		msg.To = to
		err := n.email.Send(ctx, msg)
		n.observe("owner", err)
		if err != nil {
			n.logger.Error("notify: failed to send owner email", "error", err, "to", to, "reference", evt.Lead.Reference)
			errs = append(errs, fmt.Errorf("notify: owner %s: %w", to, err))
			continue
		}
		n.logger.Info("notify: owner notified of new lead", "to", to, "reference", evt.Lead.Reference)
	}
	return errors.Join(errs...)
}

// ReplyToCustomer sends the auto-reply when enabled and the lead has an email.
func (n *LeadNotifier) ReplyToCustomer(ctx context.Context, evt events.LeadSubmittedV1) error {
	if n.email == nil || !n.cfg.CustomerAutoReply || strings.TrimSpace(evt.Lead.Email) == "" {
		return nil
	}

	view := newLeadView(evt.Lead, evt.SubmittedAt, n.cfg.BusinessPhone)
	html, err := render(customerTemplate, view)
	if err != nil {
		return err
	}
	err = n.email.Send(ctx, EmailMessage{
		To:      evt.Lead.Email,
		ToName:  evt.Lead.Name,
		Subject: customerSubject,
		Body: fmt.Sprintf("Thank you for your enquiry, %s! We've received your request for %s in %s and will contact you within 24 hours. For emergencies call %s.",
			view.Name, view.Service, view.Suburb, view.BusinessPhone),
		HTML: html,
	})
	n.observe("customer", err)
	if err != nil {
		n.logger.Error("notify: failed to send customer auto-reply", "error", err, "reference", evt.Lead.Reference)
		return fmt.Errorf("notify: customer reply: %w", err)
	}
	return nil
}

func (n *LeadNotifier) observe(kind string, err error) {
	if n.observer != nil {
		n.observer.ObserveEmail(kind, err)
	}
}
