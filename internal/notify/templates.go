package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/callkaidsroofing/lead-intake/internal/leads"
)

var melbourne = loadLocation("Australia/Melbourne")

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// leadView is what the templates see. html/template escapes every field.
type leadView struct {
	Reference     string
	Name          string
	Phone         string
	Email         string
	Suburb        string
	Service       string
	Urgency       string
	Emergency     bool
	PropertyType  string
	MessageLines  []string
	Source        string
	SubmittedAt   string
	BusinessPhone string
}

func newLeadView(lead leads.Lead, submittedAt time.Time, businessPhone string) leadView {
	var lines []string
	if msg := strings.TrimSpace(lead.Message); msg != "" {
		lines = strings.Split(msg, "\n")
	}
	return leadView{
		Reference:     lead.Reference,
		Name:          lead.Name,
		Phone:         lead.Phone,
		Email:         lead.Email,
		Suburb:        lead.Suburb,
		Service:       serviceLabel(lead.Service),
		Urgency:       string(lead.Urgency),
		Emergency:     lead.Urgency == leads.UrgencyEmergency,
		PropertyType:  string(lead.PropertyType),
		MessageLines:  lines,
		Source:        lead.Source,
		SubmittedAt:   submittedAt.In(melbourne).Format("2/1/2006, 3:04:05 pm"),
		BusinessPhone: businessPhone,
	}
}

// serviceLabel turns "roof-restoration" into "Roof Restoration".
func serviceLabel(s leads.Service) string {
	words := strings.Split(string(s), "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func ownerSubject(v leadView) string {
	subject := fmt.Sprintf("New Lead: %s - %s", v.Service, v.Name)
	if v.Urgency != "" {
		subject += fmt.Sprintf(" (%s)", v.Urgency)
	}
	return subject
}

const customerSubject = "Thank you for your roofing enquiry - Call Kaids Roofing"

var ownerTemplate = template.Must(template.New("owner").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #007ACC; border-bottom: 2px solid #007ACC; padding-bottom: 10px;">New Lead Received</h2>
  <div style="background-color: #f7f8fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="color: #0B3B69; margin-top: 0;">Contact Details</h3>
    <p><strong>Name:</strong> {{.Name}}</p>
    <p><strong>Phone:</strong> <a href="tel:{{.Phone}}">{{.Phone}}</a></p>
    {{if .Email}}<p><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></p>{{end}}
    <p><strong>Suburb:</strong> {{.Suburb}}</p>
  </div>
  <div style="background-color: #f0f9ff; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="color: #0B3B69; margin-top: 0;">Service Request</h3>
    <p><strong>Service:</strong> {{.Service}}</p>
    {{if .Urgency}}<p><strong>Urgency:</strong> <span style="color: {{if .Emergency}}#dc3545{{else}}#ffc107{{end}}; font-weight: bold;">{{.Urgency}}</span></p>{{end}}
    {{if .PropertyType}}<p><strong>Property:</strong> {{.PropertyType}}</p>{{end}}
    {{if .MessageLines}}<p><strong>Message:</strong><br>{{range $i, $line := .MessageLines}}{{if $i}}<br>{{end}}{{$line}}{{end}}</p>{{end}}
  </div>
  <div style="background-color: #007ACC; color: white; padding: 15px; border-radius: 8px; text-align: center;">
    <p style="margin: 0; font-weight: bold;">Lead Reference: {{.Reference}}<br>Submitted: {{.SubmittedAt}}<br>Source: {{.Source}}</p>
  </div>
  <p style="color: #6B7280; font-size: 14px; margin-top: 20px;">This lead was automatically captured from your website contact form.</p>
</div>`))

var customerTemplate = template.Must(template.New("customer").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="text-align: center; padding: 20px; background-color: #007ACC;">
    <h1 style="color: white; margin: 0;">Call Kaids Roofing</h1>
  </div>
  <div style="padding: 30px 20px;">
    <h2 style="color: #0B3B69;">Thank you for your enquiry, {{.Name}}!</h2>
    <p>We've received your request for <strong>{{.Service}}</strong> in {{.Suburb}} and will get back to you as soon as possible.</p>
    <div style="background-color: #f7f8fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
      <h3 style="color: #007ACC; margin-top: 0;">What happens next?</h3>
      <ul style="line-height: 1.6;">
        <li>We'll review your enquiry and contact you within 24 hours</li>
        <li>We'll discuss your specific needs and provide expert advice</li>
        <li>If suitable, we'll arrange a free inspection and quote</li>
      </ul>
    </div>
    <div style="background-color: #dc2626; color: white; padding: 15px; border-radius: 8px; text-align: center; margin: 20px 0;">
      <h3 style="margin: 0 0 10px 0;">Emergency Repairs?</h3>
      <p style="margin: 0;">Call us directly: <strong>{{.BusinessPhone}}</strong></p>
    </div>
    <p style="color: #6B7280; font-size: 14px;">Your reference: {{.Reference}}</p>
  </div>
</div>`))

func render(t *template.Template, v leadView) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("notify: render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func ownerText(v leadView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New lead %s\n\n", v.Reference)
	fmt.Fprintf(&b, "Name: %s\nPhone: %s\n", v.Name, v.Phone)
	if v.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", v.Email)
	}
	fmt.Fprintf(&b, "Suburb: %s\nService: %s\n", v.Suburb, v.Service)
	if v.Urgency != "" {
		fmt.Fprintf(&b, "Urgency: %s\n", v.Urgency)
	}
	if len(v.MessageLines) > 0 {
		fmt.Fprintf(&b, "\n%s\n", strings.Join(v.MessageLines, "\n"))
	}
	fmt.Fprintf(&b, "\nSubmitted: %s\nSource: %s\n", v.SubmittedAt, v.Source)
	return b.String()
}
