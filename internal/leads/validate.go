package leads

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	minNameLen    = 2
	maxNameLen    = 100
	minSuburbLen  = 2
	maxSuburbLen  = 100
	maxEmailLen   = 255
	maxMessageLen = 1000
)

var (
	auPhonePattern  = regexp.MustCompile(`^(\+61|0)[2-9][0-9]{8}$`)
	auMobilePattern = regexp.MustCompile(`^04[0-9]{8}$`)

	emailValidator = validator.New()

	suspiciousPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<script`),
		regexp.MustCompile(`(?i)javascript:`),
		regexp.MustCompile(`(?i)data:text/html`),
		regexp.MustCompile(`(?i)vbscript:`),
		regexp.MustCompile(`(?i)<iframe`),
		regexp.MustCompile(`(?i)<object`),
		regexp.MustCompile(`(?i)<embed`),
		regexp.MustCompile(`(?i)onload=`),
		regexp.MustCompile(`(?i)onclick=`),
		regexp.MustCompile(`(?i)onerror=`),
	}
)

// Fields is a snapshot of raw form input, exactly as typed.
type Fields struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Suburb       string `json:"suburb"`
	Service      string `json:"service"`
	Urgency      string `json:"urgency"`
	PropertyType string `json:"property_type"`
	Message      string `json:"message"`
	Honeypot     string `json:"honeypot"`
	Source       string `json:"source"`
}

// rule is one predicate in the ordered validation pass. check returns the
// user-facing reason when the rule is violated, or "" when it holds.
type rule struct {
	field string
	check func(f *Fields) string
}

var rules = []rule{
	{FieldName, func(f *Fields) string {
		return lengthReason(f.Name, minNameLen, maxNameLen, "Name")
	}},
	{FieldPhone, func(f *Fields) string {
		phone := NormalizePhone(f.Phone)
		if phone == "" {
			return "Phone is required"
		}
		if !ValidPhone(phone) {
			return "Please enter a valid Australian phone number"
		}
		return ""
	}},
	{FieldEmail, func(f *Fields) string {
		email := strings.TrimSpace(f.Email)
		if email == "" {
			return ""
		}
		if len(email) > maxEmailLen {
			return "Email must be less than 255 characters"
		}
		if emailValidator.Var(email, "email") != nil {
			return "Please enter a valid email address"
		}
		return ""
	}},
	{FieldSuburb, func(f *Fields) string {
		return lengthReason(f.Suburb, minSuburbLen, maxSuburbLen, "Suburb")
	}},
	{FieldService, func(f *Fields) string {
		service := strings.TrimSpace(f.Service)
		if service == "" {
			return "Please select a service"
		}
		if !Service(service).Valid() {
			return "Please select a valid service"
		}
		return ""
	}},
	{FieldUrgency, func(f *Fields) string {
		urgency := strings.TrimSpace(f.Urgency)
		if urgency != "" && !Urgency(urgency).Valid() {
			return "Please select how urgent the work is"
		}
		return ""
	}},
	{FieldPropertyType, func(f *Fields) string {
		pt := strings.TrimSpace(f.PropertyType)
		if pt != "" && !PropertyType(pt).Valid() {
			return "Please select a valid property type"
		}
		return ""
	}},
	{FieldMessage, func(f *Fields) string {
		if utf8.RuneCountInString(strings.TrimSpace(f.Message)) > maxMessageLen {
			return "Message must be less than 1000 characters"
		}
		return ""
	}},
}

// Validate runs the rules in field order and stops at the first violation.
// On success it returns the normalized lead; it never has side effects.
func Validate(f Fields) (*Lead, error) {
	for _, r := range rules {
		if reason := r.check(&f); reason != "" {
			return nil, &ValidationError{Field: r.field, Reason: reason}
		}
	}
	if field := suspiciousField(f); field != "" {
		return nil, &ValidationError{Field: field, Reason: "Invalid content detected"}
	}

	source := strings.TrimSpace(f.Source)
	if source == "" {
		source = DefaultSource
	}
	return &Lead{
		Name:         strings.TrimSpace(f.Name),
		Phone:        NormalizePhone(f.Phone),
		Email:        strings.TrimSpace(f.Email),
		Suburb:       strings.TrimSpace(f.Suburb),
		Service:      Service(strings.TrimSpace(f.Service)),
		Urgency:      Urgency(strings.TrimSpace(f.Urgency)),
		PropertyType: PropertyType(strings.TrimSpace(f.PropertyType)),
		Message:      strings.TrimSpace(f.Message),
		Source:       source,
		Status:       StatusNew,
	}, nil
}

// NormalizePhone strips every whitespace rune from raw.
func NormalizePhone(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
}

// ValidPhone reports whether an already-normalized number is an Australian
// landline or mobile, in 0X or +61 form.
func ValidPhone(phone string) bool {
	return auPhonePattern.MatchString(phone) || auMobilePattern.MatchString(phone)
}

func lengthReason(raw string, lo, hi int, label string) string {
	n := utf8.RuneCountInString(strings.TrimSpace(raw))
	switch {
	case n == 0:
		return label + " is required"
	case n < lo:
		return fmt.Sprintf("%s must be at least %d characters", label, lo)
	case n > hi:
		return fmt.Sprintf("%s must be less than %d characters", label, hi)
	}
	return ""
}

func suspiciousField(f Fields) string {
	for _, candidate := range []struct{ field, value string }{
		{FieldName, f.Name},
		{FieldEmail, f.Email},
		{FieldMessage, f.Message},
	} {
		for _, pattern := range suspiciousPatterns {
			if pattern.MatchString(candidate.value) {
				return candidate.field
			}
		}
	}
	return ""
}
