package leads

import (
	"time"
)

// Service identifies the roofing job a lead is asking about.
type Service string

const (
	ServiceRoofRestoration  Service = "roof-restoration"
	ServiceRoofPainting     Service = "roof-painting"
	ServiceEmergencyRepairs Service = "emergency-repairs"
	ServiceGutterCleaning   Service = "gutter-cleaning"
	ServiceLeakDetection    Service = "leak-detection"
	ServiceTileReplacement  Service = "tile-replacement"
	ServiceRidgeCapping     Service = "ridge-capping"
	ServiceValleyIron       Service = "valley-iron"
	ServiceNotSure          Service = "not-sure"
)

var services = []Service{
	ServiceRoofRestoration,
	ServiceRoofPainting,
	ServiceEmergencyRepairs,
	ServiceGutterCleaning,
	ServiceLeakDetection,
	ServiceTileReplacement,
	ServiceRidgeCapping,
	ServiceValleyIron,
	ServiceNotSure,
}

// Services returns the accepted service identifiers in display order.
func Services() []Service {
	return append([]Service(nil), services...)
}

// Valid reports whether s is one of the known services.
func (s Service) Valid() bool {
	for _, known := range services {
		if s == known {
			return true
		}
	}
	return false
}

// Urgency is how soon the customer needs the work done.
type Urgency string

const (
	UrgencyEmergency Urgency = "emergency"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyStandard  Urgency = "standard"
	UrgencyPlanning  Urgency = "planning"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyEmergency, UrgencyUrgent, UrgencyStandard, UrgencyPlanning:
		return true
	}
	return false
}

// PropertyType describes the building the work is for.
type PropertyType string

const (
	PropertyHouse      PropertyType = "house"
	PropertyTownhouse  PropertyType = "townhouse"
	PropertyUnit       PropertyType = "unit"
	PropertyCommercial PropertyType = "commercial"
	PropertyOther      PropertyType = "other"
)

func (p PropertyType) Valid() bool {
	switch p {
	case PropertyHouse, PropertyTownhouse, PropertyUnit, PropertyCommercial, PropertyOther:
		return true
	}
	return false
}

// Status tracks a lead through the sales pipeline on the admin dashboard.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusQuoted    Status = "quoted"
	StatusWon       Status = "won"
	StatusLost      Status = "lost"
)

var statuses = []Status{StatusNew, StatusContacted, StatusQualified, StatusQuoted, StatusWon, StatusLost}

// Statuses returns every pipeline status in order.
func Statuses() []Status {
	return append([]Status(nil), statuses...)
}

func (s Status) Valid() bool {
	for _, known := range statuses {
		if s == known {
			return true
		}
	}
	return false
}

// DefaultSource is recorded when a form does not identify itself.
const DefaultSource = "website"

// Lead is a validated enquiry. Phone holds the normalized (whitespace free) number.
type Lead struct {
	ID           string       `json:"id,omitempty"`
	Reference    string       `json:"reference,omitempty"`
	Name         string       `json:"name"`
	Phone        string       `json:"phone"`
	Email        string       `json:"email,omitempty"`
	Suburb       string       `json:"suburb"`
	Service      Service      `json:"service"`
	Urgency      Urgency      `json:"urgency,omitempty"`
	PropertyType PropertyType `json:"property_type,omitempty"`
	Message      string       `json:"message,omitempty"`
	Source       string       `json:"source,omitempty"`
	Status       Status       `json:"status,omitempty"`
	CreatedAt    time.Time    `json:"created_at,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at,omitempty"`
}

// ListFilter narrows admin lead listings. Zero values mean "any".
type ListFilter struct {
	Status  Status
	Service Service
	Search  string
	Limit   int
	Offset  int
}

// ListResult is one page of leads plus the total matching the filter.
type ListResult struct {
	Leads []*Lead
	Total int
}
