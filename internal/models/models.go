package models

// Field is a bookable physical resource (court, pitch, rink) that slots are
// scheduled against.
type Field struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Surface  string `json:"surface,omitempty"`
	Location string `json:"location,omitempty"`
}

// Event is the league/rental/tournament record a slot is scheduled under. Its
// Start/End range bounds when the slot's weekly pattern can actually occur.
type Event struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// TimeSlot is a single (Repeating=false) or weekly-recurring (Repeating=true)
// window of time on a field.
//
// Date-time fields are local wall-clock strings. The Timezone label is carried
// for display only; scheduling arithmetic never converts between zones.
type TimeSlot struct {
	ID        string `json:"id"`
	EventID   string `json:"eventId"`
	FieldID   string `json:"fieldId"`
	Repeating bool   `json:"repeating"`

	// Set only when Repeating. DayOfWeek is Monday-based: 0=Monday ... 6=Sunday.
	DayOfWeek        *int `json:"dayOfWeek,omitempty"`
	StartTimeMinutes *int `json:"startTimeMinutes,omitempty"`
	EndTimeMinutes   *int `json:"endTimeMinutes,omitempty"`

	StartDate string  `json:"startDate"`
	EndDate   *string `json:"endDate,omitempty"`

	PriceCents *int64 `json:"priceCents,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
}
