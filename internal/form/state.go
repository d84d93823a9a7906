package form

import "maps"

const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldCompany  = "company"
	FieldService  = "service"
	FieldBudget   = "budget"
	FieldMessage  = "message"
	FieldDate     = "date"
	FieldTime     = "time"
	FieldTimezone = "timezone"
)

var (
	ContactFields = []string{FieldName, FieldEmail, FieldCompany, FieldService, FieldBudget, FieldMessage}
	MeetingFields = []string{FieldName, FieldEmail, FieldDate, FieldTime, FieldTimezone, FieldMessage}
)

// ContactSubmission is the immutable snapshot posted for a contact request.
type ContactSubmission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Service string `json:"service"`
	Budget  string `json:"budget"`
	Message string `json:"message"`
}

// MeetingRequest is the immutable snapshot posted for a consultation booking.
type MeetingRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Timezone string `json:"timezone"`
	Message  string `json:"message"`
}

// State holds one form's field values. It has a single owner and is not
// safe for concurrent mutation. The zero value is a form with no declared
// fields; Set declares fields as it goes.
type State struct {
	values map[string]string
}

// New declares the given fields with empty values.
func New(fields ...string) *State {
	s := &State{values: make(map[string]string, len(fields))}
	for _, f := range fields {
		s.values[f] = ""
	}
	return s
}

func NewContact() *State { return New(ContactFields...) }

func NewMeeting() *State { return New(MeetingFields...) }

// Set overwrites one field and leaves the others untouched.
func (s *State) Set(field, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[field] = value
}

func (s *State) Get(field string) string {
	return s.values[field]
}

// Values returns a copy of the current field values.
func (s *State) Values() map[string]string {
	if s.values == nil {
		return map[string]string{}
	}
	return maps.Clone(s.values)
}

// Reset clears every value while keeping the declared fields.
func (s *State) Reset() {
	for f := range s.values {
		s.values[f] = ""
	}
}

func (s *State) Contact() ContactSubmission {
	return ContactSubmission{
		Name:    s.values[FieldName],
		Email:   s.values[FieldEmail],
		Company: s.values[FieldCompany],
		Service: s.values[FieldService],
		Budget:  s.values[FieldBudget],
		Message: s.values[FieldMessage],
	}
}

// Meeting snapshots the form, falling back to defaultTimezone when the
// timezone field was left empty.
func (s *State) Meeting(defaultTimezone string) MeetingRequest {
	tz := s.values[FieldTimezone]
	if tz == "" {
		tz = defaultTimezone
	}

	return MeetingRequest{
		Name:     s.values[FieldName],
		Email:    s.values[FieldEmail],
		Date:     s.values[FieldDate],
		Time:     s.values[FieldTime],
		Timezone: tz,
		Message:  s.values[FieldMessage],
	}
}
