package leads

import (
	"strings"
	"time"
)

// Pipeline statuses.
const (
	StatusNotCalled      = "Not Called"
	StatusCalling        = "Calling"
	StatusCallAttempted  = "Call Attempted"
	StatusCompleted      = "Completed"
	StatusInterested     = "Interested"
	StatusDeclined       = "Declined"
	StatusAppointmentSet = "Appointment Set"
)

// Qualification outcomes. Unknown is the value before any assessment.
const (
	QualificationUnknown      = "Unknown"
	QualificationQualified    = "Qualified"
	QualificationNotQualified = "Not Qualified"
	QualificationDisqualified = "Disqualified"
)

// Answers to "do your crews use mobile devices".
const (
	MobileUnknown = "Unknown"
	MobileYes     = "Yes"
	MobileNo      = "No"
)

var validStatuses = map[string]struct{}{
	StatusNotCalled:      {},
	StatusCalling:        {},
	StatusCallAttempted:  {},
	StatusCompleted:      {},
	StatusInterested:     {},
	StatusDeclined:       {},
	StatusAppointmentSet: {},
}

var validQualifications = map[string]struct{}{
	QualificationUnknown:      {},
	QualificationQualified:    {},
	QualificationNotQualified: {},
	QualificationDisqualified: {},
}

// ValidStatus reports whether s is a known pipeline status.
func ValidStatus(s string) bool {
	_, ok := validStatuses[s]
	return ok
}

// ValidQualification reports whether s is a known qualification outcome.
func ValidQualification(s string) bool {
	_, ok := validQualifications[s]
	return ok
}

// ValidMobileUsage reports whether s is Unknown, Yes or No.
func ValidMobileUsage(s string) bool {
	return s == MobileUnknown || s == MobileYes || s == MobileNo
}

// Lead is a prospective business contact moving through the calling pipeline.
type Lead struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	Phone               string    `json:"phone"`
	Category            string    `json:"category"`
	Address             string    `json:"address"`
	Website             string    `json:"website"`
	City                string    `json:"city"`
	State               string    `json:"state"`
	Industry            string    `json:"industry"`
	EmployeeCount       int       `json:"employee_count"`
	UsesMobileDevices   string    `json:"uses_mobile_devices"`
	Status              string    `json:"status"`
	QualificationStatus string    `json:"qualification_status"`
	AppointmentDate     string    `json:"appointment_date"`
	AppointmentTime     string    `json:"appointment_time"`
	Notes               string    `json:"notes"`
	ZohoID              string    `json:"zoho_id,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// FirstName is the first word of the lead's name, or "there".
func (l *Lead) FirstName() string {
	if l == nil {
		return "there"
	}
	fields := strings.Fields(l.Name)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}

// IndustryLabel prefers industry, then category, then "business".
func (l *Lead) IndustryLabel() string {
	if l == nil {
		return "business"
	}
	if v := strings.TrimSpace(l.Industry); v != "" {
		return v
	}
	if v := strings.TrimSpace(l.Category); v != "" {
		return v
	}
	return "business"
}

// Dialable reports whether an automated call may be placed to the lead.
func (l *Lead) Dialable() bool {
	if l == nil || strings.TrimSpace(l.Phone) == "" {
		return false
	}
	return l.Status != StatusCalling && l.Status != StatusAppointmentSet
}

// CreateLeadRequest represents the request body for creating a lead
type CreateLeadRequest struct {
	Name              string `json:"name"`
	Phone             string `json:"phone"`
	Category          string `json:"category"`
	Address           string `json:"address"`
	Website           string `json:"website"`
	Status            string `json:"status"`
	EmployeeCount     int    `json:"employee_count"`
	UsesMobileDevices string `json:"uses_mobile_devices"`
	Industry          string `json:"industry"`
	City              string `json:"city"`
	State             string `json:"state"`
	Notes             string `json:"notes"`
}

// Validate applies defaults and rejects requests missing a name or phone.
func (r *CreateLeadRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	if r.Name == "" {
		return ErrInvalidName
	}
	if r.Phone == "" {
		return ErrMissingPhone
	}
	if r.Status == "" {
		r.Status = StatusNotCalled
	}
	if !ValidStatus(r.Status) {
		return ErrInvalidStatus
	}
	if r.UsesMobileDevices == "" {
		r.UsesMobileDevices = MobileUnknown
	}
	if !ValidMobileUsage(r.UsesMobileDevices) {
		return ErrInvalidMobileUsage
	}
	if r.EmployeeCount < 0 {
		return ErrInvalidEmployeeCount
	}
	if r.City == "" && r.State == "" {
		r.City, r.State = ExtractCityState(r.Address)
	}
	return nil
}

// UpdateLeadRequest is a partial update; nil fields are left untouched.
type UpdateLeadRequest struct {
	Name                *string `json:"name,omitempty"`
	Phone               *string `json:"phone,omitempty"`
	Category            *string `json:"category,omitempty"`
	Address             *string `json:"address,omitempty"`
	Website             *string `json:"website,omitempty"`
	Status              *string `json:"status,omitempty"`
	EmployeeCount       *int    `json:"employee_count,omitempty"`
	UsesMobileDevices   *string `json:"uses_mobile_devices,omitempty"`
	Industry            *string `json:"industry,omitempty"`
	City                *string `json:"city,omitempty"`
	State               *string `json:"state,omitempty"`
	QualificationStatus *string `json:"qualification_status,omitempty"`
	AppointmentDate     *string `json:"appointment_date,omitempty"`
	AppointmentTime     *string `json:"appointment_time,omitempty"`
	Notes               *string `json:"notes,omitempty"`
}

// IsEmpty reports whether no field is set.
func (r *UpdateLeadRequest) IsEmpty() bool {
	return len(r.columns()) == 0
}

// Validate checks enumerated fields.
func (r *UpdateLeadRequest) Validate() error {
	if r.IsEmpty() {
		return ErrNoFieldsToUpdate
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return ErrInvalidName
	}
	if r.Phone != nil && strings.TrimSpace(*r.Phone) == "" {
		return ErrMissingPhone
	}
	if r.Status != nil && !ValidStatus(*r.Status) {
		return ErrInvalidStatus
	}
	if r.QualificationStatus != nil && !ValidQualification(*r.QualificationStatus) {
		return ErrInvalidQualification
	}
	if r.UsesMobileDevices != nil && !ValidMobileUsage(*r.UsesMobileDevices) {
		return ErrInvalidMobileUsage
	}
	if r.EmployeeCount != nil && *r.EmployeeCount < 0 {
		return ErrInvalidEmployeeCount
	}
	return nil
}

type column struct {
	name  string
	value any
}

// columns lists set fields in a stable order so SQL and tests agree.
func (r *UpdateLeadRequest) columns() []column {
	var cols []column
	addStr := func(name string, v *string) {
		if v != nil {
			cols = append(cols, column{name: name, value: *v})
		}
	}
	addStr("name", r.Name)
	addStr("phone", r.Phone)
	addStr("category", r.Category)
	addStr("address", r.Address)
	addStr("website", r.Website)
	addStr("status", r.Status)
	if r.EmployeeCount != nil {
		cols = append(cols, column{name: "employee_count", value: *r.EmployeeCount})
	}
	addStr("uses_mobile_devices", r.UsesMobileDevices)
	addStr("industry", r.Industry)
	addStr("city", r.City)
	addStr("state", r.State)
	addStr("qualification_status", r.QualificationStatus)
	addStr("appointment_date", r.AppointmentDate)
	addStr("appointment_time", r.AppointmentTime)
	addStr("notes", r.Notes)
	return cols
}

func (r *UpdateLeadRequest) apply(l *Lead) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&l.Name, r.Name)
	set(&l.Phone, r.Phone)
	set(&l.Category, r.Category)
	set(&l.Address, r.Address)
	set(&l.Website, r.Website)
	set(&l.Status, r.Status)
	if r.EmployeeCount != nil {
		l.EmployeeCount = *r.EmployeeCount
	}
	set(&l.UsesMobileDevices, r.UsesMobileDevices)
	set(&l.Industry, r.Industry)
	set(&l.City, r.City)
	set(&l.State, r.State)
	set(&l.QualificationStatus, r.QualificationStatus)
	set(&l.AppointmentDate, r.AppointmentDate)
	set(&l.AppointmentTime, r.AppointmentTime)
	set(&l.Notes, r.Notes)
}

// QualifyRequest is the body of POST /qualify/{id}.
type QualifyRequest struct {
	Qualified         bool   `json:"qualified"`
	UsesMobileDevices string `json:"uses_mobile_devices"`
	EmployeeCount     int    `json:"employee_count"`
	Notes             string `json:"notes"`
}

// Update converts the qualification answer into a lead update.
func (q QualifyRequest) Update() *UpdateLeadRequest {
	status := QualificationNotQualified
	if q.Qualified {
		status = QualificationQualified
	}
	mobile := q.UsesMobileDevices
	if mobile == "" {
		mobile = MobileUnknown
	}
	count := q.EmployeeCount
	notes := q.Notes
	return &UpdateLeadRequest{
		QualificationStatus: &status,
		UsesMobileDevices:   &mobile,
		EmployeeCount:       &count,
		Notes:               &notes,
	}
}

// ListFilter narrows a repository listing.
type ListFilter struct {
	Status        string
	Qualification string
	IDs           []int64
	UnsyncedOnly  bool
}

// ExtractCityState pulls "City" and "ST" out of "street, City, ST 80202".
func ExtractCityState(address string) (string, string) {
	parts := strings.Split(address, ",")
	if len(parts) < 2 {
		return "", ""
	}
	city := strings.TrimSpace(parts[len(parts)-2])
	stateZip := strings.Fields(parts[len(parts)-1])
	state := ""
	if len(stateZip) > 0 {
		state = stateZip[0]
	}
	return city, state
}

// StringPtr is a small helper for building partial updates.
func StringPtr(v string) *string { return &v }
