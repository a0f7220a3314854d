package notify

import (
	"fmt"
	"html"
	"strings"
)

// DefaultFromName signs booking emails when no sender name is configured.
const DefaultFromName = "Outreach Bookings"

// Booking describes a newly scheduled consultation.
type Booking struct {
	AppointmentID int64
	LeadName      string
	LeadPhone     string
	Date          string
	Time          string
	Medium        string
	Link          string
}

// Subject is the email subject line for the booking.
func (b Booking) Subject() string {
	return fmt.Sprintf("Appointment booked: %s on %s at %s", b.LeadName, b.Date, b.Time)
}

type field struct{ label, value string }

// fields lists the populated detail lines in display order.
func (b Booking) fields() []field {
	out := []field{{"Business", b.LeadName}}
	if b.LeadPhone != "" {
		out = append(out, field{"Phone", b.LeadPhone})
	}
	out = append(out, field{"When", strings.TrimSpace(b.Date + " " + b.Time)})
	if b.Medium != "" {
		out = append(out, field{"Medium", b.Medium})
	}
	if b.Link != "" {
		out = append(out, field{"Link", b.Link})
	}
	return out
}

// Text renders the plain-text body.
func (b Booking) Text() string {
	var sb strings.Builder
	sb.WriteString("A new consultation was booked.\n\n")
	for _, f := range b.fields() {
		fmt.Fprintf(&sb, "%s: %s\n", f.label, f.value)
	}
	return sb.String()
}

// HTML renders the HTML body. Values are escaped.
func (b Booking) HTML() string {
	var sb strings.Builder
	sb.WriteString("<p>A new consultation was booked.</p>\n<table>\n")
	for _, f := range b.fields() {
		value := html.EscapeString(f.value)
		if f.label == "Link" {
			value = fmt.Sprintf(`<a href="%s">%s</a>`, value, value)
		}
		fmt.Fprintf(&sb, "<tr><th align=\"left\">%s</th><td>%s</td></tr>\n", f.label, value)
	}
	sb.WriteString("</table>\n")
	return sb.String()
}

// Message builds the email for one recipient.
func (b Booking) Message(to string) EmailMessage {
	return EmailMessage{To: to, Subject: b.Subject(), Text: b.Text(), HTML: b.HTML()}
}
