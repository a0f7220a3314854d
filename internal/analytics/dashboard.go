// Package analytics aggregates leads, appointments and call logs into the
// dashboard numbers.
package analytics

import (
	"math"

	"github.com/wolfman30/outreach-ai-platform/internal/calllogs"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
)

// Dashboard is the GET /analytics/dashboard body. Rates are percentages.
type Dashboard struct {
	TotalLeads          int            `json:"totalLeads"`
	TotalCalls          int            `json:"totalCalls"`
	SuccessfulCalls     int            `json:"successfulCalls"`
	AppointmentsSet     int            `json:"appointmentsSet"`
	QualifiedLeads      int            `json:"qualifiedLeads"`
	CallCompletionRate  float64        `json:"callCompletionRate"`
	ConversionRate      float64        `json:"conversionRate"`
	QualificationRate   float64        `json:"qualificationRate"`
	AverageCallDuration float64        `json:"averageCallDuration"`
	CallsByDay          map[string]int `json:"callsByDay"`
	CallsByStatus       map[string]int `json:"callsByStatus"`
	LeadsByStatus       map[string]int `json:"leadsByStatus"`
}

// Compute builds the dashboard. A lead counts as called once it has left
// Not Called. When the call log summary is empty, the called-lead count
// stands in for the call total.
func Compute(list []*leads.Lead, appointments int, summary calllogs.Summary) Dashboard {
	d := Dashboard{
		TotalLeads:      len(list),
		AppointmentsSet: appointments,
		CallsByDay:      map[string]int{},
		CallsByStatus:   map[string]int{},
		LeadsByStatus:   map[string]int{},
	}
	for _, l := range list {
		d.LeadsByStatus[l.Status]++
		if l.Status != leads.StatusNotCalled {
			d.SuccessfulCalls++
		}
		if l.QualificationStatus == leads.QualificationQualified {
			d.QualifiedLeads++
		}
	}

	d.TotalCalls = summary.TotalCalls
	if d.TotalCalls == 0 {
		d.TotalCalls = d.SuccessfulCalls
	}
	d.AverageCallDuration = round(summary.AverageDuration)
	for k, v := range summary.CallsByDay {
		d.CallsByDay[k] = v
	}
	for k, v := range summary.CallsByStatus {
		d.CallsByStatus[k] = v
	}

	d.CallCompletionRate = Rate(d.SuccessfulCalls, d.TotalLeads)
	d.ConversionRate = Rate(d.AppointmentsSet, d.SuccessfulCalls)
	d.QualificationRate = Rate(d.QualifiedLeads, d.SuccessfulCalls)
	return d
}

// Rate is n/total as a percentage with one decimal, or 0 when total is 0.
func Rate(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round(float64(n) / float64(total) * 100)
}

func round(v float64) float64 {
	return math.Round(v*10) / 10
}
