package recycling

import (
	"sort"
	"time"
)

// Alert is an actionable lifecycle entry ready for display.
type Alert struct {
	RecordID         string    `json:"formation_id"`
	CertName         string    `json:"cert_name"`
	Organization     string    `json:"organization,omitempty"`
	Status           Status    `json:"status"`
	NextRecyclingDue time.Time `json:"next_recycling_due"`
	DaysRemaining    int       `json:"days_remaining"`
}

// AlertSummary counts alerts per status, as shown on notification badges.
type AlertSummary struct {
	Expired      int `json:"expired_count"`
	ExpiringSoon int `json:"expiring_soon_count"`
	Reminder     int `json:"reminder_count"`
	Total        int `json:"total_alert_count"`
}

var alertPriority = map[Status]int{
	StatusExpired:      0,
	StatusExpiringSoon: 1,
	StatusReminder:     2,
}

// Alerts evaluates every record and returns the actionable ones, most urgent first.
func (e *Evaluator) Alerts(records []Record, now time.Time) []Alert {
	alerts := make([]Alert, 0)
	for _, record := range records {
		info := e.Evaluate(record, now)
		if !info.Status.Actionable() {
			continue
		}
		alerts = append(alerts, Alert{
			RecordID:         record.ID,
			CertName:         e.catalog.Canonical(record.Title),
			Organization:     record.Organization,
			Status:           info.Status,
			NextRecyclingDue: *info.NextRecyclingDue,
			DaysRemaining:    *info.DaysRemaining,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		pi, pj := alertPriority[alerts[i].Status], alertPriority[alerts[j].Status]
		if pi != pj {
			return pi < pj
		}
		return alerts[i].DaysRemaining < alerts[j].DaysRemaining
	})
	return alerts
}

// Summarize counts alerts per status.
func Summarize(alerts []Alert) AlertSummary {
	var summary AlertSummary
	for _, alert := range alerts {
		switch alert.Status {
		case StatusExpired:
			summary.Expired++
		case StatusExpiringSoon:
			summary.ExpiringSoon++
		case StatusReminder:
			summary.Reminder++
		}
	}
	summary.Total = len(alerts)
	return summary
}
