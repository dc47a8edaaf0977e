package models

import (
	"time"

	"github.com/noah-isme/lifeguard-api/internal/recycling"
)

// Formation is a certification held by a rescuer, stored in the formations table.
// StartDate is the date the diploma was obtained; EndDate is the last recycling date.
type Formation struct {
	ID                    string     `db:"id" json:"id"`
	UserID                string     `db:"user_id" json:"user_id"`
	Title                 string     `db:"title" json:"title"`
	Organization          string     `db:"organization" json:"organization"`
	RecyclingOrganization *string    `db:"recycling_organization" json:"recycling_organization,omitempty"`
	StartDate             time.Time  `db:"start_date" json:"start_date"`
	EndDate               *time.Time `db:"end_date" json:"end_date,omitempty"`
	EventKind             *string    `db:"event_kind" json:"event_kind,omitempty"`
	DocumentURL           *string    `db:"document_url" json:"document_url,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// ToRecord projects the formation onto the evaluator's record view.
func (f Formation) ToRecord() recycling.Record {
	return recycling.Record{
		ID:               f.ID,
		Title:            f.Title,
		ObtainedDate:     f.StartDate,
		LastRecycledDate: f.EndDate,
		Organization:     f.Organization,
	}
}

// FormationView is a formation enriched with its lifecycle, recomputed on every read.
type FormationView struct {
	Formation
	Recycling      recycling.Info `json:"recycling"`
	RecyclingLabel *string        `json:"recycling_label"`
}

// AlertsResult is the alert list of a holder with its notification counts.
type AlertsResult struct {
	Alerts  []recycling.Alert      `json:"alerts"`
	Summary recycling.AlertSummary `json:"summary"`
	AsOf    Date                   `json:"as_of"`
}
