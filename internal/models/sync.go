package models

import (
	"time"

	"github.com/noah-isme/lifeguard-api/internal/recycling"
)

// SyncEvent is a credential event to mirror as a trainer/student link.
type SyncEvent struct {
	HolderID     string              `json:"holder_id"`
	Title        string              `json:"title"`
	Date         time.Time           `json:"date"`
	Organization string              `json:"organization"`
	Kind         recycling.EventKind `json:"event_kind"`
}

// SyncOutcome records how a sync event ended.
type SyncOutcome string

const (
	SyncLinked  SyncOutcome = "linked"
	SyncSkipped SyncOutcome = "skipped"
	SyncFailed  SyncOutcome = "failed"
)

// EventsFor derives the sync events of a formation: one for the issuing organization and,
// when the formation was recycled, one for the recycling organization.
func EventsFor(f Formation) []SyncEvent {
	events := []SyncEvent{{
		HolderID:     f.UserID,
		Title:        f.Title,
		Date:         f.StartDate,
		Organization: f.Organization,
		Kind:         recycling.EventDiploma,
	}}
	if f.EndDate == nil || f.EndDate.IsZero() || f.RecyclingOrganization == nil {
		return events
	}
	return append(events, SyncEvent{
		HolderID:     f.UserID,
		Title:        f.Title,
		Date:         *f.EndDate,
		Organization: *f.RecyclingOrganization,
		Kind:         recycling.EventRecycling,
	})
}
