package models

import (
	"time"

	"github.com/noah-isme/lifeguard-api/internal/recycling"
)

// TrainerStudent links a trainer to a student for one certification. Links are never deleted.
type TrainerStudent struct {
	ID                  string    `db:"id" json:"id"`
	TrainerID           string    `db:"trainer_id" json:"trainer_id"`
	StudentID           string    `db:"student_id" json:"student_id"`
	TrainingType        string    `db:"training_type" json:"training_type"`
	TrainingKey         string    `db:"training_key" json:"-"`
	TrainingDate        time.Time `db:"training_date" json:"training_date"`
	EventKind           *string   `db:"event_kind" json:"event_kind,omitempty"`
	CertificationIssued bool      `db:"certification_issued" json:"certification_issued"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// ToRecord views the link as a credential obtained on the training date.
func (t TrainerStudent) ToRecord() recycling.Record {
	return recycling.Record{ID: t.ID, Title: t.TrainingType, ObtainedDate: t.TrainingDate}
}

// ExplicitKind returns the stored event kind when it is a known value.
func (t TrainerStudent) ExplicitKind() *recycling.EventKind {
	if t.EventKind == nil {
		return nil
	}
	kind, ok := recycling.ParseEventKind(*t.EventKind)
	if !ok {
		return nil
	}
	return &kind
}

// RosterRow is a link joined with the student's profile.
type RosterRow struct {
	TrainerStudent
	FirstName    *string `db:"first_name"`
	LastName     *string `db:"last_name"`
	Email        *string `db:"email"`
	Phone        *string `db:"phone"`
	AvatarURL    *string `db:"avatar_url"`
	PhoneVisible *bool   `db:"phone_visible"`
}

// RosterTab selects which students of the roster are listed.
type RosterTab string

const (
	RosterTabActive RosterTab = "active"
	RosterTabAll    RosterTab = "all"
)

// FormationSource selects where a brevet filter looks for a match.
type FormationSource string

const (
	SourceAll    FormationSource = "all"
	SourceOwn    FormationSource = "own"
	SourceOthers FormationSource = "others"
)

// RosterFilter captures the roster listing criteria.
type RosterFilter struct {
	Search string
	Tab    RosterTab
	Brevet string
	Source FormationSource
}

// RosterStudent is one roster entry as returned to the trainer.
type RosterStudent struct {
	ID                  string               `json:"id"`
	StudentID           string               `json:"student_id"`
	Name                string               `json:"name"`
	Email               string               `json:"email"`
	Phone               *string              `json:"phone"`
	PhoneVisible        bool                 `json:"phone_visible"`
	AvatarURL           *string              `json:"avatar_url"`
	CertificationIssued bool                 `json:"certification_issued"`
	TrainingType        string               `json:"training_type"`
	TrainingDate        Date                 `json:"training_date"`
	Date                string               `json:"date"`
	EventKind           *recycling.EventKind `json:"event_kind,omitempty"`
	RecyclingStatus     recycling.Status     `json:"recycling_status"`
	RecyclingLabel      *string              `json:"recycling_label"`
}

// StudentFormation is an entry of a student's own history as seen by a trainer.
type StudentFormation struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Organization    string           `json:"organization"`
	StartDate       Date             `json:"start_date"`
	Date            string           `json:"date"`
	RecyclingStatus recycling.Status `json:"recycling_status"`
	RecyclingLabel  *string          `json:"recycling_label"`
}

// ClassifiedTraining is a trainer link with its resolved event kind.
type ClassifiedTraining struct {
	LinkID       string              `json:"link_id"`
	StudentID    string              `json:"student_id"`
	TrainingType string              `json:"training_type"`
	TrainingDate Date                `json:"training_date"`
	EventKind    recycling.EventKind `json:"event_kind"`
}

// StudentDetail is the trainer's view of one student.
type StudentDetail struct {
	StudentID  string               `json:"student_id"`
	Trainings  []ClassifiedTraining `json:"trainings"`
	Formations []StudentFormation   `json:"formations"`
	Degraded   bool                 `json:"degraded"`
}

// RosterClassification is the bulk classification of a trainer's roster.
type RosterClassification struct {
	Trainings        []ClassifiedTraining `json:"trainings"`
	FailedStudentIDs []string             `json:"failed_student_ids"`
}
