package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lifeguard-api/internal/models"
)

const trainerStudentColumns = `ts.id, ts.trainer_id, ts.student_id, ts.training_type, ts.training_key, ts.training_date, ts.event_kind, ts.certification_issued, ts.created_at, ts.updated_at`

// TrainerStudentRepository persists trainer/student links. It exposes no delete.
type TrainerStudentRepository struct {
	db *sqlx.DB
}

// NewTrainerStudentRepository constructs a TrainerStudentRepository.
func NewTrainerStudentRepository(db *sqlx.DB) *TrainerStudentRepository {
	return &TrainerStudentRepository{db: db}
}

// FindByTriple fetches the link identified by trainer, student and normalized certification key.
func (r *TrainerStudentRepository) FindByTriple(ctx context.Context, trainerID, studentID, trainingKey string) (*models.TrainerStudent, error) {
	query := `SELECT ` + trainerStudentColumns + ` FROM trainer_students ts WHERE ts.trainer_id = $1 AND ts.student_id = $2 AND ts.training_key = $3`
	var link models.TrainerStudent
	if err := r.db.GetContext(ctx, &link, query, trainerID, studentID, trainingKey); err != nil {
		return nil, err
	}
	return &link, nil
}

// Upsert inserts the link or, when the triple already exists, refreshes its date and kind in place.
// An event older than the stored training date leaves the row untouched. It reports whether a new
// row was created.
func (r *TrainerStudentRepository) Upsert(ctx context.Context, link *models.TrainerStudent) (bool, error) {
	callerID := link.ID
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	link.CreatedAt = now
	link.UpdatedAt = now
	link.CertificationIssued = true

	const query = `INSERT INTO trainer_students (id, trainer_id, student_id, training_type, training_key, training_date, event_kind, certification_issued, created_at, updated_at)
        VALUES (:id, :trainer_id, :student_id, :training_type, :training_key, :training_date, :event_kind, :certification_issued, :created_at, :updated_at)
        ON CONFLICT (trainer_id, student_id, training_key)
        DO UPDATE SET training_date = EXCLUDED.training_date, event_kind = EXCLUDED.event_kind, updated_at = EXCLUDED.updated_at
        WHERE trainer_students.training_date <= EXCLUDED.training_date
        RETURNING id, (xmax = 0) AS inserted`

	rows, err := r.db.NamedQueryContext(ctx, query, link)
	if err != nil {
		return false, fmt.Errorf("upsert trainer student: %w", err)
	}
	defer rows.Close()

	var inserted bool
	if rows.Next() {
		if err := rows.Scan(&link.ID, &inserted); err != nil {
			return false, fmt.Errorf("scan trainer student upsert: %w", err)
		}
	} else {
		// stale event: the stored link already carries a later date
		link.ID = callerID
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("upsert trainer student rows: %w", err)
	}
	return inserted, nil
}

// ListByTrainer returns the trainer's links joined with each student's profile.
func (r *TrainerStudentRepository) ListByTrainer(ctx context.Context, trainerID string) ([]models.RosterRow, error) {
	query := `SELECT ` + trainerStudentColumns + `,
        p.first_name, p.last_name, p.email, p.phone, p.avatar_url, rp.phone_visible
        FROM trainer_students ts
        LEFT JOIN profiles p ON p.id = ts.student_id
        LEFT JOIN rescuer_profiles rp ON rp.id = ts.student_id
        WHERE ts.trainer_id = $1
        ORDER BY ts.training_date DESC, ts.id`
	var rows []models.RosterRow
	if err := r.db.SelectContext(ctx, &rows, query, trainerID); err != nil {
		return nil, fmt.Errorf("list trainer students: %w", err)
	}
	return rows, nil
}

// ListByTrainerAndStudent returns every link between a trainer and one student.
func (r *TrainerStudentRepository) ListByTrainerAndStudent(ctx context.Context, trainerID, studentID string) ([]models.TrainerStudent, error) {
	query := `SELECT ` + trainerStudentColumns + ` FROM trainer_students ts WHERE ts.trainer_id = $1 AND ts.student_id = $2 ORDER BY ts.training_date DESC`
	var links []models.TrainerStudent
	if err := r.db.SelectContext(ctx, &links, query, trainerID, studentID); err != nil {
		return nil, fmt.Errorf("list trainer student links: %w", err)
	}
	return links, nil
}
