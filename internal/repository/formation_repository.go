package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lifeguard-api/internal/models"
)

const formationColumns = `id, user_id, title, organization, recycling_organization, start_date, end_date, event_kind, document_url, created_at, updated_at`

// FormationRepository manages persistence for the certifications held by rescuers.
type FormationRepository struct {
	db *sqlx.DB
}

// NewFormationRepository constructs a FormationRepository.
func NewFormationRepository(db *sqlx.DB) *FormationRepository {
	return &FormationRepository{db: db}
}

// ListByUser returns every formation of a holder, oldest first.
func (r *FormationRepository) ListByUser(ctx context.Context, userID string) ([]models.Formation, error) {
	query := `SELECT ` + formationColumns + ` FROM formations WHERE user_id = $1 ORDER BY start_date ASC, created_at ASC`
	var formations []models.Formation
	if err := r.db.SelectContext(ctx, &formations, query, userID); err != nil {
		return nil, fmt.Errorf("list formations: %w", err)
	}
	return formations, nil
}

// ListByUsers returns the formations of several holders in one round trip.
func (r *FormationRepository) ListByUsers(ctx context.Context, userIDs []string) ([]models.Formation, error) {
	if len(userIDs) == 0 {
		return []models.Formation{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+formationColumns+` FROM formations WHERE user_id IN (?) ORDER BY user_id, start_date ASC`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("build formations batch query: %w", err)
	}
	query = r.db.Rebind(query)
	var formations []models.Formation
	if err := r.db.SelectContext(ctx, &formations, query, args...); err != nil {
		return nil, fmt.Errorf("list formations batch: %w", err)
	}
	return formations, nil
}

// FindByID fetches a formation scoped to its holder.
func (r *FormationRepository) FindByID(ctx context.Context, userID, id string) (*models.Formation, error) {
	query := `SELECT ` + formationColumns + ` FROM formations WHERE id = $1 AND user_id = $2`
	var formation models.Formation
	if err := r.db.GetContext(ctx, &formation, query, id, userID); err != nil {
		return nil, err
	}
	return &formation, nil
}

// Create inserts a new formation.
func (r *FormationRepository) Create(ctx context.Context, formation *models.Formation) error {
	if formation.ID == "" {
		formation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if formation.CreatedAt.IsZero() {
		formation.CreatedAt = now
	}
	formation.UpdatedAt = now
	const query = `INSERT INTO formations (id, user_id, title, organization, recycling_organization, start_date, end_date, event_kind, document_url, created_at, updated_at)
        VALUES (:id, :user_id, :title, :organization, :recycling_organization, :start_date, :end_date, :event_kind, :document_url, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, formation); err != nil {
		return fmt.Errorf("create formation: %w", err)
	}
	return nil
}

// Update modifies a formation owned by formation.UserID. It reports false when no row matched.
func (r *FormationRepository) Update(ctx context.Context, formation *models.Formation) (bool, error) {
	formation.UpdatedAt = time.Now().UTC()
	const query = `UPDATE formations SET title = :title, organization = :organization, recycling_organization = :recycling_organization,
        start_date = :start_date, end_date = :end_date, event_kind = :event_kind, document_url = :document_url, updated_at = :updated_at
        WHERE id = :id AND user_id = :user_id`
	res, err := r.db.NamedExecContext(ctx, query, formation)
	if err != nil {
		return false, fmt.Errorf("update formation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update formation rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a formation owned by userID. Trainer links derived from it are kept.
func (r *FormationRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	const query = `DELETE FROM formations WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete formation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete formation rows: %w", err)
	}
	return affected > 0, nil
}
