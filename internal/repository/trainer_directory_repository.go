package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// TrainerDirectoryRepository resolves organization names to trainer accounts. It is read-only.
type TrainerDirectoryRepository struct {
	db *sqlx.DB
}

// NewTrainerDirectoryRepository constructs a TrainerDirectoryRepository.
func NewTrainerDirectoryRepository(db *sqlx.DB) *TrainerDirectoryRepository {
	return &TrainerDirectoryRepository{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ResolveTrainer finds the trainer whose organization name matches orgName, ignoring case and
// surrounding whitespace. An exact match wins over a prefix match.
func (r *TrainerDirectoryRepository) ResolveTrainer(ctx context.Context, orgName string) (string, bool, error) {
	name := strings.TrimSpace(orgName)
	if name == "" {
		return "", false, nil
	}

	const exact = `SELECT id FROM trainer_profiles WHERE LOWER(TRIM(organization_name)) = LOWER($1) ORDER BY id LIMIT 1`
	id, found, err := r.lookup(ctx, exact, name)
	if err != nil || found {
		return id, found, err
	}

	const prefix = `SELECT id FROM trainer_profiles WHERE TRIM(organization_name) ILIKE $1 ORDER BY LENGTH(TRIM(organization_name)), id LIMIT 1`
	return r.lookup(ctx, prefix, likeEscaper.Replace(name)+"%")
}

func (r *TrainerDirectoryRepository) lookup(ctx context.Context, query, arg string) (string, bool, error) {
	var id string
	if err := r.db.GetContext(ctx, &id, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("resolve trainer: %w", err)
	}
	return id, true, nil
}
