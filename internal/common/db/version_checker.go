package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mnmetro-config/pkg/metro/models"
)

type VersionChecker struct {
	db *DB
}

func NewVersionChecker(db *DB) *VersionChecker {
	return &VersionChecker{db: db}
}

func (vc *VersionChecker) GetActiveVersion(ctx context.Context) (*models.VersionInfo, error) {
	query := `
		SELECT version_id, time_stamp, source, created_at, is_active
		FROM metro.versions
		WHERE is_active = true
		LIMIT 1
	`

	var version models.VersionInfo
	err := vc.db.conn.QueryRowContext(ctx, query).Scan(
		&version.VersionID,
		&version.TimeStamp,
		&version.Source,
		&version.CreatedAt,
		&version.IsActive,
	)

	if errors.Is(err, sql.ErrNoRows) {
		vc.db.logger.Info("No active metro config version found in database")
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("querying active version: %w", err)
	}

	vc.db.logger.Debug("Found active version",
		"version_id", version.VersionID,
		"time_stamp", version.TimeStamp)

	return &version, nil
}

// IsCurrent reports whether the active version was imported from a document
// with the given time stamp. An empty time stamp is never current.
func (vc *VersionChecker) IsCurrent(ctx context.Context, timeStamp string) (bool, error) {
	if timeStamp == "" {
		return false, nil
	}

	active, err := vc.GetActiveVersion(ctx)
	if err != nil {
		return false, fmt.Errorf("getting active version: %w", err)
	}
	if active == nil {
		return false, nil
	}

	current := active.TimeStamp == timeStamp
	vc.db.logger.Info("Version comparison",
		"document_time_stamp", timeStamp,
		"active_time_stamp", active.TimeStamp,
		"is_current", current)

	return current, nil
}

// CreateVersion inserts an inactive version row inside tx and returns its id.
func (vc *VersionChecker) CreateVersion(ctx context.Context, tx *sql.Tx, timeStamp, source string) (int, error) {
	var versionID int
	query := `
		INSERT INTO metro.versions (time_stamp, source, is_active)
		VALUES ($1, $2, false)
		RETURNING version_id
	`
	if err := tx.QueryRowContext(ctx, query, timeStamp, source).Scan(&versionID); err != nil {
		return 0, fmt.Errorf("creating version: %w", err)
	}

	vc.db.logger.Info("Created new version",
		"version_id", versionID,
		"time_stamp", timeStamp)

	return versionID, nil
}

// ActivateVersion makes versionID the only active version, inside tx.
func (vc *VersionChecker) ActivateVersion(ctx context.Context, tx *sql.Tx, versionID int) error {
	if _, err := tx.ExecContext(ctx, "UPDATE metro.versions SET is_active = false WHERE is_active = true"); err != nil {
		return fmt.Errorf("deactivating versions: %w", err)
	}

	result, err := tx.ExecContext(ctx, "UPDATE metro.versions SET is_active = true WHERE version_id = $1", versionID)
	if err != nil {
		return fmt.Errorf("activating version: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("version %d not found", versionID)
	}

	vc.db.logger.Info("Activated version", "version_id", versionID)
	return nil
}
