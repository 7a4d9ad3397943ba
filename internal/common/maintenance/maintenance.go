package maintenance

import (
	"context"
	"fmt"

	"github.com/mnmetro-config/internal/common/db"
	"github.com/mnmetro-config/internal/common/logger"
)

// VersionCleanupResult describes one removed metro config version
type VersionCleanupResult struct {
	VersionID int
	TimeStamp string
}

// Maintenance handles database cleanup operations
type Maintenance struct {
	db     *db.DB
	logger logger.Logger
}

// New creates a new Maintenance instance
func New(database *db.DB, logger logger.Logger) *Maintenance {
	return &Maintenance{
		db:     database,
		logger: logger,
	}
}

// cleanupOldVersionsQuery deletes inactive versions older than the newest $1
// inactive ones. Corridor, r_node and detector rows go with them via
// ON DELETE CASCADE.
const cleanupOldVersionsQuery = `
	DELETE FROM metro.versions
	WHERE is_active = false
	  AND version_id NOT IN (
		SELECT version_id FROM metro.versions
		WHERE is_active = false
		ORDER BY version_id DESC
		LIMIT $1
	  )
	RETURNING version_id, time_stamp
`

// CleanupOldVersions removes old inactive metro config versions, keeping the
// active version and the keepInactiveVersions most recent inactive ones.
func (m *Maintenance) CleanupOldVersions(ctx context.Context, keepInactiveVersions int) ([]VersionCleanupResult, error) {
	if keepInactiveVersions < 0 {
		return nil, fmt.Errorf("keep_inactive_versions must not be negative, got %d", keepInactiveVersions)
	}

	m.logger.Info("Starting cleanup of old metro config versions", "keep_inactive_versions", keepInactiveVersions)

	rows, err := m.db.DB().QueryContext(ctx, cleanupOldVersionsQuery, keepInactiveVersions)
	if err != nil {
		return nil, fmt.Errorf("deleting old versions: %w", err)
	}
	defer rows.Close()

	var results []VersionCleanupResult
	for rows.Next() {
		var result VersionCleanupResult
		if err := rows.Scan(&result.VersionID, &result.TimeStamp); err != nil {
			return nil, fmt.Errorf("scanning cleanup result: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cleanup results: %w", err)
	}

	for _, result := range results {
		m.logger.Info("Cleaned up metro config version",
			"version_id", result.VersionID,
			"time_stamp", result.TimeStamp)
	}

	return results, nil
}
