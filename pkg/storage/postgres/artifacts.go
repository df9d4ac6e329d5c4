// Package postgres reads WBS artifacts from a PostgreSQL artifacts table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/felixgeelhaar/pulse/pkg/domain/wbs"
)

const listArtifactsQuery = `SELECT project_id, id, title, body, updated_at
FROM artifacts
WHERE project_id = ANY($1) AND kind = 'wbs'
ORDER BY project_id, id`

// ArtifactStore lists WBS artifacts stored in PostgreSQL.
type ArtifactStore struct {
	db *sql.DB
}

// New opens a connection pool to databaseURL and verifies it.
func New(ctx context.Context, databaseURL string) (*ArtifactStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &ArtifactStore{db: db}, nil
}

// NewWithDB wraps an existing handle.
func NewWithDB(db *sql.DB) *ArtifactStore {
	return &ArtifactStore{db: db}
}

// Close closes the underlying database connection.
func (s *ArtifactStore) Close() error {
	return s.db.Close()
}

// Artifacts returns every wbs artifact of the given projects.
func (s *ArtifactStore) Artifacts(ctx context.Context, projectIDs []string) ([]wbs.Artifact, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, listArtifactsQuery, pq.Array(projectIDs))
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	var out []wbs.Artifact
	for rows.Next() {
		var (
			a     wbs.Artifact
			title sql.NullString
		)
		if err := rows.Scan(&a.ProjectID, &a.DocumentID, &title, &a.Body, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		a.Title = title.String
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return out, nil
}
