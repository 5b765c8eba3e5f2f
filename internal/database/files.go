package database

import (
	"context"
	"fmt"

	"github.com/benvon/appointment-scheduler/internal/models"
	"github.com/lib/pq"
)

// FileRepository reads uploaded file metadata
type FileRepository struct {
	db *DB
}

// NewFileRepository creates a new file repository
func NewFileRepository(db *DB) *FileRepository {
	return &FileRepository{db: db}
}

// GetByIDs retrieves the files whose IDs are in ids. Missing IDs are skipped.
func (r *FileRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.File, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, path, created_at, updated_at
		FROM files
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var files []*models.File
	for rows.Next() {
		f := &models.File{}
		if err := rows.Scan(&f.ID, &f.Name, &f.Path, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating files: %w", err)
	}

	return files, nil
}
