package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shareit/internal/models"
)

func (db *DB) CreateComment(ctx context.Context, comment *models.Comment) error {
	query := `INSERT INTO comments (text, item_id, author_id, author_name, created_at)
              VALUES (?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		comment.Text,
		comment.ItemID,
		comment.AuthorID,
		comment.AuthorName,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	comment.ID = id
	comment.CreatedAt = now

	return nil
}

func (db *DB) GetCommentsByItem(ctx context.Context, itemID int64) ([]models.Comment, error) {
	query := `SELECT id, text, item_id, author_id, author_name, created_at
              FROM comments WHERE item_id = ? ORDER BY id ASC`

	rows, err := db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	defer rows.Close()

	return scanComments(rows)
}

// GetCommentsByItems загружает отзывы для набора вещей одним запросом,
// сгруппированными по id вещи.
func (db *DB) GetCommentsByItems(ctx context.Context, itemIDs []int64) (map[int64][]models.Comment, error) {
	result := make(map[int64][]models.Comment)
	if len(itemIDs) == 0 {
		return result, nil
	}

	placeholders, args := inPlaceholders(itemIDs)
	query := `SELECT id, text, item_id, author_id, author_name, created_at
              FROM comments WHERE item_id IN (` + placeholders + `) ORDER BY id ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments by items: %w", err)
	}
	defer rows.Close()

	comments, err := scanComments(rows)
	if err != nil {
		return nil, err
	}
	for _, comment := range comments {
		result[comment.ItemID] = append(result[comment.ItemID], comment)
	}
	return result, nil
}

func scanComments(rows *sql.Rows) ([]models.Comment, error) {
	var comments []models.Comment
	for rows.Next() {
		var comment models.Comment
		err := rows.Scan(
			&comment.ID, &comment.Text, &comment.ItemID,
			&comment.AuthorID, &comment.AuthorName, &comment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}
