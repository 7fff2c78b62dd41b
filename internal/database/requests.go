package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shareit/internal/models"
)

func (db *DB) CreateRequest(ctx context.Context, request *models.ItemRequest) error {
	query := `INSERT INTO requests (description, requestor_id, created_at) VALUES (?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query, request.Description, request.RequestorID, now)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	request.ID = id
	request.CreatedAt = now

	return nil
}

func (db *DB) GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error) {
	query := `SELECT id, description, requestor_id, created_at FROM requests WHERE id = ?`

	var request models.ItemRequest
	err := db.QueryRowContext(ctx, query, id).Scan(
		&request.ID, &request.Description, &request.RequestorID, &request.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return &request, nil
}

// GetRequestsByRequestor возвращает запросы пользователя, новые первыми.
func (db *DB) GetRequestsByRequestor(ctx context.Context, requestorID int64) ([]models.ItemRequest, error) {
	query := `SELECT id, description, requestor_id, created_at
              FROM requests WHERE requestor_id = ?
              ORDER BY datetime(created_at) DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, requestorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get requests by requestor: %w", err)
	}
	defer rows.Close()

	return scanRequests(rows)
}

// GetRequestsByOthers возвращает запросы остальных пользователей, то есть
// ленту для владельцев, ищущих, что выставить.
func (db *DB) GetRequestsByOthers(ctx context.Context, userID int64, from, size int) ([]models.ItemRequest, error) {
	limit, offset := limitOffset(from, size)
	query := `SELECT id, description, requestor_id, created_at
              FROM requests WHERE requestor_id != ?
              ORDER BY datetime(created_at) DESC, id DESC LIMIT ? OFFSET ?`

	rows, err := db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get requests by others: %w", err)
	}
	defer rows.Close()

	return scanRequests(rows)
}

func scanRequests(rows *sql.Rows) ([]models.ItemRequest, error) {
	var requests []models.ItemRequest
	for rows.Next() {
		var request models.ItemRequest
		err := rows.Scan(&request.ID, &request.Description, &request.RequestorID, &request.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}
