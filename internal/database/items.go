package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shareit/internal/models"
)

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	query := `INSERT INTO items (name, description, available, owner_id, request_id, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		item.Name,
		item.Description,
		item.Available,
		item.OwnerID,
		nullableID(item.RequestID),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	item.CreatedAt = now
	item.UpdatedAt = now

	return nil
}

func (db *DB) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	query := `SELECT id, name, description, available, owner_id, request_id, created_at, updated_at
              FROM items WHERE id = ?`

	var item models.Item
	var requestID sql.NullInt64
	err := db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.Name, &item.Description, &item.Available,
		&item.OwnerID, &requestID, &item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	item.RequestID = requestID.Int64
	return &item, nil
}

func (db *DB) UpdateItem(ctx context.Context, item *models.Item) error {
	query := `UPDATE items SET name = ?, description = ?, available = ?, updated_at = ? WHERE id = ?`
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, query, item.Name, item.Description, item.Available, now, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	item.UpdatedAt = now
	return nil
}

func (db *DB) GetItemsByOwner(ctx context.Context, ownerID int64, from, size int) ([]models.Item, error) {
	limit, offset := limitOffset(from, size)
	query := `SELECT id, name, description, available, owner_id, request_id, created_at, updated_at
              FROM items WHERE owner_id = ? ORDER BY id ASC LIMIT ? OFFSET ?`

	rows, err := db.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get items by owner: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// SearchItems ищет доступные вещи по подстроке в названии или описании
// без учета регистра. Пустой текст отфильтровывается на уровне сервиса.
func (db *DB) SearchItems(ctx context.Context, text string, from, size int) ([]models.Item, error) {
	limit, offset := limitOffset(from, size)
	query := `SELECT id, name, description, available, owner_id, request_id, created_at, updated_at
              FROM items
              WHERE available = 1
                AND (LOWER(name) LIKE '%' || LOWER(?) || '%' OR LOWER(description) LIKE '%' || LOWER(?) || '%')
              ORDER BY id ASC LIMIT ? OFFSET ?`

	rows, err := db.QueryContext(ctx, query, text, text, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func (db *DB) GetItemsByRequestID(ctx context.Context, requestID int64) ([]models.Item, error) {
	query := `SELECT id, name, description, available, owner_id, request_id, created_at, updated_at
              FROM items WHERE request_id = ? ORDER BY id ASC`

	rows, err := db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items by request: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// GetItemsByRequestIDs загружает вещи по набору запросов одним запросом,
// сгруппированными по id запроса.
func (db *DB) GetItemsByRequestIDs(ctx context.Context, requestIDs []int64) (map[int64][]models.Item, error) {
	result := make(map[int64][]models.Item)
	if len(requestIDs) == 0 {
		return result, nil
	}

	placeholders, args := inPlaceholders(requestIDs)
	query := `SELECT id, name, description, available, owner_id, request_id, created_at, updated_at
              FROM items WHERE request_id IN (` + placeholders + `) ORDER BY id ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get items by requests: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		result[item.RequestID] = append(result[item.RequestID], item)
	}
	return result, nil
}

func (db *DB) ItemExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM items WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check item existence: %w", err)
	}
	return exists, nil
}

func scanItems(rows *sql.Rows) ([]models.Item, error) {
	var items []models.Item
	for rows.Next() {
		var item models.Item
		var requestID sql.NullInt64
		err := rows.Scan(
			&item.ID, &item.Name, &item.Description, &item.Available,
			&item.OwnerID, &requestID, &item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		item.RequestID = requestID.Int64
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
