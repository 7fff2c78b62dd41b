package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type ItemService struct {
	store    domain.Store
	cache    domain.CacheRepository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewItemService(store domain.Store, cache domain.CacheRepository, eventBus domain.EventPublisher, logger *zerolog.Logger) *ItemService {
	return &ItemService{
		store:    store,
		cache:    cache,
		eventBus: eventBus,
		logger:   logger,
	}
}

func itemCacheKey(id int64) string {
	return fmt.Sprintf("item:%d", id)
}

func (s *ItemService) CreateItem(ctx context.Context, ownerID int64, item *models.Item) error {
	exists, err := s.store.UserExists(ctx, ownerID)
	if err != nil {
		return err
	}
	if !exists {
		return database.ErrUserNotFound
	}

	if item.RequestID != 0 {
		if _, err := s.store.GetRequestByID(ctx, item.RequestID); err != nil {
			return err
		}
	}

	item.OwnerID = ownerID
	if err := s.store.CreateItem(ctx, item); err != nil {
		return err
	}

	s.logger.Info().Int64("item_id", item.ID).Int64("owner_id", ownerID).Msg("Item created")
	return nil
}

// UpdateItem обновляет вещь. Менять может только владелец.
func (s *ItemService) UpdateItem(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error) {
	item, err := s.store.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, database.ErrNotOwner
	}

	// Пустые строки игнорируются так же, как отсутствующие поля
	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		item.Name = *patch.Name
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) != "" {
		item.Description = *patch.Description
	}
	if patch.Available != nil {
		item.Available = *patch.Available
	}

	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	s.invalidateItemCache(ctx, itemID)
	s.logger.Info().Int64("item_id", itemID).Msg("Item updated")
	return item, nil
}

// GetItemByID возвращает карточку вещи. Ближайшие бронирования видит
// только владелец, отзывы видят все.
func (s *ItemService) GetItemByID(ctx context.Context, userID, itemID int64) (*models.ItemDetails, error) {
	item, err := s.getItemCached(ctx, itemID)
	if err != nil {
		return nil, err
	}

	comments, err := s.store.GetCommentsByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}

	details := &models.ItemDetails{Item: *item, Comments: comments}

	if item.OwnerID == userID {
		now := time.Now().UTC()
		last, err := s.store.GetLastBookings(ctx, []int64{itemID}, now)
		if err != nil {
			return nil, err
		}
		next, err := s.store.GetNextBookings(ctx, []int64{itemID}, now)
		if err != nil {
			return nil, err
		}
		if ref, ok := last[itemID]; ok {
			details.LastBooking = &ref
		}
		if ref, ok := next[itemID]; ok {
			details.NextBooking = &ref
		}
	}

	return details, nil
}

// GetItemsByOwner возвращает вещи владельца с ближайшими бронированиями
// и отзывами. Данные собираются пакетными запросами.
func (s *ItemService) GetItemsByOwner(ctx context.Context, ownerID int64, from, size int) ([]models.ItemDetails, error) {
	items, err := s.store.GetItemsByOwner(ctx, ownerID, from, size)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []models.ItemDetails{}, nil
	}

	itemIDs := make([]int64, len(items))
	for i, item := range items {
		itemIDs[i] = item.ID
	}

	now := time.Now().UTC()
	last, err := s.store.GetLastBookings(ctx, itemIDs, now)
	if err != nil {
		return nil, err
	}
	next, err := s.store.GetNextBookings(ctx, itemIDs, now)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.GetCommentsByItems(ctx, itemIDs)
	if err != nil {
		return nil, err
	}

	details := make([]models.ItemDetails, len(items))
	for i, item := range items {
		d := models.ItemDetails{Item: item, Comments: comments[item.ID]}
		if d.Comments == nil {
			d.Comments = []models.Comment{}
		}
		if ref, ok := last[item.ID]; ok {
			d.LastBooking = &ref
		}
		if ref, ok := next[item.ID]; ok {
			d.NextBooking = &ref
		}
		details[i] = d
	}

	return details, nil
}

// SearchItems ищет доступные вещи. Пустой запрос не ходит в хранилище.
func (s *ItemService) SearchItems(ctx context.Context, text string, from, size int) ([]models.Item, error) {
	if strings.TrimSpace(text) == "" {
		return []models.Item{}, nil
	}

	items, err := s.store.SearchItems(ctx, text, from, size)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Item{}
	}
	return items, nil
}

// AddComment принимает отзыв от пользователя, который успел завершить
// хотя бы одну аренду вещи.
func (s *ItemService) AddComment(ctx context.Context, userID, itemID int64, text string) (*models.Comment, error) {
	author, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetItemByID(ctx, itemID); err != nil {
		return nil, err
	}

	finished, err := s.store.HasFinishedBooking(ctx, userID, itemID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !finished {
		return nil, database.ErrCommentForbidden
	}

	comment := &models.Comment{
		Text:       text,
		ItemID:     itemID,
		AuthorID:   userID,
		AuthorName: author.Name,
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		_ = s.eventBus.PublishJSON(events.EventCommentAdded, events.CommentEventPayload{
			CommentID:  comment.ID,
			ItemID:     itemID,
			AuthorID:   userID,
			AuthorName: author.Name,
		})
	}

	s.logger.Info().Int64("comment_id", comment.ID).Int64("item_id", itemID).Int64("author_id", userID).Msg("Comment added")
	return comment, nil
}

func (s *ItemService) getItemCached(ctx context.Context, itemID int64) (*models.Item, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, itemCacheKey(itemID)); err == nil {
			var item models.Item
			if err := json.Unmarshal([]byte(raw), &item); err == nil {
				return &item, nil
			}
		}
	}

	item, err := s.store.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(item); err == nil {
			_ = s.cache.Set(ctx, itemCacheKey(itemID), string(raw), models.ItemCacheTTL*time.Second)
		}
	}
	return item, nil
}

func (s *ItemService) invalidateItemCache(ctx context.Context, itemID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, itemCacheKey(itemID)); err != nil {
		s.logger.Warn().Err(err).Int64("item_id", itemID).Msg("Failed to invalidate item cache")
	}
}
