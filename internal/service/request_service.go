package service

import (
	"context"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type RequestService struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewRequestService(store domain.Store, logger *zerolog.Logger) *RequestService {
	return &RequestService{
		store:  store,
		logger: logger,
	}
}

func (s *RequestService) CreateRequest(ctx context.Context, userID int64, description string) (*models.ItemRequest, error) {
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, database.ErrUserNotFound
	}

	request := &models.ItemRequest{
		Description: description,
		RequestorID: userID,
	}
	if err := s.store.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("request_id", request.ID).Int64("requestor_id", userID).Msg("Item request created")
	return request, nil
}

// GetOwnRequests возвращает запросы пользователя с ответами, новые сверху.
func (s *RequestService) GetOwnRequests(ctx context.Context, userID int64) ([]models.RequestDetails, error) {
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, database.ErrUserNotFound
	}

	requests, err := s.store.GetRequestsByRequestor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, requests)
}

// GetOtherRequests возвращает чужие запросы постранично.
func (s *RequestService) GetOtherRequests(ctx context.Context, userID int64, from, size int) ([]models.RequestDetails, error) {
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, database.ErrUserNotFound
	}

	requests, err := s.store.GetRequestsByOthers(ctx, userID, from, size)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, requests)
}

func (s *RequestService) GetRequestByID(ctx context.Context, userID, requestID int64) (*models.RequestDetails, error) {
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, database.ErrUserNotFound
	}

	request, err := s.store.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	items, err := s.store.GetItemsByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Item{}
	}

	return &models.RequestDetails{ItemRequest: *request, Items: items}, nil
}

// withItems собирает ответы на запросы одним пакетным запросом.
func (s *RequestService) withItems(ctx context.Context, requests []models.ItemRequest) ([]models.RequestDetails, error) {
	if len(requests) == 0 {
		return []models.RequestDetails{}, nil
	}

	requestIDs := make([]int64, len(requests))
	for i, r := range requests {
		requestIDs[i] = r.ID
	}

	grouped, err := s.store.GetItemsByRequestIDs(ctx, requestIDs)
	if err != nil {
		return nil, err
	}

	details := make([]models.RequestDetails, len(requests))
	for i, r := range requests {
		items := grouped[r.ID]
		if items == nil {
			items = []models.Item{}
		}
		details[i] = models.RequestDetails{ItemRequest: r, Items: items}
	}
	return details, nil
}
