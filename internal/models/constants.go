package models

const (
	// DefaultPageSize размер страницы по умолчанию для from/size пагинации
	DefaultPageSize = 10

	// LedgerQueueSize размер in-memory очереди воркера
	LedgerQueueSize = 1000

	// RateLimitRequests количество запросов в окне на одного клиента шлюза
	RateLimitRequests = 50

	// RateLimitWindow окно ограничения частоты запросов, секунды
	RateLimitWindow = 60

	// ItemCacheTTL время жизни кэша карточек вещей, секунды
	ItemCacheTTL = 5 * 60
)

// UserIDHeader is the trusted header identifying the caller on every
// authenticated endpoint. There is no real authentication behind it.
const UserIDHeader = "X-Sharer-User-Id"
