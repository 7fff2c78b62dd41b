// Package gateway реализует пограничный сервис: валидация входных
// данных, ограничение частоты запросов и проксирование в основной
// сервис.
package gateway

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shareit/internal/models"
)

// Client forwards validated requests to the core service.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Forward передает запрос как есть: метод, путь, query, тело и
// доверенный заголовок. Статус и тело ответа ядра возвращаются дословно.
func (c *Client) Forward(w http.ResponseWriter, r *http.Request, body []byte) {
	url := c.baseURL + r.URL.Path
	if r.URL.RawQuery != "" {
		url += "?" + r.URL.RawQuery
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, url, reader)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build upstream request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if userID := r.Header.Get(models.UserIDHeader); userID != "" {
		req.Header.Set(models.UserIDHeader, userID)
	}
	if requestID := r.Header.Get("X-Request-Id"); requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("upstream request failed: %v", err))
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	if requestID := resp.Header.Get("X-Request-Id"); requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}
