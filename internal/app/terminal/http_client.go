package terminal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"possync/internal/app/terminal/config"
	"possync/internal/domain/outbox"
)

// ProtocolError — содержательный отказ сервера: батч доехал, но принят
// не был. Отличается от транспортной ошибки, при которой ответа нет вовсе.
type ProtocolError struct {
	StatusCode int
	RequestID  string
	Message    string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("push rejected: request %s, status %d: %s", e.RequestID, e.StatusCode, e.Message)
}

type httpClient struct {
	client    *http.Client
	config    *config.Config
	log       *slog.Logger
	baseURL   string
	userAgent string
}

func NewHTTPClient(cfg *config.Config, log *slog.Logger) *httpClient {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	// Определяем протокол
	scheme := "http://"
	if cfg.EnableTLS {
		scheme = "https://"
	}

	return &httpClient{
		client:    client,
		config:    cfg,
		log:       log,
		baseURL:   scheme + cfg.ServerAddress,
		userAgent: "PosSync-Terminal/1.0",
	}
}

// HealthCheck проверяет доступность сервера
func (h *httpClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/api/health", nil)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("сервер недоступен: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("сервер вернул статус: %d", resp.StatusCode)
	}

	return nil
}

// PushBatch отправляет батч операций одной коллекции. Успех — только
// HTTP 201: любой другой статус означает, что батч не принят и останется
// в очереди.
func (h *httpClient) PushBatch(ctx context.Context, batch outbox.RequestBatch) error {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/"+batch.TableName+"/push", batch.Wire())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	h.log.Debug("Получен ответ на пуш",
		"request_id", batch.RequestID,
		"status", resp.StatusCode,
	)

	if resp.StatusCode != http.StatusCreated {
		var pushResp outbox.PushResponse
		message := fmt.Sprintf("неожиданный статус %d", resp.StatusCode)
		if err := json.Unmarshal(body, &pushResp); err == nil && pushResp.Error != "" {
			message = pushResp.Error
		}

		return &ProtocolError{
			StatusCode: resp.StatusCode,
			RequestID:  batch.RequestID,
			Message:    message,
		}
	}

	return nil
}

func (h *httpClient) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	// Добавляем заголовки
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	if h.config.DeviceToken != "" {
		req.Header.Set("Authorization", "Bearer "+h.config.DeviceToken)
	}

	h.log.Debug("Отправка запроса",
		"method", method,
		"url", req.URL.String(),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	return resp, nil
}
