package catalogservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент для работы с каталогом услуг (CatalogService)
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента CatalogService
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetProvider получает поставщика услуг по ID
func (c *Client) GetProvider(ctx context.Context, providerID int64) (*Provider, error) {
	url := fmt.Sprintf("%s/internal/providers/%d", c.baseURL, providerID)

	var provider Provider
	if err := c.getJSON(ctx, url, &provider, ErrProviderNotFound); err != nil {
		return nil, err
	}

	return &provider, nil
}

// GetService получает услугу поставщика по ID
// Длительность и буфер из ответа используются как снапшот при создании бронирования
func (c *Client) GetService(ctx context.Context, providerID, serviceID int64) (*Service, error) {
	url := fmt.Sprintf("%s/internal/providers/%d/services/%d", c.baseURL, providerID, serviceID)

	var service Service
	if err := c.getJSON(ctx, url, &service, ErrServiceNotFound); err != nil {
		return nil, err
	}

	return &service, nil
}

func (c *Client) getJSON(ctx context.Context, url string, dest interface{}, notFound error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Продолжаем обработку
	case http.StatusNotFound:
		return notFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return nil
}
