package asaas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nexfit/billing-service/internal/domain"
	"github.com/nexfit/billing-service/pkg/logger"
)

// Client представляет клиент для работы с API Asaas
type Client struct {
	baseURL      string
	apiKey       string
	webhookToken string
	httpClient   *http.Client
	log          *logger.Logger
}

// Config конфигурация для клиента Asaas
type Config struct {
	APIKey       string
	WebhookToken string
	Timeout      time.Duration
	IsSandbox    bool
}

// NewClient создает новый клиент Asaas
func NewClient(cfg Config, log *logger.Logger) *Client {
	baseURL := "https://api.asaas.com/v3"
	if cfg.IsSandbox {
		baseURL = "https://sandbox.asaas.com/api/v3"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:      baseURL,
		apiKey:       cfg.APIKey,
		webhookToken: cfg.WebhookToken,
		httpClient:   &http.Client{Timeout: timeout},
		log:          log,
	}
}

// errorResponse представляет тело ошибки от API Asaas
type errorResponse struct {
	Errors []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"errors"`
}

// doRequest выполняет запрос к API Asaas и декодирует ответ в out
func (c *Client) doRequest(ctx context.Context, operation, method, path string, body interface{}, out interface{}) error {
	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("access_token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return domain.NewGatewayTimeout(operation, err)
		}
		return domain.NewGatewayError(operation, "network_error", "failed to execute request", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr errorResponse
		code := "http_error"
		message := fmt.Sprintf("unexpected status %d", resp.StatusCode)
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && len(apiErr.Errors) > 0 {
			code = apiErr.Errors[0].Code
			message = apiErr.Errors[0].Description
		}
		return domain.NewGatewayError(operation, code, message, resp.StatusCode, nil)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return domain.NewGatewayError(operation, "decode_error", "failed to decode response", resp.StatusCode, err)
		}
	}

	return nil
}

// isTimeout проверяет, была ли ошибка вызвана таймаутом
func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
