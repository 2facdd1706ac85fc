package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iudanet/gophbudget/pkg/api"
)

// ErrUnauthorized сервер отклонил токен доступа
var ErrUnauthorized = errors.New("unauthorized")

// StatusError ответ сервера с кодом вне диапазона 2xx
type StatusError struct {
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Unwrap позволяет проверять 401 через errors.Is(err, ErrUnauthorized)
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создает новый API клиент
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", nil, req, &resp)
	if err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", nil, req, &resp)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Health проверяет доступность сервера
func (c *Client) Health(ctx context.Context) error {
	var resp api.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", nil, nil, &resp); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// CreateTransaction создает транзакцию. payload отправляется без изменений.
func (c *Client) CreateTransaction(ctx context.Context, token, idempotencyKey string, payload json.RawMessage) (*api.CreatedResponse, error) {
	return c.create(ctx, "/api/v1/transactions", token, idempotencyKey, payload)
}

// CreateCategory создает категорию
func (c *Client) CreateCategory(ctx context.Context, token, idempotencyKey string, payload json.RawMessage) (*api.CreatedResponse, error) {
	return c.create(ctx, "/api/v1/categories", token, idempotencyKey, payload)
}

// CreateBudget создает бюджет
func (c *Client) CreateBudget(ctx context.Context, token, idempotencyKey string, payload json.RawMessage) (*api.CreatedResponse, error) {
	return c.create(ctx, "/api/v1/budgets", token, idempotencyKey, payload)
}

// CreateGoal создает цель накоплений
func (c *Client) CreateGoal(ctx context.Context, token, idempotencyKey string, payload json.RawMessage) (*api.CreatedResponse, error) {
	return c.create(ctx, "/api/v1/goals", token, idempotencyKey, payload)
}

func (c *Client) create(ctx context.Context, path, token, idempotencyKey string, payload json.RawMessage) (*api.CreatedResponse, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + token,
	}
	if idempotencyKey != "" {
		headers[api.IdempotencyKeyHeader] = idempotencyKey
	}

	var resp api.CreatedResponse
	if err := c.doRequest(ctx, http.MethodPost, path, headers, payload, &resp); err != nil {
		return nil, fmt.Errorf("create request to %s failed: %w", path, err)
	}
	return &resp, nil
}

// Do выполняет JSON запрос без дополнительных заголовков.
// Ответ вне диапазона 2xx возвращается как *StatusError.
func (c *Client) Do(ctx context.Context, method, path string, body, result any) error {
	return c.doRequest(ctx, method, path, nil, body, result)
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, headers map[string]string, body, result any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	switch b := body.(type) {
	case nil:
	case json.RawMessage:
		// Уже сериализованный payload из очереди отправляем байт в байт
		bodyReader = bytes.NewReader(b)
	default:
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			statusErr.Message = errResp.Message
			if statusErr.Message == "" {
				statusErr.Message = errResp.Error
			}
		}
		return statusErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
