package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/gophbudget/internal/client/api"
	"github.com/iudanet/gophbudget/internal/client/storage"
	"github.com/iudanet/gophbudget/internal/validation"
	pkgapi "github.com/iudanet/gophbudget/pkg/api"
)

// AuthService реализует Service поверх API клиента и локального хранилища
type AuthService struct {
	apiClient *api.Client
	store     storage.AuthStorage
	logger    *slog.Logger
	now       func() time.Time
}

var _ Service = (*AuthService)(nil)

// NewService создает новый сервис авторизации
func NewService(apiClient *api.Client, store storage.AuthStorage, logger *slog.Logger) *AuthService {
	return &AuthService{
		apiClient: apiClient,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

// Register регистрирует нового пользователя
func (s *AuthService) Register(ctx context.Context, username, password string) (string, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return "", fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.apiClient.Register(ctx, pkgapi.RegisterRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return "", fmt.Errorf("registration failed: %w", err)
	}

	s.logger.Info("User registered", "username", username, "user_id", resp.UserID)
	return resp.UserID, nil
}

// Login выполняет аутентификацию и сохраняет токен.
// Записи в очереди, поставленные до входа, будут отправлены от имени этого пользователя.
func (s *AuthService) Login(ctx context.Context, username, password string) (*storage.AuthData, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required")
	}

	resp, err := s.apiClient.Login(ctx, pkgapi.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return nil, fmt.Errorf("invalid username or password")
		}
		return nil, fmt.Errorf("login failed: %w", err)
	}

	authData := &storage.AuthData{
		Username:    username,
		UserID:      resp.UserID,
		AccessToken: resp.AccessToken,
		ExpiresAt:   s.now().Unix() + resp.ExpiresIn,
	}

	if err := s.store.SaveAuth(ctx, authData); err != nil {
		return nil, fmt.Errorf("failed to save auth data: %w", err)
	}

	s.logger.Info("User logged in", "username", username)
	return authData, nil
}

// Logout удаляет локальную сессию
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.store.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		return fmt.Errorf("failed to delete auth data: %w", err)
	}
	return nil
}

// Session возвращает текущую сессию
func (s *AuthService) Session(ctx context.Context) (*storage.AuthData, error) {
	return s.store.GetAuth(ctx)
}
