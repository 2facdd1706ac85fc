package auth

import (
	"context"

	"github.com/iudanet/gophbudget/internal/client/storage"
)

//go:generate moq -out service_mock.go . Service

// Service управляет сессией клиента на backend
type Service interface {
	// Register регистрирует нового пользователя и возвращает его ID
	Register(ctx context.Context, username, password string) (string, error)

	// Login выполняет аутентификацию и сохраняет сессию локально
	Login(ctx context.Context, username, password string) (*storage.AuthData, error)

	// Logout удаляет локальную сессию. Очередь не трогает.
	Logout(ctx context.Context) error

	// Session возвращает текущую сессию или storage.ErrAuthNotFound
	Session(ctx context.Context) (*storage.AuthData, error)
}
