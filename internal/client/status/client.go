package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	clientapi "github.com/iudanet/gophbudget/internal/client/api"
	"github.com/iudanet/gophbudget/internal/client/offline"
	"github.com/iudanet/gophbudget/internal/models"
)

const queuePath = "/api/v1/queue"

// Client обращается к очереди запущенного daemon через его HTTP интерфейс.
// Пока daemon держит локальную базу, команды работают с очередью только так.
type Client struct {
	transport *clientapi.Client
	addr      string
}

// NewClient creates a client for the status server listening on addr (host:port).
func NewClient(addr string, timeout time.Duration) *Client {
	return &Client{
		transport: clientapi.NewClient("http://"+addr, timeout),
		addr:      addr,
	}
}

// Addr адрес daemon
func (c *Client) Addr() string {
	return c.addr
}

// Overview returns the daemon's queue state.
func (c *Client) Overview(ctx context.Context) (*Overview, error) {
	var ov Overview
	if err := c.transport.Do(ctx, http.MethodGet, queuePath, nil, &ov); err != nil {
		return nil, fmt.Errorf("failed to get queue overview: %w", err)
	}
	return &ov, nil
}

// Enqueue ставит запись в очередь daemon
func (c *Client) Enqueue(ctx context.Context, kind models.QueueKind, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}

	var resp EnqueueResponse
	err = c.transport.Do(ctx, http.MethodPost, queuePath, EnqueueRequest{Kind: kind, Payload: raw}, &resp)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue %s: %w", kind, err)
	}
	return resp.ID, nil
}

// Entry returns the view of one entry or offline.ErrEntryNotFound.
func (c *Client) Entry(ctx context.Context, id string) (*EntryView, error) {
	var v EntryView
	err := c.transport.Do(ctx, http.MethodGet, queuePath+"/"+url.PathEscape(id), nil, &v)
	if statusCode(err) == http.StatusNotFound {
		return nil, offline.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry %s: %w", id, err)
	}
	return &v, nil
}

// Retry runs a manual sync pass in the daemon.
func (c *Client) Retry(ctx context.Context) (*offline.SyncResult, error) {
	var res offline.SyncResult
	err := c.transport.Do(ctx, http.MethodPost, queuePath+"/sync", nil, &res)
	switch statusCode(err) {
	case http.StatusServiceUnavailable:
		return nil, offline.ErrOffline
	case http.StatusConflict:
		return nil, offline.ErrSyncInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("failed to run sync: %w", err)
	}
	return &res, nil
}

// Remove удаляет запись из очереди daemon
func (c *Client) Remove(ctx context.Context, id string) error {
	err := c.transport.Do(ctx, http.MethodDelete, queuePath+"/"+url.PathEscape(id), nil, nil)
	if err == nil {
		return nil
	}
	switch statusCode(err) {
	case http.StatusNotFound:
		return offline.ErrEntryNotFound
	case http.StatusConflict:
		return offline.ErrEntrySyncing
	}
	return fmt.Errorf("failed to remove entry %s: %w", id, err)
}

// statusCode код ответа из ошибки клиента, 0 если ответа не было
func statusCode(err error) int {
	var se *clientapi.StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
