package cli

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iudanet/gophbudget/internal/client/network"
	"github.com/iudanet/gophbudget/internal/client/offline"
	"github.com/iudanet/gophbudget/internal/client/status"
	"github.com/iudanet/gophbudget/internal/models"
)

const (
	// daemonDetectTimeout сколько ждем ответа daemon при запуске команды
	daemonDetectTimeout = 500 * time.Millisecond

	// outcomeWait сколько add ждет результата отправки от daemon
	outcomeWait         = 3 * time.Second
	outcomePollInterval = 100 * time.Millisecond
)

// queueService операции команд с очередью.
// localQueue работает с базой напрямую, daemonQueue через запущенный daemon.
type queueService interface {
	Enqueue(ctx context.Context, kind models.QueueKind, payload any) (string, error)
	Entry(ctx context.Context, id string) (*status.EntryView, error)
	Overview(ctx context.Context) (*status.Overview, error)
	Retry(ctx context.Context) (*offline.SyncResult, error)
	Remove(ctx context.Context, id string) error

	// Reachable проверяет связь с сервером
	Reachable(ctx context.Context) bool
	// Send отправляет запись id и ждет результата
	Send(ctx context.Context, id string) error
}

type localQueue struct {
	queue  *offline.Queue
	prober *network.Prober
	view   *status.Server
}

func newLocalQueue(queue *offline.Queue, monitor *network.Monitor, prober *network.Prober, logger *slog.Logger) *localQueue {
	return &localQueue{
		queue:  queue,
		prober: prober,
		view:   status.NewServer(queue, monitor, logger),
	}
}

func (l *localQueue) Enqueue(ctx context.Context, kind models.QueueKind, payload any) (string, error) {
	return l.queue.Enqueue(ctx, kind, payload)
}

func (l *localQueue) Entry(_ context.Context, id string) (*status.EntryView, error) {
	e, ok := l.queue.Get(id)
	if !ok {
		return nil, offline.ErrEntryNotFound
	}
	v := status.View(e)
	return &v, nil
}

func (l *localQueue) Overview(context.Context) (*status.Overview, error) {
	ov := l.view.Overview()
	return &ov, nil
}

func (l *localQueue) Retry(ctx context.Context) (*offline.SyncResult, error) {
	return l.queue.Retry(ctx)
}

func (l *localQueue) Remove(ctx context.Context, id string) error {
	return l.queue.Remove(ctx, id)
}

func (l *localQueue) Reachable(ctx context.Context) bool {
	return l.prober.Probe(ctx)
}

func (l *localQueue) Send(ctx context.Context, _ string) error {
	_, err := l.queue.Sync(ctx)
	return err
}

// daemonQueue очередь процесса daemon. Daemon сам отправляет новые записи.
type daemonQueue struct {
	*status.Client
}

func (d daemonQueue) Reachable(ctx context.Context) bool {
	ov, err := d.Overview(ctx)
	return err == nil && ov.Online
}

func (d daemonQueue) Send(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, outcomeWait)
	defer cancel()

	ticker := time.NewTicker(outcomePollInterval)
	defer ticker.Stop()

	for {
		v, err := d.Entry(ctx, id)
		switch {
		case errors.Is(err, offline.ErrEntryNotFound):
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return err
		case v.Status == models.StatusSynced, v.Status == models.StatusFailed:
			return nil
		}

		select {
		case <-ctx.Done():
			// запись осталась в очереди daemon
			return nil
		case <-ticker.C:
		}
	}
}

// detectDaemon возвращает клиент daemon, если он отвечает на addr
func detectDaemon(ctx context.Context, addr string, timeout time.Duration) (*status.Client, bool) {
	if addr == "" {
		return nil, false
	}

	client := status.NewClient(addr, timeout)

	ctx, cancel := context.WithTimeout(ctx, daemonDetectTimeout)
	defer cancel()
	if _, err := client.Overview(ctx); err != nil {
		return nil, false
	}
	return client, true
}
