// Package cli команды клиента gophbudget.
//
// Каждая команда работает с локальной offline очередью. Изменения сначала
// сохраняются на устройстве и отправляются на сервер, когда он доступен.
// Если запущен daemon, команды очереди обращаются к нему по HTTP: daemon
// держит локальную базу открытой.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/iudanet/gophbudget/internal/client/api"
	"github.com/iudanet/gophbudget/internal/client/auth"
	"github.com/iudanet/gophbudget/internal/client/iocli"
	"github.com/iudanet/gophbudget/internal/client/network"
	"github.com/iudanet/gophbudget/internal/client/offline"
	"github.com/iudanet/gophbudget/internal/client/status"
	"github.com/iudanet/gophbudget/internal/client/storage/boltdb"
	"github.com/iudanet/gophbudget/internal/config"
	"github.com/iudanet/gophbudget/internal/logging"
)

type Cli struct {
	io          iocli.IO
	logger      *slog.Logger
	authService auth.Service
	store       *boltdb.Storage
	monitor     *network.Monitor
	prober      *network.Prober
	queue       *offline.Queue
	queues      queueService
	daemon      *status.Client // не nil, если команды идут через daemon
	serverURL   string
	statusAddr  string
	version     string
}

func New(io iocli.IO, version string) *Cli {
	return &Cli{
		io:      io,
		version: version,
	}
}

// setup открывает локальное хранилище и собирает зависимости команд
func (c *Cli) setup(ctx context.Context, cfg *config.Client) error {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	policy, err := offline.PolicyByName(cfg.Queue.RetryPolicy, cfg.Queue.BackoffBase, cfg.Queue.BackoffMax)
	if err != nil {
		return err
	}

	c.logger = logger
	c.serverURL = cfg.Server
	c.statusAddr = cfg.Status.Addr

	if daemon, ok := detectDaemon(ctx, cfg.Status.Addr, cfg.RequestTimeout); ok {
		logger.Debug("Using running daemon", "addr", cfg.Status.Addr)
		c.daemon = daemon
		c.queues = daemonQueue{daemon}
		return nil
	}

	store, err := boltdb.New(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	apiClient := api.NewClient(cfg.Server, cfg.RequestTimeout)

	// Состояние связи неизвестно до первой проверки, считаем что offline
	monitor := network.NewMonitor(false, logger)

	c.store = store
	c.monitor = monitor
	c.authService = auth.NewService(apiClient, store, logger)
	c.prober = network.NewProber(apiClient, monitor, cfg.Network.ProbeInterval, cfg.Network.ProbeTimeout, logger)
	c.queue = offline.New(ctx, store, api.NewWriter(apiClient, store, logger), monitor, offline.Config{
		RetryPolicy: policy,
		GracePeriod: cfg.Queue.GracePeriod,
	}, logger)
	c.queues = newLocalQueue(c.queue, monitor, c.prober, logger)

	return nil
}

// requireLocal проверяет, что команда работает с локальной базой, а не через daemon
func (c *Cli) requireLocal() error {
	if c.daemon != nil {
		return fmt.Errorf("daemon on %s holds the local database, stop it to run this command", c.daemon.Addr())
	}
	return nil
}

// Close останавливает очередь и закрывает локальное хранилище
func (c *Cli) Close() error {
	if c.queue != nil {
		c.queue.Close()
	}
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}
