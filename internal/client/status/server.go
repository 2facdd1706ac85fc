package status

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/iudanet/gophbudget/internal/client/network"
	"github.com/iudanet/gophbudget/internal/client/offline"
	"github.com/iudanet/gophbudget/internal/models"
	"github.com/iudanet/gophbudget/pkg/api"
)

// Типы сообщений websocket
const (
	EventQueueSnapshot = "queue.snapshot"
	EventNetworkStatus = "network.status"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsReadTimeout  = 60 * time.Second
)

// Queue is the part of the offline queue the status surface uses.
type Queue interface {
	Enqueue(ctx context.Context, kind models.QueueKind, payload any) (string, error)
	Get(id string) (models.QueueEntry, bool)
	Snapshot() []models.QueueEntry
	Subscribe() (<-chan []models.QueueEntry, func())
	Retry(ctx context.Context) (*offline.SyncResult, error)
	Remove(ctx context.Context, id string) error
	Syncing() bool
}

// Connectivity is the part of the connectivity monitor the status surface uses.
type Connectivity interface {
	IsOnline() bool
	OfflineBanner() bool
	Subscribe() (<-chan network.Event, func())
}

// Overview ответ GET /api/v1/queue
type Overview struct {
	Items         []EntryView `json:"items"`
	Counts        Counts      `json:"counts"`
	Online        bool        `json:"online"`
	OfflineBanner bool        `json:"offline_banner"`
	Syncing       bool        `json:"syncing"`
	AllSynced     bool        `json:"all_synced"`
}

// EnqueueRequest тело POST /api/v1/queue
type EnqueueRequest struct {
	Kind    models.QueueKind `json:"kind"`
	Payload json.RawMessage  `json:"payload"`
}

// EnqueueResponse ответ POST /api/v1/queue
type EnqueueResponse struct {
	ID string `json:"id"`
}

// NetworkView данные сообщения network.status
type NetworkView struct {
	Online        bool `json:"online"`
	OfflineBanner bool `json:"offline_banner"`
}

// Envelope сообщение websocket
type Envelope struct {
	Data      any    `json:"data"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // unix ms
}

// Server локальный HTTP интерфейс состояния очереди
type Server struct {
	queue    Queue
	conn     Connectivity
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewServer создает сервер статуса
func NewServer(queue Queue, conn Connectivity, logger *slog.Logger) *Server {
	return &Server{
		queue:  queue,
		conn:   conn,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Router возвращает chi роутер с маршрутами статуса
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Route("/api/v1/queue", func(r chi.Router) {
		r.Get("/", s.handleOverview)
		r.Post("/", s.handleEnqueue)
		r.Post("/sync", s.handleSync)
		r.Get("/ws", s.handleWS)
		r.Get("/{id}", s.handleEntry)
		r.Delete("/{id}", s.handleRemove)
	})

	return r
}

// Overview собирает текущее состояние
func (s *Server) Overview() Overview {
	return s.overviewOf(s.queue.Snapshot())
}

func (s *Server) overviewOf(entries []models.QueueEntry) Overview {
	counts := Count(entries)
	return Overview{
		Items:         Views(entries),
		Counts:        counts,
		Online:        s.conn.IsOnline(),
		OfflineBanner: s.conn.OfflineBanner(),
		Syncing:       s.queue.Syncing(),
		AllSynced:     counts.AllSynced(),
	}
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, s.Overview(), http.StatusOK)
}

// handleEnqueue ставит запись в очередь процесса daemon
func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if err := validatePayload(req.Kind, req.Payload); err != nil {
		s.sendError(w, "invalid entry", err.Error(), http.StatusBadRequest)
		return
	}

	// запись сохраняется, даже если клиент отключился
	id, err := s.queue.Enqueue(context.WithoutCancel(r.Context()), req.Kind, req.Payload)
	switch {
	case err == nil:
		s.sendJSON(w, EnqueueResponse{ID: id}, http.StatusCreated)
	case errors.Is(err, offline.ErrUnknownKind):
		s.sendError(w, "invalid entry", err.Error(), http.StatusBadRequest)
	default:
		s.logger.ErrorContext(r.Context(), "Failed to enqueue entry", "kind", req.Kind, "error", err)
		s.sendError(w, "internal error", err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, ok := s.queue.Get(id)
	if !ok {
		s.sendError(w, "not found", offline.ErrEntryNotFound.Error(), http.StatusNotFound)
		return
	}
	s.sendJSON(w, View(entry), http.StatusOK)
}

// handleSync ручной повтор синхронизации
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	res, err := s.queue.Retry(r.Context())
	switch {
	case err == nil:
		s.sendJSON(w, res, http.StatusOK)
	case errors.Is(err, offline.ErrOffline):
		s.sendError(w, "offline", err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, offline.ErrSyncInProgress):
		s.sendError(w, "sync in progress", err.Error(), http.StatusConflict)
	default:
		s.logger.ErrorContext(r.Context(), "Manual sync failed", "error", err)
		s.sendError(w, "internal error", err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := s.queue.Remove(r.Context(), id)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, offline.ErrEntryNotFound):
		s.sendError(w, "not found", err.Error(), http.StatusNotFound)
	case errors.Is(err, offline.ErrEntrySyncing):
		s.sendError(w, "entry is syncing", err.Error(), http.StatusConflict)
	default:
		s.logger.ErrorContext(r.Context(), "Failed to remove entry", "entry_id", id, "error", err)
		s.sendError(w, "internal error", err.Error(), http.StatusInternalServerError)
	}
}

// handleWS отправляет снимки очереди и состояние сети при каждом изменении
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer func() {
		_ = ws.Close()
	}()

	snapshots, releaseQueue := s.queue.Subscribe()
	defer releaseQueue()
	events, releaseNet := s.conn.Subscribe()
	defer releaseNet()

	s.logger.Debug("Status stream connected", "remote_addr", r.RemoteAddr)

	// Читаем только для обработки close и pong
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		_ = ws.SetReadDeadline(time.Now().Add(wsReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(wsReadTimeout))
		})
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	if err := s.writeEnvelope(ws, EventNetworkStatus, s.networkView()); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			data := s.overviewOf(snap)
			if err := s.writeEnvelope(ws, EventQueueSnapshot, data); err != nil {
				return
			}
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if err := s.writeEnvelope(ws, EventNetworkStatus, s.networkView()); err != nil {
				return
			}
		case <-ping.C:
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) networkView() NetworkView {
	return NetworkView{
		Online:        s.conn.IsOnline(),
		OfflineBanner: s.conn.OfflineBanner(),
	}
}

func (s *Server) writeEnvelope(ws *websocket.Conn, typ string, data any) error {
	_ = ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	err := ws.WriteJSON(Envelope{
		Type:      typ,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		s.logger.Debug("Status stream closed", "error", err)
	}
	return err
}

func (s *Server) sendJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (s *Server) sendError(w http.ResponseWriter, errMsg, message string, status int) {
	s.sendJSON(w, api.ErrorResponse{Error: errMsg, Message: message}, status)
}
