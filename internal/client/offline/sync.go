package offline

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/iudanet/gophbudget/internal/models"
)

// SyncResult итог одного прохода синхронизации
type SyncResult struct {
	FailedIDs []string `json:"failed_ids,omitempty"` // записи, перешедшие в Failed
	Selected  int      `json:"selected"`             // выбрано в начале прохода
	Synced    int      `json:"synced"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"` // удалены или остались Pending (потеря связи, отмена)
}

// Sync runs one sync pass over Pending and Failed entries.
//
// Entries are selected once at the start of the pass and sent one at a time in
// enqueue order. A failure of one entry is recorded on that entry and does not
// abort the pass. A call made while another pass is running returns
// ErrSyncInProgress and schedules a follow-up pass.
func (q *Queue) Sync(ctx context.Context) (*SyncResult, error) {
	if !q.conn.IsOnline() {
		return nil, ErrOffline
	}

	if !q.beginPass() {
		return nil, ErrSyncInProgress
	}
	defer q.endPass()

	ids := q.selectEligible()
	result := &SyncResult{Selected: len(ids)}
	if len(ids) == 0 {
		return result, nil
	}

	q.logger.Info("Sync pass started", "entries", len(ids))

	for i, id := range ids {
		if ctx.Err() != nil || !q.conn.IsOnline() {
			q.logger.Info("Sync pass interrupted", "remaining", len(ids)-i)
			result.Skipped += len(ids) - i
			break
		}

		entry, ok := q.markSyncing(ctx, id)
		if !ok {
			result.Skipped++
			continue
		}

		err := dispatch(ctx, q.writer, entry)

		// Отмена контекста во время вызова не является отказом сервера
		if err != nil && ctx.Err() != nil {
			q.revertPending(id)
			result.Skipped++
			continue
		}

		q.settle(ctx, id, err)
		if err != nil {
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, id)
		} else {
			result.Synced++
		}
	}

	q.logger.Info("Sync pass finished",
		"synced", result.Synced,
		"failed", result.Failed,
		"skipped", result.Skipped,
	)

	return result, nil
}

// beginPass занимает проход. Если проход уже идет, запоминает запрос на повтор.
func (q *Queue) beginPass() bool {
	q.passMu.Lock()
	defer q.passMu.Unlock()

	if q.running {
		q.rerun = true
		return false
	}
	q.running = true
	return true
}

// endPass освобождает проход и планирует повтор, запрошенный во время него
func (q *Queue) endPass() {
	q.passMu.Lock()
	rerun := q.rerun
	q.running = false
	q.rerun = false
	q.passMu.Unlock()

	if rerun {
		q.Trigger()
	}
}

// Retry clears backoff delays of Failed entries and runs a pass.
// Used by the manual retry action.
func (q *Queue) Retry(ctx context.Context) (*SyncResult, error) {
	q.mu.Lock()
	changed := false
	for _, e := range q.entries {
		if e.Status == models.StatusFailed && e.NextAttemptAt != 0 {
			e.NextAttemptAt = 0
			changed = true
		}
	}
	if changed {
		q.persistLocked(ctx)
		q.notifyLocked()
	}
	q.mu.Unlock()

	return q.Sync(ctx)
}

// Run drives automatic sync passes until ctx is done: once at startup when
// online, on every transition to online and on every Trigger.
func (q *Queue) Run(ctx context.Context) {
	events, release := q.conn.Subscribe()
	defer release()

	if q.conn.IsOnline() && q.hasEligible() {
		q.runPass(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Online {
				q.runPass(ctx)
			}
		case <-q.trigger:
			q.runPass(ctx)
		}
	}
}

func (q *Queue) runPass(ctx context.Context) {
	_, err := q.Sync(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrOffline), errors.Is(err, ErrSyncInProgress):
		q.logger.Debug("Sync pass not started", "reason", err)
	default:
		q.logger.Error("Sync pass failed", "error", err)
	}
}

// selectEligible снимок id записей для прохода, от старых к новым
func (q *Queue) selectEligible() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now().UnixMilli()
	selected := make([]*models.QueueEntry, 0, len(q.entries))
	for _, e := range q.entries {
		if !e.Status.Eligible() {
			continue
		}
		if e.NextAttemptAt > now {
			continue
		}
		selected = append(selected, e)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].EnqueuedAt < selected[j].EnqueuedAt
	})

	ids := make([]string, len(selected))
	for i, e := range selected {
		ids[i] = e.ID
	}
	return ids
}

func (q *Queue) hasEligible() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, e := range q.entries {
		if e.Status.Eligible() {
			return true
		}
	}
	return false
}

// markSyncing переводит запись в Syncing, если она все еще в очереди и ожидает отправки
func (q *Queue) markSyncing(ctx context.Context, id string) (models.QueueEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexLocked(id)
	if i < 0 || !q.entries[i].Status.Eligible() {
		return models.QueueEntry{}, false
	}

	e := q.entries[i]
	e.Status = models.StatusSyncing
	q.persistLocked(ctx)
	q.notifyLocked()

	return e.Clone(), true
}

func (q *Queue) revertPending(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexLocked(id)
	if i < 0 {
		return
	}
	q.entries[i].Status = models.StatusPending
	q.persistLocked(context.Background())
	q.notifyLocked()
}

// settle фиксирует результат вызова удаленной операции
func (q *Queue) settle(ctx context.Context, id string, callErr error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexLocked(id)
	if i < 0 {
		return
	}

	e := q.entries[i]
	e.Attempts++

	if callErr == nil {
		e.Status = models.StatusSynced
		e.LastError = ""
		e.NextAttemptAt = 0
		q.persistLocked(ctx)
		q.notifyLocked()
		q.schedulePruneLocked(id)

		q.logger.Info("Entry synced", "entry_id", id, "kind", e.Kind, "attempts", e.Attempts)
		return
	}

	e.Status = models.StatusFailed
	e.LastError = callErr.Error()
	e.NextAttemptAt = 0
	if d := q.policy.NextDelay(e.Attempts); d > 0 {
		e.NextAttemptAt = q.now().Add(d).UnixMilli()
	}
	q.persistLocked(ctx)
	q.notifyLocked()

	q.logger.Warn("Entry sync failed",
		"entry_id", id,
		"kind", e.Kind,
		"attempts", e.Attempts,
		"error", callErr,
	)
}

func (q *Queue) schedulePruneLocked(id string) {
	if q.closed {
		return
	}
	if q.grace == 0 {
		q.pruneLocked(id)
		return
	}
	q.prune[id] = time.AfterFunc(q.grace, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		delete(q.prune, id)
		q.pruneLocked(id)
	})
}

func (q *Queue) pruneLocked(id string) {
	i := q.indexLocked(id)
	if i < 0 || q.entries[i].Status != models.StatusSynced {
		return
	}
	q.entries = append(q.entries[:i], q.entries[i+1:]...)
	q.persistLocked(context.Background())
	q.notifyLocked()
}
