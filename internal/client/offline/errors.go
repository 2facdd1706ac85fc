package offline

import "errors"

var (
	// ErrOffline возвращается, если синхронизация запрошена без связи
	ErrOffline = errors.New("offline: connectivity is down")

	// ErrSyncInProgress возвращается повторному вызову Sync во время активного прохода
	ErrSyncInProgress = errors.New("offline: sync pass already in progress")

	// ErrEntryNotFound запись с таким id отсутствует в очереди
	ErrEntryNotFound = errors.New("offline: queue entry not found")

	// ErrEntrySyncing запись сейчас отправляется и не может быть удалена
	ErrEntrySyncing = errors.New("offline: queue entry is being synced")

	// ErrUnknownKind неизвестный тип удаленной операции
	ErrUnknownKind = errors.New("offline: unknown queue entry kind")
)
