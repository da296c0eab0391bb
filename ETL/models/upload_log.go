package models

import (
	"context"
	"time"
)

// Статусы записи журнала загрузок
const (
	UploadStatusInProgress = "in_progress"
	UploadStatusSuccess    = "success"
	UploadStatusFailed     = "failed"
)

// UploadLog представляет запись о загрузке файла
type UploadLog struct {
	ID                   int64     `json:"id"`
	SessionID            string    `json:"session_id"`
	FileName             string    `json:"file_name"`
	Kind                 string    `json:"kind"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	Status               string    `json:"status"`
	RowsLoaded           int       `json:"rows_loaded"`
	WarningsCount        int       `json:"warnings_count"`
	ErrorMessage         string    `json:"error_message,omitempty"`
	ExecutionTimeSeconds float64   `json:"execution_time_seconds"`
}

// UploadFile исходный файл из журнала загрузок
type UploadFile struct {
	FileName string
	Data     []byte
}

// UploadLogRepository представляет репозиторий журнала загрузок
type UploadLogRepository interface {
	// CreateLogEntry создает запись о начале загрузки и архивирует исходный файл
	CreateLogEntry(ctx context.Context, sessionID, fileName string, startTime time.Time, payload []byte) (int64, error)

	// UpdateLogEntrySuccess обновляет запись при успешной загрузке
	UpdateLogEntrySuccess(ctx context.Context, id int64, endTime time.Time, kind string, rows, warnings int) error

	// UpdateLogEntryFailure обновляет запись при ошибке загрузки
	UpdateLogEntryFailure(ctx context.Context, id int64, endTime time.Time, errorMessage string) error

	// GetSessionUploads возвращает журнал загрузок сессии
	GetSessionUploads(ctx context.Context, sessionID string) ([]UploadLog, error)

	// GetUploadPayload возвращает исходный файл загрузки сессии
	GetUploadPayload(ctx context.Context, sessionID string, id int64) (*UploadFile, error)
}

// BoostedConfigRepository хранит отметки продвигаемых публикаций между сессиями
type BoostedConfigRepository interface {
	// SaveBoostedConfig сохраняет отметки (upsert по нормализованному заголовку)
	SaveBoostedConfig(ctx context.Context, entries []BoostedConfigEntry) error

	// LoadBoostedConfig возвращает сохраненные отметки
	LoadBoostedConfig(ctx context.Context) ([]BoostedConfigEntry, error)
}
