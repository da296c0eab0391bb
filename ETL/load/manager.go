package load

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LilVoxy/linkedin_analytics/ETL/models"
	"github.com/LilVoxy/linkedin_analytics/ETL/utils"
)

// LoadManager отвечает за сохранение отметок продвижения и журнала загрузок.
// Без подключения к базе данных хранилище отключено, операции ничего не делают.
type LoadManager struct {
	boosted models.BoostedConfigRepository
	uploads models.UploadLogRepository
	logger  *utils.ETLLogger
}

// NewLoadManager создает новый экземпляр LoadManager. db может быть nil.
func NewLoadManager(db *sql.DB, logger *utils.ETLLogger) *LoadManager {
	if db == nil {
		return &LoadManager{logger: logger}
	}
	return NewLoadManagerWithRepositories(
		NewMySQLBoostedConfigRepository(db, logger),
		NewMySQLUploadLogRepository(db),
		logger,
	)
}

// NewLoadManagerWithRepositories создает LoadManager поверх произвольных репозиториев
func NewLoadManagerWithRepositories(boosted models.BoostedConfigRepository, uploads models.UploadLogRepository, logger *utils.ETLLogger) *LoadManager {
	return &LoadManager{
		boosted: boosted,
		uploads: uploads,
		logger:  logger,
	}
}

// Enabled сообщает, подключено ли хранилище
func (m *LoadManager) Enabled() bool {
	return m.boosted != nil || m.uploads != nil
}

// StartUpload создает запись журнала о начале загрузки файла.
// Ошибка журнала не прерывает загрузку: возвращается 0.
func (m *LoadManager) StartUpload(ctx context.Context, sessionID, fileName string, payload []byte) int64 {
	if m.uploads == nil {
		return 0
	}
	id, err := m.uploads.CreateLogEntry(ctx, sessionID, fileName, time.Now(), payload)
	if err != nil {
		m.logger.Error("Ошибка при создании записи в журнале загрузок: %v", err)
		return 0
	}
	return id
}

// FinishUpload фиксирует результат загрузки в журнале
func (m *LoadManager) FinishUpload(ctx context.Context, id int64, result *models.LoadResult, loadErr error) {
	if m.uploads == nil || id == 0 {
		return
	}

	endTime := time.Now()
	var err error
	if loadErr != nil {
		err = m.uploads.UpdateLogEntryFailure(ctx, id, endTime, loadErr.Error())
	} else {
		err = m.uploads.UpdateLogEntrySuccess(ctx, id, endTime, result.Kind.String(), result.Rows, len(result.Warnings))
	}
	if err != nil {
		m.logger.Error("Ошибка при обновлении записи в журнале загрузок: %v", err)
	}
}

// SessionUploads возвращает журнал загрузок сессии
func (m *LoadManager) SessionUploads(ctx context.Context, sessionID string) ([]models.UploadLog, error) {
	if m.uploads == nil {
		return []models.UploadLog{}, nil
	}
	return m.uploads.GetSessionUploads(ctx, sessionID)
}

// UploadFile возвращает исходный файл из журнала загрузок сессии
func (m *LoadManager) UploadFile(ctx context.Context, sessionID string, id int64) (*models.UploadFile, error) {
	if m.uploads == nil {
		return nil, fmt.Errorf("%w: хранилище отключено", ErrUploadNotFound)
	}
	return m.uploads.GetUploadPayload(ctx, sessionID, id)
}

// SaveBoosted сохраняет отметки продвижения
func (m *LoadManager) SaveBoosted(ctx context.Context, entries []models.BoostedConfigEntry) error {
	if m.boosted == nil {
		return nil
	}
	if err := m.boosted.SaveBoostedConfig(ctx, entries); err != nil {
		m.logger.Error("Ошибка при сохранении отметок продвижения: %v", err)
		return fmt.Errorf("ошибка при сохранении отметок продвижения: %w", err)
	}
	return nil
}

// LoadBoosted возвращает сохраненные отметки продвижения
func (m *LoadManager) LoadBoosted(ctx context.Context) ([]models.BoostedConfigEntry, error) {
	if m.boosted == nil {
		return nil, nil
	}
	entries, err := m.boosted.LoadBoostedConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка при загрузке отметок продвижения: %w", err)
	}
	return entries, nil
}
