package load

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/LilVoxy/linkedin_analytics/ETL/models"
	"github.com/LilVoxy/linkedin_analytics/processor"
)

// ErrUploadNotFound возвращается, если запись журнала загрузок не найдена
var ErrUploadNotFound = errors.New("запись журнала загрузок не найдена")

// MySQLUploadLogRepository реализация UploadLogRepository для MySQL
type MySQLUploadLogRepository struct {
	db *sql.DB
}

// NewMySQLUploadLogRepository создает новый экземпляр MySQLUploadLogRepository
func NewMySQLUploadLogRepository(db *sql.DB) *MySQLUploadLogRepository {
	return &MySQLUploadLogRepository{
		db: db,
	}
}

// CreateLogEntry создает запись о начале загрузки. Исходный файл сохраняется сжатым.
func (r *MySQLUploadLogRepository) CreateLogEntry(ctx context.Context, sessionID, fileName string, startTime time.Time, payload []byte) (int64, error) {
	query := `
	INSERT INTO upload_log (session_id, file_name, start_time, status, payload)
	VALUES (?, ?, ?, 'in_progress', ?)
	`

	result, err := r.db.ExecContext(ctx, query, sessionID, fileName, startTime, processor.CompressPayload(payload))
	if err != nil {
		return 0, fmt.Errorf("ошибка при создании записи о загрузке: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ошибка при получении ID созданной записи: %w", err)
	}

	return id, nil
}

// UpdateLogEntrySuccess обновляет запись при успешной загрузке
func (r *MySQLUploadLogRepository) UpdateLogEntrySuccess(ctx context.Context, id int64, endTime time.Time, kind string, rows, warnings int) error {
	executionTime, err := r.executionTime(ctx, id, endTime)
	if err != nil {
		return err
	}

	query := `
	UPDATE upload_log
	SET
		end_time = ?,
		status = 'success',
		kind = ?,
		rows_loaded = ?,
		warnings_count = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, endTime, kind, rows, warnings, executionTime, id); err != nil {
		return fmt.Errorf("ошибка при обновлении записи о загрузке: %w", err)
	}
	return nil
}

// UpdateLogEntryFailure обновляет запись при ошибке загрузки
func (r *MySQLUploadLogRepository) UpdateLogEntryFailure(ctx context.Context, id int64, endTime time.Time, errorMessage string) error {
	executionTime, err := r.executionTime(ctx, id, endTime)
	if err != nil {
		return err
	}

	query := `
	UPDATE upload_log
	SET
		end_time = ?,
		status = 'failed',
		error_message = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, endTime, errorMessage, executionTime, id); err != nil {
		return fmt.Errorf("ошибка при обновлении записи о загрузке: %w", err)
	}
	return nil
}

// executionTime рассчитывает длительность загрузки в секундах
func (r *MySQLUploadLogRepository) executionTime(ctx context.Context, id int64, endTime time.Time) (float64, error) {
	var startTime time.Time
	err := r.db.QueryRowContext(ctx, "SELECT start_time FROM upload_log WHERE id = ?", id).Scan(&startTime)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: id=%d", ErrUploadNotFound, id)
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка при получении времени начала загрузки: %w", err)
	}
	return endTime.Sub(startTime).Seconds(), nil
}

// GetSessionUploads возвращает журнал загрузок сессии, последние записи первыми
func (r *MySQLUploadLogRepository) GetSessionUploads(ctx context.Context, sessionID string) ([]models.UploadLog, error) {
	query := `
	SELECT
		id, session_id, file_name, IFNULL(kind, ''), start_time, end_time, status,
		rows_loaded, warnings_count, IFNULL(error_message, ''), IFNULL(execution_time_seconds, 0)
	FROM upload_log
	WHERE session_id = ?
	ORDER BY start_time DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении журнала загрузок: %w", err)
	}
	defer rows.Close()

	logs := []models.UploadLog{}
	for rows.Next() {
		var log models.UploadLog
		var endTime sql.NullTime
		err := rows.Scan(
			&log.ID, &log.SessionID, &log.FileName, &log.Kind, &log.StartTime, &endTime, &log.Status,
			&log.RowsLoaded, &log.WarningsCount, &log.ErrorMessage, &log.ExecutionTimeSeconds,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка при чтении записи журнала загрузок: %w", err)
		}
		if endTime.Valid {
			log.EndTime = endTime.Time
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при чтении журнала загрузок: %w", err)
	}

	return logs, nil
}

// GetUploadPayload возвращает исходный файл загрузки. Запись чужой сессии считается ненайденной.
func (r *MySQLUploadLogRepository) GetUploadPayload(ctx context.Context, sessionID string, id int64) (*models.UploadFile, error) {
	var fileName string
	var compressed []byte
	err := r.db.QueryRowContext(ctx,
		"SELECT file_name, payload FROM upload_log WHERE id = ? AND session_id = ?", id, sessionID,
	).Scan(&fileName, &compressed)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && compressed == nil) {
		return nil, fmt.Errorf("%w: id=%d", ErrUploadNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении файла загрузки: %w", err)
	}

	data, err := processor.DecompressPayload(compressed)
	if err != nil {
		return nil, err
	}
	return &models.UploadFile{FileName: fileName, Data: data}, nil
}
