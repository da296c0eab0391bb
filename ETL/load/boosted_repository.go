package load

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"time"

	"github.com/LilVoxy/linkedin_analytics/ETL/models"
	"github.com/LilVoxy/linkedin_analytics/ETL/utils"
)

// MySQLBoostedConfigRepository реализация BoostedConfigRepository для MySQL
type MySQLBoostedConfigRepository struct {
	db     *sql.DB
	logger *utils.ETLLogger
}

// NewMySQLBoostedConfigRepository создает новый экземпляр MySQLBoostedConfigRepository
func NewMySQLBoostedConfigRepository(db *sql.DB, logger *utils.ETLLogger) *MySQLBoostedConfigRepository {
	return &MySQLBoostedConfigRepository{
		db:     db,
		logger: logger,
	}
}

// titleKey первичный ключ отметки: SHA-256 нормализованного заголовка, длина не зависит от заголовка
func titleKey(title string) []byte {
	sum := sha256.Sum256([]byte(models.NormalizeTitle(title)))
	return sum[:]
}

// SaveBoostedConfig сохраняет отметки продвижения одной транзакцией.
// Ключ записи - хеш нормализованного заголовка, повторы объединяются логическим ИЛИ.
func (r *MySQLBoostedConfigRepository) SaveBoostedConfig(ctx context.Context, entries []models.BoostedConfigEntry) error {
	if len(entries) == 0 {
		r.logger.Debug("Нет отметок продвижения для сохранения")
		return nil
	}

	startTime := time.Now()
	merged := mergeBoostedEntries(entries)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO boosted_config (title_key, title, boosted, created_date)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
		title = VALUES(title),
		boosted = VALUES(boosted),
		created_date = VALUES(created_date)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка при подготовке запроса: %w", err)
	}
	defer stmt.Close()

	for _, entry := range merged {
		var createdDate interface{}
		if !entry.CreatedDate.IsZero() {
			createdDate = entry.CreatedDate.Format(models.DateLayout)
		}

		if _, err := stmt.ExecContext(ctx,
			titleKey(entry.Title),
			entry.Title,
			entry.Boosted,
			createdDate,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("ошибка при сохранении отметки для публикации %q: %w", entry.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	r.logger.Info("Сохранено отметок продвижения: %d. Длительность: %v", len(merged), time.Since(startTime))
	return nil
}

// LoadBoostedConfig возвращает сохраненные отметки продвижения
func (r *MySQLBoostedConfigRepository) LoadBoostedConfig(ctx context.Context) ([]models.BoostedConfigEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT title, boosted, created_date
		FROM boosted_config
		ORDER BY title
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении отметок продвижения: %w", err)
	}
	defer rows.Close()

	var entries []models.BoostedConfigEntry
	for rows.Next() {
		var entry models.BoostedConfigEntry
		var createdDate sql.NullTime
		if err := rows.Scan(&entry.Title, &entry.Boosted, &createdDate); err != nil {
			return nil, fmt.Errorf("ошибка при чтении отметки продвижения: %w", err)
		}
		if createdDate.Valid {
			entry.CreatedDate = models.TruncateDay(createdDate.Time)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при чтении отметок продвижения: %w", err)
	}

	return entries, nil
}

// mergeBoostedEntries оставляет по одной записи на нормализованный заголовок
func mergeBoostedEntries(entries []models.BoostedConfigEntry) []models.BoostedConfigEntry {
	index := make(map[string]int, len(entries))
	merged := make([]models.BoostedConfigEntry, 0, len(entries))
	for _, entry := range entries {
		key := models.NormalizeTitle(entry.Title)
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			merged[i].Boosted = merged[i].Boosted || entry.Boosted
			if merged[i].CreatedDate.IsZero() {
				merged[i].CreatedDate = entry.CreatedDate
			}
			continue
		}
		index[key] = len(merged)
		merged = append(merged, entry)
	}
	return merged
}
