package load

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`
	CREATE TABLE IF NOT EXISTS boosted_config (
		title_key BINARY(32) NOT NULL PRIMARY KEY,
		title TEXT NOT NULL,
		boosted BOOLEAN NOT NULL DEFAULT FALSE,
		created_date DATE NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS upload_log (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		session_id VARCHAR(36) NOT NULL,
		file_name VARCHAR(255) NOT NULL,
		kind VARCHAR(32) NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NULL,
		status ENUM('success', 'failed', 'in_progress') NOT NULL DEFAULT 'in_progress',
		rows_loaded INT DEFAULT 0,
		warnings_count INT DEFAULT 0,
		error_message TEXT,
		execution_time_seconds FLOAT,
		payload LONGBLOB,
		INDEX idx_upload_log_session (session_id)
	);
	`,
}

// CreateTables создает таблицы хранилища, если они не существуют
func CreateTables(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ошибка при создании таблиц хранилища: %w", err)
		}
	}
	return nil
}
