package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Правила агрегации метрик по интервалу
const (
	AggregateSum  = "sum"
	AggregateMean = "mean"
)

// Политики обработки неразборчивых чисел
const (
	OnBadNumberSkipCell = "skip_cell"
	OnBadNumberSkipRow  = "skip_row"
)

// AppConfig содержит конфигурацию сервиса аналитики
type AppConfig struct {
	// Настройки HTTP-сервера
	Server ServerConfig `yaml:"server"`

	// Настройки подключения к MySQL (необязательное хранилище)
	Database DatabaseConfig `yaml:"database"`

	// Время жизни пользовательских сессий
	Sessions SessionConfig `yaml:"sessions"`

	// Правила разбора CSV
	Parsing ParsingConfig `yaml:"parsing"`

	// Отслеживаемые метрики и правила их агрегации
	Metrics MetricsConfig `yaml:"metrics"`

	// Включение/отключение подробного логирования
	EnableDetailedLogging bool `yaml:"enable_detailed_logging"`

	// Каталог для файлов логов; пустая строка отключает запись в файл
	LogDir string `yaml:"log_dir"`
}

// ServerConfig содержит настройки HTTP-сервера
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	MaxUploadMB  int64         `yaml:"max_upload_mb"`
	StaticDir    string        `yaml:"static_dir"`
}

// DatabaseConfig содержит настройки подключения к базе данных
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// SessionConfig содержит настройки хранения сессий
type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// ParsingConfig содержит правила разбора загружаемых файлов
type ParsingConfig struct {
	DateLayouts    []string `yaml:"date_layouts"`
	OnBadNumber    string   `yaml:"on_bad_number"`
	HeaderScanRows int      `yaml:"header_scan_rows"`
}

// MetricsConfig содержит список отслеживаемых метрик и политику агрегации
type MetricsConfig struct {
	// Метрики публикаций, по которым считаются бенчмарки и флаги
	Tracked []string `yaml:"tracked"`

	// Метрики, хранящиеся долями; если все значения <= 1, они переводятся в проценты
	PercentMetrics []string `yaml:"percent_metrics"`

	// Правило агрегации для каждой колонки ежедневных метрик
	Aggregation map[string]string `yaml:"aggregation"`

	// Правило для колонок, не указанных явно
	DefaultAggregation string `yaml:"default_aggregation"`

	// Предпочтительный порядок колонок трендов
	PreferredTrendColumns []string `yaml:"preferred_trend_columns"`
}

// Значения конфигурации по умолчанию
var (
	DefaultServerConfig = ServerConfig{
		Addr:         ":8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		MaxUploadMB:  32,
	}

	DefaultDatabaseConfig = DatabaseConfig{
		Enabled: false,
		Driver:  "mysql",
		Host:    "localhost",
		Port:    3306,
		User:    "root",
		DBName:  "linkedin_analytics",
	}

	DefaultSessionConfig = SessionConfig{
		TTL:           2 * time.Hour,
		SweepInterval: 10 * time.Minute,
	}

	DefaultParsingConfig = ParsingConfig{
		DateLayouts:    []string{"2006-01-02", "01/02/2006", "1/2/2006"},
		OnBadNumber:    OnBadNumberSkipCell,
		HeaderScanRows: 3,
	}

	DefaultMetricsConfig = MetricsConfig{
		Tracked:        []string{"Engagement Rate", "CTR", "Impressions", "Clicks", "Likes"},
		PercentMetrics: []string{"CTR"},
		Aggregation: map[string]string{
			"Impressions (organic)":       AggregateSum,
			"Impressions (sponsored)":     AggregateSum,
			"Impressions (total)":         AggregateSum,
			"Unique impressions":          AggregateSum,
			"Clicks (organic)":            AggregateSum,
			"Clicks (sponsored)":          AggregateSum,
			"Clicks (total)":              AggregateSum,
			"Reactions (organic)":         AggregateSum,
			"Reactions (sponsored)":       AggregateSum,
			"Reactions (total)":           AggregateSum,
			"Comments (organic)":          AggregateSum,
			"Comments (sponsored)":        AggregateSum,
			"Comments (total)":            AggregateSum,
			"Reposts (organic)":           AggregateSum,
			"Reposts (sponsored)":         AggregateSum,
			"Reposts (total)":             AggregateSum,
			"Engagement rate (organic)":   AggregateMean,
			"Engagement rate (sponsored)": AggregateMean,
			"Engagement rate (total)":     AggregateMean,
		},
		DefaultAggregation: AggregateSum,
		PreferredTrendColumns: []string{
			"Impressions (total)",
			"Clicks (total)",
			"Reactions (total)",
			"Comments (total)",
			"Reposts (total)",
			"Engagement rate (total)",
		},
	}
)

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() AppConfig {
	metrics := DefaultMetricsConfig
	metrics.Aggregation = make(map[string]string, len(DefaultMetricsConfig.Aggregation))
	for k, v := range DefaultMetricsConfig.Aggregation {
		metrics.Aggregation[k] = v
	}

	return AppConfig{
		Server:                DefaultServerConfig,
		Database:              DefaultDatabaseConfig,
		Sessions:              DefaultSessionConfig,
		Parsing:               DefaultParsingConfig,
		Metrics:               metrics,
		EnableDetailedLogging: false,
		LogDir:                "",
	}
}

// GetConfig возвращает конфигурацию: значения по умолчанию, затем YAML-файл
// (если путь задан), затем переменные окружения ANALYTICS_*
func GetConfig(path string) (AppConfig, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("ошибка разбора файла конфигурации: %w", err)
		}
	}

	// .env подгружается, если есть; его отсутствие не ошибка
	_ = godotenv.Load()
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate проверяет согласованность конфигурации
func (c AppConfig) Validate() error {
	switch c.Parsing.OnBadNumber {
	case OnBadNumberSkipCell, OnBadNumberSkipRow:
	default:
		return fmt.Errorf("неизвестная политика on_bad_number: %q", c.Parsing.OnBadNumber)
	}
	if len(c.Parsing.DateLayouts) == 0 {
		return fmt.Errorf("не задан ни один формат даты")
	}
	if c.Parsing.HeaderScanRows < 1 {
		return fmt.Errorf("header_scan_rows должен быть положительным")
	}
	for column, rule := range c.Metrics.Aggregation {
		if rule != AggregateSum && rule != AggregateMean {
			return fmt.Errorf("неизвестное правило агрегации %q для колонки %q", rule, column)
		}
	}
	if c.Metrics.DefaultAggregation != AggregateSum && c.Metrics.DefaultAggregation != AggregateMean {
		return fmt.Errorf("неизвестное правило агрегации по умолчанию %q", c.Metrics.DefaultAggregation)
	}
	return nil
}

// AggregationFor возвращает правило агрегации для колонки
func (m MetricsConfig) AggregationFor(column string) string {
	if rule, ok := m.Aggregation[column]; ok {
		return rule
	}
	return m.DefaultAggregation
}

func applyEnv(cfg *AppConfig) {
	cfg.Server.Addr = GetEnv("ANALYTICS_ADDR", cfg.Server.Addr)
	cfg.Server.StaticDir = GetEnv("ANALYTICS_STATIC_DIR", cfg.Server.StaticDir)
	cfg.Database.Enabled = GetEnvBool("ANALYTICS_DB_ENABLED", cfg.Database.Enabled)
	cfg.Database.Host = GetEnv("ANALYTICS_DB_HOST", cfg.Database.Host)
	cfg.Database.Port = GetEnvInt("ANALYTICS_DB_PORT", cfg.Database.Port)
	cfg.Database.User = GetEnv("ANALYTICS_DB_USER", cfg.Database.User)
	cfg.Database.Password = GetEnv("ANALYTICS_DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = GetEnv("ANALYTICS_DB_NAME", cfg.Database.DBName)
	cfg.EnableDetailedLogging = GetEnvBool("ANALYTICS_DETAILED_LOGGING", cfg.EnableDetailedLogging)
	cfg.LogDir = GetEnv("ANALYTICS_LOG_DIR", cfg.LogDir)
	if layouts := GetEnv("ANALYTICS_DATE_LAYOUTS", ""); layouts != "" {
		cfg.Parsing.DateLayouts = strings.Split(layouts, ";")
	}
}

// GetEnv возвращает переменную окружения или значение по умолчанию
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt возвращает целочисленную переменную окружения или значение по умолчанию
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetEnvBool возвращает логическую переменную окружения или значение по умолчанию
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
