package models

import "time"

// FlagLevel уровень флага относительно бенчмарка
type FlagLevel string

const (
	FlagAboveAverage FlagLevel = "above-average"
	FlagBelowAverage FlagLevel = "below-average"
)

// Flag отмечает метрику публикации, отклонившуюся от среднего
type Flag struct {
	Metric string    `json:"metric"`
	Level  FlagLevel `json:"level"`
}

// String возвращает метку флага
func (f Flag) String() string {
	return f.Metric + ": " + string(f.Level)
}

// MetricBenchmark содержит сводную статистику одной метрики
type MetricBenchmark struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Count  int     `json:"count"`
}

// BenchmarkResult содержит бенчмарки по отслеживаемым метрикам.
// Пересчитывается при каждом изменении фильтра и не сохраняется.
type BenchmarkResult struct {
	Metrics map[string]MetricBenchmark `json:"metrics"`
	Order   []string                   `json:"order"`
}

// Empty сообщает, что бенчмарки не рассчитаны
func (r BenchmarkResult) Empty() bool {
	return len(r.Metrics) == 0
}

// TrendBucket представляет агрегированные метрики за один интервал
type TrendBucket struct {
	Label   string             `json:"label"`
	Start   time.Time          `json:"start"`
	Records int                `json:"records"`
	Values  map[string]float64 `json:"values"`
}

// TrendLine содержит результат линейной регрессии по ряду метрики
type TrendLine struct {
	Metric    string  `json:"metric"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R         float64 `json:"r"`
	R2        float64 `json:"r2"`
	Points    int     `json:"points"`
}

// WeekdayEngagement средний уровень вовлеченности по дню недели
type WeekdayEngagement struct {
	Weekday        string  `json:"weekday"`
	EngagementRate float64 `json:"engagementRate"`
	Posts          int     `json:"posts"`
}

// Dashboard содержит все производные таблицы для отображения
type Dashboard struct {
	Criteria      FilterCriteria       `json:"criteria"`
	Posts         []Post               `json:"posts"`
	Hashtags      []string             `json:"hashtags"`
	DateBounds    *DateRange           `json:"dateBounds,omitempty"`
	Benchmarks    BenchmarkResult      `json:"benchmarks"`
	Flags         map[string][]Flag    `json:"flags"`
	PostFlags     [][]Flag             `json:"postFlags"` // флаги по индексу в Posts
	Weekday       []WeekdayEngagement  `json:"weekday"`
	MetricColumns []string             `json:"metricColumns"`
	Trends        []TrendBucket        `json:"trends"`
	TrendLines    map[string]TrendLine `json:"trendLines"`
}
