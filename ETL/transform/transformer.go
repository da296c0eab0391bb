package transform

import (
	"fmt"
	"time"

	"github.com/LilVoxy/linkedin_analytics/ETL/config"
	"github.com/LilVoxy/linkedin_analytics/ETL/models"
	"github.com/LilVoxy/linkedin_analytics/ETL/utils"
)

// Transformer координирует расчет производных таблиц дашборда
type Transformer struct {
	metrics config.MetricsConfig
	logger  *utils.ETLLogger
}

// NewTransformer создает новый экземпляр Transformer
func NewTransformer(metrics config.MetricsConfig, logger *utils.ETLLogger) *Transformer {
	return &Transformer{
		metrics: metrics,
		logger:  logger,
	}
}

// Compute рассчитывает дашборд по загруженным таблицам и критериям фильтра.
// Результат зависит только от входных данных, таблицы не изменяются.
func (t *Transformer) Compute(tables *models.Tables, criteria models.FilterCriteria) (*models.Dashboard, error) {
	startTime := time.Now()

	if criteria.Bucket == "" {
		criteria.Bucket = models.BucketDay
	}
	if _, err := models.ParseBucket(string(criteria.Bucket)); err != nil {
		return nil, err
	}
	if tables == nil {
		tables = &models.Tables{}
	}

	dashboard := &models.Dashboard{
		Criteria:      criteria,
		Posts:         []models.Post{},
		Hashtags:      []string{},
		Flags:         map[string][]models.Flag{},
		PostFlags:     [][]models.Flag{},
		Weekday:       []models.WeekdayEngagement{},
		MetricColumns: []string{},
		Trends:        []models.TrendBucket{},
		TrendLines:    map[string]models.TrendLine{},
	}

	// 1. Сопоставление с конфигурацией продвижения
	joined := JoinBoosted(tables.Posts, tables.Boosted)
	dashboard.Hashtags = AllHashtags(joined)
	dashboard.DateBounds = DateBounds(joined)

	// 2. Фильтрация публикаций
	subset := ApplyFilters(joined, criteria)
	dashboard.Posts = subset

	// 3. Бенчмарки и флаги
	dashboard.Benchmarks = ComputeBenchmarks(subset, t.metrics.Tracked)
	dashboard.Flags = FlagPosts(subset, dashboard.Benchmarks)
	dashboard.PostFlags = FlagEach(subset, dashboard.Benchmarks)
	dashboard.Weekday = WeekdayEngagement(subset)

	// 4. Тренды ежедневных метрик
	if metrics := FilterMetrics(JoinMetrics(tables.Metrics), criteria); metrics != nil {
		dashboard.MetricColumns = OrderedMetricColumns(metrics.Columns, t.metrics.PreferredTrendColumns)

		trends, err := AggregateTrends(metrics, criteria.Bucket, t.metrics)
		if err != nil {
			t.logger.Error("Ошибка при агрегации трендов: %v", err)
			return nil, fmt.Errorf("ошибка при агрегации трендов: %w", err)
		}
		dashboard.Trends = trends

		for _, column := range dashboard.MetricColumns {
			line, err := FitTrendLine(column, trends)
			if err != nil {
				t.logger.Debug("Линия тренда для %q не рассчитана: %v", column, err)
				continue
			}
			dashboard.TrendLines[column] = *line
		}
	}

	t.logger.Debug("Дашборд рассчитан: публикаций=%d из %d, флагов=%d, интервалов=%d, длительность=%v",
		len(subset), len(joined), len(dashboard.Flags), len(dashboard.Trends), time.Since(startTime))

	return dashboard, nil
}
