package transform

import (
	"fmt"
	"sort"
	"time"

	"github.com/LilVoxy/linkedin_analytics/ETL/config"
	"github.com/LilVoxy/linkedin_analytics/ETL/models"
)

// AggregationPolicy задает правило агрегации (sum или mean) для колонки метрик
type AggregationPolicy interface {
	AggregationFor(column string) string
}

// AggregateTrends группирует ежедневные метрики по интервалам и агрегирует каждую колонку
// по ее правилу. Интервалы без записей пропускаются, результат упорядочен по возрастанию.
func AggregateTrends(table *models.MetricsTable, bucket models.Bucket, policy AggregationPolicy) ([]models.TrendBucket, error) {
	if table == nil || len(table.Rows) == 0 {
		return []models.TrendBucket{}, nil
	}
	if bucket == "" {
		bucket = models.BucketDay
	}

	type accumulator struct {
		start   time.Time
		label   string
		records int
		sums    map[string]float64
		counts  map[string]int
	}

	groups := make(map[string]*accumulator)
	for _, row := range table.Rows {
		start, label, err := bucketOf(row.Date, bucket)
		if err != nil {
			return nil, err
		}

		acc, ok := groups[label]
		if !ok {
			acc = &accumulator{
				start:  start,
				label:  label,
				sums:   make(map[string]float64),
				counts: make(map[string]int),
			}
			groups[label] = acc
		}
		acc.records++
		for column, v := range row.Values {
			acc.sums[column] += v
			acc.counts[column]++
		}
	}

	buckets := make([]models.TrendBucket, 0, len(groups))
	for _, acc := range groups {
		values := make(map[string]float64, len(acc.sums))
		for column, sum := range acc.sums {
			switch policy.AggregationFor(column) {
			case config.AggregateMean:
				values[column] = sum / float64(acc.counts[column])
			default:
				values[column] = sum
			}
		}
		buckets = append(buckets, models.TrendBucket{
			Label:   acc.label,
			Start:   acc.start,
			Records: acc.records,
			Values:  values,
		})
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Start.Before(buckets[j].Start)
	})
	return buckets, nil
}

// bucketOf возвращает начало и метку интервала, содержащего дату
func bucketOf(date time.Time, bucket models.Bucket) (time.Time, string, error) {
	d := models.TruncateDay(date)
	switch bucket {
	case models.BucketDay:
		return d, d.Format(models.DateLayout), nil
	case models.BucketWeek:
		// Неделя ISO 8601 начинается с понедельника
		offset := (int(d.Weekday()) + 6) % 7
		start := d.AddDate(0, 0, -offset)
		year, week := d.ISOWeek()
		return start, fmt.Sprintf("%04d-W%02d", year, week), nil
	case models.BucketMonth:
		start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.Format("2006-01"), nil
	default:
		return time.Time{}, "", fmt.Errorf("%w: неизвестный интервал агрегации %q", models.ErrInvalidCriteria, bucket)
	}
}

// OrderedMetricColumns упорядочивает колонки метрик: сначала предпочтительные, затем остальные
func OrderedMetricColumns(columns, preferred []string) []string {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	ordered := make([]string, 0, len(columns))
	used := make(map[string]bool, len(columns))
	for _, c := range preferred {
		if present[c] && !used[c] {
			ordered = append(ordered, c)
			used[c] = true
		}
	}
	for _, c := range columns {
		if !used[c] {
			ordered = append(ordered, c)
			used[c] = true
		}
	}
	return ordered
}
