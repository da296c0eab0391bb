package load

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/LilVoxy/linkedin_analytics/ETL/models"
)

// Порядок метрик в выгрузке публикаций
var exportMetrics = []string{
	models.MetricImpressions,
	models.MetricClicks,
	models.MetricCTR,
	models.MetricEngagementRate,
	models.MetricLikes,
	models.MetricComments,
	models.MetricReposts,
	models.MetricFollows,
}

// Метки флагов в выгрузке
const (
	flagLabelAbove = "Above Avg"
	flagLabelBelow = "Below Avg"
)

// WritePostsCSV выгружает отфильтрованные публикации с колонками флагов для отслеживаемых метрик.
// postFlags[i] содержит флаги posts[i].
func WritePostsCSV(w io.Writer, posts []models.Post, postFlags [][]models.Flag, tracked []string) error {
	isTracked := make(map[string]bool, len(tracked))
	for _, m := range tracked {
		isTracked[m] = true
	}

	header := []string{"Created Date", "Post Title", "Post Link", "Post Type", "Hashtags", "Boosted"}
	for _, m := range exportMetrics {
		header = append(header, m)
		if isTracked[m] {
			header = append(header, m+" Flag")
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("ошибка записи заголовка CSV: %w", err)
	}

	for i, p := range posts {
		levels := make(map[string]models.FlagLevel)
		var flags []models.Flag
		if i < len(postFlags) {
			flags = postFlags[i]
		}
		for _, f := range flags {
			levels[f.Metric] = f.Level
		}

		record := []string{
			formatDate(p),
			p.Title,
			p.Link,
			p.Type,
			strings.Join(p.Hashtags, " "),
			strconv.FormatBool(p.Boosted),
		}
		for _, m := range exportMetrics {
			record = append(record, formatMetric(p, m))
			if isTracked[m] {
				record = append(record, flagLabel(levels[m]))
			}
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("ошибка записи строки CSV: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteBoostedConfigCSV выгружает редактируемую конфигурацию продвижения
func WriteBoostedConfigCSV(w io.Writer, entries []models.BoostedConfigEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Created Date", "Post Title", "Boosted"}); err != nil {
		return fmt.Errorf("ошибка записи заголовка CSV: %w", err)
	}

	for _, e := range entries {
		created := ""
		if !e.CreatedDate.IsZero() {
			created = e.CreatedDate.Format(models.DateLayout)
		}
		if err := cw.Write([]string{created, e.Title, strconv.FormatBool(e.Boosted)}); err != nil {
			return fmt.Errorf("ошибка записи строки CSV: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatDate(p models.Post) string {
	if p.PublishDate.IsZero() {
		return ""
	}
	return p.PublishDate.Format(models.DateLayout)
}

func formatMetric(p models.Post, metric string) string {
	v, ok := p.Metric(metric)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func flagLabel(level models.FlagLevel) string {
	switch level {
	case models.FlagAboveAverage:
		return flagLabelAbove
	case models.FlagBelowAverage:
		return flagLabelBelow
	default:
		return ""
	}
}
