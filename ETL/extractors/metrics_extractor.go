package extractors

import (
	"sort"
	"strings"

	"github.com/LilVoxy/linkedin_analytics/ETL/config"
	"github.com/LilVoxy/linkedin_analytics/ETL/models"
	"github.com/LilVoxy/linkedin_analytics/ETL/utils"
)

// MetricsExtractor разбирает выгрузку ежедневных метрик страницы
type MetricsExtractor struct {
	options Options
	logger  *utils.ETLLogger
}

// NewMetricsExtractor создает новый экземпляр MetricsExtractor
func NewMetricsExtractor(options Options, logger *utils.ETLLogger) *MetricsExtractor {
	return &MetricsExtractor{
		options: options,
		logger:  logger,
	}
}

// ExtractMetrics разбирает строки метрик. Все колонки, кроме Date, считаются числовыми.
// При повторе даты сохраняется последняя строка, повторы перечисляются в Duplicates.
func (e *MetricsExtractor) ExtractMetrics(header []string, rows [][]string, firstLine int) *models.LoadResult {
	idx := newColumnIndex(header)
	result := &models.LoadResult{}

	dateCol, _ := idx.lookup(ColumnDate)
	dateKey := normalizeHeader(ColumnDate)

	type valueColumn struct {
		index int
		name  string
	}
	var columns []valueColumn
	seen := make(map[string]bool)
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		key := normalizeHeader(name)
		if key == "" || key == dateKey || seen[key] {
			continue
		}
		seen[key] = true
		columns = append(columns, valueColumn{index: i, name: name})
	}

	table := &models.MetricsTable{Columns: make([]string, 0, len(columns))}
	for _, c := range columns {
		table.Columns = append(table.Columns, c.name)
	}

	byDate := make(map[string]int)
	duplicates := make(map[string]bool)

	for i, record := range rows {
		line := firstLine + i
		if isEmptyRecord(record) {
			continue
		}

		raw := cell(record, dateCol)
		date, err := parseDate(raw, e.options.DateLayouts)
		if err != nil {
			result.Warnings = append(result.Warnings, newParseError(line, ColumnDate, raw, "row", err))
			continue
		}

		row := models.DailyMetric{Date: date, Values: make(map[string]float64, len(columns))}
		skipRow := false
		for _, c := range columns {
			v := cell(record, c.index)
			if isBlank(v) {
				continue
			}
			f, err := parseNumber(v)
			if err != nil {
				if e.options.OnBadNumber == config.OnBadNumberSkipRow {
					result.Warnings = append(result.Warnings, newParseError(line, c.name, v, "row", err))
					skipRow = true
					break
				}
				result.Warnings = append(result.Warnings, newParseError(line, c.name, v, "cell", err))
				continue
			}
			row.Values[c.name] = f
		}
		if skipRow {
			continue
		}

		key := date.Format(models.DateLayout)
		if pos, ok := byDate[key]; ok {
			table.Rows[pos] = row
			duplicates[key] = true
			continue
		}
		byDate[key] = len(table.Rows)
		table.Rows = append(table.Rows, row)
	}

	for d := range duplicates {
		result.Duplicates = append(result.Duplicates, d)
	}
	sort.Strings(result.Duplicates)
	if len(result.Duplicates) > 0 {
		e.logger.Warn("Повторяющиеся даты в метриках, использована последняя строка: %s",
			strings.Join(result.Duplicates, ", "))
	}

	result.Metrics = table
	result.Rows = len(table.Rows)
	return result
}
