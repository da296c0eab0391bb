package extractors

import (
	"strings"

	"github.com/LilVoxy/linkedin_analytics/ETL/models"
	"github.com/LilVoxy/linkedin_analytics/ETL/utils"
)

// BoostedExtractor разбирает файл конфигурации продвигаемых публикаций
type BoostedExtractor struct {
	options Options
	logger  *utils.ETLLogger
}

// NewBoostedExtractor создает новый экземпляр BoostedExtractor
func NewBoostedExtractor(options Options, logger *utils.ETLLogger) *BoostedExtractor {
	return &BoostedExtractor{
		options: options,
		logger:  logger,
	}
}

// ExtractBoosted разбирает строки конфигурации. Повторы заголовков сохраняются как есть.
func (e *BoostedExtractor) ExtractBoosted(header []string, rows [][]string, firstLine int) *models.LoadResult {
	idx := newColumnIndex(header)
	result := &models.LoadResult{}

	titleCol, _ := idx.lookup("Post Title")
	boostedCol, _ := idx.lookup(ColumnBoosted)
	dateCol, hasDate := idx.lookup(ColumnCreatedDate)

	entries := make([]models.BoostedConfigEntry, 0, len(rows))
	for i, record := range rows {
		line := firstLine + i
		if isEmptyRecord(record) {
			continue
		}

		title := strings.TrimSpace(cell(record, titleCol))
		if title == "" {
			result.Warnings = append(result.Warnings, newParseError(line, "Post Title", "", "row", errEmptyValue))
			continue
		}

		raw := cell(record, boostedCol)
		boosted, err := parseBool(raw)
		if err != nil {
			result.Warnings = append(result.Warnings, newParseError(line, ColumnBoosted, raw, "row", err))
			continue
		}

		entry := models.BoostedConfigEntry{Title: title, Boosted: boosted}
		if hasDate {
			// Дата создания только справочная, ошибка не отбрасывает строку
			if d, err := parseDate(cell(record, dateCol), e.options.DateLayouts); err == nil {
				entry.CreatedDate = d
			}
		}
		entries = append(entries, entry)
	}

	result.Boosted = entries
	result.Rows = len(entries)
	return result
}
