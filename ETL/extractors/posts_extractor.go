package extractors

import (
	"strings"

	"github.com/LilVoxy/linkedin_analytics/ETL/config"
	"github.com/LilVoxy/linkedin_analytics/ETL/models"
	"github.com/LilVoxy/linkedin_analytics/ETL/utils"
)

// PostsExtractor разбирает выгрузку публикаций ("All posts")
type PostsExtractor struct {
	options Options
	logger  *utils.ETLLogger
}

// NewPostsExtractor создает новый экземпляр PostsExtractor
func NewPostsExtractor(options Options, logger *utils.ETLLogger) *PostsExtractor {
	return &PostsExtractor{
		options: options,
		logger:  logger,
	}
}

// ExtractPosts разбирает строки публикаций
func (e *PostsExtractor) ExtractPosts(header []string, rows [][]string, firstLine int) *models.LoadResult {
	idx := newColumnIndex(header)
	result := &models.LoadResult{}

	titleCol, _ := idx.lookup(ColumnPostTitle)
	linkCol, _ := idx.lookup(ColumnPostLink)
	typeCol, hasType := idx.lookup(ColumnPostType)
	dateCol, hasDate := idx.lookup(ColumnCreatedDate)
	tagsCol, hasTags := idx.lookup(ColumnHashtags)
	if !hasType {
		typeCol = -1
	}
	if !hasTags {
		tagsCol = -1
	}

	// Числовые колонки, присутствующие в файле
	type metricColumn struct {
		index  int
		header string
		metric string
	}
	var metricCols []metricColumn
	seenMetric := make(map[string]bool)
	for _, mc := range postMetricColumns {
		if i, ok := idx.lookup(mc.header); ok && !seenMetric[mc.metric] {
			metricCols = append(metricCols, metricColumn{index: i, header: mc.header, metric: mc.metric})
			seenMetric[mc.metric] = true
		}
	}

	posts := make([]models.Post, 0, len(rows))
	for i, record := range rows {
		line := firstLine + i
		if isEmptyRecord(record) {
			continue
		}

		post := models.Post{
			Title:   strings.TrimSpace(cell(record, titleCol)),
			Link:    strings.TrimSpace(cell(record, linkCol)),
			Type:    strings.TrimSpace(cell(record, typeCol)),
			Metrics: make(map[string]float64, len(metricCols)),
		}

		if hasDate {
			raw := cell(record, dateCol)
			date, err := parseDate(raw, e.options.DateLayouts)
			if err != nil {
				result.Warnings = append(result.Warnings, newParseError(line, ColumnCreatedDate, raw, "row", err))
				continue
			}
			post.PublishDate = date
		}

		skipRow := false
		for _, mc := range metricCols {
			raw := cell(record, mc.index)
			if isBlank(raw) {
				continue
			}
			v, err := parseNumber(raw)
			if err != nil {
				if e.options.OnBadNumber == config.OnBadNumberSkipRow {
					result.Warnings = append(result.Warnings, newParseError(line, mc.header, raw, "row", err))
					skipRow = true
					break
				}
				result.Warnings = append(result.Warnings, newParseError(line, mc.header, raw, "cell", err))
				continue
			}
			post.Metrics[mc.metric] = v
		}
		if skipRow {
			continue
		}

		post.Hashtags = extractHashtags(cell(record, tagsCol), post.Title)
		posts = append(posts, post)
	}

	normalizePercentages(posts, e.options.PercentMetrics)

	result.Posts = posts
	result.Rows = len(posts)
	return result
}

// normalizePercentages переводит доли в проценты, если все значения метрики не превышают 1
func normalizePercentages(posts []models.Post, metrics []string) {
	for _, metric := range metrics {
		present := false
		fractional := true
		for _, p := range posts {
			v, ok := p.Metrics[metric]
			if !ok {
				continue
			}
			present = true
			if v > 1 {
				fractional = false
				break
			}
		}
		if !present || !fractional {
			continue
		}
		for _, p := range posts {
			if v, ok := p.Metrics[metric]; ok {
				p.Metrics[metric] = v * 100
			}
		}
	}
}
