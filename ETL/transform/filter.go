package transform

import (
	"sort"
	"strings"

	"github.com/LilVoxy/linkedin_analytics/ETL/models"
)

// ApplyFilters отбирает публикации по диапазону дат и хэштегам (условия объединяются через И).
// Порядок публикаций сохраняется, исходный срез не изменяется.
func ApplyFilters(posts []models.Post, criteria models.FilterCriteria) []models.Post {
	subset := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if criteria.DateRange != nil && !criteria.DateRange.Contains(p.PublishDate) {
			continue
		}
		if !matchesHashtags(p, criteria.Hashtags) {
			continue
		}
		subset = append(subset, p)
	}
	return subset
}

// matchesHashtags проверяет, что у публикации есть хотя бы один из выбранных хэштегов
func matchesHashtags(p models.Post, tags []string) bool {
	active := false
	for _, tag := range tags {
		if models.NormalizeHashtag(tag) == "" {
			continue
		}
		active = true
		if p.HasHashtag(tag) {
			return true
		}
	}
	return !active
}

// FilterMetrics применяет диапазон дат к ежедневным метрикам
func FilterMetrics(table *models.MetricsTable, criteria models.FilterCriteria) *models.MetricsTable {
	if table == nil {
		return nil
	}
	if criteria.DateRange == nil {
		return table
	}

	filtered := &models.MetricsTable{Columns: table.Columns}
	for _, row := range table.Rows {
		if criteria.DateRange.Contains(row.Date) {
			filtered.Rows = append(filtered.Rows, row)
		}
	}
	return filtered
}

// AllHashtags возвращает варианты фильтра по хэштегам, отсортированные без учета регистра
func AllHashtags(posts []models.Post) []string {
	seen := make(map[string]bool)
	tags := []string{}
	for _, p := range posts {
		for _, h := range p.Hashtags {
			key := models.NormalizeHashtag(h)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			tags = append(tags, h)
		}
	}
	sort.SliceStable(tags, func(i, j int) bool {
		return strings.ToLower(tags[i]) < strings.ToLower(tags[j])
	})
	return tags
}

// DateBounds возвращает минимальную и максимальную даты публикаций или nil, если дат нет
func DateBounds(posts []models.Post) *models.DateRange {
	var bounds *models.DateRange
	for _, p := range posts {
		if p.PublishDate.IsZero() {
			continue
		}
		if bounds == nil {
			bounds = &models.DateRange{Start: p.PublishDate, End: p.PublishDate}
			continue
		}
		if p.PublishDate.Before(bounds.Start) {
			bounds.Start = p.PublishDate
		}
		if p.PublishDate.After(bounds.End) {
			bounds.End = p.PublishDate
		}
	}
	return bounds
}
