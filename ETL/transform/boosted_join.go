package transform

import (
	"github.com/LilVoxy/linkedin_analytics/ETL/models"
)

// JoinBoosted сопоставляет публикации с конфигурацией продвижения по нормализованному заголовку.
// Возвращает копии публикаций, исходный срез не изменяется. Повторяющиеся заголовки
// в конфигурации объединяются логическим ИЛИ. Пустая конфигурация дает Boosted=false у всех.
func JoinBoosted(posts []models.Post, config []models.BoostedConfigEntry) []models.Post {
	boosted := boostedIndex(config)

	joined := make([]models.Post, len(posts))
	for i, p := range posts {
		c := p.Clone()
		c.Boosted = boosted[c.Key()]
		joined[i] = c
	}
	return joined
}

// JoinMetrics оставляет ежедневные метрики без изменений: они агрегируются отдельно от публикаций
func JoinMetrics(metrics *models.MetricsTable) *models.MetricsTable {
	return metrics
}

// BoostedTemplate формирует редактируемую таблицу продвижения: по строке на каждую публикацию
// с текущей отметкой из конфигурации
func BoostedTemplate(posts []models.Post, config []models.BoostedConfigEntry) []models.BoostedConfigEntry {
	boosted := boostedIndex(config)

	entries := make([]models.BoostedConfigEntry, 0, len(posts))
	seen := make(map[string]bool, len(posts))
	for _, p := range posts {
		key := p.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		entries = append(entries, models.BoostedConfigEntry{
			CreatedDate: p.PublishDate,
			Title:       p.Title,
			Boosted:     boosted[key],
		})
	}
	return entries
}

func boostedIndex(config []models.BoostedConfigEntry) map[string]bool {
	index := make(map[string]bool, len(config))
	for _, entry := range config {
		key := models.NormalizeTitle(entry.Title)
		index[key] = index[key] || entry.Boosted
	}
	return index
}
