package transform

import (
	"sort"
	"time"

	"github.com/LilVoxy/linkedin_analytics/ETL/models"
)

// WeekdayEngagement рассчитывает средний уровень вовлеченности по дням недели.
// Дни без публикаций пропускаются, результат отсортирован по убыванию вовлеченности.
func WeekdayEngagement(posts []models.Post) []models.WeekdayEngagement {
	var sums [7]float64
	var counts [7]int

	for _, p := range posts {
		if p.PublishDate.IsZero() {
			continue
		}
		v, ok := p.Metric(models.MetricEngagementRate)
		if !ok {
			continue
		}
		day := p.PublishDate.Weekday()
		sums[day] += v
		counts[day]++
	}

	result := make([]models.WeekdayEngagement, 0, 7)
	for day := time.Sunday; day <= time.Saturday; day++ {
		if counts[day] == 0 {
			continue
		}
		result = append(result, models.WeekdayEngagement{
			Weekday:        day.String(),
			EngagementRate: sums[day] / float64(counts[day]),
			Posts:          counts[day],
		})
	}

	// При равенстве сохраняется порядок дней недели
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].EngagementRate > result[j].EngagementRate
	})
	return result
}
