package transform

import (
	"sort"

	"github.com/LilVoxy/linkedin_analytics/ETL/models"
)

// ComputeBenchmarks рассчитывает среднее и медиану каждой отслеживаемой метрики.
// Учитываются только публикации, у которых есть значение метрики.
// Пустая выборка дает пустой результат.
func ComputeBenchmarks(subset []models.Post, tracked []string) models.BenchmarkResult {
	result := models.BenchmarkResult{}
	if len(subset) == 0 {
		return result
	}

	for _, metric := range tracked {
		if _, done := result.Metrics[metric]; done {
			continue
		}

		values := make([]float64, 0, len(subset))
		for _, p := range subset {
			if v, ok := p.Metric(metric); ok {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}

		if result.Metrics == nil {
			result.Metrics = make(map[string]models.MetricBenchmark, len(tracked))
		}
		result.Metrics[metric] = models.MetricBenchmark{
			Mean:   mean(values),
			Median: median(values),
			Count:  len(values),
		}
		result.Order = append(result.Order, metric)
	}

	return result
}

// PostFlags сравнивает метрики одной публикации со средним: выше среднего, ниже среднего,
// равенство не отмечается. Порядок флагов совпадает с порядком бенчмарков.
func PostFlags(p models.Post, benchmarks models.BenchmarkResult) []models.Flag {
	var flags []models.Flag
	for _, metric := range benchmarks.Order {
		v, ok := p.Metric(metric)
		if !ok {
			continue
		}
		avg := benchmarks.Metrics[metric].Mean

		switch {
		case v > avg:
			flags = append(flags, models.Flag{Metric: metric, Level: models.FlagAboveAverage})
		case v < avg:
			flags = append(flags, models.Flag{Metric: metric, Level: models.FlagBelowAverage})
		}
	}
	return flags
}

// FlagPosts возвращает флаги по ключу публикации. Публикации без флагов в результат не попадают.
// Публикации с одинаковым заголовком делят ключ, остается флаг первой из них;
// для построчных флагов используется FlagEach.
func FlagPosts(subset []models.Post, benchmarks models.BenchmarkResult) map[string][]models.Flag {
	flags := make(map[string][]models.Flag)
	if benchmarks.Empty() {
		return flags
	}

	for _, p := range subset {
		key := p.Key()
		for _, f := range PostFlags(p, benchmarks) {
			if hasFlag(flags[key], f.Metric) {
				continue
			}
			flags[key] = append(flags[key], f)
		}
	}
	return flags
}

// FlagEach возвращает флаги каждой публикации в порядке subset
func FlagEach(subset []models.Post, benchmarks models.BenchmarkResult) [][]models.Flag {
	flags := make([][]models.Flag, len(subset))
	for i, p := range subset {
		flags[i] = PostFlags(p, benchmarks)
		if flags[i] == nil {
			flags[i] = []models.Flag{}
		}
	}
	return flags
}

func hasFlag(flags []models.Flag, metric string) bool {
	for _, f := range flags {
		if f.Metric == metric {
			return true
		}
	}
	return false
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
