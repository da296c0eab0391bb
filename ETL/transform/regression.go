package transform

import (
	"fmt"
	"math"
	"time"

	"github.com/LilVoxy/linkedin_analytics/ETL/models"
)

// RoundToThousandth округляет число до тысячных (3 знака после запятой)
func RoundToThousandth(value float64) float64 {
	return math.Round(value*1000) / 1000
}

// FitTrendLine рассчитывает линейную регрессию ряда метрики по интервалам.
// X - число дней от начала первого интервала, Y - агрегированное значение.
func FitTrendLine(metric string, buckets []models.TrendBucket) (*models.TrendLine, error) {
	var xs, ys []float64
	var origin time.Time
	for _, b := range buckets {
		v, ok := b.Values[metric]
		if !ok {
			continue
		}
		if len(xs) == 0 {
			origin = b.Start
		}
		xs = append(xs, b.Start.Sub(origin).Hours()/24)
		ys = append(ys, v)
	}

	if len(xs) < 2 {
		return nil, fmt.Errorf("для расчета линейной регрессии требуется минимум 2 точки, получено: %d", len(xs))
	}

	// Метод наименьших квадратов:
	// a = (n*sum(x*y) - sum(x)*sum(y)) / (n*sum(x^2) - (sum(x))^2)
	// b = (sum(y) - a*sum(x)) / n
	n := float64(len(xs))
	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumX2 += xs[i] * xs[i]
		sumY2 += ys[i] * ys[i]
	}

	denominator := n*sumX2 - sumX*sumX
	if math.Abs(denominator) < 1e-10 {
		return nil, fmt.Errorf("все X одинаковы, невозможно вычислить наклон")
	}
	a := (n*sumXY - sumX*sumY) / denominator
	b := (sumY - a*sumX) / n

	// Коэффициент корреляции Пирсона
	numerator := n*sumXY - sumX*sumY
	denominator = math.Sqrt((n*sumX2 - sumX*sumX) * (n*sumY2 - sumY*sumY))
	var r float64
	if math.Abs(denominator) >= 1e-10 {
		r = numerator / denominator
	}

	return &models.TrendLine{
		Metric:    metric,
		Slope:     RoundToThousandth(a),
		Intercept: RoundToThousandth(b),
		R:         RoundToThousandth(r),
		R2:        RoundToThousandth(r * r),
		Points:    len(xs),
	}, nil
}
