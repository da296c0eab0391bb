package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout формат дат в параметрах фильтра и в ответах API
const DateLayout = "2006-01-02"

// Bucket определяет временной интервал агрегации трендов
type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

// ParseBucket разбирает интервал агрегации. Пустая строка означает день.
func ParseBucket(s string) (Bucket, error) {
	switch Bucket(strings.ToLower(strings.TrimSpace(s))) {
	case "", BucketDay:
		return BucketDay, nil
	case BucketWeek:
		return BucketWeek, nil
	case BucketMonth:
		return BucketMonth, nil
	default:
		return "", fmt.Errorf("%w: неизвестный интервал агрегации %q", ErrInvalidCriteria, s)
	}
}

// DateRange задает включительный диапазон календарных дат
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains проверяет, попадает ли дата в диапазон (сравнение по календарным дням)
func (r DateRange) Contains(t time.Time) bool {
	d := TruncateDay(t)
	return !d.Before(TruncateDay(r.Start)) && !d.After(TruncateDay(r.End))
}

// FilterCriteria содержит параметры фильтрации, заданные пользователем
type FilterCriteria struct {
	DateRange *DateRange `json:"dateRange,omitempty"`
	Hashtags  []string   `json:"hashtags,omitempty"`
	Bucket    Bucket     `json:"bucket,omitempty"`
}

// ParseCriteria строит критерии фильтра из строковых параметров запроса.
// Диапазон дат задается либо обеими границами, либо не задается вовсе.
func ParseCriteria(start, end string, hashtags []string, bucket string) (FilterCriteria, error) {
	var criteria FilterCriteria

	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	switch {
	case start == "" && end == "":
	case start == "" || end == "":
		return criteria, fmt.Errorf("%w: диапазон дат требует обе границы", ErrInvalidCriteria)
	default:
		s, err := time.Parse(DateLayout, start)
		if err != nil {
			return criteria, fmt.Errorf("%w: неверная дата начала %q", ErrInvalidCriteria, start)
		}
		e, err := time.Parse(DateLayout, end)
		if err != nil {
			return criteria, fmt.Errorf("%w: неверная дата окончания %q", ErrInvalidCriteria, end)
		}
		if s.After(e) {
			return criteria, fmt.Errorf("%w: дата начала позже даты окончания", ErrInvalidCriteria)
		}
		criteria.DateRange = &DateRange{Start: s, End: e}
	}

	for _, h := range hashtags {
		if NormalizeHashtag(h) != "" {
			criteria.Hashtags = append(criteria.Hashtags, strings.TrimSpace(h))
		}
	}

	b, err := ParseBucket(bucket)
	if err != nil {
		return criteria, err
	}
	criteria.Bucket = b

	return criteria, nil
}

// TruncateDay отбрасывает время суток, сохраняя календарную дату
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
