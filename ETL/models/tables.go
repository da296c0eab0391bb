package models

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Канонические имена метрик публикаций
const (
	MetricImpressions    = "Impressions"
	MetricClicks         = "Clicks"
	MetricCTR            = "CTR"
	MetricLikes          = "Likes"
	MetricComments       = "Comments"
	MetricReposts        = "Reposts"
	MetricFollows        = "Follows"
	MetricEngagementRate = "Engagement Rate"
)

// TableKind определяет тип загруженной таблицы
type TableKind int

const (
	TableUnrecognized TableKind = iota
	TablePosts
	TableMetrics
	TableBoostedConfig
)

// String возвращает строковое представление типа таблицы
func (k TableKind) String() string {
	switch k {
	case TablePosts:
		return "posts"
	case TableMetrics:
		return "metrics"
	case TableBoostedConfig:
		return "boosted-config"
	default:
		return "unrecognized"
	}
}

// MarshalText позволяет сериализовать тип таблицы в JSON строкой
func (k TableKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText разбирает строковое представление типа таблицы
func (k *TableKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "posts":
		*k = TablePosts
	case "metrics":
		*k = TableMetrics
	case "boosted-config":
		*k = TableBoostedConfig
	default:
		*k = TableUnrecognized
	}
	return nil
}

// Post представляет публикацию LinkedIn
type Post struct {
	Title       string             `json:"title"`
	Link        string             `json:"link"`
	Type        string             `json:"type,omitempty"`
	PublishDate time.Time          `json:"publishDate"`
	Hashtags    []string           `json:"hashtags"`
	Boosted     bool               `json:"boosted"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Key возвращает ключ идентичности публикации (нормализованный заголовок)
func (p Post) Key() string {
	return NormalizeTitle(p.Title)
}

// Metric возвращает значение метрики, если оно есть
func (p Post) Metric(name string) (float64, bool) {
	v, ok := p.Metrics[name]
	return v, ok
}

// HasHashtag проверяет наличие хэштега без учета регистра и символа "#"
func (p Post) HasHashtag(tag string) bool {
	want := NormalizeHashtag(tag)
	if want == "" {
		return false
	}
	for _, h := range p.Hashtags {
		if NormalizeHashtag(h) == want {
			return true
		}
	}
	return false
}

// Clone возвращает глубокую копию публикации
func (p Post) Clone() Post {
	c := p
	if p.Hashtags != nil {
		c.Hashtags = append([]string(nil), p.Hashtags...)
	}
	if p.Metrics != nil {
		c.Metrics = make(map[string]float64, len(p.Metrics))
		for k, v := range p.Metrics {
			c.Metrics[k] = v
		}
	}
	return c
}

// DailyMetric представляет метрики страницы за один календарный день
type DailyMetric struct {
	Date   time.Time          `json:"date"`
	Values map[string]float64 `json:"values"`
}

// MetricsTable содержит ежедневные метрики. Даты уникальны в пределах таблицы.
type MetricsTable struct {
	Columns []string      `json:"columns"`
	Rows    []DailyMetric `json:"rows"`
}

// BoostedConfigEntry представляет строку конфигурации продвигаемых публикаций
type BoostedConfigEntry struct {
	CreatedDate time.Time `json:"createdDate,omitempty"`
	Title       string    `json:"title"`
	Boosted     bool      `json:"boosted"`
}

// Tables содержит все загруженные таблицы одной сессии
type Tables struct {
	Posts   []Post               `json:"posts,omitempty"`
	Metrics *MetricsTable        `json:"metrics,omitempty"`
	Boosted []BoostedConfigEntry `json:"boosted,omitempty"`

	// PostsLoaded отличает пустой файл публикаций от отсутствующего
	PostsLoaded bool `json:"postsLoaded"`
}

// NormalizeTitle приводит заголовок к ключу сравнения:
// обрезка пробелов, схлопывание внутренних пробелов и свертка регистра
func NormalizeTitle(title string) string {
	collapsed := strings.Join(strings.Fields(title), " ")
	return cases.Fold().String(collapsed)
}

// NormalizeHashtag приводит хэштег к виду без "#" и без учета регистра
func NormalizeHashtag(tag string) string {
	t := strings.TrimLeft(strings.TrimSpace(tag), "#")
	return cases.Fold().String(strings.TrimSpace(t))
}
