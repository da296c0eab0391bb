package extractors

import (
	"strings"

	"github.com/LilVoxy/linkedin_analytics/ETL/models"
)

// Заголовки колонок выгрузок LinkedIn
const (
	ColumnPostTitle   = "Post title"
	ColumnPostLink    = "Post link"
	ColumnPostType    = "Post type"
	ColumnCreatedDate = "Created date"
	ColumnHashtags    = "Hashtags"
	ColumnDate        = "Date"
	ColumnBoosted     = "Boosted"
)

// TableSchema описывает обязательные колонки таблицы определенного типа
type TableSchema struct {
	Kind     models.TableKind
	Required []string
}

// Schemas перечисляет схемы в порядке проверки.
// Конфигурация продвижения проверяется первой: ее заголовок тоже содержит "Post Title".
var Schemas = []TableSchema{
	{Kind: models.TableBoostedConfig, Required: []string{"Post Title", ColumnBoosted}},
	{Kind: models.TablePosts, Required: []string{ColumnPostTitle, ColumnPostLink}},
	{Kind: models.TableMetrics, Required: []string{ColumnDate}},
}

// postMetricColumns сопоставляет заголовки выгрузки публикаций с каноническими метриками
var postMetricColumns = []struct {
	header string
	metric string
}{
	{"Impressions", models.MetricImpressions},
	{"Clicks", models.MetricClicks},
	{"Click through rate (CTR)", models.MetricCTR},
	{"CTR", models.MetricCTR},
	{"Likes", models.MetricLikes},
	{"Comments", models.MetricComments},
	{"Reposts", models.MetricReposts},
	{"Follows", models.MetricFollows},
	{"Engagement rate", models.MetricEngagementRate},
}

// columnIndex сопоставляет нормализованный заголовок с номером колонки
type columnIndex map[string]int

func newColumnIndex(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		// При повторе заголовка используется первая колонка
		if _, exists := idx[key]; !exists {
			idx[key] = i
		}
	}
	return idx
}

func (c columnIndex) lookup(name string) (int, bool) {
	i, ok := c[normalizeHeader(name)]
	return i, ok
}

func (c columnIndex) missing(required []string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := c.lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// DetectTableKind определяет тип таблицы по строке заголовков
func DetectTableKind(header []string) models.TableKind {
	idx := newColumnIndex(header)
	for _, schema := range Schemas {
		if len(idx.missing(schema.Required)) == 0 {
			return schema.Kind
		}
	}
	return models.TableUnrecognized
}

// SchemaFor возвращает схему для типа таблицы
func SchemaFor(kind models.TableKind) (TableSchema, bool) {
	for _, schema := range Schemas {
		if schema.Kind == kind {
			return schema, true
		}
	}
	return TableSchema{}, false
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}
