package models

import "encoding/json"

// LoadResult содержит результат загрузки одного файла
type LoadResult struct {
	FileName   string        `json:"fileName"`
	Kind       TableKind     `json:"kind"`
	Rows       int           `json:"rows"`
	Warnings   []*ParseError `json:"-"`
	Duplicates []string      `json:"duplicates,omitempty"`

	Posts   []Post               `json:"-"`
	Metrics *MetricsTable        `json:"-"`
	Boosted []BoostedConfigEntry `json:"-"`
}

// MarshalJSON добавляет тексты предупреждений в ответ API
func (r LoadResult) MarshalJSON() ([]byte, error) {
	type alias LoadResult
	warnings := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		warnings = append(warnings, w.Message())
	}
	return json.Marshal(struct {
		alias
		Warnings []string `json:"warnings"`
	}{alias: alias(r), Warnings: warnings})
}

// Apply заменяет соответствующую таблицу в наборе таблиц сессии
func (r *LoadResult) Apply(t *Tables) {
	switch r.Kind {
	case TablePosts:
		t.Posts = r.Posts
		t.PostsLoaded = true
	case TableMetrics:
		t.Metrics = r.Metrics
	case TableBoostedConfig:
		t.Boosted = r.Boosted
	}
}
