package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCriteria(t *testing.T) {
	criteria, err := ParseCriteria(" 2024-01-01 ", "2024-01-31", []string{"#Go", " ", "#"}, "WEEK")
	require.NoError(t, err)
	require.NotNil(t, criteria.DateRange)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), criteria.DateRange.End)
	assert.Equal(t, []string{"#Go"}, criteria.Hashtags)
	assert.Equal(t, BucketWeek, criteria.Bucket)

	criteria, err = ParseCriteria("", "", nil, "")
	require.NoError(t, err)
	assert.Nil(t, criteria.DateRange)
	assert.Equal(t, BucketDay, criteria.Bucket)

	invalid := [][4]string{
		{"2024-01-01", "", "", ""},
		{"2024-13-01", "2024-12-01", "", ""},
		{"2024-02-01", "2024-01-01", "", ""},
		{"", "", "", "quarter"},
	}
	for _, in := range invalid {
		_, err := ParseCriteria(in[0], in[1], nil, in[3])
		assert.True(t, errors.Is(err, ErrInvalidCriteria), "%v: %v", in, err)
	}
}

func TestDateRangeContainsIgnoresTimeOfDay(t *testing.T) {
	r := DateRange{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	assert.True(t, r.Contains(time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
}

func TestNormalization(t *testing.T) {
	assert.Equal(t, NormalizeTitle("  Été   en  VILLE "), NormalizeTitle("été en ville"))
	assert.Equal(t, "golang", NormalizeHashtag(" ##GoLang "))
	assert.Empty(t, NormalizeHashtag("#"))

	p := Post{Hashtags: []string{"#DevOps"}}
	assert.True(t, p.HasHashtag("devops"))
	assert.False(t, p.HasHashtag(""))
}

func TestPostCloneIsDeep(t *testing.T) {
	p := Post{Hashtags: []string{"#a"}, Metrics: map[string]float64{MetricLikes: 1}}
	c := p.Clone()
	c.Hashtags[0] = "#b"
	c.Metrics[MetricLikes] = 2

	assert.Equal(t, "#a", p.Hashtags[0])
	assert.Equal(t, 1.0, p.Metrics[MetricLikes])
}

func TestTableKindJSON(t *testing.T) {
	for _, kind := range []TableKind{TablePosts, TableMetrics, TableBoostedConfig, TableUnrecognized} {
		data, err := json.Marshal(kind)
		require.NoError(t, err)

		var got TableKind
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, kind, got)
	}
}

func TestLoadResultJSONIncludesWarnings(t *testing.T) {
	result := LoadResult{
		FileName: "posts.csv",
		Kind:     TablePosts,
		Rows:     1,
		Warnings: []*ParseError{{Row: 3, Column: "Likes", Value: "abc", Skipped: "cell", Err: errors.New("не число")}},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"fileName": "posts.csv",
		"kind": "posts",
		"rows": 1,
		"warnings": ["строка 3, колонка \"Likes\": не удалось разобрать \"abc\": не число"]
	}`, string(data))
}

func TestFormatErrorMessage(t *testing.T) {
	err := &FormatError{FileName: "x.csv", Kind: TablePosts, Missing: []string{"Post title"}}
	assert.Contains(t, err.Error(), "Post title")

	err = &FormatError{FileName: "x.csv", Reason: "файл пуст"}
	assert.Contains(t, err.Error(), "файл пуст")
}
