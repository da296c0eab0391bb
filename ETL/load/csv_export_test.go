package load

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/linkedin_analytics/ETL/models"
)

func TestWritePostsCSV(t *testing.T) {
	posts := []models.Post{
		{
			Title:       "Launch, part 1",
			Link:        "https://lnkd.in/a",
			PublishDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			Hashtags:    []string{"#go", "#ai"},
			Boosted:     true,
			Metrics:     map[string]float64{models.MetricLikes: 12, models.MetricCTR: 2.5},
		},
		{Title: "Plain", Metrics: map[string]float64{models.MetricLikes: 4}},
	}
	flags := [][]models.Flag{
		{{Metric: models.MetricLikes, Level: models.FlagAboveAverage}},
		{{Metric: models.MetricLikes, Level: models.FlagBelowAverage}},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePostsCSV(&buf, posts, flags, []string{models.MetricLikes}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	header := records[0]
	assert.Equal(t, []string{"Created Date", "Post Title", "Post Link", "Post Type", "Hashtags", "Boosted"}, header[:6])
	assert.Contains(t, header, "Likes Flag")
	assert.NotContains(t, header, "CTR Flag")

	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("column %q not found", name)
		return -1
	}

	assert.Equal(t, "2024-01-02", records[1][col("Created Date")])
	assert.Equal(t, "Launch, part 1", records[1][col("Post Title")])
	assert.Equal(t, "#go #ai", records[1][col("Hashtags")])
	assert.Equal(t, "true", records[1][col("Boosted")])
	assert.Equal(t, "2.5", records[1][col("CTR")])
	assert.Equal(t, "Above Avg", records[1][col("Likes Flag")])
	assert.Equal(t, "", records[1][col("Impressions")])

	assert.Equal(t, "", records[2][col("Created Date")])
	assert.Equal(t, "Below Avg", records[2][col("Likes Flag")])
}

func TestWriteBoostedConfigCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteBoostedConfigCSV(&buf, []models.BoostedConfigEntry{
		{CreatedDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Title: "A", Boosted: true},
		{Title: "B"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Created Date,Post Title,Boosted\n2024-01-01,A,true\n,B,false\n", buf.String())
}
