package cmd

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/linkedin_analytics/ETL/models"
)

const (
	postsCSV = "Post title,Post link,Created date,Likes,Engagement rate\n" +
		"Alpha #go,l1,2024-01-01,10,2\n" +
		"Beta #rust,l2,2024-01-02,30,4\n"
	metricsCSV = "Date,Impressions (total),Engagement rate (total)\n" +
		"2024-01-01,100,2\n" +
		"2024-01-02,300,4\n"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func TestReportJSON(t *testing.T) {
	dir := t.TempDir()
	posts := writeFile(t, dir, "posts.csv", postsCSV)
	metrics := writeFile(t, dir, "metrics.csv", metricsCSV)
	broken := writeFile(t, dir, "broken.csv", "foo,bar\n1,2\n")
	export := filepath.Join(dir, "export.csv")

	out, err := execute(t, "report", posts, metrics, broken, "--output", "json", "--hashtag", "#rust", "--export", export)
	require.NoError(t, err)

	var dashboard models.Dashboard
	require.NoError(t, json.Unmarshal([]byte(out), &dashboard))
	require.Len(t, dashboard.Posts, 1)
	assert.Equal(t, "Beta #rust", dashboard.Posts[0].Title)
	assert.Equal(t, []string{"Impressions (total)", "Engagement rate (total)"}, dashboard.MetricColumns)
	assert.Len(t, dashboard.Trends, 2)

	f, err := os.Open(export)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestReportText(t *testing.T) {
	dir := t.TempDir()
	posts := writeFile(t, dir, "posts.csv", postsCSV)
	metrics := writeFile(t, dir, "metrics.csv", metricsCSV)

	out, err := execute(t, "report", posts, metrics, "--bucket", "week")
	require.NoError(t, err)

	assert.Contains(t, out, "Публикаций: 2")
	assert.Contains(t, out, "Бенчмарки")
	assert.Contains(t, out, "Likes")
	assert.Contains(t, out, "2024-W01")
	assert.Contains(t, out, "Вовлеченность по дням недели")
}

func TestReportRejectsInvalidFlags(t *testing.T) {
	dir := t.TempDir()
	posts := writeFile(t, dir, "posts.csv", postsCSV)

	_, err := execute(t, "report", posts, "--output", "xml")
	assert.Error(t, err)

	_, err = execute(t, "report", posts, "--bucket", "year")
	assert.ErrorIs(t, err, models.ErrInvalidCriteria)

	_, err = execute(t, "report")
	assert.Error(t, err)
}

func TestBoostedTemplate(t *testing.T) {
	dir := t.TempDir()
	posts := writeFile(t, dir, "posts.csv", postsCSV)
	existing := writeFile(t, dir, "old_config.csv", "Post Title,Boosted\nbeta #RUST,true\n")
	output := filepath.Join(dir, "boosted_config.csv")

	_, err := execute(t, "boosted-template", posts, "--existing", existing, "-o", output)
	require.NoError(t, err)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"Created Date", "Post Title", "Boosted"},
		{"2024-01-01", "Alpha #go", "false"},
		{"2024-01-02", "Beta #rust", "true"},
	}, records)
}

func TestBoostedTemplateRequiresPostsFile(t *testing.T) {
	dir := t.TempDir()
	metrics := writeFile(t, dir, "metrics.csv", metricsCSV)

	_, err := execute(t, "boosted-template", metrics, "-o", filepath.Join(dir, "out.csv"))
	assert.Error(t, err)
}
