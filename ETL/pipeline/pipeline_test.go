package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/linkedin_analytics/ETL/config"
	"github.com/LilVoxy/linkedin_analytics/ETL/load"
	"github.com/LilVoxy/linkedin_analytics/ETL/models"
	"github.com/LilVoxy/linkedin_analytics/ETL/utils"
	"github.com/LilVoxy/linkedin_analytics/metrics"
	"github.com/LilVoxy/linkedin_analytics/session"
)

const postsCSV = "Post title,Post link,Created date,Likes\nA,l1,2024-01-01,10\nB,l2,2024-01-05,30\n"

func newTestPipeline(t *testing.T, manager *load.LoadManager) (*Pipeline, *metrics.Metrics, *session.Session) {
	t.Helper()
	logger := utils.NewNopLogger()
	m := metrics.NewMetrics("test")
	p := NewPipeline(config.DefaultConfig(), manager, m, logger)
	store := session.NewStore(time.Hour, logger)
	return p, m, store.Create()
}

func TestIngestAndCompute(t *testing.T) {
	p, m, sess := newTestPipeline(t, nil)
	ctx := context.Background()

	result, err := p.Ingest(ctx, sess, "posts.csv", []byte(postsCSV))
	require.NoError(t, err)
	assert.Equal(t, models.TablePosts, result.Kind)
	assert.Equal(t, 2, result.Rows)

	_, err = p.Ingest(ctx, sess, "boosted_config.csv", []byte("Post Title,Boosted\na,true\n"))
	require.NoError(t, err)

	criteria, err := models.ParseCriteria("2024-01-01", "2024-01-01", nil, "")
	require.NoError(t, err)

	dashboard, err := p.ComputeSession(TriggerHTTP, sess, criteria)
	require.NoError(t, err)
	require.Len(t, dashboard.Posts, 1)
	assert.True(t, dashboard.Posts[0].Boosted)
	assert.Equal(t, 10.0, dashboard.Benchmarks.Metrics[models.MetricLikes].Mean)
	assert.Empty(t, dashboard.Flags)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FileLoads.WithLabelValues("posts", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Recomputes.WithLabelValues(TriggerHTTP, "ok")))
}

func TestIngestFormatErrorKeepsTables(t *testing.T) {
	p, m, sess := newTestPipeline(t, nil)
	ctx := context.Background()

	_, err := p.Ingest(ctx, sess, "posts.csv", []byte(postsCSV))
	require.NoError(t, err)

	_, err = p.Ingest(ctx, sess, "posts-broken.csv", []byte("Post title,Likes\nC,1\n"))
	var fe *models.FormatError
	require.True(t, errors.As(err, &fe))

	tables := sess.Tables()
	require.Len(t, tables.Posts, 2)
	assert.Equal(t, "A", tables.Posts[0].Title)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FileLoads.WithLabelValues("unrecognized", "error")))
}

func TestIngestKindSkipsDetection(t *testing.T) {
	p, _, sess := newTestPipeline(t, nil)
	ctx := context.Background()
	data := []byte("Post title,Post link,Boosted\nA,l1,true\n")

	result, err := p.IngestKind(ctx, sess, "posts.csv", data, models.TablePosts)
	require.NoError(t, err)
	assert.Equal(t, models.TablePosts, result.Kind)
	assert.True(t, sess.Tables().PostsLoaded)
	assert.Empty(t, sess.Tables().Boosted)

	_, err = p.IngestKind(ctx, sess, "metrics.csv", []byte("Date,Impressions\n2024-01-01,5\n"), models.TableBoostedConfig)
	var formatErr *models.FormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, models.TableBoostedConfig, formatErr.Kind)
	assert.Nil(t, sess.Tables().Metrics)
}

func TestIngestCountsWarnings(t *testing.T) {
	p, m, sess := newTestPipeline(t, nil)

	_, err := p.Ingest(context.Background(), sess, "metrics.csv", []byte("Date,Impressions\n2024-01-01,lots\nbad,1\n"))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseWarnings.WithLabelValues("metrics", "cell")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseWarnings.WithLabelValues("metrics", "row")))
}

func TestSaveBoostedPersists(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectPrepare(`INSERT INTO boosted_config`).
		ExpectExec().
		WithArgs("a", "A", true, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	p, _, sess := newTestPipeline(t, load.NewLoadManagerWithRepositories(
		load.NewMySQLBoostedConfigRepository(db, utils.NewNopLogger()), nil, utils.NewNopLogger()))

	entries := []models.BoostedConfigEntry{{Title: "A", Boosted: true}}
	require.NoError(t, p.SaveBoosted(context.Background(), sess, entries))
	assert.Equal(t, entries, sess.Tables().Boosted)
	require.NoError(t, mock.ExpectationsWereMet())

	err = p.SaveBoosted(context.Background(), sess, []models.BoostedConfigEntry{{Title: "  "}})
	assert.ErrorIs(t, err, models.ErrInvalidCriteria)
}

func TestSeedBoosted(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM boosted_config`).WillReturnRows(
		sqlmock.NewRows([]string{"title", "boosted", "created_date"}).AddRow("A", true, nil))

	p, _, sess := newTestPipeline(t, load.NewLoadManagerWithRepositories(
		load.NewMySQLBoostedConfigRepository(db, utils.NewNopLogger()), nil, utils.NewNopLogger()))

	require.NoError(t, p.SeedBoosted(context.Background(), sess))
	assert.Equal(t, []models.BoostedConfigEntry{{Title: "A", Boosted: true}}, sess.Tables().Boosted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBoostedTemplate(t *testing.T) {
	p, _, sess := newTestPipeline(t, nil)

	sess.Update(func(tables *models.Tables) {
		tables.Boosted = []models.BoostedConfigEntry{{Title: "B", Boosted: true}}
	})
	assert.Equal(t, []models.BoostedConfigEntry{{Title: "B", Boosted: true}}, p.BoostedTemplate(sess))

	_, err := p.Ingest(context.Background(), sess, "posts.csv", []byte(postsCSV))
	require.NoError(t, err)

	template := p.BoostedTemplate(sess)
	require.Len(t, template, 2)
	assert.False(t, template[0].Boosted)
	assert.True(t, template[1].Boosted)
}
