package routes

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/linkedin_analytics/ETL/config"
	"github.com/LilVoxy/linkedin_analytics/ETL/load"
	"github.com/LilVoxy/linkedin_analytics/ETL/models"
	"github.com/LilVoxy/linkedin_analytics/ETL/pipeline"
	"github.com/LilVoxy/linkedin_analytics/ETL/utils"
	"github.com/LilVoxy/linkedin_analytics/metrics"
	"github.com/LilVoxy/linkedin_analytics/processor"
	"github.com/LilVoxy/linkedin_analytics/session"
)

const postsCSV = "Post title,Post link,Created date,Likes,Hashtags\n" +
	"Alpha,l1,2024-01-01,10,#go\n" +
	"Beta,l2,2024-01-05,30,#rust\n"

type apiEnv struct {
	router  *mux.Router
	metrics *metrics.Metrics
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	logger := utils.NewNopLogger()
	m := metrics.NewMetrics("test")
	deps := Dependencies{
		Pipeline:       pipeline.NewPipeline(config.DefaultConfig(), nil, m, logger),
		Store:          session.NewStore(time.Hour, logger),
		Metrics:        m,
		Logger:         logger,
		MaxUploadBytes: 1 << 20,
	}
	router := mux.NewRouter()
	SetupRoutes(router, deps)
	return &apiEnv{router: router, metrics: m}
}

func (e *apiEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *apiEnv) createSession(t *testing.T) string {
	t.Helper()
	rec := e.do(t, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func (e *apiEnv) upload(t *testing.T, id string, files map[string]string) UploadResponse {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/files", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := e.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func fileResult(t *testing.T, resp UploadResponse, name string) FileResult {
	t.Helper()
	for _, f := range resp.Files {
		if f.FileName == name {
			return f
		}
	}
	t.Fatalf("файл %q отсутствует в ответе", name)
	return FileResult{}
}

func TestUploadReportsPerFileResults(t *testing.T) {
	env := newAPIEnv(t)
	id := env.createSession(t)

	resp := env.upload(t, id, map[string]string{
		"posts.csv":  postsCSV,
		"broken.csv": "Post link,Impressions\nl1,5\n",
	})
	require.Len(t, resp.Files, 2)

	posts := fileResult(t, resp, "posts.csv")
	assert.Empty(t, posts.Error)
	require.NotNil(t, posts.Result)
	assert.Equal(t, 2, posts.Result.Rows)

	broken := fileResult(t, resp, "broken.csv")
	assert.Nil(t, broken.Result)
	assert.NotEmpty(t, broken.Error)
	assert.Equal(t, []string{"Post title"}, broken.Missing)
}

func TestUploadWithoutFiles(t *testing.T) {
	env := newAPIEnv(t)
	id := env.createSession(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/files", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, env.do(t, req).Code)
}

func TestDashboardFiltersByHashtag(t *testing.T) {
	env := newAPIEnv(t)
	id := env.createSession(t)
	env.upload(t, id, map[string]string{"posts.csv": postsCSV})

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/dashboard?hashtag=%23GO&bucket=month", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var dashboard models.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dashboard))
	require.Len(t, dashboard.Posts, 1)
	assert.Equal(t, "Alpha", dashboard.Posts[0].Title)
	assert.Equal(t, models.BucketMonth, dashboard.Criteria.Bucket)
	assert.ElementsMatch(t, []string{"#go", "#rust"}, dashboard.Hashtags)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		env.metrics.HTTPRequests.WithLabelValues("GET", "/api/sessions/{id}/dashboard", "200")))
}

func TestDashboardErrors(t *testing.T) {
	env := newAPIEnv(t)
	id := env.createSession(t)

	tests := []struct {
		name   string
		url    string
		status int
	}{
		{"неизвестная сессия", "/api/sessions/missing/dashboard", http.StatusNotFound},
		{"одна граница диапазона", "/api/sessions/" + id + "/dashboard?start=2024-01-01", http.StatusBadRequest},
		{"перевернутый диапазон", "/api/sessions/" + id + "/dashboard?start=2024-02-01&end=2024-01-01", http.StatusBadRequest},
		{"неизвестный интервал", "/api/sessions/" + id + "/dashboard?bucket=year", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, tt.status, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestEmptySessionDashboard(t *testing.T) {
	env := newAPIEnv(t)
	id := env.createSession(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var dashboard models.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dashboard))
	assert.Empty(t, dashboard.Posts)
	assert.Empty(t, dashboard.Trends)
}

func TestPostsCSVExport(t *testing.T) {
	env := newAPIEnv(t)
	id := env.createSession(t)
	env.upload(t, id, map[string]string{"posts.csv": postsCSV})

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/posts.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "linkedin_posts.csv")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	flagCol := indexOf(records[0], "Likes Flag")
	require.GreaterOrEqual(t, flagCol, 0)
	titleCol := indexOf(records[0], "Post Title")

	flags := map[string]string{}
	for _, r := range records[1:] {
		flags[r[titleCol]] = r[flagCol]
	}
	assert.Equal(t, map[string]string{"Alpha": "Below Avg", "Beta": "Above Avg"}, flags)
}

func TestPostsCSVFlagsEachRowWithSharedTitle(t *testing.T) {
	env := newAPIEnv(t)
	id := env.createSession(t)
	env.upload(t, id, map[string]string{"posts.csv": "Post title,Post link,Created date,Likes\n" +
		"Same,l1,2024-01-01,10\n" +
		"Same,l2,2024-01-02,100\n" +
		"Other,l3,2024-01-03,40\n"})

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/posts.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	linkCol := indexOf(records[0], "Post Link")
	flagCol := indexOf(records[0], "Likes Flag")
	flags := map[string]string{}
	for _, r := range records[1:] {
		flags[r[linkCol]] = r[flagCol]
	}
	assert.Equal(t, map[string]string{"l1": "Below Avg", "l2": "Above Avg", "l3": "Below Avg"}, flags)
}

func TestBoostedConfigRoundTrip(t *testing.T) {
	env := newAPIEnv(t)
	id := env.createSession(t)
	env.upload(t, id, map[string]string{"posts.csv": postsCSV})

	body := strings.NewReader(`[{"title":"  beta ","boosted":true}]`)
	rec := env.do(t, httptest.NewRequest(http.MethodPut, "/api/sessions/"+id+"/boosted", body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/boosted", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp BoostedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	boosted := map[string]bool{}
	for _, e := range resp.Entries {
		boosted[e.Title] = e.Boosted
	}
	assert.Equal(t, map[string]bool{"Alpha": false, "Beta": true}, boosted)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/boosted-config.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Created Date", "Post Title", "Boosted"}, records[0])
	assert.Len(t, records, 3)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/dashboard", nil))
	var dashboard models.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dashboard))
	for _, p := range dashboard.Posts {
		assert.Equal(t, p.Title == "Beta", p.Boosted, p.Title)
	}
}

func TestSaveBoostedRejectsInvalidInput(t *testing.T) {
	env := newAPIEnv(t)
	id := env.createSession(t)

	rec := env.do(t, httptest.NewRequest(http.MethodPut, "/api/sessions/"+id+"/boosted", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodPut, "/api/sessions/"+id+"/boosted", strings.NewReader(`[{"title":"  ","boosted":true}]`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteSession(t *testing.T) {
	env := newAPIEnv(t)
	id := env.createSession(t)

	rec := env.do(t, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadsWithoutDatabase(t *testing.T) {
	env := newAPIEnv(t)
	id := env.createSession(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/uploads", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"uploads":[]}`, rec.Body.String())
}

func TestUploadFileReturnsOriginal(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	logger := utils.NewNopLogger()
	store := session.NewStore(time.Hour, logger)
	router := mux.NewRouter()
	SetupRoutes(router, Dependencies{
		Pipeline: pipeline.NewPipeline(config.DefaultConfig(), load.NewLoadManager(db, logger), nil, logger),
		Store:    store,
		Logger:   logger,
	})
	sess := store.Create()

	mock.ExpectQuery(`SELECT file_name, payload FROM upload_log WHERE id = \? AND session_id = \?`).
		WithArgs(int64(3), sess.ID).
		WillReturnRows(sqlmock.NewRows([]string{"file_name", "payload"}).
			AddRow("posts.csv", processor.CompressPayload([]byte(postsCSV))))
	mock.ExpectQuery(`SELECT file_name, payload FROM upload_log`).
		WithArgs(int64(4), sess.ID).
		WillReturnRows(sqlmock.NewRows([]string{"file_name", "payload"}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/uploads/3/file", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, postsCSV, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="posts.csv"`, rec.Header().Get("Content-Disposition"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/uploads/4/file", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadFileWithoutDatabase(t *testing.T) {
	env := newAPIEnv(t)
	id := env.createSession(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/uploads/1/file", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/missing/uploads/1/file", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadRemovesMultipartTempFiles(t *testing.T) {
	env := newAPIEnv(t)
	id := env.createSession(t)

	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", "posts.csv")
	require.NoError(t, err)
	_, err = io.WriteString(part, postsCSV)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	// maxMemory=1 вынуждает сохранить файл во временный каталог
	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(1)
	require.NoError(t, err)
	spilled, err := os.ReadDir(tmp)
	require.NoError(t, err)
	require.NotEmpty(t, spilled)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/files", http.NoBody)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.MultipartForm = form
	rec := env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	left, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestMetricsAndPreflight(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodOptions, "/api/sessions", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	env.createSession(t)
	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_http_requests_total")
}

func indexOf(values []string, want string) int {
	for i, v := range values {
		if v == want {
			return i
		}
	}
	return -1
}
