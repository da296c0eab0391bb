package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/LilVoxy/linkedin_analytics/ETL/config"
	"github.com/LilVoxy/linkedin_analytics/ETL/extractors"
	"github.com/LilVoxy/linkedin_analytics/ETL/load"
	"github.com/LilVoxy/linkedin_analytics/ETL/models"
	"github.com/LilVoxy/linkedin_analytics/ETL/transform"
	"github.com/LilVoxy/linkedin_analytics/ETL/utils"
	"github.com/LilVoxy/linkedin_analytics/metrics"
	"github.com/LilVoxy/linkedin_analytics/session"
)

// Источники пересчета дашборда
const (
	TriggerHTTP      = "http"
	TriggerWebSocket = "websocket"
	TriggerExport    = "export"
	TriggerReport    = "report"
)

// Pipeline координирует загрузку файлов, пересчет дашборда и сохранение отметок продвижения
type Pipeline struct {
	config      config.AppConfig
	logger      *utils.ETLLogger
	extractor   *extractors.Extractor
	transformer *transform.Transformer
	loadManager *load.LoadManager
	metrics     *metrics.Metrics
}

// NewPipeline создает новый экземпляр Pipeline. loadManager и m могут быть nil.
func NewPipeline(cfg config.AppConfig, loadManager *load.LoadManager, m *metrics.Metrics, logger *utils.ETLLogger) *Pipeline {
	if loadManager == nil {
		loadManager = load.NewLoadManager(nil, logger)
	}
	return &Pipeline{
		config:      cfg,
		logger:      logger,
		extractor:   extractors.NewExtractor(extractors.OptionsFromConfig(cfg), logger),
		transformer: transform.NewTransformer(cfg.Metrics, logger),
		loadManager: loadManager,
		metrics:     m,
	}
}

// TrackedMetrics возвращает метрики, по которым считаются бенчмарки
func (p *Pipeline) TrackedMetrics() []string {
	return p.config.Metrics.Tracked
}

// Ingest разбирает файл и заменяет соответствующую таблицу сессии.
// При ошибке формата таблицы сессии не изменяются.
func (p *Pipeline) Ingest(ctx context.Context, sess *session.Session, fileName string, data []byte) (*models.LoadResult, error) {
	return p.ingest(ctx, sess, fileName, data, func() (*models.LoadResult, error) {
		return p.extractor.Extract(fileName, bytes.NewReader(data))
	})
}

// IngestKind как Ingest, но файл разбирается как таблица ожидаемого типа
func (p *Pipeline) IngestKind(ctx context.Context, sess *session.Session, fileName string, data []byte, expected models.TableKind) (*models.LoadResult, error) {
	return p.ingest(ctx, sess, fileName, data, func() (*models.LoadResult, error) {
		return p.extractor.ExtractKind(fileName, bytes.NewReader(data), expected)
	})
}

func (p *Pipeline) ingest(ctx context.Context, sess *session.Session, fileName string, data []byte, extract func() (*models.LoadResult, error)) (*models.LoadResult, error) {
	startTime := time.Now()
	p.logger.LogLoadStart(sess.ID, fileName)

	logID := p.loadManager.StartUpload(ctx, sess.ID, fileName, data)

	result, err := extract()
	p.loadManager.FinishUpload(ctx, logID, result, err)
	if err != nil {
		p.observeLoad(models.TableUnrecognized, nil, err)
		return nil, err
	}

	sess.Update(result.Apply)
	p.observeLoad(result.Kind, result.Warnings, nil)
	p.logger.LogLoadComplete(sess.ID, fileName, result.Kind.String(), result.Rows, len(result.Warnings), time.Since(startTime))

	if result.Kind == models.TableBoostedConfig {
		// Загруженная конфигурация сохраняется для следующих сессий
		if err := p.loadManager.SaveBoosted(ctx, result.Boosted); err != nil {
			p.logger.Warn("Конфигурация продвижения не сохранена: %v", err)
		}
	}

	return result, nil
}

// Compute пересчитывает дашборд по текущим таблицам и критериям
func (p *Pipeline) Compute(trigger string, tables models.Tables, criteria models.FilterCriteria) (*models.Dashboard, error) {
	startTime := time.Now()
	dashboard, err := p.transformer.Compute(&tables, criteria)
	if p.metrics != nil {
		p.metrics.ObserveRecompute(trigger, time.Since(startTime), err)
	}
	if err != nil {
		return nil, err
	}
	p.logger.LogRecompute(trigger, len(dashboard.Posts), len(dashboard.Trends), time.Since(startTime))
	return dashboard, nil
}

// ComputeSession пересчитывает дашборд сессии
func (p *Pipeline) ComputeSession(trigger string, sess *session.Session, criteria models.FilterCriteria) (*models.Dashboard, error) {
	return p.Compute(trigger, sess.Tables(), criteria)
}

// BoostedTemplate возвращает редактируемую таблицу продвижения сессии
func (p *Pipeline) BoostedTemplate(sess *session.Session) []models.BoostedConfigEntry {
	tables := sess.Tables()
	if !tables.PostsLoaded {
		return append([]models.BoostedConfigEntry(nil), tables.Boosted...)
	}
	return transform.BoostedTemplate(tables.Posts, tables.Boosted)
}

// SaveBoosted заменяет конфигурацию продвижения сессии и сохраняет ее в хранилище
func (p *Pipeline) SaveBoosted(ctx context.Context, sess *session.Session, entries []models.BoostedConfigEntry) error {
	for i, e := range entries {
		if models.NormalizeTitle(e.Title) == "" {
			return fmt.Errorf("%w: пустой заголовок в строке %d", models.ErrInvalidCriteria, i+1)
		}
	}

	sess.Update(func(t *models.Tables) {
		t.Boosted = append([]models.BoostedConfigEntry(nil), entries...)
	})
	return p.loadManager.SaveBoosted(ctx, entries)
}

// SeedBoosted подставляет в новую сессию сохраненную конфигурацию продвижения
func (p *Pipeline) SeedBoosted(ctx context.Context, sess *session.Session) error {
	entries, err := p.loadManager.LoadBoosted(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	sess.Update(func(t *models.Tables) {
		t.Boosted = entries
	})
	p.logger.Debug("В сессию %s загружено сохраненных отметок продвижения: %d", sess.ID, len(entries))
	return nil
}

// SessionUploads возвращает журнал загрузок сессии
func (p *Pipeline) SessionUploads(ctx context.Context, sess *session.Session) ([]models.UploadLog, error) {
	return p.loadManager.SessionUploads(ctx, sess.ID)
}

// UploadFile возвращает исходный файл, загруженный в сессию
func (p *Pipeline) UploadFile(ctx context.Context, sess *session.Session, id int64) (*models.UploadFile, error) {
	return p.loadManager.UploadFile(ctx, sess.ID, id)
}

func (p *Pipeline) observeLoad(kind models.TableKind, warnings []*models.ParseError, err error) {
	if p.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.metrics.FileLoads.WithLabelValues(kind.String(), status).Inc()
	for _, w := range warnings {
		p.metrics.ParseWarnings.WithLabelValues(kind.String(), w.Skipped).Inc()
	}
}
