package extractors

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/LilVoxy/linkedin_analytics/ETL/config"
	"github.com/LilVoxy/linkedin_analytics/ETL/models"
	"github.com/LilVoxy/linkedin_analytics/ETL/utils"
)

// Options задает правила разбора загружаемых файлов
type Options struct {
	DateLayouts    []string
	OnBadNumber    string
	HeaderScanRows int
	PercentMetrics []string
}

// OptionsFromConfig собирает параметры разбора из конфигурации приложения
func OptionsFromConfig(cfg config.AppConfig) Options {
	return Options{
		DateLayouts:    cfg.Parsing.DateLayouts,
		OnBadNumber:    cfg.Parsing.OnBadNumber,
		HeaderScanRows: cfg.Parsing.HeaderScanRows,
		PercentMetrics: cfg.Metrics.PercentMetrics,
	}
}

// Extractor координирует разбор загруженных CSV-файлов
type Extractor struct {
	options          Options
	logger           *utils.ETLLogger
	postsExtractor   *PostsExtractor
	metricsExtractor *MetricsExtractor
	boostedExtractor *BoostedExtractor
}

// NewExtractor создает новый экземпляр Extractor
func NewExtractor(options Options, logger *utils.ETLLogger) *Extractor {
	if options.HeaderScanRows < 1 {
		options.HeaderScanRows = 1
	}
	return &Extractor{
		options:          options,
		logger:           logger,
		postsExtractor:   NewPostsExtractor(options, logger),
		metricsExtractor: NewMetricsExtractor(options, logger),
		boostedExtractor: NewBoostedExtractor(options, logger),
	}
}

// Extract определяет тип файла по заголовкам и разбирает его
func (e *Extractor) Extract(fileName string, r io.Reader) (*models.LoadResult, error) {
	return e.ExtractKind(fileName, r, models.TableUnrecognized)
}

// ExtractKind разбирает файл ожидаемого типа. TableUnrecognized включает автоопределение.
// Ошибка формата возвращается как *models.FormatError, ошибки ячеек попадают в предупреждения.
func (e *Extractor) ExtractKind(fileName string, r io.Reader, expected models.TableKind) (*models.LoadResult, error) {
	startTime := time.Now()

	records, err := readRecords(r)
	if err != nil {
		e.logger.Error("Ошибка чтения CSV %q: %v", fileName, err)
		return nil, &models.FormatError{FileName: fileName, Reason: fmt.Sprintf("ошибка чтения CSV: %v", err)}
	}

	headerRow, kind, err := e.locateHeader(fileName, records, expected)
	if err != nil {
		e.logger.Error("%v", err)
		return nil, err
	}

	header := records[headerRow]
	rows := records[headerRow+1:]
	// Номер первой строки данных в файле (с единицы)
	firstLine := headerRow + 2

	var result *models.LoadResult
	switch kind {
	case models.TablePosts:
		result = e.postsExtractor.ExtractPosts(header, rows, firstLine)
	case models.TableMetrics:
		result = e.metricsExtractor.ExtractMetrics(header, rows, firstLine)
	case models.TableBoostedConfig:
		result = e.boostedExtractor.ExtractBoosted(header, rows, firstLine)
	}
	result.FileName = fileName
	result.Kind = kind

	for _, w := range result.Warnings {
		e.logger.Debug("Файл %q: %v", fileName, w)
	}
	e.logger.Info("Файл %q распознан как %s: строк=%d, предупреждений=%d, длительность=%v",
		fileName, kind, result.Rows, len(result.Warnings), time.Since(startTime))

	return result, nil
}

// locateHeader ищет строку заголовков среди первых строк файла.
// Выгрузки LinkedIn содержат строку описания перед заголовками.
func (e *Extractor) locateHeader(fileName string, records [][]string, expected models.TableKind) (int, models.TableKind, error) {
	if len(records) == 0 {
		return 0, models.TableUnrecognized, &models.FormatError{FileName: fileName, Reason: "файл пуст"}
	}

	limit := e.options.HeaderScanRows
	if limit > len(records) {
		limit = len(records)
	}

	var partial *models.FormatError
	for i := 0; i < limit; i++ {
		idx := newColumnIndex(records[i])

		if expected != models.TableUnrecognized {
			schema, _ := SchemaFor(expected)
			missing := idx.missing(schema.Required)
			if len(missing) == 0 {
				return i, expected, nil
			}
			if partial == nil || len(missing) < len(partial.Missing) {
				partial = &models.FormatError{FileName: fileName, Kind: expected, Missing: missing}
			}
			continue
		}

		if kind := DetectTableKind(records[i]); kind != models.TableUnrecognized {
			return i, kind, nil
		}

		// Запоминаем частичное совпадение, чтобы сообщить, каких колонок не хватает
		for _, schema := range Schemas {
			missing := idx.missing(schema.Required)
			if len(missing) < len(schema.Required) && partial == nil {
				partial = &models.FormatError{FileName: fileName, Kind: schema.Kind, Missing: missing}
			}
		}
	}

	if partial != nil {
		return 0, models.TableUnrecognized, partial
	}
	return 0, models.TableUnrecognized, &models.FormatError{
		FileName: fileName,
		Reason:   "не удалось определить тип файла по заголовкам",
	}
}

func readRecords(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// newParseError создает предупреждение о неразобранной ячейке
func newParseError(line int, column, value, skipped string, err error) *models.ParseError {
	return &models.ParseError{Row: line, Column: column, Value: value, Skipped: skipped, Err: err}
}
