package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// ETLLogger представляет логгер конвейера аналитики
type ETLLogger struct {
	logger    *logrus.Logger
	file      *os.File
	isVerbose bool
}

// NewETLLogger создает новый экземпляр логгера.
// Если задан logDir, логи дополнительно пишутся в файл etl_log_<дата>.log
func NewETLLogger(verbose bool, logDir string) (*ETLLogger, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.InfoLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	l := &ETLLogger{logger: logger, isVerbose: verbose}

	if logDir != "" {
		// Создаем или открываем лог-файл для записи
		currentTime := time.Now().Format("2006-01-02")
		logFileName := filepath.Join(logDir, fmt.Sprintf("etl_log_%s.log", currentTime))

		file, err := os.OpenFile(logFileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("не удалось открыть или создать файл лога: %w", err)
		}
		l.file = file
		logger.SetOutput(io.MultiWriter(os.Stdout, file))
	}

	return l, nil
}

// NewLoggerWithOutput создает логгер, пишущий в произвольный поток
func NewLoggerWithOutput(w io.Writer, verbose bool) *ETLLogger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(logrus.InfoLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return &ETLLogger{logger: logger, isVerbose: verbose}
}

// NewNopLogger создает логгер, отбрасывающий все сообщения
func NewNopLogger() *ETLLogger {
	return NewLoggerWithOutput(io.Discard, false)
}

// Close закрывает файл лога, если он был открыт
func (l *ETLLogger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Info логирует информационное сообщение
func (l *ETLLogger) Info(format string, v ...interface{}) {
	l.logger.Infof(format, v...)
}

// Warn логирует предупреждение
func (l *ETLLogger) Warn(format string, v ...interface{}) {
	l.logger.Warnf(format, v...)
}

// Error логирует сообщение об ошибке
func (l *ETLLogger) Error(format string, v ...interface{}) {
	l.logger.Errorf(format, v...)
}

// Debug логирует отладочное сообщение (только если включен verbose режим)
func (l *ETLLogger) Debug(format string, v ...interface{}) {
	if !l.isVerbose {
		return
	}
	l.logger.Debugf(format, v...)
}

// LogLoadStart логирует начало загрузки файла
func (l *ETLLogger) LogLoadStart(sessionID, fileName string) {
	l.logger.WithFields(logrus.Fields{
		"session": sessionID,
		"file":    fileName,
	}).Info("Начало загрузки файла")
}

// LogLoadComplete логирует завершение загрузки файла
func (l *ETLLogger) LogLoadComplete(sessionID, fileName, kind string, rows, warnings int, duration time.Duration) {
	l.logger.WithFields(logrus.Fields{
		"session":  sessionID,
		"file":     fileName,
		"kind":     kind,
		"rows":     rows,
		"warnings": warnings,
		"duration": duration,
	}).Info("Загрузка файла завершена")
}

// LogRecompute логирует пересчет производных таблиц
func (l *ETLLogger) LogRecompute(trigger string, posts, buckets int, duration time.Duration) {
	l.Debug("Пересчет дашборда (%s): публикаций=%d, интервалов=%d, длительность=%v",
		trigger, posts, buckets, duration)
}
