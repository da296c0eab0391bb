package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/LilVoxy/linkedin_analytics/ETL/models"
	"github.com/LilVoxy/linkedin_analytics/ETL/utils"
)

// ErrSessionNotFound возвращается для неизвестной или истекшей сессии
var ErrSessionNotFound = errors.New("сессия не найдена")

// Session хранит загруженные таблицы одного пользователя
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.RWMutex
	lastAccess time.Time
	tables     models.Tables
}

// Tables возвращает текущий снимок таблиц сессии
func (s *Session) Tables() models.Tables {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables
}

// Update изменяет таблицы сессии под блокировкой
func (s *Session) Update(fn func(t *models.Tables)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.tables)
}

// LastAccess возвращает время последнего обращения к сессии
func (s *Session) LastAccess() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccess
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastAccess = now
	s.mu.Unlock()
}

// Store хранит сессии в памяти и удаляет неактивные по истечении TTL
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl    time.Duration
	now    func() time.Time
	logger *utils.ETLLogger

	onCount   func(int)
	scheduler *gocron.Scheduler
}

// NewStore создает новый экземпляр Store
func NewStore(ttl time.Duration, logger *utils.ETLLogger) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// OnCountChange задает обработчик изменения числа сессий
func (s *Store) OnCountChange(fn func(count int)) {
	s.mu.Lock()
	s.onCount = fn
	s.mu.Unlock()
}

// Create создает новую пустую сессию
func (s *Store) Create() *Session {
	now := s.now()
	sess := &Session{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		lastAccess: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	count := len(s.sessions)
	onCount := s.onCount
	s.mu.Unlock()

	s.logger.Info("Создана сессия %s", sess.ID)
	if onCount != nil {
		onCount(count)
	}
	return sess
}

// Get возвращает сессию и продлевает ее время жизни.
// Истекшая сессия удаляется сразу, не дожидаясь очистки.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	now := s.now()
	if s.expired(sess, now) {
		s.evict(id, sess)
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	sess.touch(now)
	return sess, nil
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return s.ttl > 0 && sess.LastAccess().Before(now.Add(-s.ttl))
}

// evict удаляет истекшую сессию, если она еще не заменена и не удалена
func (s *Store) evict(id string, sess *Session) {
	s.mu.Lock()
	if s.sessions[id] != sess {
		s.mu.Unlock()
		return
	}
	delete(s.sessions, id)
	count := len(s.sessions)
	onCount := s.onCount
	s.mu.Unlock()

	s.logger.Info("Сессия %s истекла", id)
	if onCount != nil {
		onCount(count)
	}
}

// Delete удаляет сессию
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	count := len(s.sessions)
	onCount := s.onCount
	s.mu.Unlock()

	s.logger.Info("Сессия %s удалена", id)
	if onCount != nil {
		onCount(count)
	}
	return nil
}

// Len возвращает число активных сессий
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// EvictExpired удаляет сессии, неактивные дольше TTL, и возвращает их число
func (s *Store) EvictExpired() int {
	if s.ttl <= 0 {
		return 0
	}
	now := s.now()

	s.mu.Lock()
	evicted := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			evicted++
		}
	}
	count := len(s.sessions)
	onCount := s.onCount
	s.mu.Unlock()

	if evicted > 0 {
		s.logger.Info("Удалено неактивных сессий: %d, осталось: %d", evicted, count)
		if onCount != nil {
			onCount(count)
		}
	}
	return evicted
}

// StartJanitor запускает периодическую очистку неактивных сессий
func (s *Store) StartJanitor(interval time.Duration) error {
	scheduler := gocron.NewScheduler(time.UTC)

	s.logger.Info("Запуск очистки сессий с интервалом %v (TTL %v)", interval, s.ttl)

	_, err := scheduler.Every(interval).WaitForSchedule().Do(func() {
		s.EvictExpired()
	})
	if err != nil {
		return fmt.Errorf("ошибка при настройке планировщика очистки сессий: %w", err)
	}

	scheduler.StartAsync()

	s.mu.Lock()
	s.scheduler = scheduler
	s.mu.Unlock()
	return nil
}

// Stop останавливает очистку сессий
func (s *Store) Stop() {
	s.mu.Lock()
	scheduler := s.scheduler
	s.scheduler = nil
	s.mu.Unlock()

	if scheduler != nil {
		scheduler.Stop()
		s.logger.Info("Очистка сессий остановлена")
	}
}
