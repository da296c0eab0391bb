package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/linkedin_analytics/ETL/models"
	"github.com/LilVoxy/linkedin_analytics/ETL/utils"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(ttl time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore(ttl, utils.NewNopLogger())
	store.now = clock.Now
	return store, clock
}

func TestStoreCreateGetDelete(t *testing.T) {
	store, _ := newTestStore(time.Hour)

	var counts []int
	store.OnCountChange(func(n int) { counts = append(counts, n) })

	sess := store.Create()
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	require.NoError(t, store.Delete(sess.ID))
	_, err = store.Get(sess.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	assert.ErrorIs(t, store.Delete(sess.ID), ErrSessionNotFound)

	assert.Equal(t, []int{1, 0}, counts)
}

func TestSessionsAreIndependent(t *testing.T) {
	store, _ := newTestStore(time.Hour)
	a := store.Create()
	b := store.Create()
	require.NotEqual(t, a.ID, b.ID)

	a.Update(func(tables *models.Tables) {
		tables.Posts = []models.Post{{Title: "A"}}
		tables.PostsLoaded = true
	})

	assert.Len(t, a.Tables().Posts, 1)
	assert.Empty(t, b.Tables().Posts)
	assert.False(t, b.Tables().PostsLoaded)
}

func TestEvictExpired(t *testing.T) {
	store, clock := newTestStore(30 * time.Minute)

	stale := store.Create()
	clock.Advance(20 * time.Minute)
	fresh := store.Create()

	clock.Advance(15 * time.Minute)
	assert.Equal(t, 1, store.EvictExpired())

	_, err := store.Get(stale.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Get(fresh.ID)
	assert.NoError(t, err)

	// Обращение продлевает жизнь сессии
	clock.Advance(25 * time.Minute)
	assert.Zero(t, store.EvictExpired())
	assert.Equal(t, 1, store.Len())
}

func TestGetExpiredSession(t *testing.T) {
	store, clock := newTestStore(30 * time.Minute)

	var counts []int
	store.OnCountChange(func(n int) { counts = append(counts, n) })

	sess := store.Create()
	clock.Advance(29 * time.Minute)
	_, err := store.Get(sess.ID)
	require.NoError(t, err)

	// Очистка еще не запускалась, но сессия уже истекла
	clock.Advance(31 * time.Minute)
	_, err = store.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Zero(t, store.Len())
	assert.Equal(t, []int{1, 0}, counts)
}

func TestEvictExpiredWithoutTTL(t *testing.T) {
	store, clock := newTestStore(0)
	sess := store.Create()
	clock.Advance(24 * time.Hour)
	assert.Zero(t, store.EvictExpired())

	_, err := store.Get(sess.ID)
	assert.NoError(t, err)
}

func TestJanitorStartStop(t *testing.T) {
	store := NewStore(time.Millisecond, utils.NewNopLogger())
	store.Create()

	require.NoError(t, store.StartJanitor(10*time.Millisecond))
	defer store.Stop()

	assert.Eventually(t, func() bool { return store.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
