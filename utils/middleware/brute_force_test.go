package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/devcamper-api/utils/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	counters map[string]int64
	values   map[string]time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{counters: map[string]int64{}, values: map[string]time.Duration{}}
}

func (m *memoryStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.values[key]
	return ok, nil
}

func (m *memoryStore) TTL(_ context.Context, key string) (time.Duration, error) {
	return m.values[key], nil
}

func (m *memoryStore) Increment(_ context.Context, key string) (int64, error) {
	m.counters[key]++
	return m.counters[key], nil
}

func (m *memoryStore) Expire(context.Context, string, time.Duration) error { return nil }

func (m *memoryStore) Set(_ context.Context, key string, _ interface{}, expiration time.Duration) error {
	m.values[key] = expiration
	return nil
}

func (m *memoryStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
		delete(m.counters, k)
	}
	return nil
}

func TestLockDuration(t *testing.T) {
	assert.Zero(t, lockDuration(4))
	assert.Equal(t, 2*time.Minute, lockDuration(5))
	assert.Equal(t, time.Hour, lockDuration(10))
	assert.Equal(t, 24*time.Hour, lockDuration(25))
}

func TestBruteForceGuard(t *testing.T) {
	store := newMemoryStore()
	bf := NewBruteForceProtection(store)

	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler(false)})
	app.Post("/login", bf.Guard(), func(c *fiber.Ctx) error {
		if c.Query("ok") == "1" {
			bf.RecordSuccess(c.UserContext(), c.IP())
			return c.SendStatus(fiber.StatusOK)
		}
		bf.RecordFailure(c.UserContext(), c.IP())
		return c.SendStatus(fiber.StatusUnauthorized)
	})

	call := func(target string) *http.Response {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, target, nil))
		require.NoError(t, err)
		return resp
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusUnauthorized, call("/login").StatusCode)
	}

	resp := call("/login?ok=1")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "120", resp.Header.Get("Retry-After"))

	// lock lifted by hand, then a success clears the counter
	require.NoError(t, store.Delete(context.Background(), "brute_force:lock:"+lockedIP(store)))
	assert.Equal(t, http.StatusOK, call("/login?ok=1").StatusCode)
	assert.Empty(t, store.counters)
}

func lockedIP(m *memoryStore) string {
	for k := range m.counters {
		return k[len("brute_force:attempts:"):]
	}
	return ""
}

func TestNilBruteForceAllowsEverything(t *testing.T) {
	var bf *BruteForceProtection

	app := fiber.New()
	app.Post("/login", bf.Guard(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	bf.RecordFailure(context.Background(), "1.2.3.4")
	bf.RecordSuccess(context.Background(), "1.2.3.4")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
