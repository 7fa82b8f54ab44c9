package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	data map[string][]byte
	fail bool
}

func (m *memoryCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	if m.fail {
		return errors.New("cache down")
	}
	raw, ok := m.data[key]
	if !ok {
		return errors.New("miss")
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if m.fail {
		return errors.New("cache down")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

type countingGeocoder struct {
	calls int
	err   error
}

func (c *countingGeocoder) Geocode(_ context.Context, _ string) (*Result, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &Result{Latitude: 42.3, Longitude: -71.1, Zipcode: "02118"}, nil
}

func TestCachedReusesLookups(t *testing.T) {
	inner := &countingGeocoder{}
	g := NewCached(inner, &memoryCache{data: map[string][]byte{}}, time.Hour)

	first, err := g.Geocode(context.Background(), "02118")
	require.NoError(t, err)
	second, err := g.Geocode(context.Background(), "  02118 ")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first, second)
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	inner := &countingGeocoder{err: ErrNoMatch}
	g := NewCached(inner, &memoryCache{data: map[string][]byte{}}, time.Hour)

	_, err := g.Geocode(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrNoMatch)
	_, err = g.Geocode(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedFallsThroughWhenCacheIsDown(t *testing.T) {
	inner := &countingGeocoder{}
	g := NewCached(inner, &memoryCache{fail: true}, time.Hour)

	res, err := g.Geocode(context.Background(), "02118")
	require.NoError(t, err)
	assert.Equal(t, "02118", res.Zipcode)
}
