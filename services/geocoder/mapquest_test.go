package geocoder

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapQuestGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "233 Bay State Rd Boston MA 02215", r.URL.Query().Get("location"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"info": {"statuscode": 0, "messages": []},
			"results": [{"locations": [{
				"street": "233 Bay State Rd",
				"adminArea5": "Boston",
				"adminArea3": "MA",
				"adminArea1": "US",
				"postalCode": "02215",
				"latLng": {"lat": 42.350909, "lng": -71.105361}
			}]}]
		}`))
	}))
	defer srv.Close()

	mq := NewMapQuest(MapQuestConfig{APIKey: "test-key", BaseURL: srv.URL})
	res, err := mq.Geocode(context.Background(), "233 Bay State Rd Boston MA 02215")
	require.NoError(t, err)

	assert.InDelta(t, 42.350909, res.Latitude, 1e-9)
	assert.InDelta(t, -71.105361, res.Longitude, 1e-9)
	assert.Equal(t, "Boston", res.City)
	assert.Equal(t, "02215", res.Zipcode)
	assert.Equal(t, "233 Bay State Rd, Boston, MA 02215, US", res.FormattedAddress())
}

func TestMapQuestNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"info": {"statuscode": 0}, "results": [{"locations": []}]}`))
	}))
	defer srv.Close()

	mq := NewMapQuest(MapQuestConfig{BaseURL: srv.URL})
	_, err := mq.Geocode(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestMapQuestProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http status", http.StatusInternalServerError, `{}`},
		{"provider status", http.StatusOK, `{"info": {"statuscode": 403, "messages": ["bad key"]}}`},
		{"bad json", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			mq := NewMapQuest(MapQuestConfig{BaseURL: srv.URL})
			_, err := mq.Geocode(context.Background(), "02118")
			require.Error(t, err)
			assert.False(t, errors.Is(err, ErrNoMatch))
		})
	}
}
