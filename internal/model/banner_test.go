package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBannerActive(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	tests := []struct {
		name   string
		banner Banner
		want   bool
	}{
		{"open ended", Banner{IsEnabled: true, StartDate: before}, true},
		{"within window", Banner{IsEnabled: true, StartDate: before, EndDate: &after}, true},
		{"ends now", Banner{IsEnabled: true, StartDate: before, EndDate: &now}, true},
		{"disabled", Banner{IsEnabled: false, StartDate: before}, false},
		{"not started", Banner{IsEnabled: true, StartDate: after}, false},
		{"ended", Banner{IsEnabled: true, StartDate: before.Add(-time.Hour), EndDate: &before}, false},
		{"soft deleted", Banner{IsEnabled: true, StartDate: before, DeletedAt: &before}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.banner.Active(now))
		})
	}
}

func TestBannerJSONIncludesIsActive(t *testing.T) {
	b := Banner{ID: 3, Headline: "h", IsEnabled: true, StartDate: time.Now().Add(-time.Minute), Order: 2}

	raw, err := json.Marshal(b)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, true, out["is_active"])
	assert.EqualValues(t, 2, out["order"])
	assert.Contains(t, out, "created_at")
	assert.NotContains(t, out, "User")
}
