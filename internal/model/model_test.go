package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlarmTimeUntil(t *testing.T) {
	now := time.Date(2030, 1, 1, 6, 0, 0, 0, time.Local)
	a := &Alarm{Due: now.Add(90 * time.Minute)}
	assert.Equal(t, 90*time.Minute, a.TimeUntil(now))
	assert.Negative(t, a.TimeUntil(now.Add(2*time.Hour)))
}

func TestAlarmSections(t *testing.T) {
	assert.Empty(t, (&Alarm{}).Sections())
	assert.Equal(t, []string{"weather"}, (&Alarm{Weather: true}).Sections())
	assert.Equal(t, []string{"news", "weather"}, (&Alarm{News: true, Weather: true}).Sections())
}

func TestAlarmShortHandle(t *testing.T) {
	assert.Equal(t, "abc", (&Alarm{Handle: "abc"}).ShortHandle())
	assert.Equal(t, "0b6e3f2a", (&Alarm{Handle: "0b6e3f2a-9d1c-4c55-8d2e-5a0c1f2b3d4e"}).ShortHandle())
}

func TestAlarmJSONOmitsRestoredWhenFalse(t *testing.T) {
	data, err := json.Marshal(Alarm{TimeSpec: "2030-01-01T07:00", Label: "wake"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"time_spec":"2030-01-01T07:00"`)
	assert.NotContains(t, string(data), "restored")
}
