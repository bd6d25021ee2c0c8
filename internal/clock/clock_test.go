package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestToday_UsesBusinessZone(t *testing.T) {
	bogota, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)

	// 02:30 UTC on May 2nd is still May 1st in Bogota (UTC-5).
	c := NewFixed(time.Date(2024, 5, 2, 2, 30, 0, 0, time.UTC), bogota)
	assert.Equal(t, "2024-05-01", FormatDate(c.Today()))

	utc := NewFixed(time.Date(2024, 5, 2, 2, 30, 0, 0, time.UTC), time.UTC)
	assert.Equal(t, "2024-05-02", FormatDate(utc.Today()))
}

func TestNew_InvalidZone(t *testing.T) {
	_, err := New("Mars/Olympus")
	assert.Error(t, err)

	c, err := New("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, c.Location())
}

func TestParseAndCompare(t *testing.T) {
	a, err := ParseDate("2024-01-31")
	require.NoError(t, err)
	b, err := ParseDate("2024-03-01")
	require.NoError(t, err)

	assert.True(t, Before(a, b))
	assert.False(t, Before(b, a))
	assert.False(t, Before(a, a))
	assert.Equal(t, 30, DaysBetween(a, b))
	assert.Equal(t, -30, DaysBetween(b, a))

	_, err = ParseDate("31/01/2024")
	assert.Error(t, err)
}

func TestNormalize_DropsTimeOfDay(t *testing.T) {
	lima := time.FixedZone("PET", -5*3600)
	d := Normalize(datatypes.Date(time.Date(2024, 5, 1, 23, 0, 0, 0, lima)))
	assert.Equal(t, "2024-05-01", FormatDate(d))
}
