package timeutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttalarm/internal/domain"
	"ttalarm/internal/timeutil"
)

func TestParse_OK(t *testing.T) {
	hm, err := timeutil.Parse("09:05")
	require.NoError(t, err)
	assert.Equal(t, 9, hm.Hour)
	assert.Equal(t, 5, hm.Minute)
}

func TestParse_Malformed(t *testing.T) {
	for _, s := range []string{"", "morning", "25:00", "10:61", "-1:30"} {
		_, err := timeutil.Parse(s)
		assert.ErrorIs(t, err, domain.ErrValidation, "input %q", s)
	}
}

func TestSubtractMinutes_WrapsToPreviousDay(t *testing.T) {
	got, err := timeutil.SubtractMinutes("00:30", 50)
	require.NoError(t, err)
	assert.Equal(t, "23:40", got)
}

func TestAddMinutes_WrapsPastMidnight(t *testing.T) {
	got, err := timeutil.AddMinutes("23:50", 20)
	require.NoError(t, err)
	assert.Equal(t, "00:10", got)
}

func TestComputeDerivedTimes(t *testing.T) {
	// arrival 09:00, travel 50 min, prep 30 min → leave 08:10, start 07:40.
	got, err := timeutil.ComputeDerivedTimes("09:00", 50, 30)
	require.NoError(t, err)
	assert.Equal(t, "08:10", got.Departure)
	assert.Equal(t, "07:40", got.PreparationStart)
}

func TestComputeDerivedTimes_Deterministic(t *testing.T) {
	first, err := timeutil.ComputeDerivedTimes("07:15", 42, 25)
	require.NoError(t, err)
	second, err := timeutil.ComputeDerivedTimes("07:15", 42, 25)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeDerivedTimes_CrossesMidnight(t *testing.T) {
	got, err := timeutil.ComputeDerivedTimes("00:20", 40, 30)
	require.NoError(t, err)
	assert.Equal(t, "23:40", got.Departure)
	assert.Equal(t, "23:10", got.PreparationStart)
}
