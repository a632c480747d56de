package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndFormatHHMM(t *testing.T) {
	m, err := parseHHMM("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, m)
	assert.Equal(t, "09:30", formatHHMM(570))

	_, err = parseHHMM("9:30")
	assert.Error(t, err)
	_, err = parseHHMM("25:00")
	assert.Error(t, err)
}

func TestAddMinutesHHMM(t *testing.T) {
	end, err := addMinutesHHMM("09:45", 30)
	require.NoError(t, err)
	assert.Equal(t, "10:15", end)
}

func TestOverlapsHHMMHalfOpen(t *testing.T) {
	// boundary touch is not an overlap
	assert.False(t, overlapsHHMM("09:00", "10:00", "10:00", "11:00"))
	assert.False(t, overlapsHHMM("10:00", "11:00", "09:00", "10:00"))

	assert.True(t, overlapsHHMM("09:00", "10:00", "09:30", "10:30"))
	assert.True(t, overlapsHHMM("09:30", "10:30", "09:00", "10:00"))

	// containment
	assert.True(t, overlapsHHMM("09:00", "12:00", "10:00", "10:30"))
	assert.True(t, overlapsHHMM("10:00", "10:30", "09:00", "12:00"))

	// symmetry over a few pairs
	pairs := [][4]string{
		{"08:00", "09:00", "08:30", "09:30"},
		{"08:00", "09:00", "09:00", "10:00"},
		{"08:00", "12:00", "10:00", "11:00"},
	}
	for _, p := range pairs {
		assert.Equal(t, overlapsHHMM(p[0], p[1], p[2], p[3]), overlapsHHMM(p[2], p[3], p[0], p[1]))
	}
}

func TestWeekdayOf(t *testing.T) {
	// 2026-09-13 is a Sunday
	wd, err := weekdayOf("2026-09-13")
	require.NoError(t, err)
	assert.Equal(t, 0, wd)

	wd, err = weekdayOf("2026-09-14")
	require.NoError(t, err)
	assert.Equal(t, 1, wd)

	_, err = weekdayOf("2026-13-01")
	assert.Error(t, err)
}
