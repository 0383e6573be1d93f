package service

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("06:30")
	require.NoError(t, err)
	assert.Equal(t, "0 30 6 * * *", spec)

	for _, bad := range []string{"6", "24:00", "12:60", "noon"} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestSchedulerNextActivation(t *testing.T) {
	s := NewSchedulerService(time.UTC, zerolog.Nop())
	id, err := s.ScheduleDaily("23:59", func() {})
	require.NoError(t, err)
	_, err = s.ScheduleDaily("25:00", func() {})
	require.Error(t, err)

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return !s.Next(id).IsZero() }, time.Second, 10*time.Millisecond)
	next := s.Next(id).UTC()
	assert.Equal(t, 23, next.Hour())
	assert.Equal(t, 59, next.Minute())
}
