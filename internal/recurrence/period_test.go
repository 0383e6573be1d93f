package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garden-care/internal/model"
)

func TestAddMonths(t *testing.T) {
	tests := []struct {
		from   string
		months int
		want   string
	}{
		{"2024-01-15", 1, "2024-02-15"},
		{"2024-01-31", 1, "2024-02-29"},
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-01-31", 2, "2024-03-31"},
		{"2024-03-31", 1, "2024-04-30"},
		{"2024-12-31", 2, "2025-02-28"},
		{"2024-02-29", 12, "2025-02-28"},
		{"2024-11-30", 3, "2025-02-28"},
	}
	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			assert.Equal(t, date(tt.want), AddMonths(date(tt.from), tt.months))
		})
	}
}

func TestAdvanceDays(t *testing.T) {
	assert.Equal(t, date("2024-03-01"), Advance(date("2024-02-28"), Period{Days: 2}))
	assert.Equal(t, date("2025-01-03"), Advance(date("2024-12-31"), Period{Days: 3}))
}

func TestAdvanceMonthsFromClampedDateKeepsClampedDay(t *testing.T) {
	feb := Advance(date("2024-01-31"), Period{Months: 1})
	assert.Equal(t, date("2024-02-29"), feb)
	assert.Equal(t, date("2024-03-29"), Advance(feb, Period{Months: 1}))
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	got := Day(time.Date(2024, 5, 1, 23, 59, 0, 0, loc))
	assert.Equal(t, date("2024-05-01"), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestPeriodOf(t *testing.T) {
	p, recurring, err := PeriodOf(model.CareRule{EveryDays: intPtr(3)})
	require.NoError(t, err)
	assert.True(t, recurring)
	assert.Equal(t, Period{Days: 3}, p)
	assert.Equal(t, "3d", p.String())

	p, recurring, err = PeriodOf(model.CareRule{EveryMonths: intPtr(2)})
	require.NoError(t, err)
	assert.True(t, recurring)
	assert.Equal(t, "2m", p.String())

	_, recurring, err = PeriodOf(model.CareRule{})
	require.NoError(t, err)
	assert.False(t, recurring)

	_, _, err = PeriodOf(model.CareRule{EveryDays: intPtr(0)})
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, _, err = PeriodOf(model.CareRule{EveryDays: intPtr(1), EveryMonths: intPtr(1)})
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func TestNextDue(t *testing.T) {
	rule := model.CareRule{AnchorDate: date("2024-01-31"), EveryMonths: intPtr(1)}

	due, ok, err := NextDue(rule, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, date("2024-02-29"), due)

	due, ok, err = NextDue(rule, &model.TaskInstance{Due: date("2024-04-30")})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, date("2024-05-30"), due)

	_, ok, err = NextDue(model.CareRule{AnchorDate: date("2024-01-01")}, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}
