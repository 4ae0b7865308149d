package timespec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("accepts_canonical_token", func(t *testing.T) {
		spec, err := Parse("2020-12-25T00:00")
		require.NoError(t, err)
		assert.Equal(t, 2020, spec.Year)
		assert.Equal(t, 12, spec.Month)
		assert.Equal(t, 25, spec.Day)
		assert.Equal(t, 0, spec.Hour)
		assert.Equal(t, 0, spec.Minute)
		assert.Equal(t, "2020-12-25T00:00", spec.String())
	})

	t.Run("defers_range_checks", func(t *testing.T) {
		spec, err := Parse("2025-13-45T99:99")
		require.NoError(t, err)
		assert.Equal(t, 13, spec.Month)
		assert.False(t, spec.Representable())
	})
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"too_short", "2020-12-25T00:0"},
		{"too_long", "2020-12-25T00:000"},
		{"five_digit_year", "10000-01-01-T12:00"},
		{"slash_date", "2020/12/25T00:00"},
		{"second_dash_wrong", "2020-12/25T00:00"},
		{"space_instead_of_T", "2020-12-25 00:00"},
		{"lowercase_t", "2020-12-25t00:00"},
		{"dot_instead_of_colon", "2020-12-25T00.00"},
		{"letter_in_year", "20a0-12-25T00:00"},
		{"letter_in_month", "2020-1x-25T00:00"},
		{"letter_in_day", "2020-12-2xT00:00"},
		{"letter_in_hour", "2020-12-25Tx0:00"},
		{"letter_in_minute", "2020-12-25T00:0x"},
		{"sign_in_digit_group", "2020-+2-25T00:00"},
		{"space_in_digit_group", "2020-12- 5T00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.False(t, Valid(tt.input))
		})
	}
}

func TestClassify(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 30, 20, 0, time.Local)

	tests := []struct {
		name  string
		input string
		want  Outcome
	}{
		{"far_future", "2050-01-01T12:00", Future},
		{"far_past", "2010-01-01T12:00", Past},
		{"next_minute", "2026-03-10T12:31", Future},
		{"same_minute_is_past", "2026-03-10T12:30", Past},
		{"month_13", "2026-13-01T00:00", Unrepresentable},
		{"month_zero", "2026-00-01T00:00", Unrepresentable},
		{"february_30", "2027-02-30T00:00", Unrepresentable},
		{"february_29_non_leap", "2027-02-29T00:00", Unrepresentable},
		{"february_29_leap", "2028-02-29T00:00", Future},
		{"hour_24", "2030-01-01T24:00", Unrepresentable},
		{"minute_60", "2030-01-01T00:60", Unrepresentable},
		{"year_zero", "0000-01-01T00:00", Unrepresentable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(MustParse(tt.input), now)
			assert.Equal(t, tt.want, got, "outcome %s", got)
			assert.Equal(t, tt.want == Future, IsFuture(MustParse(tt.input), now))
		})
	}
}

func TestDelay(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)

	t.Run("future_delay", func(t *testing.T) {
		spec := MustParse("2026-03-10T12:05")
		assert.Equal(t, 5*time.Minute, Delay(spec, now))
		assert.InDelta(t, 300.0, DelaySeconds(spec, now), 1e-9)
	})

	t.Run("past_delay_is_negative", func(t *testing.T) {
		spec := MustParse("2026-03-10T11:59")
		assert.Equal(t, -time.Minute, Delay(spec, now))
	})

	t.Run("round_trip_within_a_minute", func(t *testing.T) {
		current := time.Now()
		spec, err := FromTime(current)
		require.NoError(t, err)
		delay := DelaySeconds(spec, current)
		assert.LessOrEqual(t, delay, 0.0)
		assert.GreaterOrEqual(t, delay, -60.0)
	})

	t.Run("now_plus_epsilon", func(t *testing.T) {
		base := time.Date(2026, 3, 10, 12, 0, 10, 0, time.Local)
		spec, err := FromTime(base.Add(2 * time.Minute))
		require.NoError(t, err)
		require.True(t, IsFuture(spec, base))
		delay := DelaySeconds(spec, base)
		assert.GreaterOrEqual(t, delay, 0.0)
		assert.LessOrEqual(t, delay, 120.0)
	})
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Date: 02/12/2025   Time: 02:14", Title(MustParse("2025-12-02T02:14")))
	assert.Equal(t, "Date: 25/12/2020   Time: 00:00", TitleString("2020-12-25T00:00"))
	assert.Equal(t, "garbage", TitleString("garbage"))
}

func TestFromTime(t *testing.T) {
	ts := time.Date(2026, 7, 4, 9, 5, 59, 0, time.Local)
	spec, err := FromTime(ts)
	require.NoError(t, err)
	assert.Equal(t, "2026-07-04T09:05", spec.String())
	assert.Equal(t, time.Date(2026, 7, 4, 9, 5, 0, 0, time.Local), spec.Due())

	t.Run("year_out_of_range", func(t *testing.T) {
		for _, year := range []int{0, 10000, 11026} {
			_, err := FromTime(time.Date(year, 1, 1, 7, 30, 0, 0, time.Local))
			assert.ErrorIs(t, err, ErrMalformed, "year %d", year)
		}
	})
}

func TestFromNatural(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)

	t.Run("canonical_passthrough", func(t *testing.T) {
		spec, err := FromNatural(" 2026-03-11T07:00 ", now)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-11T07:00", spec.String())
	})

	t.Run("garbage_fails", func(t *testing.T) {
		_, err := FromNatural("not a date at all zzz", now)
		assert.Error(t, err)
	})

	t.Run("five_digit_year_fails", func(t *testing.T) {
		for _, input := range []string{"in 9000 years", "in 8000 years"} {
			var err error
			require.NotPanics(t, func() { _, err = FromNatural(input, now) }, input)
			assert.ErrorIs(t, err, ErrMalformed, input)
		}
	})
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "future", Future.String())
	assert.Equal(t, "past", Past.String())
	assert.Equal(t, "unrepresentable", Unrepresentable.String())
}
