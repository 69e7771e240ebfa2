package schedule

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cancha/internal/models"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSlots(t *testing.T) {
	for openHour := 0; openHour < 23; openHour++ {
		for closeHour := openHour + 1; closeHour <= 23; closeHour++ {
			slots := GenerateSlots(openHour, closeHour)
			require.Len(t, slots, closeHour-openHour+1)
			for i, s := range slots {
				assert.Equal(t, fmt.Sprintf("%02d:00", openHour+i), s)
				if i > 0 {
					assert.Less(t, slots[i-1], s)
				}
			}
		}
	}

	assert.Equal(t, []string{"08:00", "09:00", "10:00"}, GenerateSlots(8, 10))
	assert.Nil(t, GenerateSlots(10, 8))
}

func TestNormalizeHour(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"10:00", "10:00", true},
		{"9:00", "09:00", true},
		{"09:00:00", "09:00", true},
		{" 21:00 ", "21:00", true},
		{"24:00", "", false},
		{"10", "", false},
		{"10:0", "", false},
		{"aa:00", "", false},
		{"10:00:0", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeHour(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	h, ok := HourOf("17:00:00")
	require.True(t, ok)
	assert.Equal(t, 17, h)
	assert.Equal(t, 2, IndexOf([]string{"08:00", "09:00", "10:00"}, "10:00"))
	assert.Equal(t, -1, IndexOf([]string{"08:00"}, "07:00"))
}

func TestClock(t *testing.T) {
	bogota := time.FixedZone("America/Bogota", BogotaOffset)
	// 2026-10-16 10:30 in Bogota is 15:30 UTC.
	now := time.Date(2026, 10, 16, 15, 30, 0, 0, time.UTC)
	clock := FixedClock(bogota, now)
	today := civil.Date{Year: 2026, Month: 10, Day: 16}

	assert.Equal(t, today, clock.Today())
	assert.Equal(t, 10, clock.NowInZone().Hour())

	assert.True(t, clock.IsPast(today, "10:00"))
	assert.False(t, clock.IsPast(today, "11:00"))
	assert.False(t, clock.IsPast(today.AddDays(1), "08:00"))
	assert.True(t, clock.IsPast(today, "bogus"))

	assert.True(t, clock.IsPastDate(today.AddDays(-1)))
	assert.False(t, clock.IsPastDate(today))

	t.Run("SlotStartingExactlyNowIsPast", func(t *testing.T) {
		exact := FixedClock(bogota, time.Date(2026, 10, 16, 16, 0, 0, 0, time.UTC))
		assert.True(t, exact.IsPast(today, "11:00"))
		assert.False(t, exact.IsPast(today, "12:00"))
	})

	t.Run("HostZoneIndependent", func(t *testing.T) {
		// 03:00 UTC on the 17th is still the 16th in Bogota.
		late := FixedClock(bogota, time.Date(2026, 10, 17, 3, 0, 0, 0, time.UTC))
		assert.Equal(t, today, late.Today())
		assert.True(t, late.IsPast(today, "21:00"))
	})

	t.Run("UnknownZoneFallsBack", func(t *testing.T) {
		c := NewClock("Not/AZone", func() time.Time { return now })
		_, offset := c.NowInZone().Zone()
		assert.Equal(t, BogotaOffset, offset)
	})
}

type fakeFinder struct {
	override *models.ScheduleOverride
	err      error
	calls    int
}

func (f *fakeFinder) FindOverride(ctx context.Context, date civil.Date) (*models.ScheduleOverride, error) {
	f.calls++
	return f.override, f.err
}

func TestResolver(t *testing.T) {
	ctx := context.Background()
	date := civil.Date{Year: 2026, Month: 12, Day: 24}

	t.Run("DefaultWhenNoOverride", func(t *testing.T) {
		r := NewResolver(&fakeFinder{}, 8, 21, nil)
		w := r.Resolve(ctx, date)
		assert.Equal(t, SourceDefault, w.Source)
		assert.Len(t, w.Slots, 14)
		assert.Equal(t, "08:00", w.Slots[0])
		assert.Equal(t, "21:00", w.Slots[13])
	})

	t.Run("OverrideWins", func(t *testing.T) {
		finder := &fakeFinder{override: &models.ScheduleOverride{
			ID: "o1", DateStart: date, DateEnd: date, HourOpen: 10, HourClose: 14,
		}}
		w := NewResolver(finder, 8, 21, nil).Resolve(ctx, date)
		assert.Equal(t, SourceOverride, w.Source)
		assert.Equal(t, []string{"10:00", "11:00", "12:00", "13:00", "14:00"}, w.Slots)
	})

	t.Run("FailSoftOnError", func(t *testing.T) {
		finder := &fakeFinder{err: errors.New("connection refused")}
		w := NewResolver(finder, 8, 21, nil).Resolve(ctx, date)
		assert.Equal(t, SourceDefault, w.Source)
		assert.Len(t, w.Slots, 14)
		assert.Equal(t, 1, finder.calls)
	})

	t.Run("IgnoresEmptyOverride", func(t *testing.T) {
		finder := &fakeFinder{override: &models.ScheduleOverride{HourOpen: 12, HourClose: 12}}
		w := NewResolver(finder, 8, 21, nil).Resolve(ctx, date)
		assert.Equal(t, SourceDefault, w.Source)
	})

	t.Run("NilFinder", func(t *testing.T) {
		w := NewResolver(nil, 9, 10, nil).Resolve(ctx, date)
		assert.Equal(t, []string{"09:00", "10:00"}, w.Slots)
	})
}

func TestPickOverride(t *testing.T) {
	d := func(day int) civil.Date { return civil.Date{Year: 2026, Month: 12, Day: day} }
	wide := &models.ScheduleOverride{ID: "wide", DateStart: d(1), DateEnd: d(31)}
	narrow := &models.ScheduleOverride{ID: "narrow", DateStart: d(20), DateEnd: d(26)}
	other := &models.ScheduleOverride{ID: "other", DateStart: d(27), DateEnd: d(28)}

	list := []*models.ScheduleOverride{wide, narrow, other}
	assert.Equal(t, "narrow", PickOverride(list, d(24)).ID)
	assert.Equal(t, "wide", PickOverride(list, d(5)).ID)
	assert.Equal(t, "other", PickOverride(list, d(27)).ID)
	assert.Nil(t, PickOverride(list, civil.Date{Year: 2027, Month: 1, Day: 1}))
}

func TestExpandWeekly(t *testing.T) {
	// 2026-10-15 is a Thursday.
	base := civil.Date{Year: 2026, Month: 10, Day: 15}

	t.Run("NoRecurrence", func(t *testing.T) {
		assert.Equal(t, []civil.Date{base}, ExpandWeekly(base, 0, nil))
	})

	t.Run("ThursdayFriday", func(t *testing.T) {
		dates := ExpandWeekly(base, 2, []int{4, 5})
		assert.Equal(t, []civil.Date{
			{Year: 2026, Month: 10, Day: 15},
			{Year: 2026, Month: 10, Day: 16},
			{Year: 2026, Month: 10, Day: 22},
			{Year: 2026, Month: 10, Day: 23},
		}, dates)
	})

	t.Run("DropsDatesBeforeBase", func(t *testing.T) {
		// Monday and Wednesday of the first week fall before Thursday.
		dates := ExpandWeekly(base, 2, []int{1, 3})
		assert.Equal(t, []civil.Date{
			{Year: 2026, Month: 10, Day: 19},
			{Year: 2026, Month: 10, Day: 21},
		}, dates)
	})

	t.Run("SundayEndsTheWeek", func(t *testing.T) {
		dates := ExpandWeekly(base, 1, []int{0})
		assert.Equal(t, []civil.Date{{Year: 2026, Month: 10, Day: 18}}, dates)
	})

	t.Run("IgnoresInvalidAndDuplicateDays", func(t *testing.T) {
		dates := ExpandWeekly(base, 1, []int{4, 4, 9, -1})
		assert.Equal(t, []civil.Date{base}, dates)
	})

	t.Run("FiftyTwoWeeks", func(t *testing.T) {
		dates := ExpandWeekly(base, 52, []int{4})
		require.Len(t, dates, 52)
		assert.Equal(t, base.AddDays(7*51), dates[51])
	})
}
