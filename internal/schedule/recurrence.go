package schedule

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
)

// ExpandWeekly lists the dates of a weekly series. Weeks start on Monday;
// the first week is the one containing base. daysOfWeek uses Sunday = 0.
// Dates before base are dropped and the result is ascending and unique.
func ExpandWeekly(base civil.Date, weeks int, daysOfWeek []int) []civil.Date {
	if weeks < 1 || len(daysOfWeek) == 0 {
		return []civil.Date{base}
	}

	weekStart := base.AddDays(-mondayOffset(base.Weekday()))
	seen := make(map[civil.Date]struct{})
	var dates []civil.Date

	for w := 0; w < weeks; w++ {
		start := weekStart.AddDays(7 * w)
		for _, d := range daysOfWeek {
			if d < 0 || d > 6 {
				continue
			}
			date := start.AddDays(mondayOffset(time.Weekday(d)))
			if date.Before(base) {
				continue
			}
			if _, dup := seen[date]; dup {
				continue
			}
			seen[date] = struct{}{}
			dates = append(dates, date)
		}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// mondayOffset is the number of days from Monday to wd.
func mondayOffset(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
