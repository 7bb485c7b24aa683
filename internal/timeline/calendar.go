package timeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/term-timeline/internal/models"
)

// Calendar is the ordered, gap-free period list. It is read-only once built.
type Calendar struct {
	periods []models.Period
	byKey   map[string]int
	byCode  map[int]int
}

// BuildCalendar normalizes raw period definitions into contiguous intervals.
// Placeholder keys are skipped; the extended end of each period is the day
// before the next period starts.
func BuildCalendar(defs []models.PeriodDefinition, opts Options) (*Calendar, error) {
	candidates := make([]models.Period, 0, len(defs))
	for _, def := range defs {
		key := strings.TrimSpace(def.CalendarKey)
		if key == "" || def.StartDate.IsZero() || excludedKey(key, opts.ExcludedCalendarPrefixes) {
			continue
		}
		start := models.TruncateDay(def.StartDate)
		p := models.Period{
			Code:        PeriodCode(key, start, opts.TermSuffixes),
			CalendarKey: key,
			StartDate:   start,
		}
		if def.EndDate != nil {
			end := models.TruncateDay(*def.EndDate)
			p.NominalEndDate = &end
		}
		candidates = append(candidates, p)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].StartDate.Before(candidates[j].StartDate)
	})

	cal := &Calendar{
		byKey:  make(map[string]int, len(candidates)),
		byCode: make(map[int]int, len(candidates)),
	}
	for _, p := range candidates {
		if idx, ok := cal.byCode[p.Code]; ok {
			// same term listed twice; the earliest start wins
			cal.byKey[p.CalendarKey] = idx
			continue
		}
		if n := len(cal.periods); n > 0 && p.Code <= cal.periods[n-1].Code {
			return nil, fmt.Errorf("period %s (%d) starts after %s (%d) but does not sort after it",
				p.CalendarKey, p.Code, cal.periods[n-1].CalendarKey, cal.periods[n-1].Code)
		}
		cal.byCode[p.Code] = len(cal.periods)
		cal.byKey[p.CalendarKey] = len(cal.periods)
		cal.periods = append(cal.periods, p)
	}

	for i := 0; i+1 < len(cal.periods); i++ {
		end := cal.periods[i+1].StartDate.AddDate(0, 0, -1)
		cal.periods[i].ExtendedEndDate = &end
	}
	return cal, nil
}

// PeriodCode derives the YYYYMM-style code for a calendar key. Keys are a
// four-digit year followed by a term label; labels missing from suffixes fall
// back to the start month.
func PeriodCode(key string, start time.Time, suffixes map[string]int) int {
	year := start.Year()
	label := key
	if len(key) >= 4 {
		if y, err := strconv.Atoi(key[:4]); err == nil {
			year = y
			label = key[4:]
		}
	}
	label = strings.ToUpper(strings.Trim(label, " -_/"))
	if suffix, ok := suffixes[label]; ok {
		return year*100 + suffix
	}
	return year*100 + int(start.Month())
}

func excludedKey(key string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// Periods returns a copy of the ordered periods.
func (c *Calendar) Periods() []models.Period {
	out := make([]models.Period, len(c.periods))
	copy(out, c.periods)
	return out
}

// Len is the number of periods.
func (c *Calendar) Len() int {
	return len(c.periods)
}

// Lookup finds the period whose extended interval contains the date.
func (c *Calendar) Lookup(date time.Time) (models.Period, bool) {
	day := models.TruncateDay(date)
	idx := sort.Search(len(c.periods), func(i int) bool {
		return c.periods[i].StartDate.After(day)
	}) - 1
	if idx < 0 || !c.periods[idx].Contains(day) {
		return models.Period{}, false
	}
	return c.periods[idx], true
}

// ByKey resolves a calendar key to its period.
func (c *Calendar) ByKey(key string) (models.Period, bool) {
	idx, ok := c.byKey[strings.TrimSpace(key)]
	if !ok {
		return models.Period{}, false
	}
	return c.periods[idx], true
}

// ByCode resolves a period code.
func (c *Calendar) ByCode(code int) (models.Period, bool) {
	idx, ok := c.byCode[code]
	if !ok {
		return models.Period{}, false
	}
	return c.periods[idx], true
}

// Next returns the code following code in the calendar, or code itself when
// it is the last period or unknown.
func (c *Calendar) Next(code int) int {
	idx, ok := c.byCode[code]
	if !ok || idx+1 >= len(c.periods) {
		return code
	}
	return c.periods[idx+1].Code
}
