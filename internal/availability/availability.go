// Package availability aggregates respondent selections into the views the
// organizer needs to pick a session time: a dense per-date grid and a ranked
// list of the most broadly available slots.
package availability

import (
	"sort"
	"strings"
	"time"

	"github.com/example/session-scheduler/internal/timeslot"
)

// Response is one respondent's recorded availability, keyed by email.
// Selections maps ISO date strings to the slot labels marked available.
type Response struct {
	ID            string
	Email         string
	PlayerName    string
	CharacterName string
	Selections    map[string][]string
	UpdatedAt     time.Time
}

// SelectionsFor returns the slot labels the respondent marked for a date.
// Unknown dates yield an empty list, never an error.
func (r Response) SelectionsFor(date string) []string {
	if r.Selections == nil {
		return nil
	}
	return r.Selections[date]
}

// HasSlot reports whether the respondent marked the slot on the date.
func (r Response) HasSlot(date, label string) bool {
	for _, selected := range r.SelectionsFor(date) {
		if selected == label {
			return true
		}
	}
	return false
}

// LatestResponses de-duplicates responses by email, keeping the most recently
// updated record per respondent. Upsert semantics upstream should prevent
// duplicates in the first place, so this is a defensive filter.
func LatestResponses(responses []Response) []Response {
	ordered := make([]Response, len(responses))
	copy(ordered, responses)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].UpdatedAt.After(ordered[j].UpdatedAt)
	})

	seen := make(map[string]struct{}, len(ordered))
	latest := make([]Response, 0, len(ordered))
	for _, response := range ordered {
		key := strings.ToLower(response.Email)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		latest = append(latest, response)
	}
	return latest
}

// GridRow is one respondent's availability on one date.
type GridRow struct {
	PlayerName    string
	CharacterName string
	Slots         []string
}

// GridDate groups the rows for a single calendar date.
type GridDate struct {
	Date string
	Rows []GridRow
}

// BuildGrid produces one row per respondent per date across the full date
// list. The grid is dense over dates: a respondent who selected nothing on a
// date still gets a row with an empty slot list.
func BuildGrid(dates []string, responses []Response) []GridDate {
	grid := make([]GridDate, 0, len(dates))
	for _, date := range dates {
		rows := make([]GridRow, 0, len(responses))
		for _, response := range responses {
			slots := response.SelectionsFor(date)
			if slots == nil {
				slots = []string{}
			}
			rows = append(rows, GridRow{
				PlayerName:    response.PlayerName,
				CharacterName: response.CharacterName,
				Slots:         slots,
			})
		}
		grid = append(grid, GridDate{Date: date, Rows: rows})
	}
	return grid
}

// PopularSlot is one (date, slot) pair with the respondents available then.
type PopularSlot struct {
	Date        string
	Label       string
	Start       timeslot.TimeOfDay
	Count       int
	PlayerNames []string
}

// DefaultRankingLimit caps how many popular slots are surfaced.
const DefaultRankingLimit = 5

// RankPopularSlots counts, for every slot offered on every date, how many of
// the given responses include it, and returns the pairs ordered by descending
// count, capped to limit. Pairs nobody selected are omitted. The sort is
// stable, so ties keep the date-then-slot generation order.
func RankPopularSlots(dates []string, slotsByDate map[string][]timeslot.Slot, responses []Response, limit int) []PopularSlot {
	if limit <= 0 {
		limit = DefaultRankingLimit
	}

	ranked := make([]PopularSlot, 0)
	for _, date := range dates {
		for _, slot := range slotsByDate[date] {
			var names []string
			for _, response := range responses {
				if response.HasSlot(date, slot.Label) {
					names = append(names, response.PlayerName)
				}
			}
			if len(names) == 0 {
				continue
			}
			ranked = append(ranked, PopularSlot{
				Date:        date,
				Label:       slot.Label,
				Start:       slot.Start,
				Count:       len(names),
				PlayerNames: names,
			})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
