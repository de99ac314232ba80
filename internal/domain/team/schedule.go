package team

import (
	"sort"
	"time"
)

const dateLayout = "02.01.2006"

// HalfSchedule is the ordered fixture list of one season half.
type HalfSchedule struct {
	Half    SeasonHalf
	Matches []Match
}

// SeasonSchedule groups a season into its halves, first half first.
type SeasonSchedule struct {
	Season string
	Halves []HalfSchedule
}

// Schedule groups matches by season in first-seen order, then by half.
// Matches are ordered by matchday and then by date.
func (d *Data) Schedule() []SeasonSchedule {
	var seasons []string
	grouped := make(map[string]map[SeasonHalf][]Match)
	for _, m := range d.Matches {
		halves, ok := grouped[m.Season]
		if !ok {
			halves = make(map[SeasonHalf][]Match)
			grouped[m.Season] = halves
			seasons = append(seasons, m.Season)
		}
		halves[m.Half] = append(halves[m.Half], m)
	}

	out := make([]SeasonSchedule, 0, len(seasons))
	for _, season := range seasons {
		entry := SeasonSchedule{Season: season}
		for _, half := range []SeasonHalf{FirstHalf, SecondHalf} {
			matches := grouped[season][half]
			if len(matches) == 0 {
				continue
			}
			sort.SliceStable(matches, func(i, j int) bool {
				if matches[i].Matchday != matches[j].Matchday {
					return matches[i].Matchday < matches[j].Matchday
				}
				return displayDateLess(matches[i].Date, matches[j].Date)
			})
			entry.Halves = append(entry.Halves, HalfSchedule{Half: half, Matches: matches})
		}
		out = append(out, entry)
	}
	return out
}

func displayDateLess(a, b string) bool {
	ta, errA := time.Parse(dateLayout, a)
	tb, errB := time.Parse(dateLayout, b)
	if errA != nil || errB != nil {
		return errA == nil && errB != nil
	}
	return ta.Before(tb)
}
