// Package calendar turns iCalendar feeds into match candidates.
//
// Only VEVENT blocks and the SUMMARY, DTSTART, DTEND and LOCATION
// properties are read. Everything else in the feed is ignored.
package calendar

import (
	"strings"
)

const (
	beginEvent = "BEGIN:VEVENT"
	endEvent   = "END:VEVENT"

	prefixSummary  = "SUMMARY:"
	prefixStart    = "DTSTART:"
	prefixEnd      = "DTEND:"
	prefixLocation = "LOCATION:"

	teamSeparator = " - "
)

// Event is one VEVENT with raw property values.
type Event struct {
	Summary  string
	Start    string
	End      string
	Location string
}

// MatchCandidate is a staged match derived from one event.
type MatchCandidate struct {
	Opponent string
	Date     string
	Time     string
	IsHome   bool
	Venue    string
	League   string
	Summary  string
	Parsed   bool
}

// Parse extracts events in feed order. Events without DTSTART are dropped.
func Parse(text string) []Event {
	var (
		events  []Event
		current *Event
	)

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case line == beginEvent:
			current = &Event{}
		case line == endEvent:
			if current != nil && current.Start != "" {
				events = append(events, *current)
			}
			current = nil
		case current == nil:
		case strings.HasPrefix(line, prefixSummary):
			current.Summary = strings.TrimPrefix(line, prefixSummary)
		case strings.HasPrefix(line, prefixStart):
			current.Start = strings.TrimPrefix(line, prefixStart)
		case strings.HasPrefix(line, prefixEnd):
			current.End = strings.TrimPrefix(line, prefixEnd)
		case strings.HasPrefix(line, prefixLocation):
			current.Location = strings.TrimPrefix(line, prefixLocation)
		}
	}

	return events
}

type fixture struct {
	home   string
	away   string
	league string
	ok     bool
}

// splitSummary reads "Home - Away (league)". ok is false unless the title
// splits into exactly two sides.
func splitSummary(summary string) fixture {
	title := summary
	league := ""
	if idx := strings.Index(summary, "("); idx >= 0 {
		title = summary[:idx]
		league = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(summary[idx+1:]), ")"))
	}

	parts := strings.Split(strings.TrimSpace(title), teamSeparator)
	if len(parts) != 2 {
		return fixture{league: league}
	}
	return fixture{
		home:   strings.TrimSpace(parts[0]),
		away:   strings.TrimSpace(parts[1]),
		league: league,
		ok:     true,
	}
}

// InferHomeTeam returns the name found most often in the home slot. On a tie
// the name seen first wins. fallback is returned when no summary parses.
func InferHomeTeam(events []Event, fallback string) string {
	counts := make(map[string]int)
	var order []string
	for _, ev := range events {
		f := splitSummary(ev.Summary)
		if !f.ok {
			continue
		}
		if _, seen := counts[f.home]; !seen {
			order = append(order, f.home)
		}
		counts[f.home]++
	}

	best, bestCount := fallback, 0
	for _, name := range order {
		if counts[name] > bestCount {
			best, bestCount = name, counts[name]
		}
	}
	return best
}

// ToMatches parses text and classifies each event as home or away for the
// team inferred by InferHomeTeam.
func ToMatches(ownTeamName, text string) []MatchCandidate {
	_, matches := Classify(Parse(text), ownTeamName)
	return matches
}

// Classify infers the home team from events and classifies each event
// against it. The returned name is the one every candidate was judged by.
func Classify(events []Event, ownTeamName string) (string, []MatchCandidate) {
	homeTeam := InferHomeTeam(events, strings.TrimSpace(ownTeamName))

	out := make([]MatchCandidate, 0, len(events))
	for _, ev := range events {
		date, clock := FormatStart(ev.Start)
		candidate := MatchCandidate{
			Date:    date,
			Time:    clock,
			Venue:   ev.Location,
			Summary: ev.Summary,
		}

		f := splitSummary(ev.Summary)
		candidate.League = f.league
		switch {
		case !f.ok:
			candidate.Opponent = ev.Summary
			candidate.IsHome = true
		case f.home == homeTeam:
			candidate.Opponent = f.away
			candidate.IsHome = true
			candidate.Parsed = true
		default:
			candidate.Opponent = f.home
			candidate.IsHome = false
			candidate.Parsed = true
		}
		out = append(out, candidate)
	}
	return homeTeam, out
}

// FormatStart slices a YYYYMMDDThhmmss[Z] timestamp into "DD.MM.YYYY" and
// "HH:MM". The offset is ignored. Short values yield empty parts.
func FormatStart(start string) (string, string) {
	var date, clock string
	if len(start) >= 8 {
		date = start[6:8] + "." + start[4:6] + "." + start[0:4]
	}
	if len(start) >= 13 && start[8] == 'T' {
		clock = start[9:11] + ":" + start[11:13]
	}
	return date, clock
}
