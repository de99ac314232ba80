package postgres

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/riskibarqy/team-schedule/internal/domain/availability"
	"github.com/riskibarqy/team-schedule/internal/domain/prediction"
	"github.com/riskibarqy/team-schedule/internal/domain/team"
)

type teamTableModel struct {
	ID            int64     `db:"id"`
	PublicID      string    `db:"public_id"`
	Name          string    `db:"name"`
	Slug          string    `db:"slug"`
	AccessCode    string    `db:"access_code"`
	PlayersNeeded int       `db:"players_needed"`
	Document      []byte    `db:"document"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type teamInsertModel struct {
	PublicID      string    `db:"public_id"`
	Name          string    `db:"name"`
	Slug          string    `db:"slug"`
	AccessCode    string    `db:"access_code"`
	PlayersNeeded int       `db:"players_needed"`
	Document      []byte    `db:"document"`
	CreatedAt     time.Time `db:"created_at"`
}

// teamDocument is the JSONB body holding everything below the team row.
type teamDocument struct {
	Members      []memberDocument       `json:"members"`
	Matches      []matchDocument        `json:"matches"`
	Availability []availabilityDocument `json:"availability"`
	Predictions  []predictionDocument   `json:"predictions"`
}

type memberDocument struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type matchDocument struct {
	ID           string `json:"id"`
	Opponent     string `json:"opponent"`
	Date         string `json:"date"`
	Time         string `json:"time,omitempty"`
	IsHome       bool   `json:"is_home"`
	Venue        string `json:"venue,omitempty"`
	Season       string `json:"season,omitempty"`
	Half         string `json:"half"`
	Matchday     int    `json:"matchday"`
	OriginalDate string `json:"original_date,omitempty"`
}

type availabilityDocument struct {
	MemberID string `json:"member_id"`
	MatchID  string `json:"match_id"`
	Status   string `json:"status"`
}

type predictionDocument struct {
	MatchID  string `json:"match_id"`
	Date     string `json:"date"`
	MemberID string `json:"member_id"`
	Status   string `json:"status"`
}

func encodeDocument(data team.Data) ([]byte, error) {
	doc := teamDocument{
		Members:      make([]memberDocument, 0, len(data.Members)),
		Matches:      make([]matchDocument, 0, len(data.Matches)),
		Availability: []availabilityDocument{},
		Predictions:  []predictionDocument{},
	}
	for _, m := range data.Members {
		doc.Members = append(doc.Members, memberDocument{ID: m.ID, Name: m.Name})
	}
	for _, m := range data.Matches {
		doc.Matches = append(doc.Matches, matchDocument{
			ID:           m.ID,
			Opponent:     m.Opponent,
			Date:         m.Date,
			Time:         m.Time,
			IsHome:       m.IsHome,
			Venue:        m.Venue,
			Season:       m.Season,
			Half:         string(m.Half),
			Matchday:     m.Matchday,
			OriginalDate: m.OriginalDate,
		})
	}
	for _, r := range data.Availability.Records() {
		doc.Availability = append(doc.Availability, availabilityDocument{
			MemberID: r.MemberID,
			MatchID:  r.MatchID,
			Status:   string(r.Status),
		})
	}
	for _, v := range data.Predictions.Votes() {
		doc.Predictions = append(doc.Predictions, predictionDocument{
			MatchID:  v.MatchID,
			Date:     v.Date,
			MemberID: v.MemberID,
			Status:   string(v.Status),
		})
	}

	raw, err := sonic.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode team document: %w", err)
	}
	return raw, nil
}

func (row teamTableModel) toDomain() (team.Data, error) {
	data := team.NewData(team.Team{
		ID:            row.PublicID,
		Name:          row.Name,
		Slug:          row.Slug,
		PlayersNeeded: row.PlayersNeeded,
		CreatedAt:     row.CreatedAt.UTC(),
		AccessCode:    row.AccessCode,
	})
	if len(row.Document) == 0 {
		return data, nil
	}

	var doc teamDocument
	if err := sonic.Unmarshal(row.Document, &doc); err != nil {
		return team.Data{}, fmt.Errorf("decode team document %s: %w", row.PublicID, err)
	}

	data.Members = make([]team.Member, 0, len(doc.Members))
	for _, m := range doc.Members {
		data.Members = append(data.Members, team.Member{ID: m.ID, TeamID: row.PublicID, Name: m.Name})
	}
	data.Matches = make([]team.Match, 0, len(doc.Matches))
	for _, m := range doc.Matches {
		data.Matches = append(data.Matches, team.Match{
			ID:           m.ID,
			TeamID:       row.PublicID,
			Opponent:     m.Opponent,
			Date:         m.Date,
			Time:         m.Time,
			IsHome:       m.IsHome,
			Venue:        m.Venue,
			Season:       m.Season,
			Half:         team.SeasonHalf(m.Half),
			Matchday:     m.Matchday,
			OriginalDate: m.OriginalDate,
		})
	}

	records := make([]availability.Record, 0, len(doc.Availability))
	for _, r := range doc.Availability {
		records = append(records, availability.Record{MemberID: r.MemberID, MatchID: r.MatchID, Status: availability.Status(r.Status)})
	}
	data.Availability = availability.FromRecords(records)

	votes := make([]prediction.Vote, 0, len(doc.Predictions))
	for _, v := range doc.Predictions {
		votes = append(votes, prediction.Vote{MatchID: v.MatchID, Date: v.Date, MemberID: v.MemberID, Status: availability.Status(v.Status)})
	}
	data.Predictions = prediction.FromVotes(votes)

	return data, nil
}
