package aggregate

import "github.com/amaumene/moviepick/internal/models"

// VoteColumn is one participant's cell in a row
type VoteColumn struct {
	User  string           `json:"user"`
	Value models.VoteValue `json:"value"`
	Label string           `json:"label"`
}

// Row is the enriched view of a single media record
type Row struct {
	ID          uint64           `json:"id,omitempty"`
	Type        models.MediaType `json:"type"`
	Name        string           `json:"name"`
	Viewed      bool             `json:"viewed"`
	Notes       string           `json:"notes,omitempty"`
	Reporter    string           `json:"reporter"`
	ScheduledOn *models.Date     `json:"scheduled_on,omitempty"`
	ViewedOn    *models.Date     `json:"viewed_on,omitempty"`
	Episode     *models.Ordinal  `json:"episode,omitempty"`
	Season      *models.Ordinal  `json:"season,omitempty"`

	Votes        []VoteColumn `json:"votes"` // roster order
	MissingVotes bool         `json:"missing_votes"`
	VotesAvg     *float64     `json:"votes_avg"`
	Enabled      bool         `json:"enabled"` // complete votes and not viewed
}

// Vote returns the participant's column value
func (r Row) Vote(user string) models.VoteValue {
	for _, col := range r.Votes {
		if col.User == user {
			return col.Value
		}
	}
	return models.VoteUnset
}

// Eligible reports whether the row can compete tonight
func (r Row) Eligible() bool {
	return r.Enabled && r.ScheduledOn == nil
}

// Aggregate builds one row per record, in input order
func Aggregate(records []*models.Media, roster models.Roster) []Row {
	rows := make([]Row, 0, len(records))
	for _, record := range records {
		rows = append(rows, buildRow(record.Clone(), roster))
	}
	return rows
}

func buildRow(m *models.Media, roster models.Roster) Row {
	row := Row{
		ID:          m.ID,
		Type:        m.Type,
		Name:        m.Name,
		Viewed:      m.Viewed,
		Notes:       m.Notes,
		Reporter:    m.Reporter,
		ScheduledOn: m.ScheduledOn,
		ViewedOn:    m.ViewedOn,
		Episode:     m.Episode,
		Season:      m.Season,
		Votes:       make([]VoteColumn, 0, len(roster)),
	}

	sum := 0
	for _, user := range roster {
		value := m.VoteOf(user)
		row.Votes = append(row.Votes, VoteColumn{User: user, Value: value, Label: value.Label()})

		score, ok := value.Score()
		if !ok {
			row.MissingVotes = true
			continue
		}
		sum += score
	}

	if !row.MissingVotes && len(roster) > 0 {
		avg := float64(sum) / float64(len(roster))
		row.VotesAvg = &avg
	}
	row.Enabled = row.VotesAvg != nil && !row.Viewed

	return row
}
