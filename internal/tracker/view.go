package tracker

import (
	"strings"
	"time"
)

// TimeLayout is how timestamps are shown in the list.
const TimeLayout = "2006-01-02 15:04:05"

// Placeholder stands in for a timestamp the store never set.
const Placeholder = "N/A"

// Filter returns the records whose category contains query, ignoring case,
// in their original order. An empty query keeps every record. The input is
// never modified.
func Filter(records []Record, query string) []Record {
	out := make([]Record, 0, len(records))
	needle := strings.ToLower(query)
	for _, r := range records {
		if needle == "" || strings.Contains(strings.ToLower(r.Category), needle) {
			out = append(out, r)
		}
	}
	return out
}

// Row is one rendered line of the list.
type Row struct {
	ID        string
	Category  string
	Amount    string
	Comments  string
	CreatedAt string
	UpdatedAt string
}

// BuildRows filters records and formats them for display in loc.
func BuildRows(records []Record, query string, loc *time.Location) []Row {
	if loc == nil {
		loc = time.Local
	}
	visible := Filter(records, query)
	rows := make([]Row, len(visible))
	for i, r := range visible {
		rows[i] = Row{
			ID:        r.ID,
			Category:  r.Category,
			Amount:    r.Amount,
			Comments:  r.Comments,
			CreatedAt: formatTime(r.CreatedAt, loc),
			UpdatedAt: formatTime(r.UpdatedAt, loc),
		}
	}
	return rows
}

func formatTime(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return Placeholder
	}
	return t.In(loc).Format(TimeLayout)
}
