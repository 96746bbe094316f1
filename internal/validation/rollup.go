package validation

// Rollups aggregates a set of validation events.
type Rollups struct {
	Total        int              `json:"total"`
	ByCode       map[string]int   `json:"by_code"`
	BySeverity   map[Severity]int `json:"by_severity"`
	LatestByCode map[string]Event `json:"latest_by_code"`
}

// BuildRollups counts events per code and per severity and keeps, per code, the
// event with the greatest timestamp. Timestamps compare as strings, which orders
// correctly only because the core writes one fixed-width UTC layout. On equal
// timestamps the first event seen wins.
func BuildRollups(events []Event) Rollups {
	r := Rollups{
		Total:        len(events),
		ByCode:       make(map[string]int),
		BySeverity:   make(map[Severity]int),
		LatestByCode: make(map[string]Event),
	}

	for _, ev := range events {
		r.ByCode[ev.Code]++
		r.BySeverity[ev.Severity]++

		if cur, ok := r.LatestByCode[ev.Code]; !ok || ev.Timestamp > cur.Timestamp {
			r.LatestByCode[ev.Code] = ev
		}
	}
	return r
}
