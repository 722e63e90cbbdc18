package model

import "time"

// LocationRecord represents a single normalized location fix.
type LocationRecord struct {
	UTCTime    time.Time `json:"utc_time"`
	LocalTime  time.Time `json:"local_time"` // display only
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	TimeZone   string    `json:"timezone"`
	City       string    `json:"city"`
	County     string    `json:"county"`
	State      string    `json:"state"`
	Country    string    `json:"country"`
	CellType   string    `json:"cell_type"`
	Page       int       `json:"page"`
	Item       int       `json:"item"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"` // originating file path
	Line       int       `json:"line"`   // 1-based row within Source, header included
}

// HasLocation reports whether the record carries a real coordinate.
// (0, 0) is reserved for "coordinate unknown".
func (r LocationRecord) HasLocation() bool {
	return r.Latitude != 0 || r.Longitude != 0
}
