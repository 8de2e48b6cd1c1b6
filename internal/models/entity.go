package models

// Status is the moderation state of a roster entry.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusBlocked  Status = "blocked"
)

// ValidStatuses lists every moderation state in display order.
var ValidStatuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusBlocked}

// Coordinates is a WGS84 point in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is the country > province > district hierarchy of a record. A
// non-empty level implies its parents are non-empty; producers own that
// invariant.
type Location struct {
	Country  string `json:"country"`
	Province string `json:"province"`
	District string `json:"district"`
}

// Facets is the flat view of a record that the filter engine reads.
type Facets struct {
	ID          int64
	Text        []string // free-text fields, in match order
	Category    string   // niche for creators, industry for brands
	Location    Location
	Status      Status
	Verified    bool
	Followers   string // magnitude string, e.g. "12.5K"
	Score       *float64
	Coordinates *Coordinates
}

// Entity is implemented by every searchable roster record.
type Entity interface {
	Facets() Facets
}
