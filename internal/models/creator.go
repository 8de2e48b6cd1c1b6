package models

// Creator is a content creator on the roster.
type Creator struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email,omitempty"`
	Niche        string       `json:"niche"`
	Description  string       `json:"description"`
	Country      string       `json:"country"`
	Province     string       `json:"province"`
	District     string       `json:"district"`
	Status       Status       `json:"status"`
	Verified     bool         `json:"verified"`
	Followers    string       `json:"followers"`
	CreatorScore *float64     `json:"creatorScore,omitempty"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
}

func (c Creator) Facets() Facets {
	return Facets{
		ID:          c.ID,
		Text:        []string{c.Name, c.Niche, c.Description},
		Category:    c.Niche,
		Location:    Location{Country: c.Country, Province: c.Province, District: c.District},
		Status:      c.Status,
		Verified:    c.Verified,
		Followers:   c.Followers,
		Score:       c.CreatorScore,
		Coordinates: c.Coordinates,
	}
}
