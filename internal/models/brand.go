package models

// Brand is a company looking for creators.
type Brand struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Industry      string       `json:"industry"`
	Description   string       `json:"description"`
	ContactPerson string       `json:"contactPerson"`
	Website       string       `json:"website,omitempty"`
	Country       string       `json:"country"`
	Province      string       `json:"province"`
	District      string       `json:"district"`
	Status        Status       `json:"status"`
	Verified      bool         `json:"verified"`
	Followers     string       `json:"followers"`
	BrandScore    *float64     `json:"brandScore,omitempty"`
	Coordinates   *Coordinates `json:"coordinates,omitempty"`
}

func (b Brand) Facets() Facets {
	return Facets{
		ID:          b.ID,
		Text:        []string{b.Name, b.Industry, b.Description, b.ContactPerson},
		Category:    b.Industry,
		Location:    Location{Country: b.Country, Province: b.Province, District: b.District},
		Status:      b.Status,
		Verified:    b.Verified,
		Followers:   b.Followers,
		Score:       b.BrandScore,
		Coordinates: b.Coordinates,
	}
}
