package models

import (
	"time"
)

// PropertyRecord is one parsed listing page. Numeric facts are nil when the
// page did not yield a usable value; when set they are finite and positive.
type PropertyRecord struct {
	Identifier   string    `json:"identifier,omitempty" db:"identifier"`
	Region       string    `json:"region,omitempty" db:"region"`
	SourceURL    string    `json:"source_url" db:"source_url"`
	Title        string    `json:"title" db:"title"`
	SiteName     string    `json:"site_name" db:"site_name"`
	Street       string    `json:"street,omitempty" db:"street"`
	City         string    `json:"city,omitempty" db:"city"`
	State        string    `json:"state,omitempty" db:"state"`
	ZipCode      string    `json:"zip_code,omitempty" db:"zip_code"`
	Price        *float64  `json:"price" db:"price"`
	Bedrooms     *float64  `json:"bedrooms" db:"bedrooms"`
	Bathrooms    *float64  `json:"bathrooms" db:"bathrooms"`
	LivingArea   *float64  `json:"living_area_sqft" db:"living_area_sqft"`
	LotSize      *float64  `json:"lot_size_sqft" db:"lot_size_sqft"`
	YearBuilt    *int      `json:"year_built" db:"year_built"`
	PropertyType string    `json:"property_type,omitempty" db:"property_type"`
	BrokerName   string    `json:"broker_name,omitempty" db:"broker_name"`
	PhotoURL     string    `json:"photo_url,omitempty" db:"photo_url"`
	ScrapedAt    time.Time `json:"scraped_at" db:"scraped_at"`
}

// Address joins the populated address components.
func (r *PropertyRecord) Address() string {
	var parts []string
	for _, p := range []string{r.Street, r.City, r.State, r.ZipCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// Float returns the value behind p, or zero.
func Float(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 {
	return &v
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
