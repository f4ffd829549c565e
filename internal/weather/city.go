// Package weather holds the domain records served by the service: cities,
// daily forecasts, weather conditions and ranked activities.
package weather

// City is a geocoding match. Population is 0 when the provider does not know it.
type City struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Country     string  `json:"country,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
	Admin1      string  `json:"admin1,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Population  int64   `json:"population,omitempty"`
	Timezone    string  `json:"timezone,omitempty"`
}

// Label renders "Name, Admin1, Country" skipping empty parts.
func (c City) Label() string {
	out := c.Name
	for _, part := range []string{c.Admin1, c.Country} {
		if part != "" && part != c.Name {
			out += ", " + part
		}
	}
	return out
}
