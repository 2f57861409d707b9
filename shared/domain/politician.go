package domain

import "time"

type Politician struct {
	Id        PoliticianId `json:"id"`
	Name      string       `json:"name"`
	Party     string       `json:"party"`
	County    string       `json:"county"`
	Position  string       `json:"position"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
