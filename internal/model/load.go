package model

import (
	"math"
	"time"
)

// Equipment types commonly posted on the board.
const (
	EquipmentDryVan   = "Dry Van"
	EquipmentReefer   = "Reefer"
	EquipmentFlatbed  = "Flatbed"
	EquipmentStepDeck = "Step Deck"
	EquipmentPowerOnly = "Power Only"
)

// Load represents a freight load posting.
type Load struct {
	ID                  string    `json:"id"`
	LoadNumber          string    `json:"load_number,omitempty"`
	Company             string    `json:"company,omitempty"`
	OriginCity          string    `json:"origin_city"`
	OriginState         string    `json:"origin_state"`
	DestinationCity     string    `json:"destination_city"`
	DestinationState    string    `json:"destination_state"`
	PickupDate          string    `json:"pickup_date"`
	Price               int64     `json:"price"` // whole dollars
	Distance            int64     `json:"distance"` // miles
	Weight              int64     `json:"weight,omitempty"` // pounds
	Equipment           string    `json:"equipment,omitempty"`
	Commodity           string    `json:"commodity,omitempty"`
	SpecialInstructions string    `json:"special_instructions,omitempty"`
	ContactPhone        string    `json:"contact_phone,omitempty"`
	Premium             bool      `json:"premium"`
	PostedBy            string    `json:"posted_by,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// RatePerMile computes the per-mile rate, rounded to cents.
// Returns 0 when the distance is unknown.
func (l *Load) RatePerMile() float64 {
	if l.Distance <= 0 {
		return 0
	}
	rate := float64(l.Price) / float64(l.Distance)
	return math.Round(rate*100) / 100
}
