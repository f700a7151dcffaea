// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/majorload/majorload/internal/model"
)

// PostLoadRequest represents the request body for posting a load.
type PostLoadRequest struct {
	LoadNumber          string `json:"load_number,omitempty"`
	Company             string `json:"company,omitempty"`
	OriginCity          string `json:"origin_city"`
	OriginState         string `json:"origin_state"`
	DestinationCity     string `json:"destination_city"`
	DestinationState    string `json:"destination_state"`
	PickupDate          string `json:"pickup_date"`
	Price               int64  `json:"price"`
	Distance            int64  `json:"distance,omitempty"`
	Weight              int64  `json:"weight,omitempty"`
	Equipment           string `json:"equipment,omitempty"`
	Commodity           string `json:"commodity,omitempty"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
	ContactPhone        string `json:"contact_phone,omitempty"`
	Premium             bool   `json:"premium,omitempty"`
}

// LoadResponse represents a load posting in API responses.
type LoadResponse struct {
	ID                  string    `json:"id"`
	LoadNumber          string    `json:"load_number,omitempty"`
	Company             string    `json:"company,omitempty"`
	OriginCity          string    `json:"origin_city"`
	OriginState         string    `json:"origin_state"`
	DestinationCity     string    `json:"destination_city"`
	DestinationState    string    `json:"destination_state"`
	PickupDate          string    `json:"pickup_date"`
	Price               int64     `json:"price"`
	Distance            int64     `json:"distance,omitempty"`
	Weight              int64     `json:"weight,omitempty"`
	Equipment           string    `json:"equipment,omitempty"`
	Commodity           string    `json:"commodity,omitempty"`
	SpecialInstructions string    `json:"special_instructions,omitempty"`
	ContactPhone        string    `json:"contact_phone,omitempty"`
	RatePerMile         float64   `json:"rate_per_mile,omitempty"`
	Premium             bool      `json:"premium"`
	CreatedAt           time.Time `json:"created_at"`
}

// LoadListResponse represents a list of load postings.
type LoadListResponse struct {
	Data  []LoadResponse `json:"data"`
	Count int            `json:"count"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ToLoadResponse converts a load model to its API representation.
func ToLoadResponse(load *model.Load) LoadResponse {
	return LoadResponse{
		ID:                  load.ID,
		LoadNumber:          load.LoadNumber,
		Company:             load.Company,
		OriginCity:          load.OriginCity,
		OriginState:         load.OriginState,
		DestinationCity:     load.DestinationCity,
		DestinationState:    load.DestinationState,
		PickupDate:          load.PickupDate,
		Price:               load.Price,
		Distance:            load.Distance,
		Weight:              load.Weight,
		Equipment:           load.Equipment,
		Commodity:           load.Commodity,
		SpecialInstructions: load.SpecialInstructions,
		ContactPhone:        load.ContactPhone,
		RatePerMile:         load.RatePerMile(),
		Premium:             load.Premium,
		CreatedAt:           load.CreatedAt,
	}
}

// ToLoadListResponse converts a slice of load models to a list response.
func ToLoadListResponse(loads []*model.Load) LoadListResponse {
	data := make([]LoadResponse, 0, len(loads))
	for _, load := range loads {
		data = append(data, ToLoadResponse(load))
	}
	return LoadListResponse{
		Data:  data,
		Count: len(data),
	}
}
