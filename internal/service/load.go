// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/majorload/majorload/internal/metrics"
	"github.com/majorload/majorload/internal/model"
	"github.com/majorload/majorload/internal/repository"
)

// Service errors.
var (
	ErrMissingOrigin      = errors.New("origin city and state are required")
	ErrMissingDestination = errors.New("destination city and state are required")
	ErrInvalidPickupDate  = errors.New("pickup_date must be YYYY-MM-DD")
	ErrInvalidPrice       = errors.New("price must be a positive dollar amount")
	ErrInvalidDistance    = errors.New("distance must not be negative")
	ErrInvalidEquipment   = errors.New("unknown equipment type")
)

const (
	maxListLimit     = 100
	defaultListLimit = 50
	pickupDateLayout = "2006-01-02"
)

var knownEquipment = map[string]bool{
	model.EquipmentDryVan:    true,
	model.EquipmentReefer:    true,
	model.EquipmentFlatbed:   true,
	model.EquipmentStepDeck:  true,
	model.EquipmentPowerOnly: true,
}

// LoadService handles load board business logic.
type LoadService struct {
	repo    *repository.Repository
	metrics metrics.Recorder
}

// NewLoadService creates a new LoadService.
func NewLoadService(repo *repository.Repository, recorder metrics.Recorder) *LoadService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &LoadService{
		repo:    repo,
		metrics: recorder,
	}
}

// PostLoadInput defines input for posting a load.
type PostLoadInput struct {
	LoadNumber          string
	Company             string
	OriginCity          string
	OriginState         string
	DestinationCity     string
	DestinationState    string
	PickupDate          string
	Price               int64
	Distance            int64
	Weight              int64
	Equipment           string
	Commodity           string
	SpecialInstructions string
	ContactPhone        string
	Premium             bool
	PostedBy            string
}

// PostLoad validates and creates a new load posting.
func (s *LoadService) PostLoad(ctx context.Context, input PostLoadInput) (*model.Load, error) {
	if err := validatePostLoad(input); err != nil {
		return nil, err
	}

	load := &model.Load{
		ID:                  ulid.Make().String(),
		LoadNumber:          strings.TrimSpace(input.LoadNumber),
		Company:             strings.TrimSpace(input.Company),
		OriginCity:          strings.TrimSpace(input.OriginCity),
		OriginState:         strings.ToUpper(strings.TrimSpace(input.OriginState)),
		DestinationCity:     strings.TrimSpace(input.DestinationCity),
		DestinationState:    strings.ToUpper(strings.TrimSpace(input.DestinationState)),
		PickupDate:          input.PickupDate,
		Price:               input.Price,
		Distance:            input.Distance,
		Weight:              input.Weight,
		Equipment:           input.Equipment,
		Commodity:           strings.TrimSpace(input.Commodity),
		SpecialInstructions: strings.TrimSpace(input.SpecialInstructions),
		ContactPhone:        strings.TrimSpace(input.ContactPhone),
		Premium:             input.Premium,
		PostedBy:            input.PostedBy,
		CreatedAt:           time.Now().UTC(),
	}

	if err := s.repo.CreateLoad(ctx, load); err != nil {
		return nil, fmt.Errorf("failed to post load: %w", err)
	}

	s.metrics.IncLoadPosted(load.Premium)

	return load, nil
}

// ListLoads returns load postings for the requested board tier, newest first.
func (s *LoadService) ListLoads(ctx context.Context, premiumOnly bool, limit int) ([]*model.Load, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}

	loads, err := s.repo.ListLoads(ctx, premiumOnly, limit)
	if err != nil {
		return nil, err
	}

	// Keep the JSON shape stable for empty boards.
	if loads == nil {
		loads = []*model.Load{}
	}

	return loads, nil
}

func validatePostLoad(input PostLoadInput) error {
	if strings.TrimSpace(input.OriginCity) == "" || strings.TrimSpace(input.OriginState) == "" {
		return ErrMissingOrigin
	}
	if strings.TrimSpace(input.DestinationCity) == "" || strings.TrimSpace(input.DestinationState) == "" {
		return ErrMissingDestination
	}
	if _, err := time.Parse(pickupDateLayout, input.PickupDate); err != nil {
		return ErrInvalidPickupDate
	}
	if input.Price <= 0 {
		return ErrInvalidPrice
	}
	if input.Distance < 0 {
		return ErrInvalidDistance
	}
	if input.Equipment != "" && !knownEquipment[input.Equipment] {
		return ErrInvalidEquipment
	}
	return nil
}
