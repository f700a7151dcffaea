package service

import (
	"context"
	"errors"
	"testing"
)

func validInput() PostLoadInput {
	return PostLoadInput{
		OriginCity:       "Dallas",
		OriginState:      "TX",
		DestinationCity:  "Atlanta",
		DestinationState: "GA",
		PickupDate:       "2026-09-15",
		Price:            2400,
		Distance:         780,
		Equipment:        "Dry Van",
	}
}

func TestPostLoadValidationErrors(t *testing.T) {
	svc := &LoadService{}

	tests := []struct {
		name    string
		mutate  func(*PostLoadInput)
		wantErr error
	}{
		{
			name:    "missing_origin_city",
			mutate:  func(in *PostLoadInput) { in.OriginCity = "" },
			wantErr: ErrMissingOrigin,
		},
		{
			name:    "blank_origin_state",
			mutate:  func(in *PostLoadInput) { in.OriginState = "   " },
			wantErr: ErrMissingOrigin,
		},
		{
			name:    "missing_destination",
			mutate:  func(in *PostLoadInput) { in.DestinationState = "" },
			wantErr: ErrMissingDestination,
		},
		{
			name:    "bad_pickup_date",
			mutate:  func(in *PostLoadInput) { in.PickupDate = "09/15/2026" },
			wantErr: ErrInvalidPickupDate,
		},
		{
			name:    "empty_pickup_date",
			mutate:  func(in *PostLoadInput) { in.PickupDate = "" },
			wantErr: ErrInvalidPickupDate,
		},
		{
			name:    "zero_price",
			mutate:  func(in *PostLoadInput) { in.Price = 0 },
			wantErr: ErrInvalidPrice,
		},
		{
			name:    "negative_distance",
			mutate:  func(in *PostLoadInput) { in.Distance = -10 },
			wantErr: ErrInvalidDistance,
		},
		{
			name:    "unknown_equipment",
			mutate:  func(in *PostLoadInput) { in.Equipment = "Hovercraft" },
			wantErr: ErrInvalidEquipment,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			input := validInput()
			test.mutate(&input)

			_, err := svc.PostLoad(context.Background(), input)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected %v, got %v", test.wantErr, err)
			}
		})
	}
}

func TestValidatePostLoadAcceptsOptionalFields(t *testing.T) {
	input := validInput()
	input.Equipment = ""
	input.Distance = 0
	input.Weight = 0

	if err := validatePostLoad(input); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
