package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/majorload/majorload/internal/model"
	"github.com/majorload/majorload/internal/repository"
)

// Seeds the load board with sample postings for local development.
//
// Usage:
//   go run scripts/seed-loads.go -database-url "$DATABASE_URL"

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		postedBy    = flag.String("posted-by", "dispatch@majorload.local", "Email recorded as the poster")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	pickup := time.Now().AddDate(0, 0, 3).Format("2006-01-02")

	loads := []*model.Load{
		{
			LoadNumber:       "ML-1001",
			Company:          "Lone Star Freight",
			OriginCity:       "Dallas",
			OriginState:      "TX",
			DestinationCity:  "Atlanta",
			DestinationState: "GA",
			PickupDate:       pickup,
			Price:            2400,
			Distance:         780,
			Weight:           42000,
			Equipment:        model.EquipmentDryVan,
			Commodity:        "Packaged foods",
			ContactPhone:     "214-555-0142",
		},
		{
			LoadNumber:       "ML-1002",
			Company:          "Cascade Carriers",
			OriginCity:       "Portland",
			OriginState:      "OR",
			DestinationCity:  "Boise",
			DestinationState: "ID",
			PickupDate:       pickup,
			Price:            1350,
			Distance:         430,
			Weight:           38000,
			Equipment:        model.EquipmentReefer,
			Commodity:        "Produce",
			ContactPhone:     "503-555-0187",
		},
		{
			LoadNumber:          "ML-2001",
			Company:             "Apex Logistics",
			OriginCity:          "Chicago",
			OriginState:         "IL",
			DestinationCity:     "Denver",
			DestinationState:    "CO",
			PickupDate:          pickup,
			Price:               3900,
			Distance:            1000,
			Weight:              45000,
			Equipment:           model.EquipmentFlatbed,
			Commodity:           "Steel coils",
			SpecialInstructions: "Tarps required",
			ContactPhone:        "312-555-0114",
			Premium:             true,
		},
		{
			LoadNumber:       "ML-2002",
			Company:          "Gulf Coast Transport",
			OriginCity:       "Houston",
			OriginState:      "TX",
			DestinationCity:  "Miami",
			DestinationState: "FL",
			PickupDate:       pickup,
			Price:            4200,
			Distance:         1180,
			Weight:           40000,
			Equipment:        model.EquipmentStepDeck,
			Commodity:        "Industrial equipment",
			ContactPhone:     "713-555-0163",
			Premium:          true,
		},
	}

	for _, load := range loads {
		load.ID = ulid.Make().String()
		load.PostedBy = *postedBy
		load.CreatedAt = time.Now().UTC()

		if err := repo.CreateLoad(ctx, load); err != nil {
			fmt.Fprintf(os.Stderr, "create load %s: %v\n", load.LoadNumber, err)
			os.Exit(1)
		}
		tier := "public"
		if load.Premium {
			tier = "premium"
		}
		fmt.Printf("seeded %s (%s) %s, %s -> %s, %s\n",
			load.LoadNumber, tier, load.ID, load.OriginCity, load.DestinationCity, load.Equipment)
	}
}
