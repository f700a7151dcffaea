//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/majorload/majorload/internal/testutil"
)

func newLoadTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()

	databaseURL := testutil.RequireEnv(t, "TEST_DATABASE_URL")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	repo, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("connect database: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		if err := unlock(); err != nil {
			t.Errorf("release db lock: %v", err)
		}
	})

	if err := testutil.ResetLoadsSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset loads schema: %v", err)
	}

	return ctx, repo
}

func TestIntegrationLoadRepository_CreateAndList(t *testing.T) {
	ctx, repo := newLoadTestEnv(t)

	load := testutil.NewTestLoad(t, "dispatch@example.com")
	if err := repo.CreateLoad(ctx, load); err != nil {
		t.Fatalf("CreateLoad failed: %v", err)
	}

	loads, err := repo.ListLoads(ctx, false, 10)
	if err != nil {
		t.Fatalf("ListLoads failed: %v", err)
	}
	if len(loads) != 1 {
		t.Fatalf("got %d loads, want 1", len(loads))
	}
	if loads[0].ID != load.ID {
		t.Errorf("ID = %s, want %s", loads[0].ID, load.ID)
	}
	if loads[0].Equipment != load.Equipment {
		t.Errorf("Equipment = %s, want %s", loads[0].Equipment, load.Equipment)
	}
}

func TestIntegrationLoadRepository_TierSeparation(t *testing.T) {
	ctx, repo := newLoadTestEnv(t)

	public := testutil.NewTestLoad(t, "dispatch@example.com")
	premium := testutil.NewTestLoad(t, "dispatch@example.com")
	premium.Premium = true

	if err := repo.CreateLoad(ctx, public); err != nil {
		t.Fatalf("create public load: %v", err)
	}
	if err := repo.CreateLoad(ctx, premium); err != nil {
		t.Fatalf("create premium load: %v", err)
	}

	publicBoard, err := repo.ListLoads(ctx, false, 10)
	if err != nil {
		t.Fatalf("list public board: %v", err)
	}
	if len(publicBoard) != 1 || publicBoard[0].ID != public.ID {
		t.Errorf("public board = %d loads, want only the public posting", len(publicBoard))
	}

	premiumBoard, err := repo.ListLoads(ctx, true, 10)
	if err != nil {
		t.Fatalf("list premium board: %v", err)
	}
	if len(premiumBoard) != 1 || premiumBoard[0].ID != premium.ID {
		t.Errorf("premium board = %d loads, want only the premium posting", len(premiumBoard))
	}
}

func TestIntegrationLoadRepository_NewestFirst(t *testing.T) {
	ctx, repo := newLoadTestEnv(t)

	older := testutil.NewTestLoad(t, "dispatch@example.com")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := testutil.NewTestLoad(t, "dispatch@example.com")

	if err := repo.CreateLoad(ctx, older); err != nil {
		t.Fatalf("create older load: %v", err)
	}
	if err := repo.CreateLoad(ctx, newer); err != nil {
		t.Fatalf("create newer load: %v", err)
	}

	loads, err := repo.ListLoads(ctx, false, 10)
	if err != nil {
		t.Fatalf("ListLoads failed: %v", err)
	}
	if len(loads) != 2 {
		t.Fatalf("got %d loads, want 2", len(loads))
	}
	if loads[0].ID != newer.ID {
		t.Error("newest posting is not first")
	}
}
