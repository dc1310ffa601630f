// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"

	"github.com/danielhkuo/brikick/auth"
	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/store"
	"github.com/danielhkuo/brikick/testutil"
)

var equateRows = cmp.Options{
	cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
	cmpopts.EquateApproxTime(time.Second),
}

func TestGetLots(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	seller := testutil.CreateTestUser(t, db, "seller")
	s := testutil.CreateTestStore(t, db, seller.ID, "Brick Bazaar")
	item := testutil.CreateTestCatalogItem(t, db, "3001")
	a := testutil.CreateTestLot(t, db, s.ID, item.ID, 5, "0.25")
	b := testutil.CreateTestLot(t, db, s.ID, item.ID, 7, "1.10")

	got, err := store.GetLots(ctx, db, []string{a.ID, b.ID, "missing"})
	if err != nil {
		t.Fatalf("GetLots() error = %v", err)
	}
	want := map[string]models.Lot{a.ID: a, b.ID: b}
	if diff := cmp.Diff(want, got, equateRows); diff != "" {
		t.Errorf("GetLots() mismatch (-want +got):\n%s", diff)
	}

	empty, err := store.GetLots(ctx, db, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("GetLots(nil) = %v, %v; want empty", empty, err)
	}
}

func TestAdjustLotQuantity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	seller := testutil.CreateTestUser(t, db, "seller")
	s := testutil.CreateTestStore(t, db, seller.ID, "Brick Bazaar")
	item := testutil.CreateTestCatalogItem(t, db, "3001")
	lot := testutil.CreateTestLot(t, db, s.ID, item.ID, 3, "0.50")
	now := time.Now().UTC()

	steps := []struct {
		name       string
		delta      int
		wantErr    bool
		wantQty    int
		wantStatus string
	}{
		{"sell some", -2, false, 1, models.LotAvailable},
		{"oversell", -2, true, 1, models.LotAvailable},
		{"sell out", -1, false, 0, models.LotSoldOut},
		{"restock", 4, false, 4, models.LotAvailable},
	}

	for _, step := range steps {
		err := store.AdjustLotQuantity(ctx, db, lot.ID, step.delta, now)
		if (err != nil) != step.wantErr {
			t.Fatalf("%s: AdjustLotQuantity() error = %v, wantErr %v", step.name, err, step.wantErr)
		}
		if step.wantErr && !errors.Is(err, store.ErrInsufficientStock) {
			t.Errorf("%s: AdjustLotQuantity() error = %v, want ErrInsufficientStock", step.name, err)
		}
		got, err := store.GetLot(ctx, db, lot.ID)
		if err != nil {
			t.Fatalf("%s: GetLot() error = %v", step.name, err)
		}
		if got.Quantity != step.wantQty || got.Status != step.wantStatus {
			t.Errorf("%s: got %d %s, want %d %s", step.name, got.Quantity, got.Status, step.wantQty, step.wantStatus)
		}
	}

	if err := store.AdjustLotQuantity(ctx, db, "missing", 1, now); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("AdjustLotQuantity(missing) error = %v, want ErrNotFound", err)
	}
}

func TestCurrentPenalty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, db, "user")
	now := time.Now().UTC()

	add := func(kind string, starts time.Time, ends *time.Time) models.UserPenalty {
		p := models.UserPenalty{
			ID:          auth.NewID(),
			UserID:      user.ID,
			PenaltyType: kind,
			ReasonCode:  "MANUAL",
			StartsAt:    starts,
			EndsAt:      ends,
			CreatedAt:   starts,
		}
		if err := store.CreatePenalty(ctx, db, &p); err != nil {
			t.Fatalf("CreatePenalty() error = %v", err)
		}
		return p
	}

	if _, err := store.CurrentPenalty(ctx, db, user.ID, now); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("CurrentPenalty() with no penalties error = %v, want ErrNotFound", err)
	}

	expired := now.Add(-time.Hour)
	add(models.PenaltySuspension, now.Add(-48*time.Hour), &expired)
	warning := add(models.PenaltyWarning, now.Add(-24*time.Hour), nil)
	future := now.Add(time.Hour)
	add(models.PenaltyBan, future, nil)

	got, err := store.CurrentPenalty(ctx, db, user.ID, now)
	if err != nil {
		t.Fatalf("CurrentPenalty() error = %v", err)
	}
	if diff := cmp.Diff(warning, *got, equateRows); diff != "" {
		t.Errorf("CurrentPenalty() mismatch (-want +got):\n%s", diff)
	}

	all, err := store.ListUserPenalties(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("ListUserPenalties() error = %v", err)
	}
	var kinds []string
	for _, p := range all {
		kinds = append(kinds, p.PenaltyType)
	}
	want := []string{models.PenaltyBan, models.PenaltyWarning, models.PenaltySuspension}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("ListUserPenalties() order mismatch (-want +got):\n%s", diff)
	}
}
