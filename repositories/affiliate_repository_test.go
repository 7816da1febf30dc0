package repositories

import (
	"context"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/snowstorm/snowstorm_backend/models"
)

func newTestAffiliate(t *testing.T, repo *AffiliateRepository, rate float64) *models.Affiliate {
	t.Helper()
	affiliate, err := repo.Create(context.Background(), "Test Partner", "partner@example.com", rate)
	if err != nil {
		t.Fatalf("Create affiliate: %v", err)
	}
	return affiliate
}

func TestAffiliateCreateRateBounds(t *testing.T) {
	client := newTestClient(t)
	repo := NewAffiliateRepository(client, nil)

	for _, rate := range []float64{-0.1, 1.01} {
		_, err := repo.Create(context.Background(), "Bad", "bad@example.com", rate)
		if err != models.ErrInvalidCommissionRate {
			t.Errorf("Create(rate=%v) error = %v, want ErrInvalidCommissionRate", rate, err)
		}
	}
}

func TestFindActiveByCode(t *testing.T) {
	client := newTestClient(t)
	repo := NewAffiliateRepository(client, nil)
	ctx := context.Background()

	affiliate := newTestAffiliate(t, repo, 0.20)

	found, err := repo.FindActiveByCode(ctx, affiliate.Code)
	if err != nil {
		t.Fatalf("FindActiveByCode: %v", err)
	}
	if found.ID != affiliate.ID {
		t.Errorf("found %s, want %s", found.ID.Hex(), affiliate.ID.Hex())
	}

	if _, err := repo.FindActiveByCode(ctx, "AFF-NOSUCH"); err != models.ErrAffiliateNotFound {
		t.Errorf("unknown code error = %v, want ErrAffiliateNotFound", err)
	}
	if _, err := repo.FindActiveByCode(ctx, ""); err != models.ErrAffiliateNotFound {
		t.Errorf("empty code error = %v, want ErrAffiliateNotFound", err)
	}
}

func TestSoftDeleteHidesCode(t *testing.T) {
	client := newTestClient(t)
	repo := NewAffiliateRepository(client, nil)
	ctx := context.Background()

	affiliate := newTestAffiliate(t, repo, 0.20)

	if err := repo.SoftDelete(ctx, affiliate.Code); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	if _, err := repo.FindActiveByCode(ctx, affiliate.Code); err != models.ErrAffiliateNotFound {
		t.Errorf("soft-deleted code resolved, error = %v", err)
	}

	// The row survives for historical attribution.
	kept, err := repo.FindByID(ctx, affiliate.ID)
	if err != nil {
		t.Fatalf("FindByID after soft delete: %v", err)
	}
	if kept.IsActive || kept.DeletedAt == nil {
		t.Error("soft delete did not mark the row")
	}

	if err := repo.SoftDelete(ctx, affiliate.Code); err != models.ErrAffiliateNotFound {
		t.Errorf("second SoftDelete error = %v, want ErrAffiliateNotFound", err)
	}
}

func TestCreditCommissionExactlyOnce(t *testing.T) {
	client := newTestClient(t)
	repo := NewAffiliateRepository(client, nil)
	ctx := context.Background()

	affiliate := newTestAffiliate(t, repo, 0.20)
	order := &models.Order{
		ID:             primitive.NewObjectID(),
		Amount:         29900,
		Currency:       "INR",
		CommissionRate: 0.20,
		AffiliateCode:  affiliate.Code,
	}

	entry, err := repo.CreditCommission(ctx, affiliate, order)
	if err != nil {
		t.Fatalf("CreditCommission: %v", err)
	}
	if entry.Amount != 5980 {
		t.Errorf("commission = %d, want 5980", entry.Amount)
	}

	if _, err := repo.CreditCommission(ctx, affiliate, order); err != models.ErrCommissionAlreadyCredited {
		t.Fatalf("second CreditCommission error = %v, want ErrCommissionAlreadyCredited", err)
	}

	after, err := repo.FindByID(ctx, affiliate.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if after.SalesCount != 1 {
		t.Errorf("SalesCount = %d, want 1", after.SalesCount)
	}
	if after.TotalRevenue != 29900 {
		t.Errorf("TotalRevenue = %d, want 29900", after.TotalRevenue)
	}
	if after.TotalCommission != 5980 {
		t.Errorf("TotalCommission = %d, want 5980", after.TotalCommission)
	}
}

func TestCreditCommissionConcurrent(t *testing.T) {
	client := newTestClient(t)
	repo := NewAffiliateRepository(client, nil)
	ctx := context.Background()

	affiliate := newTestAffiliate(t, repo, 0.20)
	order := &models.Order{
		ID:             primitive.NewObjectID(),
		Amount:         10000,
		Currency:       "INR",
		CommissionRate: 0.20,
		AffiliateCode:  affiliate.Code,
	}

	const callers = 8
	var wg sync.WaitGroup
	var credited int64
	var mu sync.Mutex

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.CreditCommission(ctx, affiliate, order); err == nil {
				mu.Lock()
				credited++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if credited != 1 {
		t.Fatalf("%d callers credited, want exactly 1", credited)
	}

	after, err := repo.FindByID(ctx, affiliate.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if after.TotalCommission != 2000 {
		t.Errorf("TotalCommission = %d, want 2000", after.TotalCommission)
	}
	if after.SalesCount != 1 {
		t.Errorf("SalesCount = %d, want 1", after.SalesCount)
	}
}

func TestUpdateRate(t *testing.T) {
	client := newTestClient(t)
	repo := NewAffiliateRepository(client, nil)
	ctx := context.Background()

	affiliate := newTestAffiliate(t, repo, 0.20)

	updated, err := repo.UpdateRate(ctx, affiliate.Code, 0.35)
	if err != nil {
		t.Fatalf("UpdateRate: %v", err)
	}
	if updated.CommissionRate != 0.35 {
		t.Errorf("CommissionRate = %v, want 0.35", updated.CommissionRate)
	}

	if _, err := repo.UpdateRate(ctx, affiliate.Code, 1.5); err != models.ErrInvalidCommissionRate {
		t.Errorf("UpdateRate(1.5) error = %v, want ErrInvalidCommissionRate", err)
	}
	if _, err := repo.UpdateRate(ctx, "AFF-NOSUCH", 0.2); err != models.ErrAffiliateNotFound {
		t.Errorf("UpdateRate unknown code error = %v, want ErrAffiliateNotFound", err)
	}
}

func TestStatsPendingPayout(t *testing.T) {
	client := newTestClient(t)
	repo := NewAffiliateRepository(client, nil)
	ctx := context.Background()

	affiliate := newTestAffiliate(t, repo, 0.20)

	order := &models.Order{
		ID:             primitive.NewObjectID(),
		Amount:         50000,
		Currency:       "INR",
		CommissionRate: 0.20,
		AffiliateCode:  affiliate.Code,
	}
	if _, err := repo.CreditCommission(ctx, affiliate, order); err != nil {
		t.Fatalf("CreditCommission: %v", err)
	}

	if _, err := repo.RecordPayout(ctx, affiliate.ID, 4000, "first payout"); err != nil {
		t.Fatalf("RecordPayout: %v", err)
	}

	stats, err := repo.Stats(ctx, affiliate.Code)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.PendingPayout != 6000 {
		t.Errorf("PendingPayout = %d, want 6000", stats.PendingPayout)
	}
	if len(stats.RecentCommissions) != 1 {
		t.Errorf("RecentCommissions = %d entries, want 1", len(stats.RecentCommissions))
	}
}

func TestRecordVisitBumpsClicks(t *testing.T) {
	client := newTestClient(t)
	repo := NewAffiliateRepository(client, nil)
	ctx := context.Background()

	affiliate := newTestAffiliate(t, repo, 0.20)

	visit := &models.Visit{AffiliateCode: affiliate.Code, IP: "203.0.113.9"}
	if err := repo.RecordVisit(ctx, visit); err != nil {
		t.Fatalf("RecordVisit: %v", err)
	}

	after, err := repo.FindByID(ctx, affiliate.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if after.Clicks != 1 {
		t.Errorf("Clicks = %d, want 1", after.Clicks)
	}

	// Unknown codes are logged but never bump anything.
	if err := repo.RecordVisit(ctx, &models.Visit{AffiliateCode: "AFF-NOSUCH"}); err != nil {
		t.Errorf("RecordVisit unknown code error = %v", err)
	}
}
