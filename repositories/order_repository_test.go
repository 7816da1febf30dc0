package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/snowstorm/snowstorm_backend/models"
)

func newTestOrder(t *testing.T, repo *OrderRepository, mutate func(*models.Order)) *models.Order {
	t.Helper()

	order := &models.Order{
		UserID:         primitive.NewObjectID(),
		Amount:         29900,
		Currency:       "INR",
		CommissionRate: 0.20,
		Receipt:        "rcpt_test",
		GatewayOrderID: "gw_" + primitive.NewObjectID().Hex(),
	}
	if mutate != nil {
		mutate(order)
	}
	if err := repo.Create(context.Background(), order); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return order
}

func TestOrderCreateRejectsNonPositiveAmount(t *testing.T) {
	client := newTestClient(t)
	repo := NewOrderRepository(client)

	for _, amount := range []int64{0, -100} {
		err := repo.Create(context.Background(), &models.Order{Amount: amount})
		if err != models.ErrInvalidAmount {
			t.Errorf("Create(amount=%d) error = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestMarkPaidTransition(t *testing.T) {
	client := newTestClient(t)
	repo := NewOrderRepository(client)
	ctx := context.Background()

	order := newTestOrder(t, repo, nil)

	paid, transitioned, err := repo.MarkPaid(ctx, order.ID, "pay_1", "sig_1")
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if !transitioned {
		t.Fatal("MarkPaid transitioned = false, want true")
	}
	if paid.Status != models.OrderStatusPaid {
		t.Errorf("Status = %q, want %q", paid.Status, models.OrderStatusPaid)
	}
	if paid.GatewayPaymentID != "pay_1" {
		t.Errorf("GatewayPaymentID = %q, want pay_1", paid.GatewayPaymentID)
	}
	if paid.PaidAt == nil {
		t.Error("PaidAt not set")
	}
}

func TestMarkPaidIdempotentReplay(t *testing.T) {
	client := newTestClient(t)
	repo := NewOrderRepository(client)
	ctx := context.Background()

	order := newTestOrder(t, repo, nil)

	if _, _, err := repo.MarkPaid(ctx, order.ID, "pay_1", "sig_1"); err != nil {
		t.Fatalf("first MarkPaid: %v", err)
	}

	// A replay loses the conditional update but gets the paid order back so
	// the caller can compare gateway ids.
	current, transitioned, err := repo.MarkPaid(ctx, order.ID, "pay_1", "sig_1")
	if err != nil {
		t.Fatalf("second MarkPaid: %v", err)
	}
	if transitioned {
		t.Error("replay transitioned = true, want false")
	}
	if current.Status != models.OrderStatusPaid {
		t.Errorf("Status = %q, want paid", current.Status)
	}
	if current.GatewayPaymentID != "pay_1" {
		t.Errorf("GatewayPaymentID = %q, want pay_1", current.GatewayPaymentID)
	}
}

func TestMarkPaidConcurrentSingleWinner(t *testing.T) {
	client := newTestClient(t)
	repo := NewOrderRepository(client)
	ctx := context.Background()

	order := newTestOrder(t, repo, nil)

	const callers = 8
	var wg sync.WaitGroup
	winners := make(chan string, callers)

	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			paymentID := "pay_" + string(rune('a'+i))
			_, transitioned, err := repo.MarkPaid(ctx, order.ID, paymentID, "sig")
			if err != nil {
				return
			}
			if transitioned {
				winners <- paymentID
			}
		}()
	}
	wg.Wait()
	close(winners)

	var count int
	for range winners {
		count++
	}
	if count != 1 {
		t.Fatalf("got %d winners, want exactly 1", count)
	}
}

func TestMarkPaidExpiredOrder(t *testing.T) {
	client := newTestClient(t)
	repo := NewOrderRepository(client)
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	order := newTestOrder(t, repo, func(o *models.Order) {
		o.ExpiresAt = &past
	})

	_, transitioned, err := repo.MarkPaid(ctx, order.ID, "pay_late", "sig")
	if err != models.ErrOrderExpired {
		t.Fatalf("MarkPaid error = %v, want ErrOrderExpired", err)
	}
	if transitioned {
		t.Error("expired order transitioned")
	}

	current, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if current.Status != models.OrderStatusCreated {
		t.Errorf("Status = %q, expired order must stay created", current.Status)
	}
}

func TestMarkPaidUnknownOrder(t *testing.T) {
	client := newTestClient(t)
	repo := NewOrderRepository(client)

	_, _, err := repo.MarkPaid(context.Background(), primitive.NewObjectID(), "pay_1", "sig")
	if err != models.ErrOrderNotFound {
		t.Errorf("MarkPaid error = %v, want ErrOrderNotFound", err)
	}
}

func TestRefundLifecycle(t *testing.T) {
	client := newTestClient(t)
	repo := NewOrderRepository(client)
	ctx := context.Background()

	order := newTestOrder(t, repo, nil)

	// Refunding an unpaid order is rejected.
	if _, err := repo.Refund(ctx, order.ID); err != models.ErrOrderNotRefundable {
		t.Fatalf("Refund before payment error = %v, want ErrOrderNotRefundable", err)
	}

	if _, _, err := repo.MarkPaid(ctx, order.ID, "pay_1", "sig_1"); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	refunded, err := repo.Refund(ctx, order.ID)
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if refunded.Status != models.OrderStatusRefunded {
		t.Errorf("Status = %q, want refunded", refunded.Status)
	}

	// Refunds do not repeat.
	if _, err := repo.Refund(ctx, order.ID); err != models.ErrOrderNotRefundable {
		t.Errorf("second Refund error = %v, want ErrOrderNotRefundable", err)
	}
}

func TestMarkFailedTransition(t *testing.T) {
	client := newTestClient(t)
	repo := NewOrderRepository(client)
	ctx := context.Background()

	order := newTestOrder(t, repo, nil)

	failed, err := repo.MarkFailed(ctx, order.ID)
	if err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if failed.Status != models.OrderStatusFailed {
		t.Errorf("Status = %q, want %q", failed.Status, models.OrderStatusFailed)
	}

	// Repeating the dismissal callback changes nothing.
	failed, err = repo.MarkFailed(ctx, order.ID)
	if err != nil {
		t.Fatalf("second MarkFailed: %v", err)
	}
	if failed.Status != models.OrderStatusFailed {
		t.Errorf("Status after repeat = %q, want %q", failed.Status, models.OrderStatusFailed)
	}
}

func TestMarkFailedNeverTouchesPaidOrder(t *testing.T) {
	client := newTestClient(t)
	repo := NewOrderRepository(client)
	ctx := context.Background()

	order := newTestOrder(t, repo, nil)
	if _, _, err := repo.MarkPaid(ctx, order.ID, "pay_1", "sig_1"); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	// A dismissal callback arriving after the payment succeeded reports the
	// paid order back unchanged.
	current, err := repo.MarkFailed(ctx, order.ID)
	if err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if current.Status != models.OrderStatusPaid {
		t.Errorf("Status = %q, want %q", current.Status, models.OrderStatusPaid)
	}
	if current.GatewayPaymentID != "pay_1" {
		t.Errorf("GatewayPaymentID = %q, want pay_1", current.GatewayPaymentID)
	}
}

func TestMarkFailedUnknownOrder(t *testing.T) {
	client := newTestClient(t)
	repo := NewOrderRepository(client)

	_, err := repo.MarkFailed(context.Background(), primitive.NewObjectID())
	if err != models.ErrOrderNotFound {
		t.Errorf("MarkFailed error = %v, want ErrOrderNotFound", err)
	}
}

func TestFindByBuyerNewestFirst(t *testing.T) {
	client := newTestClient(t)
	repo := NewOrderRepository(client)
	ctx := context.Background()

	buyer := primitive.NewObjectID()
	for i := 0; i < 3; i++ {
		newTestOrder(t, repo, func(o *models.Order) { o.UserID = buyer })
		time.Sleep(5 * time.Millisecond)
	}
	newTestOrder(t, repo, nil) // other buyer

	orders, err := repo.FindByBuyer(ctx, buyer)
	if err != nil {
		t.Fatalf("FindByBuyer: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("got %d orders, want 3", len(orders))
	}
	for i := 1; i < len(orders); i++ {
		if orders[i].CreatedAt.After(orders[i-1].CreatedAt) {
			t.Errorf("orders not sorted newest first at index %d", i)
		}
	}
}
