package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snowstorm/snowstorm_backend/config"
	"github.com/snowstorm/snowstorm_backend/models"
)

// OrderRepository is the order ledger. All status transitions are
// conditional single-document updates: the filter carries the precondition
// and the update only lands when it still holds, so concurrent callers race
// safely without reading first.
type OrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Client) *OrderRepository {
	return &OrderRepository{
		collection: config.GetCollection(db, "orders"),
	}
}

// Create inserts a new pending order. The caller has already resolved the
// commission-rate snapshot and the gateway order identifier.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.Amount <= 0 {
		return models.ErrInvalidAmount
	}

	now := time.Now()
	order.ID = primitive.NewObjectID()
	order.Status = models.OrderStatusCreated
	order.CommissionApplied = false
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.Currency == "" {
		order.Currency = "INR"
	}

	_, err := r.collection.InsertOne(ctx, order)
	return err
}

// FindByID returns an order or models.ErrOrderNotFound.
func (r *OrderRepository) FindByID(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByBuyer returns the buyer's orders, newest first.
func (r *OrderRepository) FindByBuyer(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkPaid attempts the created -> paid transition. The filter requires the
// order to still be "created" and unexpired, so only one of any number of
// concurrent verification calls can win; the conditional update is the sole
// arbiter of who proceeds to credit commission.
//
// Returns (order, true, nil) for the winner. Losers get the current order
// with transitioned=false: already-paid orders come back with a nil error
// (the caller decides between idempotent success and a conflict by comparing
// gateway identifiers), expired orders return models.ErrOrderExpired, other
// terminal states return models.ErrAlreadyProcessed.
func (r *OrderRepository) MarkPaid(ctx context.Context, orderID primitive.ObjectID, gatewayPaymentID, gatewaySignature string) (*models.Order, bool, error) {
	now := time.Now()

	filter := bson.M{
		"_id":    orderID,
		"status": models.OrderStatusCreated,
		"$or": []bson.M{
			{"expiresAt": bson.M{"$exists": false}},
			{"expiresAt": nil},
			{"expiresAt": bson.M{"$gt": now}},
		},
	}
	update := bson.M{"$set": bson.M{
		"status":           models.OrderStatusPaid,
		"gatewayPaymentId": gatewayPaymentID,
		"gatewaySignature": gatewaySignature,
		"paidAt":           now,
		"updatedAt":        now,
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if err == nil {
		return &order, true, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, false, err
	}

	// Lost the conditional update; classify why.
	current, err := r.FindByID(ctx, orderID)
	if err != nil {
		return nil, false, err
	}

	switch current.Status {
	case models.OrderStatusPaid:
		return current, false, nil
	case models.OrderStatusCreated:
		if current.Expired(now) {
			return current, false, models.ErrOrderExpired
		}
		return current, false, models.ErrAlreadyProcessed
	default:
		return current, false, models.ErrAlreadyProcessed
	}
}

// MarkCommissionApplied flags the order after its commission entry landed.
// The commissions unique index is the real guard; this flag is for queries.
func (r *OrderRepository) MarkCommissionApplied(ctx context.Context, orderID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": orderID},
		bson.M{"$set": bson.M{"commissionApplied": true, "updatedAt": time.Now()}})
	return err
}

// Refund performs the paid -> refunded transition, the only permitted exit
// from "paid".
func (r *OrderRepository) Refund(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error) {
	now := time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": orderID, "status": models.OrderStatusPaid},
		bson.M{"$set": bson.M{"status": models.OrderStatusRefunded, "updatedAt": now}},
		opts).Decode(&order)
	if err == nil {
		return &order, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	if _, err := r.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	return nil, models.ErrOrderNotRefundable
}

// MarkFailed performs the created -> failed transition after a rejected or
// abandoned payment. Paid orders are never touched: a dismissal callback can
// race a successful verification, so when the order already left "created"
// the current document is returned unchanged.
func (r *OrderRepository) MarkFailed(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": orderID, "status": models.OrderStatusCreated},
		bson.M{"$set": bson.M{"status": models.OrderStatusFailed, "updatedAt": time.Now()}},
		opts).Decode(&order)
	if err == nil {
		return &order, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	return r.FindByID(ctx, orderID)
}
