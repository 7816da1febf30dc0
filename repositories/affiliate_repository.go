package repositories

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snowstorm/snowstorm_backend/config"
	"github.com/snowstorm/snowstorm_backend/models"
	"github.com/snowstorm/snowstorm_backend/utils"
)

const affiliateCacheTTL = 60 * time.Second

// AffiliateRepository is the affiliate ledger. Counters on the affiliate
// document are a projection of the commissions collection: CreditCommission
// inserts the commission entry first (unique orderId index makes it
// exactly-once) and only then $inc's the counters, so a crashed or raced
// second attempt can never double-credit.
type AffiliateRepository struct {
	affiliates  *mongo.Collection
	commissions *mongo.Collection
	payouts     *mongo.Collection
	visits      *mongo.Collection
	cache       *redis.Client
}

func NewAffiliateRepository(db *mongo.Client, cache *redis.Client) *AffiliateRepository {
	return &AffiliateRepository{
		affiliates:  config.GetCollection(db, "affiliates"),
		commissions: config.GetCollection(db, "commissions"),
		payouts:     config.GetCollection(db, "payouts"),
		visits:      config.GetCollection(db, "visits"),
		cache:       cache,
	}
}

// Create registers a new affiliate with a generated unique referral code.
func (r *AffiliateRepository) Create(ctx context.Context, name, email string, rate float64) (*models.Affiliate, error) {
	if rate < 0 || rate > 1 {
		return nil, models.ErrInvalidCommissionRate
	}

	affiliate := &models.Affiliate{
		ID:             primitive.NewObjectID(),
		Name:           name,
		Email:          email,
		CommissionRate: rate,
		IsActive:       true,
		CreatedAt:      time.Now(),
	}

	// Retry on the (rare) generated-code collision
	for attempt := 0; attempt < 5; attempt++ {
		code, err := utils.GenerateAffiliateCode()
		if err != nil {
			return nil, err
		}
		affiliate.Code = code

		_, err = r.affiliates.InsertOne(ctx, affiliate)
		if err == nil {
			return affiliate, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, err
		}
	}
	return nil, models.ErrAffiliateNotFound
}

// FindActiveByCode resolves a referral code to an active affiliate.
// Soft-deleted and deactivated affiliates are never returned, so orders
// carrying their codes get no commission snapshot. Lookups are cached
// briefly in Redis since every checkout resolves a code.
func (r *AffiliateRepository) FindActiveByCode(ctx context.Context, code string) (*models.Affiliate, error) {
	if code == "" {
		return nil, models.ErrAffiliateNotFound
	}

	if cached := r.cacheGet(ctx, code); cached != nil {
		return cached, nil
	}

	var affiliate models.Affiliate
	err := r.affiliates.FindOne(ctx, bson.M{
		"code":      code,
		"isActive":  true,
		"deletedAt": nil,
	}).Decode(&affiliate)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrAffiliateNotFound
		}
		return nil, err
	}

	r.cacheSet(ctx, &affiliate)
	return &affiliate, nil
}

// FindByID returns an affiliate regardless of active state (internal use:
// crediting resolves by the snapshot, admin views include soft-deleted).
func (r *AffiliateRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	err := r.affiliates.FindOne(ctx, bson.M{"_id": id}).Decode(&affiliate)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrAffiliateNotFound
		}
		return nil, err
	}
	return &affiliate, nil
}

// CreditCommission applies a paid order's commission exactly once. The
// commission entry insert hits the unique orderId index: a duplicate means
// this order was already credited and the counters are left untouched.
func (r *AffiliateRepository) CreditCommission(ctx context.Context, affiliate *models.Affiliate, order *models.Order) (*models.CommissionEntry, error) {
	commission := models.CommissionAmount(order.Amount, order.CommissionRate)

	entry := &models.CommissionEntry{
		ID:            primitive.NewObjectID(),
		OrderID:       order.ID,
		AffiliateID:   affiliate.ID,
		AffiliateCode: affiliate.Code,
		OrderAmount:   order.Amount,
		Rate:          order.CommissionRate,
		Amount:        commission,
		Currency:      order.Currency,
		CreatedAt:     time.Now(),
	}

	_, err := r.commissions.InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, models.ErrCommissionAlreadyCredited
		}
		return nil, err
	}

	_, err = r.affiliates.UpdateOne(ctx,
		bson.M{"_id": affiliate.ID},
		bson.M{"$inc": bson.M{
			"salesCount":      1,
			"totalRevenue":    order.Amount,
			"totalCommission": commission,
		}})
	if err != nil {
		// The entry is the source of truth; counters can be rebuilt from it.
		log.Printf("Failed to update affiliate counters for order %s: %v", order.ID.Hex(), err)
		return entry, err
	}

	r.cacheInvalidate(ctx, affiliate.Code)
	return entry, nil
}

// RecordVisit appends a referral click and bumps the affiliate's click
// counter at most once per (code, ip) per day, deduplicated through Redis.
func (r *AffiliateRepository) RecordVisit(ctx context.Context, visit *models.Visit) error {
	visit.ID = primitive.NewObjectID()
	visit.CreatedAt = time.Now()

	if _, err := r.visits.InsertOne(ctx, visit); err != nil {
		return err
	}

	if !r.firstClickToday(ctx, visit.AffiliateCode, visit.IP) {
		return nil
	}

	_, err := r.affiliates.UpdateOne(ctx,
		bson.M{"code": visit.AffiliateCode, "isActive": true, "deletedAt": nil},
		bson.M{"$inc": bson.M{"clicks": 1}})
	if err == nil {
		r.cacheInvalidate(ctx, visit.AffiliateCode)
	}
	return err
}

// RecordPayout stores an admin-recorded disbursement and bumps totalPaid.
func (r *AffiliateRepository) RecordPayout(ctx context.Context, affiliateID primitive.ObjectID, amount int64, note string) (*models.Payout, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	payout := &models.Payout{
		ID:          primitive.NewObjectID(),
		AffiliateID: affiliateID,
		Amount:      amount,
		Note:        note,
		CreatedAt:   time.Now(),
	}
	if _, err := r.payouts.InsertOne(ctx, payout); err != nil {
		return nil, err
	}

	result, err := r.affiliates.UpdateOne(ctx,
		bson.M{"_id": affiliateID},
		bson.M{"$inc": bson.M{"totalPaid": amount}})
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, models.ErrAffiliateNotFound
	}
	return payout, nil
}

// UpdateRate changes the live commission rate. Existing orders keep their
// snapshotted rate; only future order creation sees the new value.
func (r *AffiliateRepository) UpdateRate(ctx context.Context, code string, rate float64) (*models.Affiliate, error) {
	if rate < 0 || rate > 1 {
		return nil, models.ErrInvalidCommissionRate
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var affiliate models.Affiliate
	err := r.affiliates.FindOneAndUpdate(ctx,
		bson.M{"code": code, "deletedAt": nil},
		bson.M{"$set": bson.M{"commissionRate": rate}},
		opts).Decode(&affiliate)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrAffiliateNotFound
		}
		return nil, err
	}

	r.cacheInvalidate(ctx, code)
	return &affiliate, nil
}

// SoftDelete deactivates an affiliate without removing the row, preserving
// historical attribution. Future code resolution excludes it.
func (r *AffiliateRepository) SoftDelete(ctx context.Context, code string) error {
	now := time.Now()
	result, err := r.affiliates.UpdateOne(ctx,
		bson.M{"code": code, "deletedAt": nil},
		bson.M{"$set": bson.M{"isActive": false, "deletedAt": now}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return models.ErrAffiliateNotFound
	}

	r.cacheInvalidate(ctx, code)
	return nil
}

// Stats assembles the dashboard payload for an affiliate.
func (r *AffiliateRepository) Stats(ctx context.Context, code string) (*models.AffiliateStats, error) {
	var affiliate models.Affiliate
	err := r.affiliates.FindOne(ctx, bson.M{"code": code}).Decode(&affiliate)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrAffiliateNotFound
		}
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(10)
	cursor, err := r.commissions.Find(ctx, bson.M{"affiliateCode": code}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	recent := []models.CommissionEntry{}
	if err := cursor.All(ctx, &recent); err != nil {
		return nil, err
	}

	return &models.AffiliateStats{
		Affiliate:         affiliate,
		PendingPayout:     affiliate.TotalCommission - affiliate.TotalPaid,
		RecentCommissions: recent,
	}, nil
}

func (r *AffiliateRepository) firstClickToday(ctx context.Context, code, ip string) bool {
	if r.cache == nil || ip == "" {
		return true
	}
	key := config.RedisKey("visit:" + code + ":" + ip + ":" + time.Now().Format("2006-01-02"))
	ok, err := r.cache.SetNX(ctx, key, 1, 24*time.Hour).Result()
	if err != nil {
		return true
	}
	return ok
}

func (r *AffiliateRepository) cacheGet(ctx context.Context, code string) *models.Affiliate {
	if r.cache == nil {
		return nil
	}
	data, err := r.cache.Get(ctx, config.RedisKey("affiliate:"+code)).Result()
	if err != nil {
		return nil
	}
	var affiliate models.Affiliate
	if err := json.Unmarshal([]byte(data), &affiliate); err != nil {
		return nil
	}
	return &affiliate
}

func (r *AffiliateRepository) cacheSet(ctx context.Context, affiliate *models.Affiliate) {
	if r.cache == nil {
		return
	}
	data, err := json.Marshal(affiliate)
	if err != nil {
		return
	}
	r.cache.Set(ctx, config.RedisKey("affiliate:"+affiliate.Code), data, affiliateCacheTTL)
}

func (r *AffiliateRepository) cacheInvalidate(ctx context.Context, code string) {
	if r.cache == nil {
		return
	}
	r.cache.Del(ctx, config.RedisKey("affiliate:"+code))
}
