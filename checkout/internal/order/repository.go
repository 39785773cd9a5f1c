package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/checkout/internal/cart"
	checkoutErrors "github.com/Alturino/storefront/checkout/internal/errors"
	"github.com/Alturino/storefront/checkout/internal/otel"
	"github.com/Alturino/storefront/checkout/internal/pricing"
	"github.com/Alturino/storefront/checkout/internal/promo"
	commonErrors "github.com/Alturino/storefront/internal/common/errors"
	"github.com/Alturino/storefront/internal/log"
)

const (
	keyOrder = "orders:%s"
	orderTTL = 24 * time.Hour
)

const insertOrder = `
INSERT INTO orders (
    id, session_id, status, shipping_address, payment, item_count, subtotal, discount,
    original_shipping, shipping_cost, gift_wrap, gift_wrap_fee, total, promo_code, promo_kind,
    delivery_option, created_at, placed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

const insertOrderItem = `
INSERT INTO order_items (order_id, position, product_id, variant_label, unit_price, quantity)
VALUES ($1, $2, $3, $4, $5, $6)`

const findOrderByID = `
SELECT id, session_id, status, shipping_address, payment, item_count, subtotal, discount,
       original_shipping, shipping_cost, gift_wrap, gift_wrap_fee, total, promo_code, promo_kind,
       delivery_option, created_at, placed_at
FROM orders
WHERE id = $1`

const findOrderItems = `
SELECT product_id, variant_label, unit_price, quantity
FROM order_items
WHERE order_id = $1
ORDER BY position`

type Repository struct {
	pool  *pgxpool.Pool
	cache *redis.Client
	now   func() time.Time
}

func NewRepository(pool *pgxpool.Pool, cache *redis.Client) *Repository {
	return &Repository{pool: pool, cache: cache, now: time.Now}
}

func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Exp:              d.Exponent(),
		InfinityModifier: pgtype.Finite,
		Int:              d.Coefficient(),
		NaN:              false,
		Valid:            true,
	}
}

func fromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func text(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func (r *Repository) InsertOrder(c context.Context, payload Payload) (Receipt, error) {
	c, span := otel.Tracer.Start(c, "Repository InsertOrder")
	defer span.End()

	cacheKey := fmt.Sprintf(keyOrder, payload.ID)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Repository InsertOrder").
		Str(log.KeyOrderID, payload.ID.String()).
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing transaction").Logger()
	logger.Info().Msg("initializing transaction")
	tx, err := r.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed initializing transaction with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Receipt{}, err
	}
	logger.Info().Msg("initialized transaction")
	defer func() {
		err := tx.Rollback(c)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			err = fmt.Errorf("failed rolling back transaction with error=%w", err)
			commonErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
		}
	}()

	order := Order{Payload: payload, Status: StatusPlaced, PlacedAt: r.now().UTC()}
	snapshot := payload.Pricing

	logger = logger.With().Str(log.KeyProcess, "inserting order").Logger()
	logger.Info().Msg("inserting order")
	_, err = tx.Exec(c, insertOrder,
		payload.ID,
		payload.SessionID,
		string(order.Status),
		payload.ShippingAddress,
		payload.Payment,
		snapshot.ItemCount,
		numeric(snapshot.Subtotal),
		numeric(snapshot.Discount),
		numeric(snapshot.OriginalShipping),
		numeric(snapshot.ShippingCost),
		snapshot.GiftWrap,
		numeric(snapshot.GiftWrapFee),
		numeric(snapshot.Total),
		text(snapshot.PromoCode),
		text(string(snapshot.PromoKind)),
		string(snapshot.DeliveryOption),
		payload.CreatedAt,
		order.PlacedAt,
	)
	if err != nil {
		err = fmt.Errorf("failed inserting order with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Receipt{}, err
	}
	logger.Info().Msg("inserted order")

	logger = logger.With().Str(log.KeyProcess, "inserting order items").Logger()
	logger.Info().Msg("inserting order items")
	batch := &pgx.Batch{}
	for i, item := range payload.LineItems {
		batch.Queue(insertOrderItem,
			payload.ID,
			i,
			item.ProductID,
			item.VariantLabel,
			numeric(item.UnitPrice),
			item.Quantity,
		)
	}
	err = tx.SendBatch(c, batch).Close()
	if err != nil {
		err = fmt.Errorf("failed inserting order items with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Receipt{}, err
	}
	logger.Info().Int(log.KeyCartItemsCount, len(payload.LineItems)).Msg("inserted order items")

	logger = logger.With().Str(log.KeyProcess, "committing transaction").Logger()
	logger.Info().Msg("committing transaction")
	err = tx.Commit(c)
	if err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Receipt{}, err
	}
	logger.Info().Msg("committed transaction")

	r.cacheOrder(logger.WithContext(c), order)

	return order.Receipt(), nil
}

func (r *Repository) FindOrderByID(c context.Context, id uuid.UUID) (Order, error) {
	c, span := otel.Tracer.Start(c, "Repository FindOrderByID")
	defer span.End()

	cacheKey := fmt.Sprintf(keyOrder, id)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Repository FindOrderByID").
		Str(log.KeyOrderID, id.String()).
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding order in cache").Logger()
	logger.Info().Msg("finding order in cache")
	raw, err := r.cache.Get(c, cacheKey).Bytes()
	if err == nil {
		order := Order{}
		if err = json.Unmarshal(raw, &order); err == nil {
			logger.Info().Msg("found order in cache")
			return order, nil
		}
		logger.Warn().Err(err).Msg("malformed cached order, falling back to database")
	} else if !errors.Is(err, redis.Nil) {
		logger.Warn().Err(err).Msg("failed reading order cache, falling back to database")
	}

	logger = logger.With().Str(log.KeyProcess, "finding order in database").Logger()
	logger.Info().Msg("finding order in database")
	order, err := r.findOrder(c, id)
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("failed finding order id=%s with error=%w", id, checkoutErrors.ErrOrderNotFound)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Order{}, err
	}
	if err != nil {
		err = fmt.Errorf("failed finding order id=%s with error=%w", id, err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Order{}, err
	}
	logger.Info().Msg("found order in database")

	r.cacheOrder(logger.WithContext(c), order)

	return order, nil
}

func (r *Repository) findOrder(c context.Context, id uuid.UUID) (Order, error) {
	var (
		order          Order
		status         string
		deliveryOption string
		subtotal       pgtype.Numeric
		discount       pgtype.Numeric
		origShipping   pgtype.Numeric
		shipping       pgtype.Numeric
		giftWrapFee    pgtype.Numeric
		total          pgtype.Numeric
		promoCode      pgtype.Text
		promoKind      pgtype.Text
	)
	snapshot := &order.Pricing
	err := r.pool.QueryRow(c, findOrderByID, id).Scan(
		&order.ID,
		&order.SessionID,
		&status,
		&order.ShippingAddress,
		&order.Payment,
		&snapshot.ItemCount,
		&subtotal,
		&discount,
		&origShipping,
		&shipping,
		&snapshot.GiftWrap,
		&giftWrapFee,
		&total,
		&promoCode,
		&promoKind,
		&deliveryOption,
		&order.CreatedAt,
		&order.PlacedAt,
	)
	if err != nil {
		return Order{}, err
	}
	order.Status = Status(status)
	snapshot.Subtotal = fromNumeric(subtotal)
	snapshot.Discount = fromNumeric(discount)
	snapshot.OriginalShipping = fromNumeric(origShipping)
	snapshot.ShippingCost = fromNumeric(shipping)
	snapshot.GiftWrapFee = fromNumeric(giftWrapFee)
	snapshot.Total = fromNumeric(total)
	snapshot.PromoCode = promoCode.String
	snapshot.PromoKind = promo.Kind(promoKind.String)
	snapshot.DeliveryOption = pricing.DeliveryID(deliveryOption)

	rows, err := r.pool.Query(c, findOrderItems, id)
	if err != nil {
		return Order{}, fmt.Errorf("failed querying order items with error=%w", err)
	}
	defer rows.Close()

	order.LineItems = []cart.LineItem{}
	for rows.Next() {
		item := cart.LineItem{}
		unitPrice := pgtype.Numeric{}
		err = rows.Scan(&item.ProductID, &item.VariantLabel, &unitPrice, &item.Quantity)
		if err != nil {
			return Order{}, fmt.Errorf("failed scanning order item with error=%w", err)
		}
		item.UnitPrice = fromNumeric(unitPrice)
		order.LineItems = append(order.LineItems, item)
	}
	if err = rows.Err(); err != nil {
		return Order{}, fmt.Errorf("failed iterating order items with error=%w", err)
	}

	return order, nil
}

// cacheOrder is best effort; the database stays the source of truth.
func (r *Repository) cacheOrder(c context.Context, order Order) {
	cacheKey := fmt.Sprintf(keyOrder, order.ID)
	logger := zerolog.Ctx(c).With().Str(log.KeyProcess, "inserting order to cache").Logger()

	logger.Info().Msg("inserting order to cache")
	raw, err := json.Marshal(order)
	if err != nil {
		logger.Warn().Err(err).Msg("failed marshaling order for cache")
		return
	}
	err = r.cache.Set(c, cacheKey, raw, orderTTL).Err()
	if err != nil {
		logger.Warn().Err(err).Msg("failed inserting order to cache")
		return
	}
	logger.Info().Msg("inserted order to cache")
}

var _ Store = (*Repository)(nil)
