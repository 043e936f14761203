package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/ec-storefront/internal/apperrors"
	"github.com/example/ec-storefront/internal/logging"
	"github.com/sirupsen/logrus"
)

// ErrInvalidQuantity is returned by SaveCartItem for a non-positive increment.
var ErrInvalidQuantity = errors.New("quantity increment must be positive")

var _ LocalCache = (*SQLiteCache)(nil)

// SQLiteCache implements LocalCache on an embedded SQLite database.
type SQLiteCache struct {
	db  *sql.DB
	log logrus.FieldLogger
	now func() time.Time
}

// Option configures a SQLiteCache.
type Option func(*SQLiteCache)

// WithClock overrides the clock used for created_at values.
func WithClock(now func() time.Time) Option {
	return func(c *SQLiteCache) { c.now = now }
}

// NewSQLiteCache wraps an opened, migrated database.
func NewSQLiteCache(db *sql.DB, log logrus.FieldLogger, opts ...Option) *SQLiteCache {
	c := &SQLiteCache{
		db:  db,
		log: logging.Component(log, "local-cache"),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close closes the underlying database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// fail logs err and converts it into a DATABASE error.
func (c *SQLiteCache) fail(op string, err error) error {
	c.log.WithError(err).Errorf("%s failed", op)
	return apperrors.New(apperrors.Database, op, err)
}

// ============================================
// Sessions
// ============================================

func (c *SQLiteCache) SaveSession(ctx context.Context, record SessionRecord) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return c.fail("save session", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_sessions`); err != nil {
		return c.fail("save session", err)
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = c.now()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_sessions (email, local_id, token, refresh_token, profile_image, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.Email,
		record.LocalID,
		record.Token,
		nullIfEmpty(record.RefreshToken),
		nullIfEmpty(record.ProfileImage),
		formatTime(createdAt),
	)
	if err != nil {
		return c.fail("save session", err)
	}

	if err := tx.Commit(); err != nil {
		return c.fail("save session", err)
	}
	return nil
}

func (c *SQLiteCache) GetSession(ctx context.Context) (*SessionRecord, error) {
	var (
		r                                     SessionRecord
		email, localID, token, refresh, image sql.NullString
		createdAt                             sql.NullString
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT email, local_id, token, refresh_token, profile_image, created_at
		 FROM user_sessions
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
	).Scan(&email, &localID, &token, &refresh, &image, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, c.fail("get session", err)
	}

	r.Email = email.String
	r.LocalID = localID.String
	r.Token = token.String
	r.RefreshToken = refresh.String
	r.ProfileImage = image.String
	r.CreatedAt = parseTime(createdAt)
	return &r, nil
}

func (c *SQLiteCache) ClearSession(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM user_sessions`); err != nil {
		return c.fail("clear session", err)
	}
	return nil
}

// ============================================
// Cart
// ============================================

func (c *SQLiteCache) SaveCartItem(ctx context.Context, item CartRow) error {
	if item.ProductID == "" {
		return apperrors.New(apperrors.Validation, "save cart item", errors.New("product_id is required"))
	}
	if item.Quantity <= 0 {
		return apperrors.New(apperrors.Validation, "save cart item", ErrInvalidQuantity)
	}

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO cart_items (product_id, title, price, quantity, image, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(product_id) DO UPDATE SET
			quantity = cart_items.quantity + excluded.quantity,
			title = excluded.title,
			price = excluded.price,
			image = excluded.image`,
		item.ProductID, item.Title, item.Price, item.Quantity, nullIfEmpty(item.Image), formatTime(c.now()),
	)
	if err != nil {
		return c.fail("save cart item", err)
	}
	return nil
}

func (c *SQLiteCache) GetCartItems(ctx context.Context) ([]CartRow, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT product_id, title, price, quantity, image, created_at
		 FROM cart_items
		 ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, c.fail("get cart items", err)
	}
	defer rows.Close()

	items := []CartRow{}
	for rows.Next() {
		item, err := scanCartRow(rows)
		if err != nil {
			return nil, c.fail("get cart items", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, c.fail("get cart items", err)
	}
	return items, nil
}

func (c *SQLiteCache) GetCartItemByID(ctx context.Context, productID string) (*CartRow, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT product_id, title, price, quantity, image, created_at
		 FROM cart_items WHERE product_id = ?`,
		productID,
	)
	item, err := scanCartRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, c.fail("get cart item", err)
	}
	return &item, nil
}

func (c *SQLiteCache) UpdateCartItemQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return c.RemoveCartItem(ctx, productID)
	}
	if _, err := c.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = ? WHERE product_id = ?`, quantity, productID,
	); err != nil {
		return c.fail("update cart item quantity", err)
	}
	return nil
}

func (c *SQLiteCache) RemoveCartItem(ctx context.Context, productID string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM cart_items WHERE product_id = ?`, productID); err != nil {
		return c.fail("remove cart item", err)
	}
	return nil
}

func (c *SQLiteCache) ClearCart(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM cart_items`); err != nil {
		return c.fail("clear cart", err)
	}
	return nil
}

// ReplaceCart runs as one transaction. Rows get strictly increasing created_at values in
// slice order, so GetCartItems returns them reversed.
func (c *SQLiteCache) ReplaceCart(ctx context.Context, items []CartRow) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return c.fail("replace cart", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items`); err != nil {
		return c.fail("replace cart", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cart_items (product_id, title, price, quantity, image, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return c.fail("replace cart", err)
	}
	defer stmt.Close()

	base := c.now()
	for i, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		createdAt := base.Add(time.Duration(i) * time.Microsecond)
		if _, err := stmt.ExecContext(ctx,
			item.ProductID, item.Title, item.Price, item.Quantity, nullIfEmpty(item.Image), formatTime(createdAt),
		); err != nil {
			return c.fail("replace cart", fmt.Errorf("insert %s: %w", item.ProductID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return c.fail("replace cart", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCartRow(s rowScanner) (CartRow, error) {
	var (
		item      CartRow
		title     sql.NullString
		price     sql.NullFloat64
		quantity  sql.NullInt64
		image     sql.NullString
		createdAt sql.NullString
	)
	if err := s.Scan(&item.ProductID, &title, &price, &quantity, &image, &createdAt); err != nil {
		return CartRow{}, err
	}
	item.Title = title.String
	item.Price = price.Float64
	item.Quantity = int(quantity.Int64)
	item.Image = image.String
	item.CreatedAt = parseTime(createdAt)
	return item, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
