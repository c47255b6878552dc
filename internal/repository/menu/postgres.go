package menu

import (
	"context"
	"errors"

	"orderup/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) ListByRestaurant(ctx context.Context, restaurantID string) ([]domain.MenuCategory, error) {
	const q = `
SELECT c.id::text, c.key, c.name, c.position,
       i.id::text, i.key, i.name, i.description, i.price_minor, i.currency, i.image, i.is_popular, i.is_vegetarian
FROM menu_categories c
LEFT JOIN menu_items i ON i.category_id = c.id
WHERE c.restaurant_id::text = $1
ORDER BY c.position ASC, c.name ASC, i.created_at ASC, i.name ASC
`
	rows, err := r.pool.Query(ctx, q, restaurantID)
	if err != nil {
		r.logger.Error("menu repo: list", zap.String("restaurant_id", restaurantID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.MenuCategory
	index := make(map[string]int)
	for rows.Next() {
		var c domain.MenuCategory
		var (
			itemID, itemKey, itemName, itemDesc, itemCurrency, itemImage *string
			price                                                        *int64
			popular, vegetarian                                          *bool
		)
		if err := rows.Scan(&c.ID, &c.Key, &c.Name, &c.Position,
			&itemID, &itemKey, &itemName, &itemDesc, &price, &itemCurrency, &itemImage, &popular, &vegetarian); err != nil {
			return nil, err
		}
		pos, ok := index[c.ID]
		if !ok {
			c.Items = []domain.MenuItem{}
			result = append(result, c)
			pos = len(result) - 1
			index[c.ID] = pos
		}
		if itemID == nil {
			continue
		}
		result[pos].Items = append(result[pos].Items, domain.MenuItem{
			ID:           *itemID,
			RestaurantID: restaurantID,
			Key:          *itemKey,
			Name:         *itemName,
			Description:  *itemDesc,
			Price:        domain.Money(*price),
			Currency:     *itemCurrency,
			Image:        *itemImage,
			Category:     c.Name,
			IsPopular:    *popular,
			IsVegetarian: *vegetarian,
		})
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("menu repo: list rows", zap.String("restaurant_id", restaurantID), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("menu repo: list", zap.String("restaurant_id", restaurantID), zap.Int("categories", len(result)))
	return result, nil
}

func (r *postgresRepo) GetItem(ctx context.Context, restaurantID, itemID string) (*domain.MenuItem, error) {
	const q = `
SELECT i.id::text, i.restaurant_id::text, i.key, i.name, i.description, i.price_minor, i.currency, i.image,
       c.name, i.is_popular, i.is_vegetarian
FROM menu_items i
JOIN menu_categories c ON c.id = i.category_id
WHERE i.restaurant_id::text = $1 AND i.id::text = $2
`
	var it domain.MenuItem
	err := r.pool.QueryRow(ctx, q, restaurantID, itemID).Scan(
		&it.ID, &it.RestaurantID, &it.Key, &it.Name, &it.Description, &it.Price, &it.Currency, &it.Image,
		&it.Category, &it.IsPopular, &it.IsVegetarian,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("menu repo: item not found", zap.String("restaurant_id", restaurantID), zap.String("id", itemID))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("menu repo: get item", zap.String("restaurant_id", restaurantID), zap.String("id", itemID), zap.Error(err))
		return nil, err
	}
	return &it, nil
}

func (r *postgresRepo) UpsertCategory(ctx context.Context, restaurantID string, c domain.MenuCategory) (*domain.MenuCategory, error) {
	const q = `
INSERT INTO menu_categories (restaurant_id, key, name, position)
VALUES ($1, $2, $3, $4)
ON CONFLICT (restaurant_id, key) DO UPDATE
SET name = EXCLUDED.name,
    position = EXCLUDED.position
RETURNING id::text
`
	out := c
	out.Items = nil
	if err := r.pool.QueryRow(ctx, q, restaurantID, c.Key, c.Name, c.Position).Scan(&out.ID); err != nil {
		r.logger.Error("menu repo: upsert category", zap.String("restaurant_id", restaurantID), zap.String("key", c.Key), zap.Error(err))
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) UpsertItem(ctx context.Context, categoryID string, item domain.MenuItem) (*domain.MenuItem, error) {
	const q = `
INSERT INTO menu_items (restaurant_id, category_id, key, name, description, price_minor, currency, image, is_popular, is_vegetarian)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (restaurant_id, key) DO UPDATE SET
    category_id = EXCLUDED.category_id,
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_minor = EXCLUDED.price_minor,
    currency = EXCLUDED.currency,
    image = EXCLUDED.image,
    is_popular = EXCLUDED.is_popular,
    is_vegetarian = EXCLUDED.is_vegetarian
RETURNING id::text
`
	currency := item.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	out := item
	out.Currency = currency
	err := r.pool.QueryRow(ctx, q,
		item.RestaurantID, categoryID, item.Key, item.Name, item.Description, int64(item.Price), currency,
		item.Image, item.IsPopular, item.IsVegetarian,
	).Scan(&out.ID)
	if err != nil {
		r.logger.Error("menu repo: upsert item", zap.String("restaurant_id", item.RestaurantID), zap.String("key", item.Key), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("menu repo: upserted item", zap.String("key", out.Key), zap.String("id", out.ID))
	return &out, nil
}
