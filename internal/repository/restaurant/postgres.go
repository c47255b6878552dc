package restaurant

import (
	"context"
	"errors"
	"strings"

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

const restaurantColumns = `id::text, key, name, description, cover_image, logo, address, distance,
       rating::float8, review_count, price_level, cuisine, prep_time, is_open, created_at`

func (r *postgresRepo) List(ctx context.Context, f Filter) ([]domain.Restaurant, error) {
	q := `
SELECT ` + restaurantColumns + `
FROM restaurants
WHERE ($1 = '' OR name ILIKE '%' || $1 || '%'
       OR EXISTS (SELECT 1 FROM unnest(cuisine) c WHERE c ILIKE '%' || $1 || '%'))
  AND ($2 = '' OR EXISTS (SELECT 1 FROM unnest(cuisine) c WHERE c ILIKE '%' || $2 || '%'))
ORDER BY rating DESC, name ASC
`
	search := strings.TrimSpace(f.Search)
	cuisine := strings.TrimSpace(f.Cuisine)
	if strings.EqualFold(cuisine, "all") {
		cuisine = ""
	}
	rows, err := r.pool.Query(ctx, q, search, cuisine)
	if err != nil {
		r.logger.Error("restaurant repo: list", zap.String("search", search), zap.String("cuisine", cuisine), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Restaurant
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rest)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("restaurant repo: list rows", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("restaurant repo: list", zap.String("search", search), zap.String("cuisine", cuisine), zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Restaurant, error) {
	q := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id::text = $1`
	return r.get(ctx, q, "id", id)
}

func (r *postgresRepo) GetByKey(ctx context.Context, key string) (*domain.Restaurant, error) {
	q := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE key = $1`
	return r.get(ctx, q, "key", key)
}

func (r *postgresRepo) get(ctx context.Context, q, field, value string) (*domain.Restaurant, error) {
	rest, err := scanRestaurant(r.pool.QueryRow(ctx, q, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("restaurant repo: get not found", zap.String(field, value))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("restaurant repo: get", zap.String(field, value), zap.Error(err))
		return nil, err
	}
	return rest, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, rest domain.Restaurant) (*domain.Restaurant, error) {
	const q = `
INSERT INTO restaurants (key, name, description, cover_image, logo, address, distance, rating, review_count, price_level, cuisine, prep_time, is_open)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (key) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    cover_image = EXCLUDED.cover_image,
    logo = EXCLUDED.logo,
    address = EXCLUDED.address,
    distance = EXCLUDED.distance,
    rating = EXCLUDED.rating,
    review_count = EXCLUDED.review_count,
    price_level = EXCLUDED.price_level,
    cuisine = EXCLUDED.cuisine,
    prep_time = EXCLUDED.prep_time,
    is_open = EXCLUDED.is_open
RETURNING id::text, created_at
`
	cuisine := rest.Cuisine
	if cuisine == nil {
		cuisine = []string{}
	}
	out := rest
	err := r.pool.QueryRow(ctx, q,
		rest.Key, rest.Name, rest.Description, rest.CoverImage, rest.Logo, rest.Address, rest.Distance,
		rest.Rating, rest.ReviewCount, rest.PriceLevel, cuisine, rest.PrepTime, rest.IsOpen,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		r.logger.Error("restaurant repo: upsert", zap.String("key", rest.Key), zap.Error(err))
		return nil, err
	}
	out.Cuisine = cuisine
	r.logger.Info("restaurant repo: upserted", zap.String("key", out.Key), zap.String("id", out.ID))
	return &out, nil
}

func scanRestaurant(row pgx.Row) (*domain.Restaurant, error) {
	var r domain.Restaurant
	if err := row.Scan(
		&r.ID, &r.Key, &r.Name, &r.Description, &r.CoverImage, &r.Logo, &r.Address, &r.Distance,
		&r.Rating, &r.ReviewCount, &r.PriceLevel, &r.Cuisine, &r.PrepTime, &r.IsOpen, &r.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &r, nil
}
