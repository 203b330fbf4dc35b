// Command seed loads demo users, a grocery catalogue, coupons and one
// delivery address into the configured database. Safe to run repeatedly.
package main

import (
	"context"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/quickkart/backend-grocer/internal/config"
	"github.com/quickkart/backend-grocer/internal/obs"
)

func main() {
	logger := obs.NewLogger("console", "info")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	s := seeder{pool: pool}
	s.users(ctx, logger)
	s.products(ctx, logger)
	s.coupons(ctx, logger)
	s.addresses(ctx, logger)

	logger.Info().Msg("seeding complete")
}

type seeder struct {
	pool *pgxpool.Pool
}

func (s seeder) users(ctx context.Context, logger zerolog.Logger) {
	hash, err := argon2id.CreateHash("password123", argon2id.DefaultParams)
	if err != nil {
		logger.Fatal().Err(err).Msg("hash demo password")
	}

	users := []struct {
		Name  string
		Email string
		Phone string
		Role  string
	}{
		{"Store Admin", "admin@quickkart.in", "+919800000001", "admin"},
		{"Asha Nair", "asha@example.com", "+919800000002", "customer"},
		{"Rohan Mehta", "rohan@example.com", "+919800000003", "customer"},
		{"Priya Iyer", "priya@example.com", "+919800000004", "customer"},
	}

	logger.Info().Msg("seeding users")
	for _, u := range users {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO users (name, email, phone, password_hash, role)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT DO NOTHING
		`, u.Name, u.Email, u.Phone, hash, u.Role)
		if err != nil {
			logger.Error().Err(err).Str("email", u.Email).Msg("seed user")
		}
	}
}

func (s seeder) products(ctx context.Context, logger zerolog.Logger) {
	// Prices are paise. MRP >= price so the storefront can show a strike-through.
	products := []struct {
		Name     string
		Slug     string
		Category string
		Unit     string
		Price    int64
		MRP      int64
		Stock    int32
		Image    string
	}{
		{"Toned Milk", "toned-milk", "dairy", "500ml", 2900, 3000, 200, "https://images.quickkart.in/toned-milk.jpg"},
		{"Fresh Paneer", "fresh-paneer", "dairy", "200g", 8500, 9000, 80, "https://images.quickkart.in/fresh-paneer.jpg"},
		{"Curd Cup", "curd-cup", "dairy", "400g", 4000, 4200, 120, "https://images.quickkart.in/curd-cup.jpg"},
		{"Bananas", "bananas", "fruits", "1dozen", 4500, 5000, 150, "https://images.quickkart.in/bananas.jpg"},
		{"Shimla Apples", "shimla-apples", "fruits", "1kg", 18000, 20000, 60, "https://images.quickkart.in/shimla-apples.jpg"},
		{"Tomatoes", "tomatoes", "vegetables", "1kg", 3500, 4000, 180, "https://images.quickkart.in/tomatoes.jpg"},
		{"Onions", "onions", "vegetables", "1kg", 3000, 3500, 220, "https://images.quickkart.in/onions.jpg"},
		{"Whole Wheat Atta", "whole-wheat-atta", "staples", "5kg", 26500, 28000, 90, "https://images.quickkart.in/atta.jpg"},
		{"Sona Masoori Rice", "sona-masoori-rice", "staples", "5kg", 38000, 40000, 70, "https://images.quickkart.in/rice.jpg"},
		{"Farm Eggs", "farm-eggs", "dairy", "6pc", 4800, 5400, 140, "https://images.quickkart.in/farm-eggs.jpg"},
		{"Brown Bread", "brown-bread", "bakery", "400g", 4500, 4500, 100, "https://images.quickkart.in/brown-bread.jpg"},
		{"Filter Coffee Powder", "filter-coffee-powder", "beverages", "250g", 16000, 18000, 50, "https://images.quickkart.in/filter-coffee.jpg"},
	}

	logger.Info().Msg("seeding products")
	for _, p := range products {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO products (name, slug, category, unit, price, mrp, stock, image_url, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true)
			ON CONFLICT (slug) DO UPDATE SET
				price = EXCLUDED.price,
				mrp = EXCLUDED.mrp,
				stock = EXCLUDED.stock,
				image_url = EXCLUDED.image_url,
				updated_at = now()
		`, p.Name, p.Slug, p.Category, p.Unit, p.Price, p.MRP, p.Stock, p.Image)
		if err != nil {
			logger.Error().Err(err).Str("slug", p.Slug).Msg("seed product")
		}
	}
}

func (s seeder) coupons(ctx context.Context, logger zerolog.Logger) {
	coupons := []struct {
		Code         string
		Description  string
		Discount     int64
		FreeDelivery bool
		MinSpend     int64
	}{
		{"WELCOME50", "Rs 50 off your first basket", 5000, false, 29900},
		{"FREESHIP", "Free delivery on any order", 0, true, 0},
		{"MONSOON20", "Rs 20 off during the rains", 2000, false, 19900},
	}

	logger.Info().Msg("seeding coupons")
	for _, c := range coupons {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO coupons (code, description, discount, free_delivery, min_spend, valid_from, valid_to, active)
			VALUES ($1, $2, $3, $4, $5, now(), now() + INTERVAL '1 year', true)
			ON CONFLICT DO NOTHING
		`, c.Code, c.Description, c.Discount, c.FreeDelivery, c.MinSpend)
		if err != nil {
			logger.Error().Err(err).Str("code", c.Code).Msg("seed coupon")
		}
	}
}

func (s seeder) addresses(ctx context.Context, logger zerolog.Logger) {
	var userID string
	err := s.pool.QueryRow(ctx, `SELECT id FROM users WHERE email = 'asha@example.com'`).Scan(&userID)
	if err != nil {
		logger.Warn().Err(err).Msg("skip address seed, demo customer missing")
		return
	}

	logger.Info().Msg("seeding addresses")
	_, err = s.pool.Exec(ctx, `
		INSERT INTO addresses (user_id, label, line1, line2, city, pincode, lat, lon, is_default)
		SELECT $1, 'Home', '12 MG Road', 'Near Metro Station', 'Bengaluru', '560001', 12.9758, 77.6045, true
		WHERE NOT EXISTS (SELECT 1 FROM addresses WHERE user_id = $1)
	`, userID)
	if err != nil {
		logger.Error().Err(err).Msg("seed address")
	}
}
