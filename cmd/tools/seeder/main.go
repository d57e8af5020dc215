package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedUsers(ctx, pool)
	seedCategories(ctx, pool)
	seedProducts(ctx, pool)
	seedCustomers(ctx, pool)

	log.Println("Seeding completed successfully!")
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool) {
	users := []struct {
		UserName string
		Password string
		Role     string
	}{
		{"admin", envOr("SEED_ADMIN_PASSWORD", "admin12345"), "admin"},
		{"moderator", envOr("SEED_MODERATOR_PASSWORD", "moderator12345"), "moderator"},
	}

	fmt.Println("Seeding Users...")
	for _, u := range users {
		hash, err := argon2id.CreateHash(u.Password, argon2id.DefaultParams)
		if err != nil {
			log.Fatalf("Failed to hash password for %s: %v", u.UserName, err)
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO users (user_name, password_hash, role)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_name) DO NOTHING;
		`, u.UserName, hash, u.Role)
		if err != nil {
			log.Printf("Failed to seed user %s: %v", u.UserName, err)
		}
	}
}

func seedCategories(ctx context.Context, pool *pgxpool.Pool) {
	categories := map[string][]string{
		"Skincare":    {"Volume (ml)", "Skin Type", "SPF"},
		"Makeup":      {"Shade", "Finish"},
		"Supplements": {"Serving Count", "Form"},
		"Hair Care":   {"Volume (ml)", "Hair Type"},
	}

	fmt.Println("Seeding Categories...")
	for name, attrs := range categories {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO categories (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id;
		`, name).Scan(&id)
		if err != nil {
			log.Printf("Failed to seed category %s: %v", name, err)
			continue
		}
		for i, attr := range attrs {
			_, err := pool.Exec(ctx, `
				INSERT INTO category_attributes (category_id, name, sort_order)
				VALUES ($1, $2, $3)
				ON CONFLICT (category_id, name) DO NOTHING;
			`, id, attr, i)
			if err != nil {
				log.Printf("Failed to seed attribute %s/%s: %v", name, attr, err)
			}
		}
	}
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool) {
	products := []struct {
		Name         string
		Category     string
		Brand        string
		CostPrice    string
		SellingPrice string
		WeightGrams  int
		Stock        int
		Attributes   string
	}{
		{"Collagen Firming Cream", "Skincare", "Medicube", "7.20", "10.00", 500, 24, `{"Volume (ml)": "50", "Skin Type": "All"}`},
		{"Snail Mucin Essence", "Skincare", "COSRX", "9.80", "14.50", 160, 40, `{"Volume (ml)": "100", "Skin Type": "Dry"}`},
		{"Relief Sun Rice SPF50", "Skincare", "Beauty of Joseon", "8.40", "12.00", 120, 35, `{"Volume (ml)": "50", "SPF": "50+"}`},
		{"Water Tint Velvet", "Makeup", "Rom&nd", "5.10", "8.00", 80, 18, `{"Shade": "06 Figfig", "Finish": "Velvet"}`},
		{"Probiotic Complex 30d", "Supplements", "Lacto-Fit", "6.30", "9.50", 210, 50, `{"Serving Count": "30", "Form": "Stick"}`},
		{"Damage Repair Shampoo", "Hair Care", "Mise en Scene", "4.70", "7.50", 680, 22, `{"Volume (ml)": "530", "Hair Type": "Damaged"}`},
	}

	fmt.Println("Seeding Products...")
	for _, p := range products {
		_, err := pool.Exec(ctx, `
			INSERT INTO products (name, category_id, brand, cost_price, selling_price, packaged_weight_grams, stock_quantity, stock_status, attributes)
			SELECT $1, c.id, $3, $4, $5, $6, $7, 'in_stock', $8::jsonb
			FROM categories c
			WHERE c.name = $2
			  AND NOT EXISTS (SELECT 1 FROM products WHERE name = $1);
		`, p.Name, p.Category, p.Brand, p.CostPrice, p.SellingPrice, p.WeightGrams, p.Stock, p.Attributes)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.Name, err)
		}
	}
}

func seedCustomers(ctx context.Context, pool *pgxpool.Pool) {
	customers := []struct {
		FullName string
		Phone    string
		Address  string
	}{
		{"Dilnoza Karimova", "+998901234567", "Tashkent, Chilanzar 9"},
		{"Aziza Tosheva", "+998933214455", "Tashkent, Yunusabad 4"},
		{"Madina Rakhimova", "+998971112233", "Samarkand, Registan st. 12"},
		{"Nilufar Yusupova", "+998909876543", "Bukhara, Mustaqillik 3"},
		{"Sevara Alimova", "+998935557788", "Tashkent, Mirzo Ulugbek 17"},
	}

	fmt.Println("Seeding Customers...")
	for _, c := range customers {
		_, err := pool.Exec(ctx, `
			INSERT INTO customers (full_name, phone_number, address)
			SELECT $1, $2, $3
			WHERE NOT EXISTS (SELECT 1 FROM customers WHERE lower(full_name) = lower($1));
		`, c.FullName, c.Phone, c.Address)
		if err != nil {
			log.Printf("Failed to seed customer %s: %v", c.FullName, err)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
