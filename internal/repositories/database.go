package repository

import (
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	_ "github.com/lib/pq"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/parfumarie/ecommerce-backend/internal/config"
)

type Repositories struct {
	DB      *sql.DB
	User    UserRepository
	Product ProductRepository
	Cart    CartRepository
	Order   OrderRepository
	Payment PaymentRepository
}

func New(cfg *config.Config) (*Repositories, error) {
	db, err := otelsql.Open("postgres", cfg.Database.GetDSN(),
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Repositories{
		DB:      db,
		User:    NewUserRepo(db),
		Product: NewProductRepo(db),
		Cart:    NewCartRepo(db),
		Order:   NewOrderRepo(db),
		Payment: NewPaymentRepo(db),
	}, nil
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}
