package postgres

import (
	"context"

	repo "github.com/fastpay/fastpay-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repos use. pgxmock satisfies it too,
// which is how the repo tests run without a database.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repositories struct {
	Payments  repo.Payments
	Ledger    repo.Ledger
	Merchants repo.Merchants
	QRCodes   repo.QRCodes
}

func NewRepositories(db DB) Repositories {
	return Repositories{
		Payments:  &paymentsRepo{db},
		Ledger:    &ledgerRepo{db},
		Merchants: &merchantsRepo{db},
		QRCodes:   &qrCodesRepo{db},
	}
}
