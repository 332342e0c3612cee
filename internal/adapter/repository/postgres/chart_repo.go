package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventfin/fincore/internal/domain"
	"github.com/eventfin/fincore/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository over the chart of
// accounts table.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO accounts (number, name, available_for_invoicing, created_at)
		 VALUES ($1, $2, $3, $4)`,
		account.Number, account.Name, account.AvailableForInvoicing, timeToPgTimestamptz(account.CreatedAt),
	)
	return err
}

// GetByNumber retrieves an account inside the caller's transaction.
func (r *AccountRepository) GetByNumber(ctx context.Context, tx usecase.Transaction, number int) (*domain.Account, error) {
	row := txQuerier(tx).QueryRow(ctx,
		`SELECT number, name, available_for_invoicing, created_at
		 FROM accounts WHERE number = $1`,
		number,
	)

	var account domain.Account
	if err := row.Scan(&account.Number, &account.Name, &account.AvailableForInvoicing, &account.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// List retrieves accounts, optionally only those usable on invoices.
func (r *AccountRepository) List(ctx context.Context, availableForInvoicing bool) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT number, name, available_for_invoicing, created_at
		 FROM accounts
		 WHERE NOT $1 OR available_for_invoicing
		 ORDER BY number`,
		availableForInvoicing,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(&account.Number, &account.Name, &account.AvailableForInvoicing, &account.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, &account)
	}
	return accounts, rows.Err()
}

// ObjectRepository implements usecase.ObjectRepository.
type ObjectRepository struct {
	pool *pgxpool.Pool
}

// NewObjectRepository creates a new ObjectRepository.
func NewObjectRepository(pool *pgxpool.Pool) *ObjectRepository {
	return &ObjectRepository{pool: pool}
}

// Create creates a new cost-center object.
func (r *ObjectRepository) Create(ctx context.Context, object *domain.Object) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO objects (name, active, created_at) VALUES ($1, $2, $3)`,
		object.Name, object.Active, timeToPgTimestamptz(object.CreatedAt),
	)
	return err
}

// GetByName retrieves an object inside the caller's transaction.
func (r *ObjectRepository) GetByName(ctx context.Context, tx usecase.Transaction, name string) (*domain.Object, error) {
	row := txQuerier(tx).QueryRow(ctx,
		`SELECT name, active, created_at FROM objects WHERE name = $1`,
		name,
	)

	var object domain.Object
	if err := row.Scan(&object.Name, &object.Active, &object.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrObjectNotFound
		}
		return nil, err
	}
	return &object, nil
}

// List retrieves all objects.
func (r *ObjectRepository) List(ctx context.Context) ([]*domain.Object, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT name, active, created_at FROM objects ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var objects []*domain.Object
	for rows.Next() {
		var object domain.Object
		if err := rows.Scan(&object.Name, &object.Active, &object.CreatedAt); err != nil {
			return nil, err
		}
		objects = append(objects, &object)
	}
	return objects, rows.Err()
}

// FiscalYearRepository implements usecase.FiscalYearRepository.
type FiscalYearRepository struct {
	pool *pgxpool.Pool
}

// NewFiscalYearRepository creates a new FiscalYearRepository.
func NewFiscalYearRepository(pool *pgxpool.Pool) *FiscalYearRepository {
	return &FiscalYearRepository{pool: pool}
}

// GetByYear retrieves a fiscal year inside the caller's transaction.
func (r *FiscalYearRepository) GetByYear(ctx context.Context, tx usecase.Transaction, year int) (*domain.FiscalYear, error) {
	row := txQuerier(tx).QueryRow(ctx,
		`SELECT year, is_open, created_at FROM fiscal_years WHERE year = $1`,
		year,
	)

	var fy domain.FiscalYear
	if err := row.Scan(&fy.Year, &fy.IsOpen, &fy.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrYearNotFound
		}
		return nil, err
	}
	return &fy, nil
}

// Create creates a fiscal year inside the caller's transaction.
func (r *FiscalYearRepository) Create(ctx context.Context, tx usecase.Transaction, fy *domain.FiscalYear) error {
	_, err := txQuerier(tx).Exec(ctx,
		`INSERT INTO fiscal_years (year, is_open, created_at) VALUES ($1, $2, $3)`,
		fy.Year, fy.IsOpen, timeToPgTimestamptz(fy.CreatedAt),
	)
	return err
}

// SetOpen opens or closes a fiscal year.
func (r *FiscalYearRepository) SetOpen(ctx context.Context, year int, open bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE fiscal_years SET is_open = $2 WHERE year = $1`,
		year, open,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrYearNotFound
	}
	return nil
}
