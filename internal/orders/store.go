package orders

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const orderColumns = `id, user_email, currency, amount, status, payment_method, tracking_number, notes, created_at, updated_at`

// ListByEmail returns the owner's orders, newest first.
func (s *Store) ListByEmail(ctx context.Context, email string) ([]Order, error) {
	q := `SELECT ` + orderColumns + ` FROM user_orders WHERE user_email = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, q, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	q := `SELECT ` + orderColumns + ` FROM user_orders WHERE id = $1`
	o, err := scanOrder(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

// Update applies the non-nil fields of p and returns the updated order.
// An empty patch returns the current record.
func (s *Store) Update(ctx context.Context, id uuid.UUID, p Patch) (*Order, error) {
	if p.Empty() {
		return s.Get(ctx, id)
	}
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, v interface{}) {
		sets = append(sets, col+" = $"+itoa(idx))
		args = append(args, v)
		idx++
	}
	if p.Currency != nil {
		add("currency", *p.Currency)
	}
	if p.Amount != nil {
		add("amount", *p.Amount)
	}
	if p.Status != nil {
		add("status", string(*p.Status))
	}
	if p.PaymentMethod != nil {
		add("payment_method", *p.PaymentMethod)
	}
	if p.TrackingNumber != nil {
		add("tracking_number", *p.TrackingNumber)
	}
	if p.Notes != nil {
		add("notes", *p.Notes)
	}
	add("updated_at", time.Now().UTC())
	args = append(args, id)
	query := "UPDATE user_orders SET " + strings.Join(sets, ", ") +
		" WHERE id = $" + itoa(idx) + " RETURNING " + orderColumns
	o, err := scanOrder(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	if err := row.Scan(&o.ID, &o.UserEmail, &o.Currency, &o.Amount, &o.Status,
		&o.PaymentMethod, &o.TrackingNumber, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
