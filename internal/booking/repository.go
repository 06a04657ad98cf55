package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/apperror"
)

type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, error)
	ListByItems(ctx context.Context, itemIDs []string) ([]*Booking, error)
	Delete(ctx context.Context, id string) error

	// Decide moves a WAITING booking to status in a single conditional update.
	// It returns ErrAlreadyDecided when the booking exists but is no longer WAITING.
	Decide(ctx context.Context, id string, status Status) (*Booking, error)

	// HasFinishedBooking checks if userID has an approved booking of itemID that ended before now.
	HasFinishedBooking(ctx context.Context, userID, itemID string, now time.Time) (bool, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// selectBookings joins the item and booker so ownership is resolved at read time.
func selectBookings() squirrel.SelectBuilder {
	return psql.Select(
		"b.id", "b.item_id", "b.booker_id", "u.name",
		"i.name", "i.description", "i.is_available", "i.owner_id",
		"b.start_time", "b.end_time", "b.status", "b.created_at", "b.updated_at",
	).
		From("public.bookings b").
		Join("public.items i ON b.item_id = i.id").
		Join("public.users u ON b.booker_id = u.id")
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(
		&b.ID, &b.ItemID, &b.BookerID, &b.BookerName,
		&b.Item.Name, &b.Item.Description, &b.Item.Available, &b.Item.OwnerID,
		&b.StartTime, &b.EndTime, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.Item.ID = b.ItemID
	return &b, nil
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	query, args, err := psql.Insert("public.bookings").
		Columns("item_id", "booker_id", "start_time", "end_time", "status").
		Values(b.ItemID, b.BookerID, b.StartTime, b.EndTime, b.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) {
			switch e.Code {
			case pgerrcode.ForeignKeyViolation:
				return apperror.Wrap(err, ErrReferenceGone.Kind, ErrReferenceGone.Message)
			case pgerrcode.CheckViolation:
				return apperror.Wrap(err, ErrInvalidTimeRange.Kind, ErrInvalidTimeRange.Message)
			}
		}
		return fmt.Errorf("create booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query, args, err := selectBookings().
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, error) {
	query := selectBookings()

	switch filter.Scope {
	case ScopeOwner:
		query = query.Where(squirrel.Eq{"i.owner_id": filter.UserID})
	default:
		query = query.Where(squirrel.Eq{"b.booker_id": filter.UserID})
	}

	if pred := filter.Category.Predicate(filter.Now); pred != nil {
		query = query.Where(pred)
	}

	sql, args, err := filter.Page.Apply(query).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list bookings query failed: %w", err)
	}

	return r.query(ctx, sql, args)
}

func (r *pgxRepository) ListByItems(ctx context.Context, itemIDs []string) ([]*Booking, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}

	query := selectBookings().Where(squirrel.Eq{"b.item_id": itemIDs})
	for _, o := range ListOrder {
		query = query.OrderBy(o.String())
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list item bookings query failed: %w", err)
	}

	return r.query(ctx, sql, args)
}

func (r *pgxRepository) query(ctx context.Context, sql string, args []any) ([]*Booking, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings failed: %w", err)
	}

	return bookings, nil
}

func (r *pgxRepository) Decide(ctx context.Context, id string, status Status) (*Booking, error) {
	query, args, err := psql.Update("public.bookings").
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "status": StatusWaiting}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build decide booking query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("decide booking failed: %w", err)
	}

	// Re-read either way: on success to return the joined row,
	// on zero rows to tell a missing booking from one already decided.
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrAlreadyDecided
	}
	return b, nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("public.bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete booking query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete booking failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) HasFinishedBooking(ctx context.Context, userID, itemID string, now time.Time) (bool, error) {
	subQuery := psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{"booker_id": userID, "item_id": itemID, "status": StatusApproved}).
		Where(squirrel.Lt{"end_time": now})

	sql, args, err := subQuery.ToSql()
	if err != nil {
		return false, fmt.Errorf("build finished booking query failed: %w", err)
	}

	query := "SELECT EXISTS (" + sql + ")"

	var exists bool
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check finished booking failed: %w", err)
	}
	return exists, nil
}
