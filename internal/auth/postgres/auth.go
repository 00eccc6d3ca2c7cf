package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	apperrors "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/auth"
	userDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/user"
)

const uniqueViolation = "23505"

var accountColumns = []string{
	"id", "email", "password_hash", "display_name", "college_name", "created_at", "updated_at",
}

type Repository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

func NewRepository(db *sqlx.DB) auth.RepositoryAPI {
	return &Repository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(PlaceholderFor(db.DriverName())),
	}
}

// PlaceholderFor picks the bind style of a database/sql driver name.
func PlaceholderFor(driverName string) sq.PlaceholderFormat {
	switch driverName {
	case "pgx", "postgres":
		return sq.Dollar
	default:
		return sq.Question
	}
}

func (r *Repository) CreateAccount(ctx context.Context, u *userDatamodel.User) error {
	query, args, err := r.sb.Insert("users").
		Columns(accountColumns...).
		Values(u.ID, u.Email, u.PasswordHash, u.DisplayName, u.CollegeName, u.CreatedAt, u.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert account: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrEmailInUse
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	return r.getOne(ctx, sq.Eq{"email": email})
}

func (r *Repository) GetAccountByID(ctx context.Context, id string) (*userDatamodel.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *Repository) getOne(ctx context.Context, where sq.Eq) (*userDatamodel.User, error) {
	query, args, err := r.sb.Select(accountColumns...).
		From("users").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account: %w", err)
	}

	var u userDatamodel.User
	if err := r.db.GetContext(ctx, &u, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("select account: %w", err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	// sqlite reports constraint failures only through the message.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
