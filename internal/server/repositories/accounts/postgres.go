package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/userhub/internal/common"
	"github.com/dmitrijs2005/userhub/internal/dbx"
	"github.com/dmitrijs2005/userhub/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const (
	pgUniqueViolation = "23505"

	accountColumns = `id, email, password_hash, first_name, last_name, avatar, role, is_active,
       is_email_verified, refresh_token, password_changed_at, last_login_at, created_at, updated_at`
)

var sortColumns = map[string]string{
	models.SortCreatedAt: "created_at",
	models.SortEmail:     "email",
	models.SortFirstName: "first_name",
	models.SortLastName:  "last_name",
}

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO accounts (id, email, password_hash, first_name, last_name, avatar, role, is_active, is_email_verified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		a.ID, a.Email, a.PasswordHash, a.FirstName, a.LastName, a.Avatar, string(a.Role), a.IsActive, a.IsEmailVerified,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}

	return a, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`, email); err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

func (r *PostgresRepository) SetRefreshToken(ctx context.Context, id string, token *string) error {
	return r.exec(ctx, `UPDATE accounts SET refresh_token = $2, updated_at = now() WHERE id = $1`, id, token)
}

func (r *PostgresRepository) RecordLogin(ctx context.Context, id, refreshToken string, at time.Time) error {
	return r.exec(ctx,
		`UPDATE accounts SET refresh_token = $2, last_login_at = $3, updated_at = now() WHERE id = $1`,
		id, refreshToken, at)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time, refreshToken string) error {
	return r.exec(ctx,
		`UPDATE accounts SET password_hash = $2, password_changed_at = $3, refresh_token = $4, updated_at = now() WHERE id = $1`,
		id, hash, changedAt, refreshToken)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, u models.ProfileUpdate) (*models.Account, error) {
	var set setClause
	set.add("first_name", u.FirstName)
	set.add("last_name", u.LastName)
	set.add("avatar", u.Avatar)
	return r.update(ctx, id, &set)
}

func (r *PostgresRepository) UpdateAdmin(ctx context.Context, id string, u models.AdminUpdate) (*models.Account, error) {
	var set setClause
	set.add("first_name", u.FirstName)
	set.add("last_name", u.LastName)
	set.add("role", u.Role)
	set.add("is_active", u.IsActive)
	set.add("is_email_verified", u.IsEmailVerified)
	return r.update(ctx, id, &set)
}

func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) (*models.Account, error) {
	var set setClause
	set.add("is_active", &active)
	return r.update(ctx, id, &set)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
}

// List returns one page and the total match count, read in a single
// repeatable-read snapshot so the two agree.
func (r *PostgresRepository) List(ctx context.Context, q models.ListQuery) (*models.Page, error) {
	q.Normalize()

	where, args := listFilter(q)
	order := "DESC"
	if !q.SortDesc {
		order = "ASC"
	}

	pageQuery := fmt.Sprintf(`SELECT %s FROM accounts%s ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d`,
		accountColumns, where, sortColumns[q.SortBy], order, order, len(args)+1, len(args)+2)
	countQuery := `SELECT COUNT(*) FROM accounts` + where

	page := &models.Page{Page: q.Page, Limit: q.Limit, Items: []*models.Account{}}

	err := dbx.WithTx(ctx, r.db, dbx.ReadOnlySnapshot, func(ctx context.Context, tx dbx.DBTX) error {
		if err := sqlx.SelectContext(ctx, tx, &page.Items, pageQuery, append(args, q.Limit, q.Offset())...); err != nil {
			return err
		}
		return sqlx.GetContext(ctx, tx, &page.Total, countQuery, args...)
	})
	if err != nil {
		return nil, mapError(err)
	}

	return page, nil
}

func listFilter(q models.ListQuery) (string, []any) {
	var conds []string
	var args []any

	if q.Role != nil {
		args = append(args, string(*q.Role))
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if q.IsActive != nil {
		args = append(args, *q.IsActive)
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", n, n, n))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Account, error) {
	a := &models.Account{}
	if err := sqlx.GetContext(ctx, r.db, a, query, args...); err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) update(ctx context.Context, id string, set *setClause) (*models.Account, error) {
	if set.empty() {
		return r.GetByID(ctx, id)
	}
	query := fmt.Sprintf(`UPDATE accounts SET %s, updated_at = now() WHERE id = $1 RETURNING %s`,
		set.sql(2), accountColumns)
	return r.getOne(ctx, query, append([]any{id}, set.args...)...)
}

// setClause collects "column = $n" assignments for the non-nil fields of a
// partial update.
type setClause struct {
	cols []string
	args []any
}

func (s *setClause) add(col string, v any) {
	switch p := v.(type) {
	case *string:
		if p == nil {
			return
		}
		s.cols, s.args = append(s.cols, col), append(s.args, *p)
	case *bool:
		if p == nil {
			return
		}
		s.cols, s.args = append(s.cols, col), append(s.args, *p)
	case *models.Role:
		if p == nil {
			return
		}
		s.cols, s.args = append(s.cols, col), append(s.args, string(*p))
	}
}

func (s *setClause) empty() bool { return len(s.cols) == 0 }

// sql renders the assignments numbering placeholders from first.
func (s *setClause) sql(first int) string {
	parts := make([]string, len(s.cols))
	for i, c := range s.cols {
		parts[i] = fmt.Sprintf("%s = $%d", c, first+i)
	}
	return strings.Join(parts, ", ")
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %w", common.ErrorAlreadyExists, err)
	}
	return fmt.Errorf("db error: %w", err)
}
