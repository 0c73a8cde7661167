package repo

import (
	"context"
	"database/sql"

	"hindsight/internal/domain"
)

func (r Repo) InsertUserTx(ctx context.Context, tx *sql.Tx, u domain.User) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO users(id,email,name,password_hash,created_at) VALUES (?,?,?,?,?)`,
		u.ID, u.Email, nullable(u.Name), u.PasswordHash, u.CreatedAt)
	return err
}

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var name sql.NullString
	err := row.Scan(&u.ID, &u.Email, &name, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	if name.Valid {
		u.Name = name.String
	}
	return u, err
}

func (r Repo) GetUser(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT id,email,name,password_hash,created_at FROM users WHERE id=?`, id))
}

func (r Repo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT id,email,name,password_hash,created_at FROM users WHERE email=?`, email))
}

func (r Repo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,email,name,password_hash,created_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []domain.User
	for rows.Next() {
		var u domain.User
		var name sql.NullString
		if err := rows.Scan(&u.ID, &u.Email, &name, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, err
		}
		if name.Valid {
			u.Name = name.String
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SingleUser returns the journal's only user, or ErrNotFound when the user
// table is empty or holds more than one account.
func (r Repo) SingleUser(ctx context.Context) (domain.User, error) {
	users, err := r.ListUsers(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if len(users) != 1 {
		return domain.User{}, ErrNotFound
	}
	return users[0], nil
}
