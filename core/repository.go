package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgUserRepository reads registered users from PostgreSQL.
//
//	CREATE TABLE users (
//	  id            BIGSERIAL PRIMARY KEY,
//	  username      TEXT UNIQUE NOT NULL,
//	  password_hash TEXT NOT NULL
//	);
type PgUserRepository struct {
	db *pgxpool.Pool
}

func NewPgUserRepository(db *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{db: db}
}

// ListCredentials returns every user with its bcrypt password hash.
func (r *PgUserRepository) ListCredentials(ctx context.Context) ([]Credential, error) {
	rows, err := r.db.Query(ctx, `SELECT username, password_hash FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Credential
	for rows.Next() {
		var username, hash string
		if err := rows.Scan(&username, &hash); err != nil {
			return nil, err
		}
		c, err := credentialFromRow(username, hash)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// credentialFromRow maps a users row; a blank hash would otherwise accept any empty password.
func credentialFromRow(username, hash string) (Credential, error) {
	if hash == "" {
		return Credential{}, fmt.Errorf("user %s: empty password_hash: %w", username, ErrMissingPassword)
	}
	return Credential{Username: username, PasswordHash: hash}, nil
}
