package sqlite

import (
	"database/sql"
	"strings"
	"time"

	"ambulancewatch/internal/model"
	"ambulancewatch/internal/repository"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// UserRepository implements repository.UserRepository for SQLite.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Insert adds a new account. Username is checked before email.
func (r *UserRepository) Insert(u *model.User) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	conn := r.db.Conn()
	if taken, err := exists(conn, "SELECT 1 FROM users WHERE username = ?", u.Username); err != nil {
		return 0, err
	} else if taken {
		return 0, repository.ErrDuplicateUsername
	}
	if taken, err := exists(conn, "SELECT 1 FROM users WHERE email = ?", u.Email); err != nil {
		return 0, err
	} else if taken {
		return 0, repository.ErrDuplicateEmail
	}

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	result, err := conn.Exec(`
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`, u.Username, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return 0, mapConstraintError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read user id")
	}
	u.ID = id
	return id, nil
}

// GetByUsername retrieves an account by its username, or nil when there is none.
func (r *UserRepository) GetByUsername(username string) (*model.User, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var u model.User
	err := r.db.Conn().QueryRow(`
		SELECT id, username, email, password_hash, created_at
		FROM users WHERE username = ?
	`, username).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}
	return &u, nil
}

// GetTotalCount returns the number of registered accounts.
func (r *UserRepository) GetTotalCount() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var n int
	if err := r.db.Conn().QueryRow("SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count users")
	}
	return n, nil
}

func exists(conn *sql.DB, query string, arg interface{}) (bool, error) {
	var one int
	err := conn.QueryRow(query, arg).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "failed to check user uniqueness")
	}
	return true, nil
}

// mapConstraintError turns a UNIQUE violation that slipped past the pre-checks
// into the matching repository error.
func mapConstraintError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		switch {
		case strings.Contains(sqliteErr.Error(), "users.username"):
			return repository.ErrDuplicateUsername
		case strings.Contains(sqliteErr.Error(), "users.email"):
			return repository.ErrDuplicateEmail
		}
	}
	return errors.Wrap(err, "failed to insert user")
}
