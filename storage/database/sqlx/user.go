package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/prajin1910/eval/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (r *userRepository) CheckUsernameUniqueness(username, email string) error {
	var usr user.User
	err := r.db.Get(&usr, `SELECT username, email FROM "user" WHERE username = $1 OR email = $2 LIMIT 1`, username, email)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	if usr.Username == username {
		return user.ErrUsernameExists
	}
	return user.ErrEmailExists
}

func (r *userRepository) CreateUser(usr user.User) (user.User, error) {
	_, err := r.db.NamedExec(
		`INSERT INTO "user" (id, name, username, email, role, is_active, password_hash, created_at, updated_at)
		 VALUES (:id, :name, :username, :email, :role, :is_active, :password_hash, :created_at, :updated_at)`, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (r *userRepository) getWhere(where string, args ...interface{}) (user.User, error) {
	var usr user.User
	err := r.db.Get(&usr, `SELECT * FROM "user" WHERE `+where, args...)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return usr, nil
}

func (r *userRepository) GetUserByID(id string) (user.User, error) {
	return r.getWhere("id = $1", id)
}

func (r *userRepository) GetUserByEmail(email string) (user.User, error) {
	return r.getWhere("email = $1", email)
}

func (r *userRepository) GetUserByUsernameOrEmail(username string) (user.User, error) {
	return r.getWhere("username = $1 OR email = $1", username)
}

func (r *userRepository) UpdateUser(usr user.User) (user.User, error) {
	res, err := r.db.NamedExec(
		`UPDATE "user" SET name = :name, username = :username, email = :email, role = :role,
		 is_active = :is_active, password_hash = :password_hash, updated_at = :updated_at
		 WHERE id = :id`, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
