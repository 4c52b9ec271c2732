package database

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/edukit/eduhub/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

// userRow is the relational shape of user.User. Empty username and email
// are stored as NULL so the unique constraints only bind real values.
type userRow struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	Username       null.String    `db:"username"`
	Email          null.String    `db:"email"`
	IsActive       bool           `db:"is_active"`
	EmailVerified  bool           `db:"email_verified"`
	Roles          pq.StringArray `db:"roles"`
	Phone          null.String    `db:"phone"`
	Location       null.String    `db:"location"`
	SchoolName     null.String    `db:"school_name"`
	Grade          null.String    `db:"grade"`
	Age            null.Int       `db:"age"`
	TeachingGrades pq.StringArray `db:"teaching_grades"`
	CEO            null.String    `db:"ceo"`
	PasswordHash   []byte         `db:"password_hash"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
	LastLogin      null.Time      `db:"last_login"`
}

func newUserRow(usr user.User) userRow {
	return userRow{
		ID:             usr.ID,
		Name:           usr.Name,
		Username:       null.NewString(usr.Username, usr.Username != ""),
		Email:          null.NewString(usr.Email, usr.Email != ""),
		IsActive:       usr.IsActive,
		EmailVerified:  usr.EmailVerified,
		Roles:          usr.Roles,
		Phone:          null.NewString(usr.Profile.Phone, usr.Profile.Phone != ""),
		Location:       null.NewString(usr.Profile.Location, usr.Profile.Location != ""),
		SchoolName:     null.NewString(usr.Profile.SchoolName, usr.Profile.SchoolName != ""),
		Grade:          null.NewString(usr.Profile.Grade, usr.Profile.Grade != ""),
		Age:            null.NewInt(usr.Profile.Age, usr.Profile.Age != 0),
		TeachingGrades: usr.Profile.TeachingGrades,
		CEO:            null.NewString(usr.Profile.CEO, usr.Profile.CEO != ""),
		PasswordHash:   usr.PasswordHash,
		CreatedAt:      usr.CreatedAt,
		UpdatedAt:      usr.UpdatedAt,
		LastLogin:      null.NewTime(usr.LastLogin, !usr.LastLogin.IsZero()),
	}
}

func (row userRow) toUser() user.User {
	return user.User{
		ID:            row.ID,
		Name:          row.Name,
		Username:      row.Username.String,
		Email:         row.Email.String,
		IsActive:      row.IsActive,
		EmailVerified: row.EmailVerified,
		Roles:         row.Roles,
		Profile: user.Profile{
			Phone:          row.Phone.String,
			Location:       row.Location.String,
			SchoolName:     row.SchoolName.String,
			Grade:          row.Grade.String,
			Age:            int(row.Age.Int),
			TeachingGrades: row.TeachingGrades,
			CEO:            row.CEO.String,
		},
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		LastLogin:    row.LastLogin.Time,
	}
}

const userColumns = `id, name, username, email, is_active, email_verified, roles, phone, location,
school_name, grade, age, teaching_grades, ceo, password_hash, created_at, updated_at, last_login`

func (repo *userRepository) CheckUsernameUniqueness(username, email string, excludedUsers ...user.User) error {
	exclIDs := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, usr.ID)
	}

	var taken bool
	q := `SELECT EXISTS (SELECT 1 FROM "user" WHERE username = $1 AND $1 <> '' AND id <> ALL($2))`
	if err := repo.db.Get(&taken, q, username, pq.Array(exclIDs)); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	if taken {
		return user.ErrUsernameExists
	}

	q = `SELECT EXISTS (SELECT 1 FROM "user" WHERE email = $1 AND $1 <> '' AND id <> ALL($2))`
	if err := repo.db.Get(&taken, q, email, pq.Array(exclIDs)); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if taken {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	row := newUserRow(usr)
	q := `INSERT INTO "user" (` + userColumns + `) VALUES (
		:id, :name, :username, :email, :is_active, :email_verified, :roles, :phone, :location,
		:school_name, :grade, :age, :teaching_grades, :ceo, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExec(q, row); err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	var rows []userRow
	if err := repo.db.Select(&rows, `SELECT `+userColumns+` FROM "user" ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return rowsToUsers(rows), nil
}

func (repo *userRepository) getUser(where string, args ...interface{}) (user.User, error) {
	var row userRow
	q := `SELECT ` + userColumns + ` FROM "user" WHERE ` + where
	if err := repo.db.Get(&row, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	return repo.getUser(`id = $1`, id)
}

func (repo *userRepository) GetUserByUsername(username string) (user.User, error) {
	return repo.getUser(`username = $1`, username)
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	return repo.getUser(`email = $1`, email)
}

func (repo *userRepository) GetUserByUsernameOrEmail(username string) (user.User, error) {
	return repo.getUser(`username = $1 OR email = $1`, username)
}

func (repo *userRepository) FilterUsers(filter user.QueryFilter) ([]user.User, error) {
	q := `SELECT ` + userColumns + ` FROM "user" WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		q += ` AND (name ILIKE ` + p + ` OR username ILIKE ` + p + ` OR email ILIKE ` + p + `)`
	}
	if len(filter.Roles) > 0 {
		p := arg(pq.Array(filter.Roles))
		q += ` AND EXISTS (SELECT 1 FROM unnest(roles) AS r, unnest(` + p + `::text[]) AS p WHERE r LIKE p || '%')`
	}
	if filter.IsActive != nil {
		q += ` AND is_active = ` + arg(*filter.IsActive)
	}
	if !filter.CreatedFrom.IsZero() {
		q += ` AND created_at >= ` + arg(filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		q += ` AND created_at <= ` + arg(filter.CreatedTo)
	}
	q += ` ORDER BY created_at`

	var rows []userRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	return rowsToUsers(rows), nil
}

// UpdateUser merges the non-zero fields of usr into the stored record;
// the verification flag, creation time and last login are never touched.
func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	orig, err := repo.GetUserByID(usr.ID)
	if err != nil {
		return user.User{}, err
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	orig.Name, orig.Username, orig.Email = usr.Name, usr.Username, usr.Email
	if usr.Roles != nil {
		orig.Roles = usr.Roles
	}
	if !usr.Profile.IsEmpty() {
		orig.Profile = usr.Profile
	}
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	orig.UpdatedAt = usr.UpdatedAt

	row := newUserRow(orig)
	q := `UPDATE "user" SET
		name = :name, username = :username, email = :email, is_active = :is_active,
		email_verified = :email_verified, roles = :roles, phone = :phone, location = :location,
		school_name = :school_name, grade = :grade, age = :age, teaching_grades = :teaching_grades,
		ceo = :ceo, password_hash = :password_hash, updated_at = :updated_at
	WHERE id = :id`
	res, err := repo.db.NamedExec(q, row)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(usr.ID)
}

func (repo *userRepository) SetUserLastLogin(id string, t time.Time) (user.User, error) {
	res, err := repo.db.Exec(`UPDATE "user" SET last_login = $1 WHERE id = $2`, t, id)
	if err != nil {
		return user.User{}, errors.Wrap(err, "setting last login")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(id)
}

func (repo *userRepository) MarkUserVerified(id string) (user.User, error) {
	res, err := repo.db.Exec(`UPDATE "user" SET email_verified = true, updated_at = $1 WHERE id = $2`, time.Now().UTC(), id)
	if err != nil {
		return user.User{}, errors.Wrap(err, "marking user verified")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(id)
}

func (repo *userRepository) DeleteUsersByID(ids ...string) error {
	if _, err := repo.db.Exec(`DELETE FROM "user" WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}

func rowsToUsers(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users
}
