// Package postgresdb provides the PostgreSQL implementation of the storage
// used by the validators and controllers.
// The schema is kept in the embedded goose migrations and applied on start.
package postgresdb

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/patric-chuzhbe/todolist/internal/models"
	"github.com/patric-chuzhbe/todolist/internal/user"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	migrationsDir = "migrations"

	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

// PostgresDB is a PostgreSQL-backed storage of users and their todos.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset drops every table of the public schema before the migrations run.
// It is meant for test setups.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New opens the connection pool, runs the schema migrations,
// and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/postgresdb.go/New(): error while `sql.Open()` calling: %w", err)
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if err := result.Ping(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("in internal/db/postgresdb/postgresdb.go/New(): error while `result.Ping()` calling: %w", err)
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			database.Close()
			return nil,
				fmt.Errorf(
					"in internal/db/postgresdb/postgresdb.go/New(): error while `result.resetDB()` calling: %w",
					err,
				)
		}
	}

	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		database.Close()
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.SetDialect()` calling: %w",
				err,
			)
	}

	if err := goose.UpContext(ctx, result.database, migrationsDir); err != nil {
		database.Close()
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.UpContext()` calling: %w",
				err,
			)
	}

	return result, nil
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

// CreateUser inserts usr and returns it with the registration date set by the database.
// A taken username or email is reported as models.ErrUsernameTaken or models.ErrEmailTaken.
func (db *PostgresDB) CreateUser(ctx context.Context, usr *user.User) (*user.User, error) {
	row := db.database.QueryRowContext(
		ctx,
		`
			INSERT INTO users (id, username, email, password_hash)
				VALUES ($1, $2, $3, $4)
				RETURNING registration_date
		`,
		usr.ID,
		usr.Username,
		usr.Email,
		usr.PasswordHash,
	)

	result := *usr
	if err := row.Scan(&result.RegistrationDate); err != nil {
		return nil, uniqueViolationToError(err)
	}

	return &result, nil
}

func (db *PostgresDB) getUser(ctx context.Context, query string, arg string) (*user.User, bool, error) {
	row := db.database.QueryRowContext(ctx, query, arg)

	var usr user.User
	err := row.Scan(&usr.ID, &usr.Username, &usr.Email, &usr.PasswordHash, &usr.RegistrationDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &usr, true, nil
}

// GetUserByID fetches a user by id. Ids that are not UUIDs are reported as not found.
func (db *PostgresDB) GetUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, false, nil
	}

	return db.getUser(
		ctx,
		`SELECT id, username, email, password_hash, registration_date FROM users WHERE id = $1`,
		userID,
	)
}

// GetUserByEmail fetches a user by the exact email address.
func (db *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	return db.getUser(
		ctx,
		`SELECT id, username, email, password_hash, registration_date FROM users WHERE email = $1`,
		email,
	)
}

// FindUsersByUsernameOrEmail returns the users, other than excludedUserID,
// whose username equals username or whose email equals email.
func (db *PostgresDB) FindUsersByUsernameOrEmail(
	ctx context.Context,
	username string,
	email string,
	excludedUserID string,
) ([]user.User, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`
			SELECT id, username, email, password_hash, registration_date
				FROM users
				WHERE (username = $1 OR email = $2)
					AND id::text <> $3
		`,
		username,
		email,
		excludedUserID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []user.User
	for rows.Next() {
		var usr user.User
		if err := rows.Scan(&usr.ID, &usr.Username, &usr.Email, &usr.PasswordHash, &usr.RegistrationDate); err != nil {
			return nil, err
		}
		result = append(result, usr)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateUser stores the username and email of usr, and its password hash when one is given.
func (db *PostgresDB) UpdateUser(ctx context.Context, usr *user.User) (*user.User, error) {
	row := db.database.QueryRowContext(
		ctx,
		`
			UPDATE users
				SET username = $2,
					email = $3,
					password_hash = COALESCE(NULLIF($4, ''), password_hash)
				WHERE id = $1
				RETURNING id, username, email, password_hash, registration_date
		`,
		usr.ID,
		usr.Username,
		usr.Email,
		usr.PasswordHash,
	)

	var result user.User
	err := row.Scan(&result.ID, &result.Username, &result.Email, &result.PasswordHash, &result.RegistrationDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, uniqueViolationToError(err)
	}

	return &result, nil
}

// DeleteUser removes the user; the todos go with it through the foreign key.
func (db *PostgresDB) DeleteUser(ctx context.Context, userID string) error {
	_, err := db.database.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)

	return err
}

// CreateTodo inserts todo and returns its id.
func (db *PostgresDB) CreateTodo(ctx context.Context, todo *models.Todo) (string, error) {
	row := db.database.QueryRowContext(
		ctx,
		`INSERT INTO todos (id, user_id, name, done) VALUES ($1, $2, $3, $4) RETURNING id`,
		todo.ID,
		todo.UserID,
		todo.Name,
		todo.Done,
	)

	var todoID string
	if err := row.Scan(&todoID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return "", models.ErrUserNotFound
		}
		return "", err
	}

	return todoID, nil
}

func (db *PostgresDB) queryTodos(ctx context.Context, query string, args ...any) ([]models.Todo, error) {
	rows, err := db.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.Todo{}
	for rows.Next() {
		var todo models.Todo
		if err := rows.Scan(&todo.ID, &todo.UserID, &todo.Name, &todo.Done, &todo.CreationDate); err != nil {
			return nil, err
		}
		result = append(result, todo)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// GetUserTodos returns the todos of the user in creation order.
func (db *PostgresDB) GetUserTodos(ctx context.Context, userID string) ([]models.Todo, error) {
	return db.queryTodos(
		ctx,
		`
			SELECT id, user_id, name, done, creation_date
				FROM todos
				WHERE user_id = $1
				ORDER BY creation_date, id
		`,
		userID,
	)
}

// FindTodosByIDs returns the existing todos among todoIDs. Ids that are not UUIDs are skipped.
func (db *PostgresDB) FindTodosByIDs(ctx context.Context, todoIDs []string) ([]models.Todo, error) {
	validIDs := onlyUUIDs(todoIDs)
	if len(validIDs) == 0 {
		return []models.Todo{}, nil
	}

	return db.queryTodos(
		ctx,
		`
			SELECT id, user_id, name, done, creation_date
				FROM todos
				WHERE id = ANY($1::uuid[])
		`,
		validIDs,
	)
}

// UpdateTodo stores the name and the done flag of todo.
func (db *PostgresDB) UpdateTodo(ctx context.Context, todo *models.Todo) error {
	_, err := db.database.ExecContext(
		ctx,
		`UPDATE todos SET name = $2, done = $3 WHERE id = $1`,
		todo.ID,
		todo.Name,
		todo.Done,
	)

	return err
}

// DeleteUserTodos removes the todos among todoIDs that belong to userID.
func (db *PostgresDB) DeleteUserTodos(ctx context.Context, userID string, todoIDs []string) error {
	validIDs := onlyUUIDs(todoIDs)
	if len(validIDs) == 0 {
		return nil
	}

	_, err := db.database.ExecContext(
		ctx,
		`DELETE FROM todos WHERE user_id = $1 AND id = ANY($2::uuid[])`,
		userID,
		validIDs,
	)

	return err
}

// GetNumberOfUsers returns the number of registered users.
func (db *PostgresDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	return db.count(ctx, `SELECT COUNT(*) FROM users`)
}

// GetNumberOfTodos returns the number of todos of all users.
func (db *PostgresDB) GetNumberOfTodos(ctx context.Context) (int64, error) {
	return db.count(ctx, `SELECT COUNT(*) FROM todos`)
}

func (db *PostgresDB) count(ctx context.Context, query string) (int64, error) {
	var result int64
	if err := db.database.QueryRowContext(ctx, query).Scan(&result); err != nil {
		return 0, err
	}

	return result, nil
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/resetDB(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}
	return nil
}

// uniqueViolationToError maps a violation of the users unique constraints
// to the matching models error and returns any other error unchanged.
func uniqueViolationToError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return err
	}

	switch pgErr.ConstraintName {
	case usernameConstraint:
		return models.ErrUsernameTaken
	case emailConstraint:
		return models.ErrEmailTaken
	}

	return err
}

func onlyUUIDs(ids []string) []string {
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			result = append(result, id)
		}
	}

	return result
}
