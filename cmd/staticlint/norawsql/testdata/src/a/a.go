package a

import (
	"context"
	"database/sql"
	"fmt"
)

const usersTable = "users"

func queries(ctx context.Context, db *sql.DB, userID string) {
	db.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1`, userID)
	db.QueryRowContext(ctx, "SELECT id FROM "+usersTable+" WHERE id = $1", userID)
	db.QueryRowContext(ctx, (`SELECT count(*) FROM todos`))

	db.QueryRowContext(ctx, "SELECT id FROM users WHERE id = '"+userID+"'") // want "SQL query built by string concatenation; use placeholders"
	db.ExecContext(ctx, fmt.Sprintf("DELETE FROM users WHERE id = '%s'", userID)) // want "SQL query built with fmt.Sprintf; use placeholders"
	db.Query("SELECT name FROM todos WHERE user_id = " + userID) // want "SQL query built by string concatenation; use placeholders"

	query := "SELECT 1"
	db.Exec(query)
}

func transaction(ctx context.Context, tx *sql.Tx, table string) {
	tx.ExecContext(ctx, `TRUNCATE TABLE todos`)
	tx.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s", table)) // want "SQL query built with fmt.Sprintf; use placeholders"
}
