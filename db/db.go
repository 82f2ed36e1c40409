package db

import (
	"context"
	"fmt"
	"strings"

	"jobboard_back_end_go/config"
	"jobboard_back_end_go/models"

	"github.com/jackc/pgx/v4/pgxpool"
)

func InitDatabase(ctx context.Context, cfg config.Database) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %v", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	conn, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if err := CreateSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func quoteList[T ~string](values []T) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + string(v) + "'"
	}
	return strings.Join(quoted, ", ")
}

// SchemaQueries returns the DDL in dependency order. Every statement is
// idempotent.
func SchemaQueries() []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

		`CREATE TABLE IF NOT EXISTS profiles (
			id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
			full_name VARCHAR(120) NOT NULL,
			avatar_url TEXT,
			role VARCHAR(20) NOT NULL CHECK (role IN (` + quoteList([]models.Role{models.RoleCandidate, models.RoleEmployer, models.RoleAdmin}) + `)),
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(100) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS jobs (
			id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
			employer_id uuid NOT NULL REFERENCES profiles(id),
			title VARCHAR(200) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			location VARCHAR(200) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS applications (
			id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
			job_id uuid NOT NULL REFERENCES jobs(id),
			candidate_id uuid NOT NULL REFERENCES profiles(id),
			status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (status IN (` + quoteList(models.ApplicationStatuses) + `)),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS interviews (
			id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
			application_id uuid NOT NULL REFERENCES applications(id),
			scheduled_at TIMESTAMPTZ NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'scheduled' CHECK (status IN (` + quoteList(models.InterviewStatuses) + `)),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
			seq BIGSERIAL NOT NULL,
			sender_id uuid NOT NULL REFERENCES profiles(id),
			receiver_id uuid NOT NULL REFERENCES profiles(id),
			application_id uuid REFERENCES applications(id),
			content TEXT NOT NULL CHECK (length(btrim(content)) > 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			read_at TIMESTAMPTZ,
			deleted_at TIMESTAMPTZ
		)`,

		`CREATE INDEX IF NOT EXISTS messages_sender_idx ON messages (sender_id, created_at DESC) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS messages_receiver_idx ON messages (receiver_id, created_at DESC) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS messages_unread_idx ON messages (receiver_id, sender_id) WHERE read_at IS NULL AND deleted_at IS NULL`,
	}
}

// Create tables
func CreateSchema(ctx context.Context, conn *pgxpool.Pool) error {
	for _, query := range SchemaQueries() {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %v", err)
		}
	}
	return nil
}
