package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		picture_url VARCHAR(1000),
		role VARCHAR(32) NOT NULL DEFAULT 'viewer',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	// Role values are fixed; anything else is rejected by the store.
	`DO $$
	BEGIN
		IF NOT EXISTS (
			SELECT 1 FROM information_schema.table_constraints
			WHERE table_name = 'users' AND constraint_name = 'users_role_check'
		) THEN
			ALTER TABLE users ADD CONSTRAINT users_role_check
				CHECK (role IN ('viewer', 'contentAdmin', 'admin'));
		END IF;
	END $$`,

	`CREATE TABLE IF NOT EXISTS trainings (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		category VARCHAR(16) NOT NULL CHECK (category IN ('FE', 'BE', 'QA', 'General')),
		conducted_by VARCHAR(255) NOT NULL,
		date_time TIMESTAMP WITH TIME ZONE NOT NULL,
		meeting_link VARCHAR(1000) NOT NULL,
		video_url VARCHAR(1000),
		ppt_url VARCHAR(1000),
		summary TEXT,
		instructor_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_trainings_date_time ON trainings(date_time)`,
	`CREATE INDEX IF NOT EXISTS idx_trainings_category ON trainings(category)`,
	`CREATE INDEX IF NOT EXISTS idx_trainings_instructor_id ON trainings(instructor_id)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
