package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode and pragmas are configured in db.go.
func InitSchema(db *sql.DB) error {
	if err := createUniversitiesTable(db); err != nil {
		return err
	}
	if err := createCollegesTable(db); err != nil {
		return err
	}
	if err := createDepartmentsTable(db); err != nil {
		return err
	}
	return createCoursesTable(db)
}

func createUniversitiesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS universities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		region TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_universities_name ON universities(name);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create universities table: %w", err)
	}
	return nil
}

func createCollegesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS colleges (
		id TEXT PRIMARY KEY,
		university_id TEXT NOT NULL REFERENCES universities(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		UNIQUE (university_id, name)
	);
	CREATE INDEX IF NOT EXISTS idx_colleges_university ON colleges(university_id);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create colleges table: %w", err)
	}
	return nil
}

// Department names are unique within a university only. The same name at
// another university is a separate row.
func createDepartmentsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS departments (
		id TEXT PRIMARY KEY,
		college_id TEXT REFERENCES colleges(id) ON DELETE SET NULL,
		university_id TEXT NOT NULL REFERENCES universities(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT,
		UNIQUE (university_id, name)
	);
	CREATE INDEX IF NOT EXISTS idx_departments_name ON departments(name);
	CREATE INDEX IF NOT EXISTS idx_departments_university ON departments(university_id);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create departments table: %w", err)
	}
	return nil
}

// Duplicate course rows (same department, grade-semester, and name) are kept
// as ingested; deduplication happens on the serving side.
func createCoursesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS courses (
		id TEXT PRIMARY KEY,
		department_id TEXT NOT NULL REFERENCES departments(id) ON DELETE CASCADE,
		grade INTEGER NOT NULL,
		semester INTEGER NOT NULL,
		name TEXT NOT NULL,
		classification TEXT,
		summary TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_courses_department ON courses(department_id, grade, semester);
	CREATE INDEX IF NOT EXISTS idx_courses_name ON courses(name);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create courses table: %w", err)
	}
	return nil
}
