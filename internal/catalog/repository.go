package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domerrors "github.com/majormentor/major-mentor-go/internal/errors"
)

// ListDepartments returns all departments ordered by name, then university.
func (db *DB) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, COALESCE(college_id, ''), university_id, name, COALESCE(description, '')
		FROM departments ORDER BY name, university_id`)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var departments []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.CollegeID, &d.UniversityID, &d.Name, &d.Description); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

// ListUniversities returns all universities ordered by name.
func (db *DB) ListUniversities(ctx context.Context) ([]University, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, COALESCE(region, '') FROM universities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list universities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var universities []University
	for rows.Next() {
		var u University
		if err := rows.Scan(&u.ID, &u.Name, &u.Region); err != nil {
			return nil, fmt.Errorf("scan university: %w", err)
		}
		universities = append(universities, u)
	}
	return universities, rows.Err()
}

// ListColleges returns all colleges ordered by university, then name.
func (db *DB) ListColleges(ctx context.Context) ([]College, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, university_id, name FROM colleges ORDER BY university_id, name`)
	if err != nil {
		return nil, fmt.Errorf("list colleges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var colleges []College
	for rows.Next() {
		var c College
		if err := rows.Scan(&c.ID, &c.UniversityID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan college: %w", err)
		}
		colleges = append(colleges, c)
	}
	return colleges, rows.Err()
}

// GetDepartmentByID returns the department with the given ID.
func (db *DB) GetDepartmentByID(ctx context.Context, id string) (*Department, error) {
	var d Department
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, COALESCE(college_id, ''), university_id, name, COALESCE(description, '')
		FROM departments WHERE id = ?`, id).
		Scan(&d.ID, &d.CollegeID, &d.UniversityID, &d.Name, &d.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("department %q: %w", id, domerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get department: %w", err)
	}
	return &d, nil
}

// GetDepartmentByName returns one university's department with the exact
// canonical name.
func (db *DB) GetDepartmentByName(ctx context.Context, universityID, name string) (*Department, error) {
	var d Department
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, COALESCE(college_id, ''), university_id, name, COALESCE(description, '')
		FROM departments WHERE university_id = ? AND name = ?`, universityID, name).
		Scan(&d.ID, &d.CollegeID, &d.UniversityID, &d.Name, &d.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("department %q: %w", name, domerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get department: %w", err)
	}
	return &d, nil
}

// GetUniversityByID returns the university with the given ID.
func (db *DB) GetUniversityByID(ctx context.Context, id string) (*University, error) {
	var u University
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(region, '') FROM universities WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Region)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("university %q: %w", id, domerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get university: %w", err)
	}
	return &u, nil
}

// GetUniversityByName returns the university with the exact canonical name.
func (db *DB) GetUniversityByName(ctx context.Context, name string) (*University, error) {
	var u University
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(region, '') FROM universities WHERE name = ?`, name).
		Scan(&u.ID, &u.Name, &u.Region)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("university %q: %w", name, domerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get university: %w", err)
	}
	return &u, nil
}

// GetCollegeByID returns the college with the given ID.
func (db *DB) GetCollegeByID(ctx context.Context, id string) (*College, error) {
	var c College
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, university_id, name FROM colleges WHERE id = ?`, id).
		Scan(&c.ID, &c.UniversityID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("college %q: %w", id, domerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get college: %w", err)
	}
	return &c, nil
}

// GetUniversitiesByDepartmentName returns every university with a department
// of that exact name, ordered by university name.
func (db *DB) GetUniversitiesByDepartmentName(ctx context.Context, name string) ([]University, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT u.id, u.name, COALESCE(u.region, '')
		FROM universities u
		JOIN departments d ON d.university_id = u.id
		WHERE d.name = ?
		ORDER BY u.name`, name)
	if err != nil {
		return nil, fmt.Errorf("universities by department: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var universities []University
	for rows.Next() {
		var u University
		if err := rows.Scan(&u.ID, &u.Name, &u.Region); err != nil {
			return nil, fmt.Errorf("scan university: %w", err)
		}
		universities = append(universities, u)
	}
	return universities, rows.Err()
}

// GetCurriculum returns the department's curriculum ordered by grade and
// semester. Entries within the same grade-semester keep dataset order, and
// duplicate rows are returned as stored.
func (db *DB) GetCurriculum(ctx context.Context, departmentID string) ([]Course, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, department_id, grade, semester, name, COALESCE(classification, ''), COALESCE(summary, '')
		FROM courses
		WHERE department_id = ?
		ORDER BY grade, semester, rowid`, departmentID)
	if err != nil {
		return nil, fmt.Errorf("get curriculum: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var courses []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.DepartmentID, &c.Grade, &c.Semester, &c.Name, &c.Classification, &c.Summary); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// GetCourse returns one curriculum entry of a department by course name.
// When the same course name appears in several grade-semesters, the earliest
// occurrence wins.
func (db *DB) GetCourse(ctx context.Context, departmentID, name string) (*Course, error) {
	var c Course
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, department_id, grade, semester, name, COALESCE(classification, ''), COALESCE(summary, '')
		FROM courses
		WHERE department_id = ? AND name = ?
		ORDER BY grade, semester, rowid
		LIMIT 1`, departmentID, name).
		Scan(&c.ID, &c.DepartmentID, &c.Grade, &c.Semester, &c.Name, &c.Classification, &c.Summary)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("course %q in department %q: %w", name, departmentID, domerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	return &c, nil
}

// CountDepartments returns the number of departments in the catalog.
func (db *DB) CountDepartments(ctx context.Context) (int, error) {
	return db.countRows(ctx, "departments")
}

// CountUniversities returns the number of universities in the catalog.
func (db *DB) CountUniversities(ctx context.Context) (int, error) {
	return db.countRows(ctx, "universities")
}

// CountCourses returns the number of curriculum entries in the catalog.
func (db *DB) CountCourses(ctx context.Context) (int, error) {
	return db.countRows(ctx, "courses")
}

func (db *DB) countRows(ctx context.Context, table string) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

// ExportDataset reads the full catalog content back into a Dataset.
// Used at startup to rebuild in-memory indexes from a persisted catalog.
func (db *DB) ExportDataset(ctx context.Context) (Dataset, error) {
	var ds Dataset
	var err error

	if ds.Universities, err = db.ListUniversities(ctx); err != nil {
		return Dataset{}, err
	}
	if ds.Colleges, err = db.ListColleges(ctx); err != nil {
		return Dataset{}, err
	}
	if ds.Departments, err = db.ListDepartments(ctx); err != nil {
		return Dataset{}, err
	}

	courseRows, err := db.conn.QueryContext(ctx, `
		SELECT id, department_id, grade, semester, name, COALESCE(classification, ''), COALESCE(summary, '')
		FROM courses
		ORDER BY rowid`)
	if err != nil {
		return Dataset{}, fmt.Errorf("export courses: %w", err)
	}
	defer func() { _ = courseRows.Close() }()
	for courseRows.Next() {
		var c Course
		if err := courseRows.Scan(&c.ID, &c.DepartmentID, &c.Grade, &c.Semester, &c.Name, &c.Classification, &c.Summary); err != nil {
			return Dataset{}, fmt.Errorf("scan course: %w", err)
		}
		ds.Courses = append(ds.Courses, c)
	}
	return ds, courseRows.Err()
}

// ReplaceDataset replaces the full catalog content in one transaction.
// Readers never observe a partially written dataset.
func (db *DB) ReplaceDataset(ctx context.Context, ds Dataset) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"courses", "departments", "colleges", "universities"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, u := range ds.Universities {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO universities (id, name, region) VALUES (?, ?, ?)`,
			u.ID, u.Name, u.Region); err != nil {
			return fmt.Errorf("insert university %q: %w", u.Name, err)
		}
	}

	for _, c := range ds.Colleges {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO colleges (id, university_id, name) VALUES (?, ?, ?)`,
			c.ID, c.UniversityID, c.Name); err != nil {
			return fmt.Errorf("insert college %q: %w", c.Name, err)
		}
	}

	for _, d := range ds.Departments {
		collegeID := sql.NullString{String: d.CollegeID, Valid: d.CollegeID != ""}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO departments (id, college_id, university_id, name, description) VALUES (?, ?, ?, ?, ?)`,
			d.ID, collegeID, d.UniversityID, d.Name, d.Description); err != nil {
			return fmt.Errorf("insert department %q: %w", d.Name, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO courses (id, department_id, grade, semester, name, classification, summary) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare course insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range ds.Courses {
		if _, err = stmt.ExecContext(ctx, c.ID, c.DepartmentID, c.Grade, c.Semester, c.Name, c.Classification, c.Summary); err != nil {
			return fmt.Errorf("insert course %q: %w", c.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}
