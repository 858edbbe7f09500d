// Package ingest turns a curriculum corpus file into a catalog dataset and
// the derived retrieval and resolution indexes. The corpus is a JSON array
// of rows; a row either describes one curriculum course or, with an empty
// courseName, carries a department introduction. Duplicate course rows are
// kept as-is here; the serving path dedupes them.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"strings"

	"github.com/majormentor/major-mentor-go/internal/catalog"
	domerrors "github.com/majormentor/major-mentor-go/internal/errors"
)

// Row is one corpus entry.
type Row struct {
	University     string `json:"university"`
	College        string `json:"college"`
	Department     string `json:"department"`
	GradeSemester  string `json:"gradeSemester"`
	CourseName     string `json:"courseName"`
	Classification string `json:"courseClassification"`
	Description    string `json:"description"`
}

// isCourse reports whether the row describes a curriculum course rather
// than a department introduction.
func (r Row) isCourse() bool {
	return r.CourseName != ""
}

// ParseCorpus decodes and validates a corpus stream.
func ParseCorpus(r io.Reader) ([]Row, error) {
	var rows []Row
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}

	for i, row := range rows {
		if err := validateRow(row); err != nil {
			return nil, fmt.Errorf("corpus row %d: %w", i, err)
		}
	}
	return rows, nil
}

func validateRow(row Row) error {
	if strings.TrimSpace(row.University) == "" {
		return domerrors.NewValidationError("university", "missing university name")
	}
	if strings.TrimSpace(row.Department) == "" {
		return domerrors.NewValidationError("department", "missing department name")
	}
	if row.isCourse() {
		if _, _, err := parseGradeSemester(row.GradeSemester); err != nil {
			return err
		}
	}
	return nil
}

// parseGradeSemester splits a "grade-semester" label like "1-1".
func parseGradeSemester(label string) (grade, semester int, err error) {
	if n, convErr := fmt.Sscanf(label, "%d-%d", &grade, &semester); convErr != nil || n != 2 {
		return 0, 0, domerrors.NewValidationError("gradeSemester",
			fmt.Sprintf("malformed grade-semester label %q", label))
	}
	if grade < 1 || grade > 6 || semester < 1 || semester > 2 {
		return 0, 0, domerrors.NewValidationError("gradeSemester",
			fmt.Sprintf("grade-semester %q out of range", label))
	}
	return grade, semester, nil
}

// BuildDataset assembles the catalog dataset from corpus rows. University,
// college, and department ids are derived from the owning names, so they
// stay stable across re-ingests of evolving corpora; course ids are
// sequential in corpus order. Departments are scoped to their university:
// the same name at two universities yields two departments.
func BuildDataset(rows []Row) catalog.Dataset {
	var ds catalog.Dataset
	universities := make(map[string]string) // name -> id
	colleges := make(map[string]string)     // university/college -> id
	departments := make(map[string]string)  // university/department -> id

	for _, row := range rows {
		univID, ok := universities[row.University]
		if !ok {
			univID = nameID("univ", row.University)
			universities[row.University] = univID
			ds.Universities = append(ds.Universities, catalog.University{
				ID:   univID,
				Name: row.University,
			})
		}

		var collegeID string
		if row.College != "" {
			collegeKey := row.University + "/" + row.College
			collegeID, ok = colleges[collegeKey]
			if !ok {
				collegeID = nameID("col", collegeKey)
				colleges[collegeKey] = collegeID
				ds.Colleges = append(ds.Colleges, catalog.College{
					ID:           collegeID,
					UniversityID: univID,
					Name:         row.College,
				})
			}
		}

		deptKey := row.University + "/" + row.Department
		deptID, ok := departments[deptKey]
		if !ok {
			deptID = nameID("dept", deptKey)
			departments[deptKey] = deptID
			ds.Departments = append(ds.Departments, catalog.Department{
				ID:           deptID,
				CollegeID:    collegeID,
				UniversityID: univID,
				Name:         row.Department,
			})
		}

		if !row.isCourse() {
			// Department introduction row.
			for i := range ds.Departments {
				if ds.Departments[i].ID == deptID && ds.Departments[i].Description == "" {
					ds.Departments[i].Description = row.Description
				}
			}
			continue
		}

		grade, semester, _ := parseGradeSemester(row.GradeSemester)
		ds.Courses = append(ds.Courses, catalog.Course{
			ID:             fmt.Sprintf("crs-%06d", len(ds.Courses)+1),
			DepartmentID:   deptID,
			Grade:          grade,
			Semester:       semester,
			Name:           row.CourseName,
			Classification: row.Classification,
			Summary:        row.Description,
		})
	}

	return ds
}

// nameID derives a stable id from a canonical name.
func nameID(prefix, name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return fmt.Sprintf("%s-%08x", prefix, h.Sum32())
}

// IngestFile parses the corpus at corpusPath and writes it to a fresh
// catalog database at dbPath, returning the dataset for index building.
func IngestFile(ctx context.Context, corpusPath, dbPath string) (catalog.Dataset, error) {
	f, err := os.Open(corpusPath)
	if err != nil {
		return catalog.Dataset{}, fmt.Errorf("open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := ParseCorpus(f)
	if err != nil {
		return catalog.Dataset{}, err
	}
	ds := BuildDataset(rows)

	db, err := catalog.New(dbPath)
	if err != nil {
		return catalog.Dataset{}, fmt.Errorf("create catalog: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.ReplaceDataset(ctx, ds); err != nil {
		return catalog.Dataset{}, err
	}
	return ds, nil
}
