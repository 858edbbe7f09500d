package catalog

import (
	"context"
	"path/filepath"
	"testing"

	domerrors "github.com/majormentor/major-mentor-go/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDataset() Dataset {
	return Dataset{
		Universities: []University{
			{ID: "u1", Name: "한국대학교", Region: "서울"},
			{ID: "u2", Name: "중앙과학기술대학교", Region: "대전"},
		},
		Colleges: []College{
			{ID: "col1", UniversityID: "u1", Name: "공과대학"},
			{ID: "col2", UniversityID: "u1", Name: "사회과학대학"},
			{ID: "col3", UniversityID: "u2", Name: "공과대학"},
		},
		Departments: []Department{
			{ID: "d1", CollegeID: "col1", UniversityID: "u1", Name: "컴퓨터공학과", Description: "컴퓨터 시스템과 소프트웨어를 다루는 학과"},
			{ID: "d2", CollegeID: "col2", UniversityID: "u1", Name: "심리학과", Description: "인간의 마음과 행동을 연구하는 학과"},
			{ID: "d3", CollegeID: "col3", UniversityID: "u2", Name: "신소재공학과"},
			{ID: "d4", CollegeID: "col3", UniversityID: "u2", Name: "컴퓨터공학과", Description: "임베디드 중심 교육과정"},
		},
		Courses: []Course{
			{ID: "c1", DepartmentID: "d1", Grade: 1, Semester: 1, Name: "프로그래밍기초", Classification: "전공필수", Summary: "C 언어 기반 프로그래밍 입문"},
			{ID: "c2", DepartmentID: "d1", Grade: 1, Semester: 2, Name: "자료구조", Classification: "전공필수", Summary: "배열, 리스트, 트리, 그래프"},
			{ID: "c3", DepartmentID: "d1", Grade: 2, Semester: 1, Name: "운영체제", Classification: "전공선택", Summary: "프로세스와 메모리 관리"},
			{ID: "c4", DepartmentID: "d2", Grade: 1, Semester: 1, Name: "심리학개론", Summary: "심리학의 주요 영역 개관"},
			{ID: "c5", DepartmentID: "d4", Grade: 1, Semester: 1, Name: "임베디드시스템", Summary: "마이크로컨트롤러 프로그래밍"},
		},
	}
}

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.ReplaceDataset(context.Background(), testDataset()))
	return db
}

func TestListDepartments(t *testing.T) {
	db := newTestDB(t)

	departments, err := db.ListDepartments(context.Background())
	require.NoError(t, err)
	require.Len(t, departments, 4)

	names := make([]string, 0, len(departments))
	for _, d := range departments {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, "컴퓨터공학과")
	assert.Contains(t, names, "심리학과")
}

func TestGetDepartmentByName(t *testing.T) {
	db := newTestDB(t)

	d, err := db.GetDepartmentByName(context.Background(), "u1", "심리학과")
	require.NoError(t, err)
	assert.Equal(t, "d2", d.ID)
	assert.Equal(t, "col2", d.CollegeID)
}

func TestGetDepartmentByNameScopedToUniversity(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// The same department name at two universities resolves per
	// university, never to the other one's row.
	d, err := db.GetDepartmentByName(ctx, "u1", "컴퓨터공학과")
	require.NoError(t, err)
	assert.Equal(t, "d1", d.ID)

	d, err = db.GetDepartmentByName(ctx, "u2", "컴퓨터공학과")
	require.NoError(t, err)
	assert.Equal(t, "d4", d.ID)

	_, err = db.GetDepartmentByName(ctx, "u2", "심리학과")
	assert.ErrorIs(t, err, domerrors.ErrNotFound)
}

func TestGetDepartmentNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetDepartmentByName(context.Background(), "u1", "항공우주학과")
	assert.ErrorIs(t, err, domerrors.ErrNotFound)

	_, err = db.GetDepartmentByID(context.Background(), "d999")
	assert.ErrorIs(t, err, domerrors.ErrNotFound)
}

func TestEmptyDescriptionIsPreserved(t *testing.T) {
	db := newTestDB(t)

	d, err := db.GetDepartmentByID(context.Background(), "d3")
	require.NoError(t, err)
	assert.Empty(t, d.Description)
}

func TestGetCollegeByID(t *testing.T) {
	db := newTestDB(t)

	c, err := db.GetCollegeByID(context.Background(), "col2")
	require.NoError(t, err)
	assert.Equal(t, "사회과학대학", c.Name)
	assert.Equal(t, "u1", c.UniversityID)

	_, err = db.GetCollegeByID(context.Background(), "col999")
	assert.ErrorIs(t, err, domerrors.ErrNotFound)
}

func TestGetUniversitiesByDepartmentName(t *testing.T) {
	db := newTestDB(t)

	universities, err := db.GetUniversitiesByDepartmentName(context.Background(), "컴퓨터공학과")
	require.NoError(t, err)
	require.Len(t, universities, 2)

	// 심리학과 exists at one university only.
	universities, err = db.GetUniversitiesByDepartmentName(context.Background(), "심리학과")
	require.NoError(t, err)
	require.Len(t, universities, 1)
	assert.Equal(t, "한국대학교", universities[0].Name)
}

func TestGetCurriculumOrder(t *testing.T) {
	db := newTestDB(t)

	courses, err := db.GetCurriculum(context.Background(), "d1")
	require.NoError(t, err)
	require.Len(t, courses, 3)

	assert.Equal(t, "1-1", courses[0].GradeSemester())
	assert.Equal(t, "1-2", courses[1].GradeSemester())
	assert.Equal(t, "2-1", courses[2].GradeSemester())
	assert.Equal(t, "전공필수", courses[0].Classification)
}

func TestCurriculumScopedToDepartment(t *testing.T) {
	db := newTestDB(t)

	// d1 and d4 share the name 컴퓨터공학과 at different universities;
	// each curriculum stays its own.
	courses, err := db.GetCurriculum(context.Background(), "d4")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "임베디드시스템", courses[0].Name)
}

func TestGetCourse(t *testing.T) {
	db := newTestDB(t)

	c, err := db.GetCourse(context.Background(), "d1", "자료구조")
	require.NoError(t, err)
	assert.Equal(t, "배열, 리스트, 트리, 그래프", c.Summary)

	_, err = db.GetCourse(context.Background(), "d1", "심리학개론")
	assert.ErrorIs(t, err, domerrors.ErrNotFound)
}

func TestCounts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	departments, err := db.CountDepartments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, departments)

	universities, err := db.CountUniversities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, universities)

	courses, err := db.CountCourses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, courses)
}

func TestReplaceDatasetKeepsDuplicateCourseRows(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Source corpora repeat course rows; they are stored verbatim and
	// deduplicated only when served.
	ds := Dataset{
		Universities: []University{{ID: "u1", Name: "한국대학교"}},
		Departments:  []Department{{ID: "d1", UniversityID: "u1", Name: "컴퓨터공학과"}},
		Courses: []Course{
			{ID: "c1", DepartmentID: "d1", Grade: 2, Semester: 1, Name: "알고리즘", Summary: "정렬과 탐색"},
			{ID: "c2", DepartmentID: "d1", Grade: 2, Semester: 1, Name: "알고리즘", Summary: "정렬과 탐색"},
		},
	}
	require.NoError(t, db.ReplaceDataset(ctx, ds))

	courses, err := db.GetCurriculum(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, courses, 2)
}

func TestExportDatasetRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ds, err := db.ExportDataset(ctx)
	require.NoError(t, err)
	assert.Len(t, ds.Universities, 2)
	assert.Len(t, ds.Colleges, 3)
	assert.Len(t, ds.Departments, 4)
	require.Len(t, ds.Courses, 5)

	// Courses keep insertion order.
	assert.Equal(t, "프로그래밍기초", ds.Courses[0].Name)
	assert.Equal(t, "임베디드시스템", ds.Courses[4].Name)

	// The exported dataset can seed another catalog.
	other, err := New(filepath.Join(t.TempDir(), "copy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = other.Close() })
	require.NoError(t, other.ReplaceDataset(ctx, ds))

	count, err := other.CountCourses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestReplaceDatasetIsRepeatable(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	smaller := Dataset{
		Universities: []University{{ID: "u1", Name: "한국대학교"}},
		Departments:  []Department{{ID: "d1", UniversityID: "u1", Name: "컴퓨터공학과"}},
		Courses:      []Course{{ID: "c1", DepartmentID: "d1", Grade: 1, Semester: 1, Name: "프로그래밍기초"}},
	}
	require.NoError(t, db.ReplaceDataset(ctx, smaller))

	count, err := db.CountCourses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
