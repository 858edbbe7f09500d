package retriever

import (
	"testing"

	"github.com/majormentor/major-mentor-go/internal/logger"
)

func testDocuments() []Document {
	return []Document{
		{
			CourseID:     "cs-101",
			DepartmentID: "dept-cs",
			University:   "한국대학교",
			College:      "공과대학",
			Department:   "컴퓨터공학과",
			Grade:        1,
			Semester:     1,
			Name:         "프로그래밍기초",
			Summary:      "변수, 조건문, 반복문 등 프로그래밍의 기본 개념을 익히고 간단한 프로그램을 작성한다.",
		},
		{
			CourseID:     "cs-201",
			DepartmentID: "dept-cs",
			University:   "한국대학교",
			College:      "공과대학",
			Department:   "컴퓨터공학과",
			Grade:        2,
			Semester:     1,
			Name:         "자료구조",
			Summary:      "배열, 연결 리스트, 스택, 큐, 트리, 그래프 등 자료구조와 알고리즘을 학습한다.",
		},
		{
			CourseID:     "cs-301",
			DepartmentID: "dept-cs",
			University:   "한국대학교",
			College:      "공과대학",
			Department:   "컴퓨터공학과",
			Grade:        3,
			Semester:     2,
			Name:         "게임프로그래밍",
			Summary:      "게임 엔진 구조와 실시간 렌더링, 게임 기획부터 구현까지의 과정을 다룬다.",
		},
		{
			CourseID:     "psy-101",
			DepartmentID: "dept-psy",
			University:   "한국대학교",
			College:      "사회과학대학",
			Department:   "심리학과",
			Grade:        1,
			Semester:     1,
			Name:         "심리학개론",
			Summary:      "인간의 마음과 행동을 과학적으로 이해하는 심리학의 기초를 소개한다.",
		},
		{
			CourseID:     "psy-201",
			DepartmentID: "dept-psy",
			University:   "한국대학교",
			College:      "사회과학대학",
			Department:   "심리학과",
			Grade:        2,
			Semester:     2,
			Name:         "인지심리학",
			Summary:      "지각, 기억, 사고 등 인간의 인지 과정을 연구하는 이론과 실험을 다룬다.",
		},
	}
}

func newTestBM25(t *testing.T) *BM25Index {
	t.Helper()
	idx := NewBM25Index(logger.New("error"))
	if err := idx.Rebuild(testDocuments()); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	return idx
}

func TestBM25Index_Rebuild(t *testing.T) {
	t.Parallel()
	idx := NewBM25Index(logger.New("error"))

	if idx.IsEnabled() {
		t.Error("index should not be enabled before rebuild")
	}

	if err := idx.Rebuild(testDocuments()); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if !idx.IsEnabled() {
		t.Error("index should be enabled after rebuild")
	}
	if idx.Count() != len(testDocuments()) {
		t.Errorf("Count() = %d, want %d", idx.Count(), len(testDocuments()))
	}
}

func TestBM25Index_Search(t *testing.T) {
	t.Parallel()
	idx := newTestBM25(t)

	results, err := idx.Search("자료구조 알고리즘", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Search() returned no results")
	}
	if results[0].Document.CourseID != "cs-201" {
		t.Errorf("top result = %s, want cs-201", results[0].Document.CourseID)
	}
	for i, r := range results {
		if r.Rank != i+1 {
			t.Errorf("result %d has rank %d, want %d", i, r.Rank, i+1)
		}
		if i > 0 && r.Score > results[i-1].Score {
			t.Error("results not sorted by score descending")
		}
	}
}

func TestBM25Index_Search_KoreanBigrams(t *testing.T) {
	t.Parallel()
	idx := newTestBM25(t)

	// Partial term match through character bigrams.
	results, err := idx.Search("심리학", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Search() should match via Korean bigrams")
	}
	if results[0].Document.DepartmentID != "dept-psy" {
		t.Errorf("top result department = %s, want dept-psy", results[0].Document.DepartmentID)
	}
}

func TestBM25Index_Search_EmptyAndMiss(t *testing.T) {
	t.Parallel()
	idx := newTestBM25(t)

	results, err := idx.Search("   ", 10)
	if err != nil || results != nil {
		t.Errorf("Search(blank) = (%v, %v), want (nil, nil)", results, err)
	}

	results, err = idx.Search("zzzzqqqq", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search(miss) returned %d results, want 0", len(results))
	}
}

func TestBM25Index_Search_TopN(t *testing.T) {
	t.Parallel()
	idx := newTestBM25(t)

	results, err := idx.Search("컴퓨터공학과", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) > 2 {
		t.Errorf("Search(topN=2) returned %d results", len(results))
	}
}

func TestBM25Index_RebuildReplaces(t *testing.T) {
	t.Parallel()
	idx := newTestBM25(t)

	if err := idx.Rebuild(testDocuments()[:1]); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if idx.Count() != 1 {
		t.Errorf("Count() after rebuild = %d, want 1", idx.Count())
	}

	results, err := idx.Search("심리학개론", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Error("removed documents should not be searchable after rebuild")
	}
}

func TestBM25Index_NilSafety(t *testing.T) {
	t.Parallel()
	var idx *BM25Index
	if idx.IsEnabled() {
		t.Error("nil index should not be enabled")
	}
	if idx.Count() != 0 {
		t.Error("nil index count should be 0")
	}
	if _, err := idx.Search("질의", 5); err != nil {
		t.Errorf("nil index Search() error = %v", err)
	}
	if err := idx.Rebuild(nil); err != nil {
		t.Errorf("nil index Rebuild() error = %v", err)
	}
}
