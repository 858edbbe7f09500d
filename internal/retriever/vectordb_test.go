package retriever

import (
	"context"
	"math"
	"strings"
	"testing"

	chromem "github.com/philippgille/chromem-go"

	"github.com/majormentor/major-mentor-go/internal/config"
	"github.com/majormentor/major-mentor-go/internal/logger"
)

// fakeEmbeddingFunc returns deterministic vectors built from keyword hits,
// so semantic tests run without any embedding API.
func fakeEmbeddingFunc() chromem.EmbeddingFunc {
	keywords := []string{
		"게임", "렌더링", "프로그래밍", "기초",
		"심리", "마음", "인지", "기억",
		"자료구조", "알고리즘", "트리",
	}

	return func(_ context.Context, text string) ([]float32, error) {
		lower := strings.ToLower(text)
		vec := make([]float32, len(keywords)+1)
		vec[len(keywords)] = 0.1 // bias keeps vectors non-zero
		for i, kw := range keywords {
			if strings.Contains(lower, kw) {
				vec[i] = 1
			}
		}

		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
		return vec, nil
	}
}

func newTestVectorDB(t *testing.T) *VectorDB {
	t.Helper()
	vdb, err := NewVectorDB(t.TempDir(), fakeEmbeddingFunc(), logger.New("error"))
	if err != nil {
		t.Fatalf("NewVectorDB() error = %v", err)
	}
	if err := vdb.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := vdb.Rebuild(context.Background(), testDocuments()); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	return vdb
}

func TestNewVectorDB_Disabled(t *testing.T) {
	t.Parallel()
	vdb, err := NewVectorDB(t.TempDir(), nil, logger.New("error"))
	if err != nil {
		t.Fatalf("NewVectorDB() error = %v", err)
	}
	if vdb != nil {
		t.Error("NewVectorDB() without embedding func should return nil")
	}
	if vdb.IsEnabled() {
		t.Error("nil VectorDB should not be enabled")
	}
}

func TestVectorDB_Search(t *testing.T) {
	t.Parallel()
	vdb := newTestVectorDB(t)

	results, err := vdb.Search(context.Background(), "게임 렌더링 공부", nil, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Search() returned no results")
	}
	if results[0].Document.CourseID != "cs-301" {
		t.Errorf("top result = %s, want cs-301", results[0].Document.CourseID)
	}

	top := results[0]
	if top.Document.Department != "컴퓨터공학과" || top.Document.Grade != 3 || top.Document.Semester != 2 {
		t.Errorf("metadata round-trip failed: %+v", top.Document)
	}
	if top.Document.University != "한국대학교" || top.Document.College != "공과대학" {
		t.Errorf("university metadata round-trip failed: %+v", top.Document)
	}
	if top.Similarity < config.MinSimilarity {
		t.Errorf("top similarity %f below floor", top.Similarity)
	}
}

func TestVectorDB_Search_SimilarityFloor(t *testing.T) {
	t.Parallel()
	vdb := newTestVectorDB(t)

	// No keyword overlap with any course: only the bias dimension matches,
	// which lands far under the similarity floor.
	results, err := vdb.Search(context.Background(), "우주 로켓 발사", nil, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search() returned %d results, want 0 below floor", len(results))
	}
}

func TestVectorDB_Search_MetadataFilter(t *testing.T) {
	t.Parallel()
	vdb := newTestVectorDB(t)

	where := map[string]string{metaDepartmentID: "dept-psy"}
	results, err := vdb.Search(context.Background(), "마음과 인지 공부", where, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Search() with filter returned no results")
	}
	for _, r := range results {
		if r.Document.DepartmentID != "dept-psy" {
			t.Errorf("filter leaked department %s", r.Document.DepartmentID)
		}
	}
}

func TestVectorDB_Rebuild_Replaces(t *testing.T) {
	t.Parallel()
	vdb := newTestVectorDB(t)

	if err := vdb.Rebuild(context.Background(), testDocuments()[:2]); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if vdb.Count() != 2 {
		t.Errorf("Count() after rebuild = %d, want 2", vdb.Count())
	}

	results, err := vdb.Search(context.Background(), "심리학과 마음 공부", nil, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, r := range results {
		if r.Document.DepartmentID == "dept-psy" {
			t.Error("dropped documents should not be searchable after rebuild")
		}
	}
}

func TestVectorDB_Search_EmptyQuery(t *testing.T) {
	t.Parallel()
	vdb := newTestVectorDB(t)

	results, err := vdb.Search(context.Background(), "", nil, 10)
	if err != nil || results != nil {
		t.Errorf("Search(empty) = (%v, %v), want (nil, nil)", results, err)
	}
}
