package retriever

import (
	"testing"
)

func lexicalHit(doc Document, score float64, rank int) LexicalResult {
	return LexicalResult{Document: doc, Score: score, Rank: rank}
}

func vectorHit(doc Document, sim float32) VectorResult {
	return VectorResult{Document: doc, Content: doc.Text(), Similarity: sim}
}

func TestFuseRRF(t *testing.T) {
	t.Parallel()
	docs := testDocuments()

	// cs-201 appears in both legs, the rest in one leg each.
	lexical := []LexicalResult{
		lexicalHit(docs[1], 9.1, 1), // cs-201
		lexicalHit(docs[0], 4.2, 2), // cs-101
	}
	vector := []VectorResult{
		vectorHit(docs[1], 0.91), // cs-201
		vectorHit(docs[3], 0.55), // psy-101
	}

	results := fuseRRF(lexical, vector, 0)
	if len(results) != 3 {
		t.Fatalf("fuseRRF() returned %d results, want 3", len(results))
	}

	if results[0].Document.CourseID != "cs-201" {
		t.Errorf("top result = %s, want cs-201 (present in both legs)", results[0].Document.CourseID)
	}

	top := results[0]
	if top.BM25Rank != 1 || top.VectorRank != 1 {
		t.Errorf("fused ranks = (%d, %d), want (1, 1)", top.BM25Rank, top.VectorRank)
	}
	if top.Content == "" {
		t.Error("fused result should carry vector content")
	}

	for i := 1; i < len(results); i++ {
		if results[i].RRFScore > results[i-1].RRFScore {
			t.Error("results not sorted by RRF score descending")
		}
	}
}

func TestFuseRRF_TopN(t *testing.T) {
	t.Parallel()
	docs := testDocuments()
	lexical := []LexicalResult{
		lexicalHit(docs[0], 3, 1),
		lexicalHit(docs[1], 2, 2),
		lexicalHit(docs[2], 1, 3),
	}

	results := fuseRRF(lexical, nil, 2)
	if len(results) != 2 {
		t.Errorf("fuseRRF(topN=2) returned %d results", len(results))
	}
}

func TestGroupCourses_DedupeAndCap(t *testing.T) {
	t.Parallel()

	base := Document{
		DepartmentID: "dept-cs",
		Department:   "컴퓨터공학과",
		Grade:        1,
		Semester:     1,
	}

	names := []string{"프로그래밍기초", "이산수학", "공학설계입문", "미적분학", "대학물리", "영어회화", "컴퓨팅사고"}
	results := make([]HybridResult, 0, len(names)+1)
	for i, name := range names {
		doc := base
		doc.CourseID = name
		doc.Name = name
		results = append(results, HybridResult{Document: doc, RRFScore: 1.0 - float64(i)*0.1})
	}

	// Duplicate course name with a lower score must collapse into the first.
	dup := base
	dup.CourseID = "dup-id"
	dup.Name = "프로그래밍기초"
	results = append(results, HybridResult{Document: dup, RRFScore: 0.05})

	groups := GroupCourses(results, 0)
	if len(groups) != 1 {
		t.Fatalf("GroupCourses() returned %d groups, want 1", len(groups))
	}

	group := groups[0]
	if len(group.Courses) != 5 {
		t.Errorf("group has %d courses, want cap of 5", len(group.Courses))
	}
	if group.GradeSemester() != "1-1" {
		t.Errorf("GradeSemester() = %s, want 1-1", group.GradeSemester())
	}

	seen := make(map[string]int)
	for _, c := range group.Courses {
		seen[c.Name]++
	}
	if seen["프로그래밍기초"] != 1 {
		t.Errorf("duplicate name appears %d times, want 1", seen["프로그래밍기초"])
	}
}

func TestGroupCourses_Ordering(t *testing.T) {
	t.Parallel()
	docs := testDocuments()

	// Feed groups out of order; output must be grade then semester ascending.
	results := []HybridResult{
		{Document: docs[2], RRFScore: 0.9}, // 3-2
		{Document: docs[4], RRFScore: 0.8}, // 2-2
		{Document: docs[1], RRFScore: 0.7}, // 2-1
		{Document: docs[0], RRFScore: 0.6}, // 1-1
		{Document: docs[3], RRFScore: 0.5}, // 1-1 other department
	}

	groups := GroupCourses(results, 5)

	labels := make([]string, len(groups))
	for i, g := range groups {
		labels[i] = g.GradeSemester()
	}

	want := []string{"1-1", "1-1", "2-1", "2-2", "3-2"}
	if len(labels) != len(want) {
		t.Fatalf("got %d groups %v, want %d", len(labels), labels, len(want))
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("group %d = %s, want %s (got %v)", i, labels[i], want[i], labels)
		}
	}

	// Shared slot ordered by score, not by name.
	if groups[0].DepartmentID != "dept-cs" {
		t.Errorf("first 1-1 group = %s, want higher-scoring dept-cs", groups[0].DepartmentID)
	}
}
