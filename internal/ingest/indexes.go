package ingest

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/majormentor/major-mentor-go/internal/catalog"
	"github.com/majormentor/major-mentor-go/internal/resolver"
	"github.com/majormentor/major-mentor-go/internal/retriever"
)

// Documents projects the dataset's courses into retrieval documents,
// carrying the owning university and college so results stay attributable.
func Documents(ds catalog.Dataset) []retriever.Document {
	univNames := make(map[string]string, len(ds.Universities))
	for _, u := range ds.Universities {
		univNames[u.ID] = u.Name
	}
	collegeNames := make(map[string]string, len(ds.Colleges))
	for _, c := range ds.Colleges {
		collegeNames[c.ID] = c.Name
	}
	depts := make(map[string]catalog.Department, len(ds.Departments))
	for _, d := range ds.Departments {
		depts[d.ID] = d
	}

	docs := make([]retriever.Document, 0, len(ds.Courses))
	for _, c := range ds.Courses {
		dept := depts[c.DepartmentID]
		docs = append(docs, retriever.Document{
			CourseID:     c.ID,
			DepartmentID: c.DepartmentID,
			University:   univNames[dept.UniversityID],
			College:      collegeNames[dept.CollegeID],
			Department:   dept.Name,
			Grade:        c.Grade,
			Semester:     c.Semester,
			Name:         c.Name,
			Summary:      c.Summary,
		})
	}
	return docs
}

// Entities projects the dataset's universities and departments into
// resolver entities. Each department entity is scoped to its university.
func Entities(ds catalog.Dataset) []resolver.Entity {
	univNames := make(map[string]string, len(ds.Universities))
	for _, u := range ds.Universities {
		univNames[u.ID] = u.Name
	}

	entities := make([]resolver.Entity, 0, len(ds.Universities)+len(ds.Departments))
	for _, u := range ds.Universities {
		entities = append(entities, resolver.Entity{
			ID:   u.ID,
			Name: u.Name,
			Kind: resolver.KindUniversity,
		})
	}
	for _, d := range ds.Departments {
		entities = append(entities, resolver.Entity{
			ID:           d.ID,
			Name:         d.Name,
			Kind:         resolver.KindDepartment,
			UniversityID: d.UniversityID,
			University:   univNames[d.UniversityID],
		})
	}
	return entities
}

// RebuildIndexes rebuilds the retriever and resolver from the dataset.
// The two rebuilds embed independently, so they run in parallel; the first
// failure cancels the other.
func RebuildIndexes(ctx context.Context, ds catalog.Dataset, ret *retriever.Retriever, res *resolver.Resolver) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ret.Rebuild(ctx, Documents(ds)) })
	g.Go(func() error { return res.Rebuild(ctx, Entities(ds)) })
	return g.Wait()
}

// RestoreIndexes rebuilds in-memory indexes from a persisted catalog,
// reusing on-disk course embeddings when they still match the dataset.
// Used at startup; dataset replacements go through RebuildIndexes.
func RestoreIndexes(ctx context.Context, ds catalog.Dataset, ret *retriever.Retriever, res *resolver.Resolver) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ret.Restore(ctx, Documents(ds)) })
	g.Go(func() error { return res.Rebuild(ctx, Entities(ds)) })
	return g.Wait()
}
