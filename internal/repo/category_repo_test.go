package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-scorecard-backend/internal/domain"
)

func TestCreateAndListCategories(t *testing.T) {
	db := newConfigRepoDB(t, &domain.Category{})

	for i, name := range []string{"Minerals", "Vitamins"} {
		c := domain.Category{ID: string(rune('a' + i)), Name: name, Position: 1 - i}
		if err := CreateCategory(context.Background(), db, &c); err != nil {
			t.Fatalf("CreateCategory(%q): %v", name, err)
		}
	}

	got, err := ListCategories(context.Background(), db)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Vitamins" || got[1].Name != "Minerals" {
		t.Fatalf("list not position-ordered: %+v", got)
	}
}

func TestCreateCategory_UniqueName(t *testing.T) {
	db := newConfigRepoDB(t, &domain.Category{})

	a := domain.Category{ID: "a", Name: "Minerals"}
	if err := CreateCategory(context.Background(), db, &a); err != nil {
		t.Fatalf("first create: %v", err)
	}
	b := domain.Category{ID: "b", Name: "Minerals"}
	if err := CreateCategory(context.Background(), db, &b); err == nil {
		t.Fatalf("expected unique violation for duplicate name")
	}
}

func TestRenameCategory_CascadesToFields(t *testing.T) {
	db := newConfigRepoDB(t, &domain.Category{}, &domain.Field{})
	c := domain.Category{ID: "cat-1", Name: "Minerals"}
	if err := CreateCategory(context.Background(), db, &c); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	seedFields(t, db,
		domain.Field{ID: "iron", Label: "Iron", Category: "Minerals"},
		domain.Field{ID: "vit_d", Label: "Vitamin D", Category: "Vitamins"},
	)

	if err := RenameCategory(context.Background(), db, "cat-1", "Minerals", "Trace"); err != nil {
		t.Fatalf("RenameCategory: %v", err)
	}

	var got domain.Category
	db.First(&got, "id = ?", "cat-1")
	if got.Name != "Trace" {
		t.Fatalf("category not renamed: %+v", got)
	}
	var iron domain.Field
	db.First(&iron, "id = ?", "iron")
	if iron.Category != "Trace" {
		t.Fatalf("field not recategorized: %+v", iron)
	}
	var vd domain.Field
	db.First(&vd, "id = ?", "vit_d")
	if vd.Category != "Vitamins" {
		t.Fatalf("unrelated field touched: %+v", vd)
	}
}

func TestRenameCategory_NotFound(t *testing.T) {
	db := newConfigRepoDB(t, &domain.Category{}, &domain.Field{})
	if err := RenameCategory(context.Background(), db, "ghost", "A", "B"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteCategory_UncategorizesFields(t *testing.T) {
	db := newConfigRepoDB(t, &domain.Category{}, &domain.Field{})
	c := domain.Category{ID: "cat-1", Name: "Minerals"}
	if err := CreateCategory(context.Background(), db, &c); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	seedFields(t, db, domain.Field{ID: "iron", Label: "Iron", Category: "Minerals"})

	if err := DeleteCategory(context.Background(), db, "cat-1", "Minerals"); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}

	var count int64
	db.Model(&domain.Category{}).Count(&count)
	if count != 0 {
		t.Fatalf("category still present")
	}
	var iron domain.Field
	db.First(&iron, "id = ?", "iron")
	if iron.Category != "" {
		t.Fatalf("field not uncategorized: %+v", iron)
	}
}

func TestDeleteCategory_NotFound(t *testing.T) {
	db := newConfigRepoDB(t, &domain.Category{}, &domain.Field{})
	if err := DeleteCategory(context.Background(), db, "ghost", "X"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveCategoryPositions(t *testing.T) {
	db := newConfigRepoDB(t, &domain.Category{})
	for i, name := range []string{"A", "B"} {
		c := domain.Category{ID: name, Name: name, Position: i}
		if err := CreateCategory(context.Background(), db, &c); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	if err := SaveCategoryPositions(context.Background(), db, map[string]int{"A": 1, "B": 0}); err != nil {
		t.Fatalf("SaveCategoryPositions: %v", err)
	}
	got, err := ListCategories(context.Background(), db)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if got[0].ID != "B" || got[1].ID != "A" {
		t.Fatalf("order not persisted: %+v", got)
	}
}
