package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"noslimites/api/internal/model"
)

type catalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *sqlx.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// SeedTree inserts the full catalog inside one transaction. Every insert is
// ON CONFLICT DO NOTHING: combined with content-derived IDs this makes
// seeding idempotent even when several cold starts race.
func (r *catalogRepository) SeedTree(ctx context.Context, categories []model.LimitCategory) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, cat := range categories {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO limit_categories (id, name, sort_order)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO NOTHING
		`, cat.ID, cat.Name, cat.SortOrder)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", cat.Name, err)
		}

		for _, sub := range cat.Subcategories {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO limit_subcategories (id, category_id, name, sort_order)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO NOTHING
			`, sub.ID, sub.CategoryID, sub.Name, sub.SortOrder)
			if err != nil {
				return fmt.Errorf("seed subcategory %q: %w", sub.Name, err)
			}

			for _, lim := range sub.Limits {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO limits (id, subcategory_id, name, description, sort_order)
					VALUES ($1, $2, $3, $4, $5)
					ON CONFLICT (id) DO NOTHING
				`, lim.ID, lim.SubcategoryID, lim.Name, lim.Description, lim.SortOrder)
				if err != nil {
					return fmt.Errorf("seed limit %q: %w", lim.Name, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListTree returns the full catalog ordered by sort_order at every level.
// Three flat selects are assembled in memory instead of one wide join.
func (r *catalogRepository) ListTree(ctx context.Context) ([]model.LimitCategory, error) {
	var categories []model.LimitCategory
	err := r.db.SelectContext(ctx, &categories, `
		SELECT id, name, sort_order FROM limit_categories ORDER BY sort_order, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	var subcategories []model.LimitSubcategory
	err = r.db.SelectContext(ctx, &subcategories, `
		SELECT id, category_id, name, sort_order FROM limit_subcategories ORDER BY sort_order, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list subcategories: %w", err)
	}

	var limits []model.Limit
	err = r.db.SelectContext(ctx, &limits, `
		SELECT id, subcategory_id, name, description, sort_order FROM limits ORDER BY sort_order, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list limits: %w", err)
	}

	limitsBySub := make(map[string][]model.Limit)
	for _, lim := range limits {
		limitsBySub[lim.SubcategoryID] = append(limitsBySub[lim.SubcategoryID], lim)
	}

	subsByCategory := make(map[string][]model.LimitSubcategory)
	for _, sub := range subcategories {
		sub.Limits = limitsBySub[sub.ID]
		subsByCategory[sub.CategoryID] = append(subsByCategory[sub.CategoryID], sub)
	}

	for i := range categories {
		categories[i].Subcategories = subsByCategory[categories[i].ID]
	}

	return categories, nil
}

func (r *catalogRepository) ListAllLimits(ctx context.Context) ([]model.Limit, error) {
	var limits []model.Limit
	err := r.db.SelectContext(ctx, &limits, `
		SELECT id, subcategory_id, name, description, sort_order FROM limits
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list limits: %w", err)
	}
	return limits, nil
}

func (r *catalogRepository) ListAllSubcategories(ctx context.Context) ([]model.LimitSubcategory, error) {
	var subs []model.LimitSubcategory
	err := r.db.SelectContext(ctx, &subs, `
		SELECT id, category_id, name, sort_order FROM limit_subcategories
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list subcategories: %w", err)
	}
	return subs, nil
}

func (r *catalogRepository) ListAllCategories(ctx context.Context) ([]model.LimitCategory, error) {
	var cats []model.LimitCategory
	err := r.db.SelectContext(ctx, &cats, `
		SELECT id, name, sort_order FROM limit_categories
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return cats, nil
}

// MergeLimit folds a duplicate limit row into its canonical one. Choices
// pointing at the duplicate are remapped unless the remap would collide with
// an existing (user, relationship, canonical) row; colliding leftovers are
// deleted together with the duplicate.
func (r *catalogRepository) MergeLimit(ctx context.Context, tx *sqlx.Tx, duplicateID, canonicalID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE user_limits ul
		SET limit_id = $2
		WHERE ul.limit_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM user_limits existing
			WHERE existing.user_id = ul.user_id
			  AND existing.relationship_id = ul.relationship_id
			  AND existing.limit_id = $2
		  )
	`, duplicateID, canonicalID)
	if err != nil {
		return fmt.Errorf("remap user limits: %w", err)
	}

	// Leftovers could not be remapped without violating uniqueness; the
	// canonical row already carries a choice for the same key.
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_limits WHERE limit_id = $1`, duplicateID); err != nil {
		return fmt.Errorf("delete unmergeable user limits: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM limits WHERE id = $1`, duplicateID); err != nil {
		return fmt.Errorf("delete duplicate limit: %w", err)
	}
	return nil
}

// MergeSubcategory moves the duplicate's limits under the canonical
// subcategory and deletes the duplicate.
func (r *catalogRepository) MergeSubcategory(ctx context.Context, tx *sqlx.Tx, duplicateID, canonicalID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE limits SET subcategory_id = $2
		WHERE subcategory_id = $1
		  AND NOT EXISTS (SELECT 1 FROM limits l2 WHERE l2.subcategory_id = $2 AND l2.id = limits.id)
	`, duplicateID, canonicalID)
	if err != nil {
		return fmt.Errorf("remap limits to canonical subcategory: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM limit_subcategories WHERE id = $1`, duplicateID); err != nil {
		return fmt.Errorf("delete duplicate subcategory: %w", err)
	}
	return nil
}

// MergeCategory moves the duplicate's subcategories under the canonical
// category and deletes the duplicate.
func (r *catalogRepository) MergeCategory(ctx context.Context, tx *sqlx.Tx, duplicateID, canonicalID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE limit_subcategories SET category_id = $2 WHERE category_id = $1
	`, duplicateID, canonicalID)
	if err != nil {
		return fmt.Errorf("remap subcategories to canonical category: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM limit_categories WHERE id = $1`, duplicateID); err != nil {
		return fmt.Errorf("delete duplicate category: %w", err)
	}
	return nil
}
