package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/jmoiron/sqlx"

	"noslimites/api/internal/cache"
	"noslimites/api/internal/model"
	"noslimites/api/internal/repository"
)

// CatalogService serves the static limit catalog. The catalog is seeded
// lazily on first access with insert-or-ignore semantics, so any number of
// cold-starting processes converge on the same rows.
type CatalogService struct {
	db          *sqlx.DB
	catalogRepo repository.CatalogRepository
	cache       cache.CatalogCache // nil when Redis is not configured
	seedData    []model.LimitCategory

	mu     sync.Mutex
	seeded bool
}

func NewCatalogService(db *sqlx.DB, catalogRepo repository.CatalogRepository, catalogCache cache.CatalogCache) *CatalogService {
	return &CatalogService{
		db:          db,
		catalogRepo: catalogRepo,
		cache:       catalogCache,
		seedData:    defaultCatalog(),
	}
}

// CatalogID derives a stable identifier from the content path. Two processes
// seeding the same entry always produce the same ID, which is what makes
// concurrent seeding collapse into a single row.
func CatalogID(path ...string) string {
	h := sha256.New()
	for i, p := range path {
		if i > 0 {
			h.Write([]byte{'/'})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// ListTree returns the full category > subcategory > limit tree, cached when
// a cache is available.
func (s *CatalogService) ListTree(ctx context.Context) ([]model.LimitCategory, error) {
	if err := s.EnsureSeeded(ctx); err != nil {
		return nil, err
	}

	if s.cache != nil {
		tree, found, err := s.cache.GetTree(ctx)
		if err != nil {
			log.Printf("[Catalog] Cache read failed: %v", err)
		} else if found {
			return tree, nil
		}
	}

	tree, err := s.catalogRepo.ListTree(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetTree(ctx, tree); err != nil {
			log.Printf("[Catalog] Cache set failed: %v", err)
		}
	}
	return tree, nil
}

// EnsureSeeded seeds the catalog once per process. A failed attempt is
// retried by the next caller rather than poisoning the process.
func (s *CatalogService) EnsureSeeded(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seeded {
		return nil
	}
	if err := s.catalogRepo.SeedTree(ctx, s.seedData); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	s.seeded = true
	return nil
}

// Reconcile merges duplicate catalog rows left behind by older seeders that
// generated random IDs. For each group of same-named siblings one canonical
// row survives (the content-derived ID if present) and every reference,
// including user choices, is remapped onto it.
func (s *CatalogService) Reconcile(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	categories, err := s.catalogRepo.ListAllCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	catName := make(map[string]string, len(categories))
	catCanonical := make(map[string]string, len(categories))
	for _, group := range groupDuplicates(categories, func(c model.LimitCategory) (string, string) {
		return c.Name, c.ID
	}) {
		canonical := pickCanonical(group.ids, CatalogID(group.key))
		for _, id := range group.ids {
			if id == canonical {
				continue
			}
			if err := s.catalogRepo.MergeCategory(ctx, tx, id, canonical); err != nil {
				return fmt.Errorf("failed to merge category: %w", err)
			}
			catCanonical[id] = canonical
		}
	}
	for _, c := range categories {
		catName[canonicalOf(c.ID, catCanonical)] = c.Name
	}

	subcategories, err := s.catalogRepo.ListAllSubcategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list subcategories: %w", err)
	}
	subName := make(map[string]string, len(subcategories))
	subParent := make(map[string]string, len(subcategories))
	subCanonical := make(map[string]string, len(subcategories))
	for _, group := range groupDuplicates(subcategories, func(sc model.LimitSubcategory) (string, string) {
		return canonicalOf(sc.CategoryID, catCanonical) + "/" + sc.Name, sc.ID
	}) {
		parentID, name := splitGroupKey(group.key)
		canonical := pickCanonical(group.ids, CatalogID(catName[parentID], name))
		for _, id := range group.ids {
			if id == canonical {
				continue
			}
			if err := s.catalogRepo.MergeSubcategory(ctx, tx, id, canonical); err != nil {
				return fmt.Errorf("failed to merge subcategory: %w", err)
			}
			subCanonical[id] = canonical
		}
	}
	for _, sc := range subcategories {
		id := canonicalOf(sc.ID, subCanonical)
		subName[id] = sc.Name
		subParent[id] = canonicalOf(sc.CategoryID, catCanonical)
	}

	limits, err := s.catalogRepo.ListAllLimits(ctx)
	if err != nil {
		return fmt.Errorf("failed to list limits: %w", err)
	}
	for _, group := range groupDuplicates(limits, func(l model.Limit) (string, string) {
		return canonicalOf(l.SubcategoryID, subCanonical) + "/" + l.Name, l.ID
	}) {
		parentID, name := splitGroupKey(group.key)
		canonical := pickCanonical(group.ids, CatalogID(catName[subParent[parentID]], subName[parentID], name))
		for _, id := range group.ids {
			if id == canonical {
				continue
			}
			if err := s.catalogRepo.MergeLimit(ctx, tx, id, canonical); err != nil {
				return fmt.Errorf("failed to merge limit: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			log.Printf("[Catalog] Cache invalidate failed: %v", err)
		}
	}
	return nil
}

type duplicateGroup struct {
	key string
	ids []string
}

// groupDuplicates buckets rows by a caller-defined key and returns only the
// buckets with more than one member, in deterministic order.
func groupDuplicates[T any](rows []T, keyFn func(T) (key, id string)) []duplicateGroup {
	buckets := make(map[string][]string)
	for _, row := range rows {
		key, id := keyFn(row)
		buckets[key] = append(buckets[key], id)
	}

	keys := make([]string, 0, len(buckets))
	for key, ids := range buckets {
		if len(ids) > 1 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	groups := make([]duplicateGroup, 0, len(keys))
	for _, key := range keys {
		ids := buckets[key]
		sort.Strings(ids)
		groups = append(groups, duplicateGroup{key: key, ids: ids})
	}
	return groups
}

// pickCanonical prefers the content-derived ID when it is in the group,
// falling back to the lexicographically first one.
func pickCanonical(ids []string, derived string) string {
	for _, id := range ids {
		if id == derived {
			return id
		}
	}
	return ids[0]
}

func canonicalOf(id string, merged map[string]string) string {
	if canonical, ok := merged[id]; ok {
		return canonical
	}
	return id
}

func splitGroupKey(key string) (parentID, name string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return key[:i], key[i+1:]
		}
	}
	return "", key
}
