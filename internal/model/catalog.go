package model

import "errors"

// LimitCategory, LimitSubcategory and Limit form the static three-level
// catalog. IDs are derived from the content path (category/subcategory/name)
// so re-seeding is idempotent across concurrent processes.
type LimitCategory struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	SortOrder int    `db:"sort_order" json:"sort_order"`

	Subcategories []LimitSubcategory `json:"subcategories,omitempty"`
}

type LimitSubcategory struct {
	ID         string `db:"id" json:"id"`
	CategoryID string `db:"category_id" json:"category_id"`
	Name       string `db:"name" json:"name"`
	SortOrder  int    `db:"sort_order" json:"sort_order"`

	Limits []Limit `json:"limits,omitempty"`
}

type Limit struct {
	ID            string  `db:"id" json:"id"`
	SubcategoryID string  `db:"subcategory_id" json:"subcategory_id"`
	Name          string  `db:"name" json:"name"`
	Description   *string `db:"description" json:"description,omitempty"`
	SortOrder     int     `db:"sort_order" json:"sort_order"`
}

var ErrLimitNotFound = errors.New("limit not found")
