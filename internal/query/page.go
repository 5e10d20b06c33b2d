package query

import (
	"fmt"
	"math"
	"strings"
)

// SortField is a whitelisted product sort column.
type SortField string

// Supported sort fields.
const (
	SortByName      SortField = "name"
	SortByPrice     SortField = "price"
	SortByStock     SortField = "stock"
	SortByCreatedAt SortField = "created_at"
)

var sortColumns = map[SortField]string{
	SortByName:      ProductAlias + ".name",
	SortByPrice:     ProductAlias + ".price",
	SortByStock:     ProductAlias + ".stock",
	SortByCreatedAt: ProductAlias + ".created_at",
}

// PageRequest selects one zero-based page of a sorted result set.
type PageRequest struct {
	Page int
	Size int
	Sort SortField
	Desc bool
}

// Defaults holds the configured paging defaults.
type Defaults struct {
	PageSize    int
	MaxPageSize int
	Sort        SortField
}

// DefaultPaging returns the catalogue paging defaults: ten items sorted by name.
func DefaultPaging() Defaults {
	return Defaults{
		PageSize:    10,
		MaxPageSize: 100,
		Sort:        SortByName,
	}
}

// ParseSort parses "field" or "field,asc|desc".
func ParseSort(raw string) (SortField, bool, error) {
	if strings.TrimSpace(raw) == "" {
		return "", false, nil
	}
	parts := strings.SplitN(raw, ",", 2)
	field := SortField(strings.ToLower(strings.TrimSpace(parts[0])))
	if field == "createdat" {
		field = SortByCreatedAt
	}
	if _, ok := sortColumns[field]; !ok {
		return "", false, fmt.Errorf("unsupported sort field: %s", parts[0])
	}
	desc := false
	if len(parts) == 2 {
		switch strings.ToLower(strings.TrimSpace(parts[1])) {
		case "asc", "":
		case "desc":
			desc = true
		default:
			return "", false, fmt.Errorf("unsupported sort direction: %s", parts[1])
		}
	}
	return field, desc, nil
}

// Normalize fills in defaults and clamps out-of-range values.
func (r PageRequest) Normalize(d Defaults) PageRequest {
	if r.Page < 0 {
		r.Page = 0
	}
	if r.Size <= 0 {
		r.Size = d.PageSize
	}
	if d.MaxPageSize > 0 && r.Size > d.MaxPageSize {
		r.Size = d.MaxPageSize
	}
	if _, ok := sortColumns[r.Sort]; !ok {
		r.Sort = d.Sort
	}
	return r
}

// MaxOffset bounds Page*Size so the OFFSET never overflows.
const MaxOffset = math.MaxInt32

// InRange reports whether the normalized request addresses rows within MaxOffset.
func (r PageRequest) InRange() bool {
	return r.Page >= 0 && r.Size > 0 && r.Page <= MaxOffset/r.Size
}

// Offset returns the number of rows to skip.
func (r PageRequest) Offset() int {
	return r.Page * r.Size
}

// OrderBy renders the ORDER BY expression. The id column breaks ties so
// paging is stable.
func (r PageRequest) OrderBy() string {
	col, ok := sortColumns[r.Sort]
	if !ok {
		col = sortColumns[SortByName]
	}
	dir := "ASC"
	if r.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, %s.id ASC", col, dir, ProductAlias)
}
