package repository

import (
	"sort"
	"strings"

	"sellnext/internal/domain/entity"
)

// matchesProductFilter applies the parts of a filter a document store cannot
// express in a single query: price range and free-text search.
func matchesProductFilter(p *entity.Product, filter entity.ProductFilter) bool {
	if filter.Status != "" && p.Status != filter.Status {
		return false
	}
	if filter.Category != "" && p.Category != filter.Category {
		return false
	}
	if filter.Condition != "" && p.Condition != filter.Condition {
		return false
	}
	if filter.MinPrice != nil && p.Price < *filter.MinPrice {
		return false
	}
	if filter.MaxPrice != nil && p.Price > *filter.MaxPrice {
		return false
	}
	if filter.Search == "" {
		return true
	}

	needle := strings.ToLower(filter.Search)
	if strings.Contains(strings.ToLower(p.Title), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle) ||
		strings.Contains(strings.ToLower(p.Category), needle) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching search literally anywhere in
// the column. Callers add ESCAPE '\'.
func containsPattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}

func sortProducts(products []*entity.Product, sortBy string) {
	less := func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	}
	switch sortBy {
	case entity.SortOldest:
		less = func(i, j int) bool { return products[i].CreatedAt.Before(products[j].CreatedAt) }
	case entity.SortPriceLow:
		less = func(i, j int) bool { return products[i].Price < products[j].Price }
	case entity.SortPriceHigh:
		less = func(i, j int) bool { return products[i].Price > products[j].Price }
	case entity.SortPopular:
		less = func(i, j int) bool { return products[i].Views > products[j].Views }
	}
	sort.SliceStable(products, less)
}

func paginate(products []*entity.Product, limit, offset int) []*entity.Product {
	if offset >= len(products) {
		return []*entity.Product{}
	}
	end := len(products)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return products[offset:end]
}
