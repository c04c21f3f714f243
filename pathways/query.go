package pathways

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
)

const (
	DefaultPageSize = 25
	publishedStatus = "published"
)

// Filters is a nested Strapi filter tree, for example
//
//	Filters{"segmentation": Filters{"code": Filters{"$eq": "SEN_2019DHS8_v1"}}}
//
// Leaves are scalars or string lists; lists are sent with indexed keys.
type Filters map[string]any

// Eq returns a {"$eq": v} leaf.
func Eq(v any) Filters {
	return Filters{"$eq": v}
}

// CodeEq returns {"code": {"$eq": code}}, the most common relation filter.
func CodeEq(code string) Filters {
	return Filters{"code": Eq(code)}
}

// QueryOptions describes one Strapi v5 collection request.
type QueryOptions struct {
	Filters Filters
	// Populate is sent as a single "populate" value. PopulateList is sent
	// with indexed keys. Set at most one.
	Populate     string
	PopulateList []string
	Fields       []string
	Page         int
	PageSize     int
	Sort         string
}

// BuildQuery renders QueryOptions as Strapi query-string parameters.
// Only published entries are requested.
func BuildQuery(opts QueryOptions) url.Values {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	params := url.Values{}
	params.Set("pagination[page]", strconv.Itoa(page))
	params.Set("pagination[pageSize]", strconv.Itoa(pageSize))
	params.Set("status", publishedStatus)

	if len(opts.Filters) > 0 {
		flattenFilters(map[string]any(opts.Filters), "filters", params)
	}

	switch {
	case opts.Populate != "":
		params.Set("populate", opts.Populate)
	case len(opts.PopulateList) > 0:
		for i, rel := range opts.PopulateList {
			params.Set(fmt.Sprintf("populate[%d]", i), rel)
		}
	}

	for i, field := range opts.Fields {
		params.Set(fmt.Sprintf("fields[%d]", i), field)
	}

	if opts.Sort != "" {
		params.Set("sort", opts.Sort)
	}
	return params
}

// flattenFilters writes nested filters in bracket notation:
// filters[a][b][$eq]=v and filters[a][$in][0]=x.
func flattenFilters(obj map[string]any, prefix string, out url.Values) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fullKey := prefix + "[" + key + "]"
		switch v := obj[key].(type) {
		case Filters:
			flattenFilters(map[string]any(v), fullKey, out)
		case map[string]any:
			flattenFilters(v, fullKey, out)
		case []string:
			for i, item := range v {
				out.Set(fmt.Sprintf("%s[%d]", fullKey, i), item)
			}
		case []any:
			for i, item := range v {
				out.Set(fmt.Sprintf("%s[%d]", fullKey, i), fmt.Sprint(item))
			}
		default:
			out.Set(fullKey, fmt.Sprint(v))
		}
	}
}
