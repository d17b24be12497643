package directus

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// Filter is a Directus filter object, e.g. {"course":{"_eq":"Psychology"}}.
type Filter map[string]any

// Eq matches field == value.
func Eq(field string, value any) Filter {
	return Filter{field: map[string]any{"_eq": value}}
}

// Neq matches field != value.
func Neq(field string, value any) Filter {
	return Filter{field: map[string]any{"_neq": value}}
}

// IContains matches a case-insensitive substring.
func IContains(field string, value string) Filter {
	return Filter{field: map[string]any{"_icontains": value}}
}

// Or matches when any clause matches.
func Or(clauses ...Filter) Filter {
	return Filter{"_or": clauses}
}

// And matches when every clause matches.
func And(clauses ...Filter) Filter {
	return Filter{"_and": clauses}
}

// Meta values understood by the items endpoint.
const (
	MetaTotalCount  = "total_count"
	MetaFilterCount = "filter_count"
)

// Query carries the items-endpoint parameters.
type Query struct {
	Search  string
	Filter  Filter
	Sort    []string
	Limit   int
	Offset  int
	Fields  []string
	GroupBy []string
	Meta    []string
}

// Values encodes the query the way Directus expects it.
func (q Query) Values() (url.Values, error) {
	params := url.Values{}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if len(q.Filter) > 0 {
		raw, err := json.Marshal(q.Filter)
		if err != nil {
			return nil, err
		}
		params.Set("filter", string(raw))
	}
	if len(q.Sort) > 0 {
		params.Set("sort", strings.Join(q.Sort, ","))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	if len(q.Fields) > 0 {
		params.Set("fields", strings.Join(q.Fields, ","))
	}
	for _, g := range q.GroupBy {
		params.Add("groupBy[]", g)
	}
	if len(q.Meta) > 0 {
		params.Set("meta", strings.Join(q.Meta, ","))
	}
	return params, nil
}
