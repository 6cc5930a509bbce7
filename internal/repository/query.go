package repository

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrInvalidFilter marks a query-string parameter that should have been
// numeric but was not. Handlers translate it to a 400.
var ErrInvalidFilter = errors.New("invalid filter parameter")

// ProductQuery accumulates filter, search, sort and pagination clauses for
// one product listing request. Stages chain and are no-ops when their
// parameter is absent; the composed query is built once via Build.
//
// Only the named stages read parameters, so reserved keys (page, sort,
// limit, fields) can never be interpreted as product field filters.
type ProductQuery struct {
	params url.Values
	filter bson.M
	sort   bson.D
	skip   int64
	limit  int64
	err    error
}

func NewProductQuery(params url.Values) *ProductQuery {
	return &ProductQuery{
		params: params,
		filter: bson.M{},
	}
}

// value returns the first non-empty value for key.
func (q *ProductQuery) value(key string) string {
	return strings.TrimSpace(q.params.Get(key))
}

// values accepts a multi-value parameter in either form the clients send:
// a single comma-joined string or a repeated key.
func (q *ProductQuery) values(key string) []string {
	var out []string
	for _, raw := range q.params[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (q *ProductQuery) fail(key, value string) {
	if q.err == nil {
		q.err = fmt.Errorf("%w: %s=%q", ErrInvalidFilter, key, value)
	}
}

// FilterPrice restricts to priceMin <= price <= priceMax, taken from a
// "min-max" parameter. Non-numeric bounds reject the whole query.
func (q *ProductQuery) FilterPrice() *ProductQuery {
	v := q.value("price")
	if v == "" {
		return q
	}
	parts := strings.SplitN(v, "-", 2)
	if len(parts) != 2 {
		q.fail("price", v)
		return q
	}
	min, errMin := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	max, errMax := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errMin != nil || errMax != nil {
		q.fail("price", v)
		return q
	}
	q.filter["price"] = bson.M{"$gte": min, "$lte": max}
	return q
}

func (q *ProductQuery) FilterCategory() *ProductQuery {
	if v := q.value("category"); v != "" {
		q.filter["category"] = v
	}
	return q
}

// FilterBrand matches products whose brand list contains any of the
// supplied tags.
func (q *ProductQuery) FilterBrand() *ProductQuery {
	if brands := q.values("brand"); len(brands) > 0 {
		q.filter["brand"] = bson.M{"$in": brands}
	}
	return q
}

// FilterPincode matches products deliverable to the given pincode.
func (q *ProductQuery) FilterPincode() *ProductQuery {
	v := q.value("pincode")
	if v == "" {
		return q
	}
	pin, err := strconv.Atoi(v)
	if err != nil {
		q.fail("pincode", v)
		return q
	}
	q.filter["pinCodes"] = pin
	return q
}

// Search adds a case-insensitive substring match on the title. The term is
// quoted so it is a plain substring, not a pattern.
func (q *ProductQuery) Search() *ProductQuery {
	if v := q.value("search"); v != "" {
		q.filter["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(v), Options: "i"}
	}
	return q
}

// SortPrice orders by price when sort=asc|desc (1|-1 also accepted).
// Anything else leaves natural order.
func (q *ProductQuery) SortPrice() *ProductQuery {
	switch q.value("sort") {
	case "asc", "1":
		q.sort = bson.D{{Key: "price", Value: 1}}
	case "desc", "-1":
		q.sort = bson.D{{Key: "price", Value: -1}}
	}
	return q
}

// Paginate computes skip/limit from the 1-based page parameter. Absent,
// malformed or sub-1 pages fall back to page 1.
func (q *ProductQuery) Paginate(resultsPerPage int) *ProductQuery {
	page := 1
	if v := q.value("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 1 {
			page = p
		}
	}
	q.skip = int64(resultsPerPage) * int64(page-1)
	q.limit = int64(resultsPerPage)
	return q
}

// Filter returns the accumulated predicates without sort or pagination.
// The companion count query uses it so the total reflects every matching
// document regardless of the current page.
func (q *ProductQuery) Filter() bson.M {
	return q.filter
}

// Build finalizes the query. It returns the filter and the find options
// carrying sort and pagination, or the first parameter error encountered.
func (q *ProductQuery) Build() (bson.M, *options.FindOptions, error) {
	if q.err != nil {
		return nil, nil, q.err
	}
	opts := options.Find()
	if len(q.sort) > 0 {
		opts.SetSort(q.sort)
	}
	if q.limit > 0 {
		opts.SetSkip(q.skip)
		opts.SetLimit(q.limit)
	}
	return q.filter, opts, nil
}
