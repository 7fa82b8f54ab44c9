// Package query turns list-endpoint query strings into GORM queries.
//
//	?averageCost[lte]=10000&careers[in]=Business,UI/UX&select=name&sort=-name&page=2&limit=10
//
// Only whitelisted fields can be filtered, sorted or selected.
package query

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sahilchouksey/devcamper-api/utils/apperror"
	"github.com/sahilchouksey/devcamper-api/utils/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPage  = 1
	DefaultLimit = 25
)

// Kind is the type a filter value is coerced to
type Kind int

const (
	String Kind = iota
	Number
	Bool
	Time
	// List is a JSON array column; eq and in match arrays containing a value
	List
)

// Field maps a JSON field name to its column
type Field struct {
	Column string
	Kind   Kind
}

// Expansion preloads a relation into every result
type Expansion struct {
	Relation string
	// JSONKey is kept in the output when select is used
	JSONKey string
	// Columns restricts the preloaded columns; must include the primary key
	Columns []string
}

// Options configures a query
type Options struct {
	Fields   map[string]Field
	Expand   []Expansion
	MaxLimit int
}

// Result is the body a list endpoint sends
type Result struct {
	Data       interface{}
	Count      int
	Pagination *response.Pagination
}

var reserved = map[string]bool{"select": true, "sort": true, "page": true, "limit": true}

var operators = map[string]string{
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
	"in":  "IN",
}

// likeEscaper makes LIKE wildcards in user input match literally
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

var filterKey = regexp.MustCompile(`^([A-Za-z0-9_.]+)(?:\[([a-z]+)\])?$`)

type condition struct {
	field Field
	op    string
	value string
}

// Params is the parsed form of a query string
type Params struct {
	conditions []condition
	selects    []string
	sorts      []clause.OrderByColumn
	Page       int
	Limit      int
}

// Parse validates the query string against opts
func Parse(values map[string]string, opts Options) (*Params, error) {
	p := &Params{Page: DefaultPage, Limit: DefaultLimit}

	for key, raw := range values {
		if reserved[key] {
			continue
		}
		m := filterKey.FindStringSubmatch(key)
		if m == nil {
			return nil, apperror.BadRequest("Invalid query parameter %q", key)
		}
		field, ok := opts.Fields[m[1]]
		if !ok {
			return nil, apperror.BadRequest("Cannot filter by %q", m[1])
		}
		op := "="
		if m[2] != "" {
			if op, ok = operators[m[2]]; !ok {
				return nil, apperror.BadRequest("Unknown operator %q", m[2])
			}
		}
		if field.Kind == List && op != "=" && op != "IN" {
			return nil, apperror.BadRequest("Operator %q is not supported for %q", m[2], m[1])
		}
		p.conditions = append(p.conditions, condition{field: field, op: op, value: raw})
	}

	if sel := values["select"]; sel != "" {
		for _, name := range splitList(sel) {
			if _, ok := opts.Fields[name]; !ok && !isExpansion(name, opts) {
				return nil, apperror.BadRequest("Cannot select %q", name)
			}
			p.selects = append(p.selects, name)
		}
	}

	if sortBy := values["sort"]; sortBy != "" {
		for _, name := range splitList(sortBy) {
			desc := strings.HasPrefix(name, "-")
			name = strings.TrimPrefix(name, "-")
			field, ok := opts.Fields[name]
			if !ok || field.Kind == List {
				return nil, apperror.BadRequest("Cannot sort by %q", name)
			}
			p.sorts = append(p.sorts, clause.OrderByColumn{Column: clause.Column{Name: field.Column}, Desc: desc})
		}
	}
	if len(p.sorts) == 0 {
		p.sorts = append(p.sorts, clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true})
	}

	maxLimit := opts.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	// Invalid or non-positive paging values fall back to the defaults
	if page, err := strconv.Atoi(values["page"]); err == nil && page > 0 {
		p.Page = page
	}
	if limit, err := strconv.Atoi(values["limit"]); err == nil && limit > 0 {
		p.Limit = limit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}

	return p, nil
}

func isExpansion(name string, opts Options) bool {
	for _, e := range opts.Expand {
		if e.JSONKey == name {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func coerce(kind Kind, raw string) (interface{}, error) {
	switch kind {
	case Number:
		return strconv.ParseFloat(raw, 64)
	case Bool:
		return strconv.ParseBool(raw)
	case Time:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t, nil
		}
		return time.Parse("2006-01-02", raw)
	default:
		return raw, nil
	}
}

func (p *Params) apply(db *gorm.DB) (*gorm.DB, error) {
	for _, c := range p.conditions {
		col := clause.Column{Name: c.field.Column}

		if c.field.Kind == List {
			values := []string{c.value}
			if c.op == "IN" {
				values = splitList(c.value)
			}
			or := make([]clause.Expression, 0, len(values))
			for _, v := range values {
				encoded, err := json.Marshal(v)
				if err != nil {
					return nil, err
				}
				or = append(or, clause.Expr{
					SQL:  "CAST(? AS TEXT) LIKE ? ESCAPE '!'",
					Vars: []interface{}{col, "%" + likeEscaper.Replace(string(encoded)) + "%"},
				})
			}
			db = db.Where(clause.Or(or...))
			continue
		}

		if c.op == "IN" {
			parts := splitList(c.value)
			values := make([]interface{}, 0, len(parts))
			for _, part := range parts {
				v, err := coerce(c.field.Kind, part)
				if err != nil {
					return nil, apperror.BadRequest("Invalid value %q for %s", part, c.field.Column)
				}
				values = append(values, v)
			}
			db = db.Where(clause.IN{Column: col, Values: values})
			continue
		}

		v, err := coerce(c.field.Kind, c.value)
		if err != nil {
			return nil, apperror.BadRequest("Invalid value %q for %s", c.value, c.field.Column)
		}
		db = db.Where(clause.Expr{SQL: fmt.Sprintf("? %s ?", c.op), Vars: []interface{}{col, v}})
	}
	return db, nil
}

// Find runs the query described by values against T's table
func Find[T any](ctx context.Context, db *gorm.DB, values map[string]string, opts Options) (*Result, error) {
	p, err := Parse(values, opts)
	if err != nil {
		return nil, err
	}

	filtered, err := p.apply(db.WithContext(ctx).Model(new(T)))
	if err != nil {
		return nil, err
	}

	var total int64
	if err := filtered.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	startIndex := (p.Page - 1) * p.Limit
	endIndex := p.Page * p.Limit

	q := filtered.Session(&gorm.Session{}).Offset(startIndex).Limit(p.Limit)
	for _, s := range p.sorts {
		q = q.Order(s)
	}
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	for _, e := range opts.Expand {
		if len(e.Columns) == 0 {
			q = q.Preload(e.Relation)
			continue
		}
		columns := e.Columns
		q = q.Preload(e.Relation, func(tx *gorm.DB) *gorm.DB {
			return tx.Select(columns)
		})
	}

	rows := make([]T, 0)
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	pagination := &response.Pagination{}
	if int64(endIndex) < total {
		pagination.Next = &response.PageLink{Page: p.Page + 1, Limit: p.Limit}
	}
	if startIndex > 0 {
		pagination.Prev = &response.PageLink{Page: p.Page - 1, Limit: p.Limit}
	}

	result := &Result{Data: rows, Count: len(rows), Pagination: pagination}
	if len(p.selects) > 0 {
		projected, err := project(rows, p.selects, opts)
		if err != nil {
			return nil, err
		}
		result.Data = projected
	}
	return result, nil
}

// project keeps only the selected JSON keys, plus id and expansions
func project[T any](rows []T, selects []string, opts Options) ([]map[string]interface{}, error) {
	keep := map[string]bool{"id": true}
	for _, s := range selects {
		keep[strings.SplitN(s, ".", 2)[0]] = true
	}
	for _, e := range opts.Expand {
		keep[e.JSONKey] = true
	}

	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	var all []map[string]interface{}
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, err
	}

	out := make([]map[string]interface{}, 0, len(all))
	for _, row := range all {
		picked := make(map[string]interface{}, len(keep))
		for k := range keep {
			if v, ok := row[k]; ok {
				picked[k] = v
			}
		}
		out = append(out, picked)
	}
	return out, nil
}
