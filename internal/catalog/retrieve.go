// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/pdiddy/material-normalizer/internal/schema"
	"github.com/pdiddy/material-normalizer/internal/units"
	"github.com/pdiddy/material-normalizer/pkg/types"
)

// ErrNotFound is returned by Get for an unknown slug.
var ErrNotFound = errors.New("material not found")

// QueryOptions holds parameters for catalog searches.
type QueryOptions struct {
	// Query is a full-text search over name, category, applications, and
	// industries.
	Query string

	// Category filters by exact category.
	Category string

	// Property names a measurement, by canonical name, alias, or
	// "group.name" path. Min and Max bound it in the canonical unit.
	Property string
	Min      *float64
	Max      *float64

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Category == "" && q.Property == ""
}

// QueryResult is one matching material.
type QueryResult struct {
	Slug         string   `json:"slug" yaml:"slug"`
	Name         string   `json:"name" yaml:"name"`
	Category     string   `json:"category,omitempty" yaml:"category,omitempty"`
	Subcategory  string   `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	Formula      string   `json:"formula,omitempty" yaml:"formula,omitempty"`
	Applications []string `json:"applications,omitempty" yaml:"applications,omitempty"`

	// Measurement is the filtered property, when Property was given.
	Measurement *types.Measurement `json:"measurement,omitempty" yaml:"measurement,omitempty"`
}

// ResolveProperty maps a property name or alias to its schema field.
func ResolveProperty(name string) (*schema.Field, error) {
	key := name
	if i := strings.LastIndex(name, "."); i >= 0 {
		key = name[i+1:]
	}
	f, ok := schema.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("unknown property %q", name)
	}
	return f, nil
}

// ParseBound parses a bound such as "2.5" or "2500 kg/m³" into the
// canonical unit of field. A bare number is taken as canonical.
func ParseBound(f *schema.Field, text string) (float64, error) {
	q, err := units.Parse(text)
	if err != nil {
		return 0, fmt.Errorf("bound %q: %w", text, err)
	}
	if q.Value == nil {
		return 0, fmt.Errorf("bound %q: expected a single value", text)
	}
	canonical := f.CanonicalUnit()
	if q.Unit == nil || canonical == nil {
		return *q.Value, nil
	}
	v, err := units.Convert(*q.Value, q.Unit, canonical)
	if err != nil {
		return 0, fmt.Errorf("bound %q for %s: %w", text, f.Name, err)
	}
	return v, nil
}

// Search queries the catalog. Full-text results are ranked by relevance;
// otherwise results are sorted by slug. A property filter matches any
// measurement whose value or range overlaps [Min, Max].
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var field *schema.Field
	if opts.Property != "" {
		f, err := ResolveProperty(opts.Property)
		if err != nil {
			return nil, err
		}
		field = f
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != "" && s.fts
	)

	const columns = `m.slug, m.name, m.category, m.subcategory, m.formula, m.applications`
	if field != nil {
		qb.WriteString(`SELECT ` + columns + `, p.value, p.min, p.max, p.unit, p.confidence`)
	} else {
		qb.WriteString(`SELECT ` + columns + `, NULL, NULL, NULL, NULL, NULL`)
	}
	if useFTS {
		qb.WriteString(` FROM materials_fts JOIN materials m ON m.rowid = materials_fts.rowid`)
	} else {
		qb.WriteString(` FROM materials m`)
	}
	if field != nil {
		qb.WriteString(` JOIN properties p ON p.slug = m.slug AND p.grp = ? AND p.name = ?`)
		args = append(args, string(field.Group), field.Name)
	}
	qb.WriteString(` WHERE 1=1`)

	switch {
	case useFTS:
		qb.WriteString(` AND materials_fts MATCH ?`)
		args = append(args, ftsQuery(opts.Query))
	case opts.Query != "":
		for _, term := range likeTerms(opts.Query) {
			qb.WriteString(` AND (m.name LIKE ? OR m.category LIKE ? OR m.applications LIKE ? OR m.industries LIKE ?)`)
			like := "%" + term + "%"
			args = append(args, like, like, like, like)
		}
	}

	if opts.Category != "" {
		qb.WriteString(` AND m.category = ?`)
		args = append(args, opts.Category)
	}
	if field != nil && opts.Min != nil {
		qb.WriteString(` AND COALESCE(p.max, p.value, p.min) >= ?`)
		args = append(args, *opts.Min)
	}
	if field != nil && opts.Max != nil {
		qb.WriteString(` AND COALESCE(p.min, p.value, p.max) <= ?`)
		args = append(args, *opts.Max)
	}

	if useFTS {
		qb.WriteString(` ORDER BY materials_fts.rank, m.slug`)
	} else {
		qb.WriteString(` ORDER BY m.slug`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr                          QueryResult
			category, subcategory       sql.NullString
			formula, applications, unit sql.NullString
			value, lo, hi, confidence   sql.NullFloat64
		)
		if err := rows.Scan(
			&qr.Slug, &qr.Name, &category, &subcategory, &formula, &applications,
			&value, &lo, &hi, &unit, &confidence,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		qr.Category = category.String
		qr.Subcategory = subcategory.String
		qr.Formula = formula.String
		if applications.String != "" {
			qr.Applications = strings.Split(applications.String, "; ")
		}
		if field != nil {
			qr.Measurement = &types.Measurement{
				Value:      nullFloat(value),
				Min:        nullFloat(lo),
				Max:        nullFloat(hi),
				Unit:       unit.String,
				Confidence: nullFloat(confidence),
			}
		}
		results = append(results, qr)
	}
	return results, rows.Err()
}

// ftsQuery quotes every term as an FTS5 string, so hyphens and other
// operator characters in names like "stainless-steel" are matched as text.
// A trailing "*" is kept as a prefix query.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	for i, term := range terms {
		prefix := len(term) > 1 && strings.HasSuffix(term, "*")
		if prefix {
			term = strings.TrimSuffix(term, "*")
		}
		term = `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
		if prefix {
			term += "*"
		}
		terms[i] = term
	}
	return strings.Join(terms, " ")
}

// likeTerms splits q into the words the full-text tokenizer would see.
func likeTerms(q string) []string {
	return strings.FieldsFunc(q, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Get returns the full record for slug.
func (s *Store) Get(ctx context.Context, slug string) (types.Record, error) {
	var recordJSON string
	var body sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT record, body FROM materials WHERE slug = ?`, slug,
	).Scan(&recordJSON, &body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Record{}, fmt.Errorf("%s: %w", slug, ErrNotFound)
		}
		return types.Record{}, fmt.Errorf("looking up %s: %w", slug, err)
	}

	var rec types.Record
	if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
		return types.Record{}, fmt.Errorf("decoding %s: %w", slug, err)
	}
	rec.Body = body.String
	return rec, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return types.Float(v.Float64)
}
