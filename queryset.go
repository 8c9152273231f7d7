package orm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/encode/orm/clause"
)

// QuerySet is a lazy, immutable query over one model. Chain methods
// return a modified copy and never touch the database; only terminal
// operations compile SQL and execute it through the gateway. An invalid
// chain step records its error on the copy and every later terminal
// call returns it.
type QuerySet struct {
	model *Model
	err   error

	filters   []clause.Expression
	relations []string
	ordering  []string

	limitCount  *int
	offsetCount int
}

// Model returns the model the query runs over.
func (qs *QuerySet) Model() *Model { return qs.model }

// Err returns the first error recorded by a chain step, if any.
func (qs *QuerySet) Err() error { return qs.err }

func (qs *QuerySet) clone() *QuerySet {
	c := &QuerySet{
		model:       qs.model,
		err:         qs.err,
		limitCount:  qs.limitCount,
		offsetCount: qs.offsetCount,
	}
	c.filters = append([]clause.Expression(nil), qs.filters...)
	c.relations = append([]string(nil), qs.relations...)
	c.ordering = append([]string(nil), qs.ordering...)
	return c
}

func (qs *QuerySet) fail(err error) *QuerySet {
	c := qs.clone()
	if c.err == nil {
		c.err = err
	}
	return c
}

// Filter narrows the query to rows matching every given condition. Keys
// follow the field[__relation...]__operator form; filtering across a
// relation joins the related table automatically.
func (qs *QuerySet) Filter(values Values) *QuerySet {
	return qs.filterQuery(values, false)
}

// Exclude removes rows matching all given conditions together: the
// conditions are combined with AND and the conjunction is negated.
func (qs *QuerySet) Exclude(values Values) *QuerySet {
	return qs.filterQuery(values, true)
}

func (qs *QuerySet) filterQuery(values Values, exclude bool) *QuerySet {
	if qs.err != nil {
		return qs
	}

	c := qs.clone()

	// Map iteration order is random; sort keys so the rendered SQL is
	// stable.
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	exprs := make([]clause.Expression, 0, len(keys))
	for _, key := range keys {
		expr, joinPath, err := compileFilter(c.model, key, values[key])
		if err != nil {
			return qs.fail(err)
		}
		exprs = append(exprs, expr)
		if joinPath != "" {
			c.mergeRelation(joinPath)
		}
	}

	if exclude {
		if len(exprs) > 0 {
			c.filters = append(c.filters, clause.Not(exprs...))
		}
	} else {
		c.filters = append(c.filters, exprs...)
	}
	return c
}

// Search matches the term case-insensitively against every text field,
// any of them matching. An empty term leaves the query unchanged.
func (qs *QuerySet) Search(term string) *QuerySet {
	if qs.err != nil || term == "" {
		return qs
	}

	c := qs.clone()
	pattern := "%" + term + "%"

	var exprs []clause.Expression
	for _, field := range c.model.schema.Fields {
		if !field.HasTextType() {
			continue
		}
		exprs = append(exprs, clause.ILike{
			Column: clause.Column{Table: c.model.schema.Table, Name: field.DBName},
			Value:  pattern,
		})
	}

	switch len(exprs) {
	case 0:
	case 1:
		c.filters = append(c.filters, exprs[0])
	default:
		c.filters = append(c.filters, clause.Or(exprs...))
	}
	return c
}

// SelectRelated eagerly loads related entities along the given
// dot-separated paths, so accessing them later costs no extra query.
func (qs *QuerySet) SelectRelated(relations ...string) *QuerySet {
	if qs.err != nil {
		return qs
	}

	c := qs.clone()
	for _, relation := range relations {
		c.mergeRelation(relation)
	}
	return c
}

// mergeRelation records an eager-load path, dropping paths subsumed by
// a longer one so each relation is reconstructed once.
func (qs *QuerySet) mergeRelation(path string) {
	for _, existing := range qs.relations {
		if existing == path || strings.HasPrefix(existing, path+".") {
			return
		}
	}

	kept := qs.relations[:0]
	for _, existing := range qs.relations {
		if !strings.HasPrefix(path, existing+".") {
			kept = append(kept, existing)
		}
	}
	qs.relations = append(kept, path)
}

// OrderBy replaces the ordering. A leading minus sorts descending.
func (qs *QuerySet) OrderBy(fields ...string) *QuerySet {
	if qs.err != nil {
		return qs
	}

	c := qs.clone()
	c.ordering = append([]string(nil), fields...)
	return c
}

// Limit caps the number of returned rows.
func (qs *QuerySet) Limit(count int) *QuerySet {
	if qs.err != nil {
		return qs
	}

	c := qs.clone()
	c.limitCount = &count
	return c
}

// Offset skips the first rows of the result.
func (qs *QuerySet) Offset(count int) *QuerySet {
	if qs.err != nil {
		return qs
	}

	c := qs.clone()
	c.offsetCount = count
	return c
}

func (qs *QuerySet) withValues(values []Values) *QuerySet {
	result := qs
	for _, v := range values {
		result = result.Filter(v)
	}
	return result
}

// buildSelect compiles the accumulated chain into a SELECT statement.
// Joined queries alias every column as table__column so names from
// different tables cannot collide in the fetched row.
func (qs *QuerySet) buildSelect() (*Statement, bool, error) {
	model := qs.model
	stmt := model.statement()

	aliased := len(qs.relations) > 0
	columns := model.ownColumns(aliased)

	var joins []clause.Join

	// Each joined table remembers the path prefix that claimed it; a
	// second path reaching the same table through different fields
	// cannot share those columns and fails instead.
	joinedBy := map[string]string{model.schema.Table: ""}

	for _, path := range qs.relations {
		current := model
		var prefix string
		for _, segment := range strings.Split(path, ".") {
			field := current.schema.LookUpField(segment)
			if field == nil {
				return nil, false, fmt.Errorf("%w: %s has no field %q", ErrInvalidKeyword, current.schema.Name, segment)
			}
			if !field.Relational() {
				return nil, false, fmt.Errorf("%w: %s.%s", ErrInvalidRelation, current.schema.Name, segment)
			}
			target, err := current.target(field)
			if err != nil {
				return nil, false, err
			}

			if prefix == "" {
				prefix = segment
			} else {
				prefix = prefix + "." + segment
			}

			if by, ok := joinedBy[target.schema.Table]; ok {
				if by != prefix {
					return nil, false, fmt.Errorf("%w: %q and %q both join table %q",
						ErrConflictingRelation, by, prefix, target.schema.Table)
				}
			} else {
				joinedBy[target.schema.Table] = prefix
				joins = append(joins, clause.Join{
					Type:  clause.InnerJoin,
					Table: clause.Table{Name: target.schema.Table},
					ON: clause.Where{Exprs: []clause.Expression{clause.Eq{
						Column: clause.Column{Table: current.schema.Table, Name: field.DBName},
						Value:  clause.Column{Table: target.schema.Table, Name: target.schema.PrimaryField.DBName},
					}}},
				})
				columns = append(columns, target.ownColumns(true)...)
			}
			current = target
		}
	}

	stmt.AddClause(clause.Select{Columns: columns})
	stmt.AddClause(clause.From{Joins: joins})

	if len(qs.filters) > 0 {
		stmt.AddClause(clause.Where{Exprs: qs.filters})
	}

	if len(qs.ordering) > 0 {
		orderColumns := make([]clause.OrderByColumn, 0, len(qs.ordering))
		for _, name := range qs.ordering {
			desc := strings.HasPrefix(name, "-")
			name = strings.TrimPrefix(name, "-")

			field := model.schema.LookUpField(name)
			if field == nil {
				return nil, false, fmt.Errorf("%w: %s has no field %q", ErrInvalidKeyword, model.schema.Name, name)
			}
			orderColumns = append(orderColumns, clause.OrderByColumn{
				Column: clause.Column{Table: model.schema.Table, Name: field.DBName},
				Desc:   desc,
			})
		}
		stmt.AddClause(clause.OrderBy{Columns: orderColumns})
	}

	if qs.limitCount != nil || qs.offsetCount > 0 {
		stmt.AddClause(clause.Limit{Limit: qs.limitCount, Offset: qs.offsetCount})
	}

	stmt.Build("SELECT", "FROM", "WHERE", "ORDER BY", "LIMIT")
	return stmt, aliased, nil
}

// All fetches every matching row. Optional values are applied as a
// final Filter.
func (qs *QuerySet) All(ctx context.Context, values ...Values) ([]*Entity, error) {
	qs = qs.withValues(values)
	if qs.err != nil {
		return nil, qs.err
	}

	stmt, aliased, err := qs.buildSelect()
	if err != nil {
		return nil, err
	}

	rows, err := qs.model.fetchAll(ctx, stmt)
	if err != nil {
		return nil, err
	}

	entities := make([]*Entity, 0, len(rows))
	for _, row := range rows {
		entity, err := qs.model.entityFromRow(row, qs.relations, aliased)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// Get fetches exactly one matching row. It returns ErrNotFound when no
// row matched and ErrMultipleFound when more than one did; fetching is
// capped at two rows to detect multiplicity cheaply.
func (qs *QuerySet) Get(ctx context.Context, values ...Values) (*Entity, error) {
	entities, err := qs.withValues(values).Limit(2).All(ctx)
	if err != nil {
		return nil, err
	}

	switch len(entities) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return entities[0], nil
	default:
		return nil, ErrMultipleFound
	}
}

// First fetches the first matching row or nil when none matched.
func (qs *QuerySet) First(ctx context.Context, values ...Values) (*Entity, error) {
	entities, err := qs.withValues(values).Limit(1).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, nil
	}
	return entities[0], nil
}

// Exists reports whether any row matches, wrapping the compiled query
// in SELECT EXISTS.
func (qs *QuerySet) Exists(ctx context.Context) (bool, error) {
	if qs.err != nil {
		return false, qs.err
	}

	stmt, _, err := qs.buildSelect()
	if err != nil {
		return false, err
	}

	sql, vars := stmt.ToSQL()
	value, err := qs.model.fetchVal(ctx, "SELECT EXISTS ("+sql+")", vars)
	if err != nil {
		return false, err
	}
	return asBool(value), nil
}

// Count returns the number of matching rows, counting over the compiled
// query as a subquery so limit and offset are honored.
func (qs *QuerySet) Count(ctx context.Context) (int64, error) {
	if qs.err != nil {
		return 0, qs.err
	}

	stmt, _, err := qs.buildSelect()
	if err != nil {
		return 0, err
	}

	sql, vars := stmt.ToSQL()
	sql = "SELECT COUNT(*) FROM (" + sql + ") " + stmt.Quote("subquery_for_count")

	value, err := qs.model.fetchVal(ctx, sql, vars)
	if err != nil {
		return 0, err
	}
	return asInt64(value)
}

// Create validates the given values, inserts one row and returns the
// resulting entity with its primary key assigned. Validation failures
// across fields are reported together.
func (qs *QuerySet) Create(ctx context.Context, values Values) (*Entity, error) {
	if qs.err != nil {
		return nil, qs.err
	}
	model := qs.model
	pk := model.schema.PrimaryField

	typed, errs := model.validateCreate(values)
	if errs != nil {
		return nil, errs
	}

	// An explicit nil primary key means "let the database assign one".
	if value, ok := typed[pk.Name]; ok && value == nil {
		delete(typed, pk.Name)
	}

	var insertColumns []clause.Column
	var row []interface{}
	for _, field := range model.schema.Fields {
		value, ok := typed[field.Name]
		if !ok {
			continue
		}
		bound, err := field.Bind(value)
		if err != nil {
			return nil, err
		}
		insertColumns = append(insertColumns, clause.Column{Name: field.DBName})
		row = append(row, bound)
	}

	_, pkSupplied := typed[pk.Name]
	useReturning := !pkSupplied && model.dialector().SupportsReturning()

	stmt := model.statement()
	stmt.AddClause(clause.Insert{})
	stmt.AddClause(clause.Values{Columns: insertColumns, Values: [][]interface{}{row}})
	if useReturning {
		stmt.AddClause(clause.Returning{Columns: []clause.Column{{Name: pk.DBName}}})
	}
	stmt.Build("INSERT", "", "RETURNING")

	if useReturning {
		sql, vars := stmt.ToSQL()
		value, err := model.fetchVal(ctx, sql, vars)
		if err != nil {
			return nil, err
		}
		typed[pk.Name] = value
	} else {
		result, err := model.execute(ctx, stmt)
		if err != nil {
			return nil, err
		}
		if !pkSupplied {
			if id, idErr := result.LastInsertId(); idErr == nil {
				typed[pk.Name] = id
			}
		}
	}

	return model.New(typed)
}

// BulkCreate inserts one row per item, returning the created entities
// in order. It stops at the first failing item.
func (qs *QuerySet) BulkCreate(ctx context.Context, items []Values) ([]*Entity, error) {
	entities := make([]*Entity, 0, len(items))
	for _, item := range items {
		entity, err := qs.Create(ctx, item)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// GetOrCreate fetches the row matching values or creates it with
// defaults merged in. The boolean reports whether a row was created.
func (qs *QuerySet) GetOrCreate(ctx context.Context, defaults Values, values Values) (*Entity, bool, error) {
	entity, err := qs.Get(ctx, values)
	if err == nil {
		return entity, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	entity, err = qs.Create(ctx, mergeValues(values, defaults))
	if err != nil {
		return nil, false, err
	}
	return entity, true, nil
}

// UpdateOrCreate updates the row matching values with defaults, or
// creates it when absent. The boolean reports whether a row was
// created.
func (qs *QuerySet) UpdateOrCreate(ctx context.Context, defaults Values, values Values) (*Entity, bool, error) {
	entity, err := qs.Get(ctx, values)
	if err == nil {
		if err := entity.Update(ctx, defaults); err != nil {
			return nil, false, err
		}
		return entity, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	entity, err = qs.Create(ctx, mergeValues(values, defaults))
	if err != nil {
		return nil, false, err
	}
	return entity, true, nil
}

// Update writes the given values to every matching row and returns how
// many rows changed.
func (qs *QuerySet) Update(ctx context.Context, values Values) (int64, error) {
	if qs.err != nil {
		return 0, qs.err
	}
	model := qs.model

	_, assignments, err := model.buildAssignments(values, true)
	if err != nil {
		return 0, err
	}

	stmt := model.statement()
	stmt.AddClause(clause.Update{})
	stmt.AddClause(assignments)
	if len(qs.filters) > 0 {
		stmt.AddClause(clause.Where{Exprs: qs.filters})
	}
	stmt.Build("UPDATE", "SET", "WHERE")

	result, err := model.execute(ctx, stmt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Delete removes every matching row and returns how many were removed.
// Optional values are applied as a final Filter.
func (qs *QuerySet) Delete(ctx context.Context, values ...Values) (int64, error) {
	qs = qs.withValues(values)
	if qs.err != nil {
		return 0, qs.err
	}
	model := qs.model

	stmt := model.statement()
	stmt.AddClause(clause.Delete{})
	stmt.AddClause(clause.From{})
	if len(qs.filters) > 0 {
		stmt.AddClause(clause.Where{Exprs: qs.filters})
	}
	stmt.Build("DELETE", "FROM", "WHERE")

	result, err := model.execute(ctx, stmt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// mergeValues overlays defaults onto the lookup values for creation.
func mergeValues(values, defaults Values) Values {
	merged := make(Values, len(values)+len(defaults))
	for name, value := range values {
		merged[name] = value
	}
	for name, value := range defaults {
		merged[name] = value
	}
	return merged
}

// validateCreate checks create values against the model definition,
// stamping auto-now fields and defaults for absent values. All field
// failures are collected rather than reported one at a time.
func (m *Model) validateCreate(values Values) (Values, error) {
	var errs error
	typed := make(Values, len(values))

	for name := range values {
		lookup := name
		if lookup == "pk" {
			lookup = m.schema.PrimaryField.Name
		}
		if m.schema.LookUpField(lookup) == nil {
			errs = multierror.Append(errs, fmt.Errorf("%w: %s has no field %q", ErrInvalidKeyword, m.schema.Name, name))
		}
	}

	for _, field := range m.schema.Fields {
		value, present := values[field.Name]
		if field.PrimaryKey && !present {
			value, present = values["pk"]
		}

		if !present {
			switch {
			case field.AutoNow || field.AutoNowAdd:
				typed[field.Name] = time.Now().UTC()
			case field.HasDefaultValue():
				typed[field.Name] = field.DefaultValue()
			}
			continue
		}

		if related, ok := value.(*Entity); ok && field.Relational() {
			value = related.PK()
		}
		if value == nil && field.PrimaryKey {
			typed[field.Name] = nil
			continue
		}

		validated, err := field.Validate(value)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		typed[field.Name] = validated
	}

	if errs != nil {
		return nil, errs
	}
	return typed, nil
}

func asBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	case string:
		return v == "t" || v == "true" || v == "1"
	default:
		return false
	}
}

func asInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("cannot read count from %T", value)
	}
}
