package orm

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/encode/orm/clause"
	"github.com/encode/orm/schema"
)

// Filter keys take the form field[__relation...]__operator: leading
// segments traverse foreign keys, the final segment is an operator
// suffix or, when none matches, an exact comparison on the named field.
const keySeparator = "__"

var filterOperators = map[string]struct{}{
	"exact":     {},
	"iexact":    {},
	"contains":  {},
	"icontains": {},
	"in":        {},
	"gt":        {},
	"gte":       {},
	"lt":        {},
	"lte":       {},
}

// compileFilter turns one filter key and value into a comparison
// expression, returning the relation path the comparison implies so the
// query adds the matching joins.
func compileFilter(model *Model, key string, value interface{}) (clause.Expression, string, error) {
	parts := strings.Split(key, keySeparator)

	operator := "exact"
	if len(parts) > 1 {
		if _, ok := filterOperators[parts[len(parts)-1]]; ok {
			operator = parts[len(parts)-1]
			parts = parts[:len(parts)-1]
		}
	}

	fieldName := parts[len(parts)-1]
	related := parts[:len(parts)-1]

	current := model
	for _, segment := range related {
		field := current.schema.LookUpField(segment)
		if field == nil {
			return nil, "", fmt.Errorf("%w: %s has no field %q", ErrInvalidKeyword, current.schema.Name, segment)
		}
		if !field.Relational() {
			return nil, "", fmt.Errorf("%w: %s.%s", ErrInvalidRelation, current.schema.Name, segment)
		}
		target, err := current.target(field)
		if err != nil {
			return nil, "", err
		}
		current = target
	}

	// "pk" aliases the primary key of whichever model the path landed on.
	if fieldName == "pk" {
		fieldName = current.schema.PrimaryField.Name
	}

	field := current.schema.LookUpField(fieldName)
	if field == nil {
		return nil, "", fmt.Errorf("%w: %s has no field %q", ErrInvalidKeyword, current.schema.Name, fieldName)
	}

	column := clause.Column{Table: current.schema.Table, Name: field.DBName}

	expr, err := compileComparison(column, field, operator, value)
	if err != nil {
		return nil, "", err
	}
	return expr, strings.Join(related, "."), nil
}

func compileComparison(column clause.Column, field *schema.Field, operator string, value interface{}) (clause.Expression, error) {
	if operator != "in" {
		var err error
		if value, err = bindComparisonValue(field, value); err != nil {
			return nil, err
		}
	}

	switch operator {
	case "exact":
		return clause.Eq{Column: column, Value: value}, nil
	case "iexact":
		return clause.ILike{Column: column, Value: value}, nil
	case "contains":
		pattern, escape := likePattern(value)
		return clause.Like{Column: column, Value: pattern, Escape: escape}, nil
	case "icontains":
		pattern, escape := likePattern(value)
		return clause.ILike{Column: column, Value: pattern, Escape: escape}, nil
	case "in":
		values, err := bindComparisonValues(field, value)
		if err != nil {
			return nil, err
		}
		return clause.IN{Column: column, Values: values}, nil
	case "gt":
		return clause.Gt{Column: column, Value: value}, nil
	case "gte":
		return clause.Gte{Column: column, Value: value}, nil
	case "lt":
		return clause.Lt{Column: column, Value: value}, nil
	case "lte":
		return clause.Lte{Column: column, Value: value}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, operator)
}

// bindComparisonValue maps entities to their primary key and runs the
// field's codec so driver-level values reach the database.
func bindComparisonValue(field *schema.Field, value interface{}) (interface{}, error) {
	if related, ok := value.(*Entity); ok {
		value = related.PK()
	}
	if value == nil {
		return nil, nil
	}
	return field.Bind(value)
}

func bindComparisonValues(field *schema.Field, value interface{}) ([]interface{}, error) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("%w: in requires a slice, got %T", ErrUnknownOperator, value)
	}

	values := make([]interface{}, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		bound, err := bindComparisonValue(field, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		values = append(values, bound)
	}
	return values, nil
}

// likePattern wraps a value for substring matching. Literal `%` and `_`
// in the needle are backslash-escaped and the pattern carries an ESCAPE
// modifier so they do not act as wildcards.
func likePattern(value interface{}) (string, string) {
	needle := fmt.Sprint(value)

	escape := ""
	if strings.ContainsAny(needle, "%_") {
		escape = `\`
		needle = strings.ReplaceAll(needle, `\`, `\\`)
		needle = strings.ReplaceAll(needle, "%", `\%`)
		needle = strings.ReplaceAll(needle, "_", `\_`)
	}
	return "%" + needle + "%", escape
}
