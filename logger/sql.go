package logger

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ExplainSQL inlines bind variables into sql for log output. With a nil
// numericPlaceholder the statement is assumed to use `?` placeholders in
// variable order; otherwise the pattern matches numbered placeholders
// whose first capture group is the 1-based variable position.
func ExplainSQL(sql string, numericPlaceholder *regexp.Regexp, escaper string, vars ...interface{}) string {
	rendered := make([]string, len(vars))
	for idx, v := range vars {
		rendered[idx] = formatBindValue(v, escaper)
	}

	if numericPlaceholder != nil {
		return numericPlaceholder.ReplaceAllStringFunc(sql, func(match string) string {
			position, err := strconv.Atoi(match[1:])
			if err != nil || position < 1 || position > len(rendered) {
				return match
			}
			return rendered[position-1]
		})
	}

	var explained strings.Builder
	remainder := sql
	for _, value := range rendered {
		pos := strings.IndexByte(remainder, '?')
		if pos < 0 {
			break
		}
		explained.WriteString(remainder[:pos])
		explained.WriteString(value)
		remainder = remainder[pos+1:]
	}
	explained.WriteString(remainder)
	return explained.String()
}

func formatBindValue(v interface{}, escaper string) string {
	if valuer, ok := v.(driver.Valuer); ok {
		v, _ = valuer.Value()
	}

	switch v := v.(type) {
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return escaper + v.Format("2006-01-02 15:04:05") + escaper
	case *time.Time:
		if v == nil {
			return "NULL"
		}
		return escaper + v.Format("2006-01-02 15:04:05") + escaper
	case []byte:
		if !isPrintable(v) {
			return escaper + "<binary>" + escaper
		}
		return quote(string(v), escaper)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%.6f", v)
	case string:
		return quote(v, escaper)
	default:
		if v == nil {
			return "NULL"
		}
		return quote(fmt.Sprint(v), escaper)
	}
}

func quote(s, escaper string) string {
	return escaper + strings.ReplaceAll(s, escaper, "\\"+escaper) + escaper
}

func isPrintable(s []byte) bool {
	for _, r := range s {
		if !unicode.IsPrint(rune(r)) {
			return false
		}
	}
	return true
}
