package logger_test

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/encode/orm/logger"
)

func TestExplainSQL(t *testing.T) {
	numeric := regexp.MustCompile(`\$(\d+)`)

	tests := []struct {
		name        string
		sql         string
		placeholder *regexp.Regexp
		vars        []interface{}
		want        string
	}{
		{
			name: "question mark placeholders",
			sql:  "SELECT * FROM `tracks` WHERE `title` = ? AND `position` > ?",
			vars: []interface{}{"Moon", 3},
			want: "SELECT * FROM `tracks` WHERE `title` = 'Moon' AND `position` > 3",
		},
		{
			name:        "numbered placeholders",
			sql:         `SELECT * FROM "tracks" WHERE "title" = $1 AND "position" > $2`,
			placeholder: numeric,
			vars:        []interface{}{"Moon", 3},
			want:        `SELECT * FROM "tracks" WHERE "title" = 'Moon' AND "position" > 3`,
		},
		{
			name:        "repeated numbered placeholder",
			sql:         `SELECT * FROM "tracks" WHERE "title" = $1 OR "slug" = $1`,
			placeholder: numeric,
			vars:        []interface{}{"Moon"},
			want:        `SELECT * FROM "tracks" WHERE "title" = 'Moon' OR "slug" = 'Moon'`,
		},
		{
			name: "null and bool",
			sql:  "SELECT * FROM `tracks` WHERE `album` = ? OR `played` = ?",
			vars: []interface{}{nil, true},
			want: "SELECT * FROM `tracks` WHERE `album` = NULL OR `played` = true",
		},
		{
			name: "quotes are escaped",
			sql:  "SELECT * FROM `tracks` WHERE `title` = ?",
			vars: []interface{}{"Moon's"},
			want: `SELECT * FROM ` + "`tracks` WHERE `title` = 'Moon\\'s'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := logger.ExplainSQL(tt.sql, tt.placeholder, `'`, tt.vars...)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("vars are left untouched", func(t *testing.T) {
		vars := []interface{}{"Moon", 3}
		logger.ExplainSQL("SELECT ?, ?", nil, `'`, vars...)
		assert.Equal(t, []interface{}{"Moon", 3}, vars)
	})
}

type captureWriter struct {
	lines []string
}

func (w *captureWriter) Printf(format string, args ...interface{}) {
	w.lines = append(w.lines, fmt.Sprintf(format, args...))
}

func TestTraceLevels(t *testing.T) {
	fc := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("silent drops everything", func(t *testing.T) {
		writer := &captureWriter{}
		l := logger.New(writer, logger.Config{LogLevel: logger.Silent})

		l.Trace(context.Background(), time.Now(), fc, errors.New("boom"))
		assert.Empty(t, writer.lines)
	})

	t.Run("errors are logged", func(t *testing.T) {
		writer := &captureWriter{}
		l := logger.New(writer, logger.Config{LogLevel: logger.Error})

		l.Trace(context.Background(), time.Now(), fc, errors.New("boom"))
		assert.Len(t, writer.lines, 1)
		assert.Contains(t, writer.lines[0], "boom")
	})

	t.Run("record not found can be ignored", func(t *testing.T) {
		writer := &captureWriter{}
		l := logger.New(writer, logger.Config{
			LogLevel:                  logger.Error,
			IgnoreRecordNotFoundError: true,
		})

		l.Trace(context.Background(), time.Now(), fc, logger.ErrRecordNotFound)
		assert.Empty(t, writer.lines)
	})

	t.Run("slow queries warn", func(t *testing.T) {
		writer := &captureWriter{}
		l := logger.New(writer, logger.Config{
			LogLevel:      logger.Warn,
			SlowThreshold: time.Millisecond,
		})

		l.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
		assert.Len(t, writer.lines, 1)
		assert.Contains(t, writer.lines[0], "SLOW SQL")
	})

	t.Run("info logs every statement", func(t *testing.T) {
		writer := &captureWriter{}
		l := logger.New(writer, logger.Config{LogLevel: logger.Info})

		l.Trace(context.Background(), time.Now(), fc, nil)
		assert.Len(t, writer.lines, 1)
		assert.Contains(t, writer.lines[0], "SELECT 1")
	})

	t.Run("log mode returns an adjusted copy", func(t *testing.T) {
		writer := &captureWriter{}
		base := logger.New(writer, logger.Config{LogLevel: logger.Info})

		silent := base.LogMode(logger.Silent)
		silent.Trace(context.Background(), time.Now(), fc, errors.New("boom"))
		assert.Empty(t, writer.lines)

		base.Trace(context.Background(), time.Now(), fc, nil)
		assert.Len(t, writer.lines, 1)
	})
}
