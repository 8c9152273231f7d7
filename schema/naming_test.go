package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/encode/orm/schema"
)

func TestTableName(t *testing.T) {
	ns := schema.NamingStrategy{}

	tests := map[string]string{
		"Album":       "albums",
		"Track":       "tracks",
		"Person":      "people",
		"UserProfile": "user_profiles",
		"APIKey":      "api_keys",
	}

	for model, table := range tests {
		assert.Equal(t, table, ns.TableName(model), "model %q", model)
	}
}

func TestTableNamePrefixAndSingular(t *testing.T) {
	ns := schema.NamingStrategy{TablePrefix: "app_", SingularTable: true}
	assert.Equal(t, "app_album", ns.TableName("Album"))
}

func TestColumnName(t *testing.T) {
	ns := schema.NamingStrategy{}

	assert.Equal(t, "title", ns.ColumnName("tracks", "title"))
	assert.Equal(t, "release_year", ns.ColumnName("albums", "ReleaseYear"))
	assert.Equal(t, "id", ns.ColumnName("albums", "ID"))
}
