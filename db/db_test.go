package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaQueries_StatusVocabulary(t *testing.T) {
	var applications string
	for _, q := range SchemaQueries() {
		if strings.Contains(q, "CREATE TABLE IF NOT EXISTS applications") {
			applications = q
		}
	}

	assert.Contains(t, applications, "'reviewed'")
	assert.Contains(t, applications, "'interviewed'")
	assert.NotContains(t, applications, "'reviewing'")
}

func TestSchemaQueries_MessagesBeforeIndexes(t *testing.T) {
	queries := SchemaQueries()
	table, index := -1, -1
	for i, q := range queries {
		if strings.Contains(q, "CREATE TABLE IF NOT EXISTS messages") {
			table = i
		}
		if strings.Contains(q, "messages_unread_idx") {
			index = i
		}
	}

	assert.NotEqual(t, -1, table)
	assert.Less(t, table, index)
}
