package builtin_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyops/helloagents-tools/pkg/artifacts"
	"github.com/easyops/helloagents-tools/pkg/tools"
	"github.com/easyops/helloagents-tools/pkg/tools/builtin"
)

func newSQLDispatcher(t *testing.T, client *builtin.SQLClient) *tools.Dispatcher {
	t.Helper()
	registry := tools.NewRegistry()
	require.NoError(t, registry.Register(client))
	return tools.NewDispatcher(registry)
}

func runQuery(t *testing.T, d *tools.Dispatcher, query string) artifacts.Artifact {
	t.Helper()
	return d.Invoke(context.Background(), "sql_client", "query",
		tools.NewParams(map[string]any{"query": query}))
}

func TestSQLClient_Query(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.db")

	for _, scheme := range []string{"sqlite", "sqlite3"} {
		t.Run(scheme, func(t *testing.T) {
			d := newSQLDispatcher(t, builtin.NewSQLClient(scheme+":///"+path))

			result := runQuery(t, d, "CREATE TABLE IF NOT EXISTS people (id INTEGER, name TEXT)")
			require.IsType(t, &artifacts.TextArtifact{}, result)
			assert.Equal(t, "query successfully executed", result.String())

			result = runQuery(t, d, "DELETE FROM people")
			assert.Equal(t, "query successfully executed", result.String())

			result = runQuery(t, d, "INSERT INTO people VALUES (1, 'a'), (2, 'it''s')")
			assert.Equal(t, "query successfully executed", result.String())

			result = runQuery(t, d, "SELECT id, name FROM people ORDER BY id")
			require.IsType(t, &artifacts.TextArtifact{}, result)
			assert.Equal(t, `[(1, 'a'), (2, "it's")]`, result.String())

			result = runQuery(t, d, "SELECT name FROM people WHERE id = 1")
			assert.Equal(t, "[('a',)]", result.String())

			result = runQuery(t, d, "SELECT * FROM people WHERE id > 100")
			assert.Equal(t, "[]", result.String())
		})
	}
}

func TestSQLClient_BooleanColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.db")

	for _, scheme := range []string{"sqlite", "sqlite3"} {
		t.Run(scheme, func(t *testing.T) {
			d := newSQLDispatcher(t, builtin.NewSQLClient(scheme+":///"+path))

			runQuery(t, d, "CREATE TABLE IF NOT EXISTS flags (id INTEGER, enabled BOOLEAN)")
			runQuery(t, d, "DELETE FROM flags")
			runQuery(t, d, "INSERT INTO flags VALUES (1, 1), (2, 0)")

			result := runQuery(t, d, "SELECT id, enabled FROM flags ORDER BY id")
			require.IsType(t, &artifacts.TextArtifact{}, result)
			assert.Equal(t, "[(1, 1), (2, 0)]", result.String())
		})
	}
}

func TestSQLClient_Values(t *testing.T) {
	d := newSQLDispatcher(t, builtin.NewSQLClient("sqlite://"))

	result := runQuery(t, d, "SELECT 1, 2.5, NULL, 'x'")
	require.IsType(t, &artifacts.TextArtifact{}, result)
	assert.Equal(t, "[(1, 2.5, None, 'x')]", result.String())
}

func TestSQLClient_Errors(t *testing.T) {
	t.Run("bad statement", func(t *testing.T) {
		d := newSQLDispatcher(t, builtin.NewSQLClient("sqlite://"))
		result := runQuery(t, d, "SELEC 1")
		require.IsType(t, &artifacts.ErrorArtifact{}, result)
		assert.True(t, strings.HasPrefix(result.String(), "error executing SQL: "), result.String())
	})

	t.Run("unsupported engine", func(t *testing.T) {
		d := newSQLDispatcher(t, builtin.NewSQLClient("oracle://scott@db/orcl"))
		result := runQuery(t, d, "SELECT 1")
		require.IsType(t, &artifacts.ErrorArtifact{}, result)
		assert.Equal(t, "error executing SQL: unsupported engine: oracle", result.String())
	})

	t.Run("missing engine", func(t *testing.T) {
		d := newSQLDispatcher(t, builtin.NewSQLClient(""))
		result := runQuery(t, d, "SELECT 1")
		require.IsType(t, &artifacts.ErrorArtifact{}, result)
		assert.True(t, strings.HasPrefix(result.String(), "error executing SQL: "), result.String())
	})
}

func TestSQLClient_Description(t *testing.T) {
	defs := tools.ToDefinitions(builtin.NewSQLClient("sqlite:///shop.db"))
	require.Len(t, defs, 1)
	assert.Equal(t, "query", defs[0].Name)
	assert.Equal(t, "Can be used to execute SQL queries in sqlite:///shop.db", defs[0].Description)
	assert.Equal(t, []string{"query"}, defs[0].Parameters.Names())

	defs = tools.ToDefinitions(builtin.NewSQLClient("", builtin.WithEngineName("PostgreSQL")))
	assert.Equal(t, "Can be used to execute SQL queries in PostgreSQL", defs[0].Description)

	defs = tools.ToDefinitions(builtin.NewSQLClient(""))
	assert.Equal(t, "Can be used to execute SQL queries", defs[0].Description)
}
