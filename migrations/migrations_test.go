package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilesAreOrderedPerDialect(t *testing.T) {
	for _, dialect := range Dialects {
		files, err := Files(dialect)
		require.NoError(t, err)
		require.Len(t, files, 2)
		require.Equal(t, dialect+"/001_activity.up.sql", files[0].Name)
		require.Equal(t, dialect+"/002_directory.up.sql", files[1].Name)
	}
}

func TestDialectsDefineSameTables(t *testing.T) {
	tables := func(dialect string) []string {
		files, err := Files(dialect)
		require.NoError(t, err)
		var out []string
		for _, f := range files {
			for _, stmt := range f.Statements {
				if strings.HasPrefix(stmt, "CREATE TABLE ") {
					out = append(out, strings.Fields(stmt)[2])
				}
			}
		}
		return out
	}
	require.Equal(t, tables("sqlite"), tables("mysql"))
	require.Contains(t, tables("sqlite"), "activity_records")
}

func TestUnknownDialect(t *testing.T) {
	_, err := Files("oracle")
	require.Error(t, err)
}

func TestSplit(t *testing.T) {
	stmts := Split("-- comment\nCREATE TABLE a (id INT);\n\nCREATE INDEX i ON a(id);\n")
	require.Equal(t, []string{"CREATE TABLE a (id INT)", "CREATE INDEX i ON a(id)"}, stmts)
}
