// Package migrations embeds the schema of the activity store, one directory
// per SQL dialect. Files are applied in name order.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed sqlite/*.sql mysql/*.sql
var FS embed.FS

// Dialects lists the supported schema dialects.
var Dialects = []string{"sqlite", "mysql"}

// File is one migration file.
type File struct {
	Name       string
	Statements []string
}

// Files returns the up migrations of dialect in order.
func Files(dialect string) ([]File, error) {
	names, err := fs.Glob(FS, dialect+"/*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("list %s migrations: %w", dialect, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no migrations for dialect %q", dialect)
	}
	sort.Strings(names)

	files := make([]File, 0, len(names))
	for _, name := range names {
		data, err := FS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		files = append(files, File{Name: name, Statements: Split(string(data))})
	}
	return files, nil
}

// Split breaks a script into statements, dropping comment lines.
func Split(script string) []string {
	var b strings.Builder
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	var stmts []string
	for _, stmt := range strings.Split(b.String(), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
