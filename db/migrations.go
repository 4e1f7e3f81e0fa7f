// Package db embeds the SQL migrations for the media_items table.
package db

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var files embed.FS

// Migration is one forward migration script.
type Migration struct {
	Name string
	SQL  string
}

// UpMigrations returns the forward migrations in apply order.
func UpMigrations() ([]Migration, error) {
	names, err := fs.Glob(files, "migrations/*.up.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		payload, err := files.ReadFile(name)
		if err != nil {
			return nil, err
		}
		out = append(out, Migration{
			Name: strings.TrimSuffix(path.Base(name), ".up.sql"),
			SQL:  string(payload),
		})
	}
	return out, nil
}
