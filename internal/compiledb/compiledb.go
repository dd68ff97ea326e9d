// Package compiledb loads clang-style compilation databases
// (compile_commands.json) and exposes the translation units they list.
package compiledb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/standardbeagle/declscan/internal/debug"
)

const FileName = "compile_commands.json"

// Entry is one compilation database record. Either Command or Arguments
// is present depending on the generator.
type Entry struct {
	Directory string   `json:"directory"`
	Command   string   `json:"command,omitempty"`
	Arguments []string `json:"arguments,omitempty"`
	File      string   `json:"file"`
	Output    string   `json:"output,omitempty"`
}

// Database is a loaded compilation database.
type Database struct {
	Dir     string
	Entries []Entry
}

// Load reads the compilation database from dir. A missing or malformed
// database is an error; callers are expected to fail fast rather than
// scan an empty file set.
func Load(dir string) (*Database, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load compilation database: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	debug.Log("compiledb", "loaded %d entries from %s\n", len(entries), path)
	return &Database{Dir: dir, Entries: entries}, nil
}

// SourceFiles returns the absolute paths of all listed translation
// units, in database order with duplicates removed. Relative file paths
// resolve against each entry's working directory.
func (db *Database) SourceFiles() []string {
	seen := make(map[string]bool, len(db.Entries))
	var files []string
	for _, e := range db.Entries {
		path := e.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(e.Directory, path)
		}
		path = filepath.Clean(path)
		if seen[path] {
			continue
		}
		seen[path] = true
		files = append(files, path)
	}
	return files
}
