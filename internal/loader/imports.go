package loader

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/lipo-groupgen/internal/profile"
	"github.com/lipo-groupgen/pkg/errors"
)

// ReadImports parses the `.gcda.imports` text format of spec §6: one
// source filename per line, resolved against set's currently loaded
// modules by basename match. Lines that resolve to no loaded module are
// silently skipped, matching the tolerant data-error policy elsewhere in
// the loader boundary.
func ReadImports(r io.Reader, set *profile.Set) []uint32 {
	byBasename := make(map[string]uint32, set.ModuleCount())
	for _, m := range set.Modules() {
		byBasename[filepath.Base(m.SourceFilename)] = m.ModuleID
	}

	var out []uint32
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if id, ok := byBasename[filepath.Base(line)]; ok {
			out = append(out, id)
		}
	}
	return out
}

// ReadImportsFile opens path and parses it with ReadImports.
func ReadImportsFile(path string, set *profile.Set) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeNotFound, "loader: open "+path, err)
	}
	defer f.Close()
	return ReadImports(f, set), nil
}
