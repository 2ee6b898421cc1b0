package export

import (
	"fmt"
	"io"
	"os"

	"github.com/lipo-groupgen/pkg/writer"
)

// JSONWriter writes a Result as JSON, reusing the generic writer the
// teacher's call-graph package wraps for the same purpose.
type JSONWriter = writer.JSONWriter[Result]

// NewJSONWriter returns a compact JSON writer.
func NewJSONWriter() *JSONWriter { return writer.NewJSONWriter[Result]() }

// NewPrettyJSONWriter returns an indented JSON writer, used by the CLI's
// human-facing dump mode.
func NewPrettyJSONWriter() *JSONWriter { return writer.NewPrettyJSONWriter[Result]() }

// TextWriter emits the `.gcda.imports` persisted format of spec §6: one
// aux-module source filename per line, per module, in import order.
type TextWriter struct{}

// WriteModule writes moduleID's aux list, basename-resolvable filenames
// one per line, matching the exact format `<source_filename>\n`.
func (TextWriter) WriteModule(r Result, moduleID uint32, w io.Writer) error {
	m, ok := r.Module(moduleID)
	if !ok {
		return fmt.Errorf("export: module %d not found", moduleID)
	}
	for _, aux := range m.Aux {
		if _, err := fmt.Fprintf(w, "%s\n", aux.SourceFilename); err != nil {
			return err
		}
	}
	return nil
}

// WriteModuleToFile writes moduleID's `.gcda.imports` file at path.
func (t TextWriter) WriteModuleToFile(r Result, moduleID uint32, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer f.Close()
	return t.WriteModule(r, moduleID, f)
}

// DOTWriter renders the export result as a graphviz digraph: one node per
// module, one edge per aux relationship, labelled by weight.
type DOTWriter struct{}

// Write emits `digraph lipo_groups { ... }` over every module's aux edges.
func (DOTWriter) Write(r Result, w io.Writer) error {
	if _, err := fmt.Fprintln(w, "digraph lipo_groups {"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "  node [shape=box];"); err != nil {
		return err
	}
	for _, m := range r.Modules {
		style := ""
		if m.IsExported {
			style = " style=filled fillcolor=lightgray"
		}
		if _, err := fmt.Fprintf(w, "  \"%s\" [label=\"%s (id=%d)\"%s];\n", m.SourceFilename, m.SourceFilename, m.ModuleID, style); err != nil {
			return err
		}
	}
	for _, m := range r.Modules {
		for _, aux := range m.Aux {
			if _, err := fmt.Fprintf(w, "  \"%s\" -> \"%s\" [label=\"%d\"];\n", m.SourceFilename, aux.SourceFilename, aux.Weight); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

// WriteToFile writes the DOT dump to path.
func (d DOTWriter) WriteToFile(r Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer f.Close()
	return d.Write(r, f)
}
