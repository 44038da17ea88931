package workenv

import (
	"fmt"
	"os"
	"path/filepath"
)

// essentialDirs must exist in any Python prefix worth bundling.
var essentialDirs = []string{"bin", "lib"}

// Inspection describes what was found in a source environment.
type Inspection struct {
	Path        string
	Interpreter string // bin/python, empty if absent
	EntryScript string // bin/<entry>, empty if absent
	IsConda     bool   // conda-meta present
	Problems    []string
}

// Valid reports whether no problems were found.
func (i *Inspection) Valid() bool {
	return len(i.Problems) == 0
}

// Inspect checks that path looks like a Python environment able to run
// entry. Problems are collected rather than returned as errors since the
// builder treats them as warnings.
func Inspect(path, entry string) *Inspection {
	in := &Inspection{Path: path}

	for _, dir := range essentialDirs {
		if info, err := os.Stat(filepath.Join(path, dir)); err != nil || !info.IsDir() {
			in.Problems = append(in.Problems, fmt.Sprintf("missing %s/ directory", dir))
		}
	}

	if p := filepath.Join(path, "bin", "python"); exists(p) {
		in.Interpreter = p
	} else {
		in.Problems = append(in.Problems, "no bin/python interpreter")
	}

	if entry != "" {
		if p := filepath.Join(path, "bin", entry); exists(p) {
			in.EntryScript = p
		} else {
			in.Problems = append(in.Problems, fmt.Sprintf("entry script bin/%s not found", entry))
		}
	}

	in.IsConda = exists(filepath.Join(path, "conda-meta"))
	return in
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
