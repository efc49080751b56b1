package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/ittm/internal/ir"
)

// LoadFile reads and compiles a single population file. Relative script
// paths resolve against the file's directory.
func LoadFile(path string) (*ir.Population, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read population: %w", err)
	}
	return CompileSource(path, src, filepath.Dir(path))
}

// CompileSource compiles population source text. filename is used only for
// error positions.
func CompileSource(filename string, src []byte, dir string) (*ir.Population, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	return CompilePopulation(v, dir)
}
