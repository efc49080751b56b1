package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/ittm/internal/ir"
	"github.com/roach88/ittm/internal/rulegen"
)

// Default generator parameters used when a population file leaves them out.
const (
	DefaultChampernowneUpTo = 1000
	DefaultScriptCount      = 1
)

type populationFile struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Config      *configFile   `json:"config"`
	Source      []int         `json:"source"`
	Generate    *generateFile `json:"generate"`
	Machines    []machineFile `json:"machines"`
}

// configFile uses pointers so unset fields keep the generator's defaults.
type configFile struct {
	Window        *int    `json:"window"`
	Warmup        *int    `json:"warmup"`
	MaxStages     *int    `json:"max_stages"`
	MaxPopulation *int    `json:"max_population"`
	TapeLength    *int    `json:"tape_length"`
	Observe       *string `json:"observe"`
	TapeMode      *string `json:"tape_mode"`
}

type generateFile struct {
	Templates *struct {
		Count int `json:"count"`
	} `json:"templates"`
	Champernowne *struct {
		Count int `json:"count"`
		UpTo  int `json:"up_to"`
	} `json:"champernowne"`
	Starlark *struct {
		Script  string `json:"script"`
		Code    string `json:"code"`
		Count   int    `json:"count"`
		States  int    `json:"states"`
		Symbols int    `json:"symbols"`
	} `json:"starlark"`
}

type machineFile struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Table       tableFile `json:"table"`
	Tape        *tapeFile `json:"tape"`
}

type tableFile struct {
	States  int       `json:"states"`
	Symbols int       `json:"symbols"`
	Rules   [][][]int `json:"rules"`
}

type tapeFile struct {
	Fill  int            `json:"fill"`
	Cells []int          `json:"cells"`
	Set   map[string]int `json:"set"`
}

// CompilePopulation turns a CUE value into a Population.
//
// The value is first unified with the embedded schema. dir resolves the
// relative paths a file may reference (Starlark scripts). Generated machines
// come first, in generator order, followed by the explicit machines list.
func CompilePopulation(v cue.Value, dir string) (*ir.Population, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError("cue", err)
	}

	unified, err := applySchema(v)
	if err != nil {
		return nil, err
	}

	var file populationFile
	if err := unified.Decode(&file); err != nil {
		return nil, formatCUEError("cue", err)
	}

	pop := &ir.Population{
		Name:        file.Name,
		Description: file.Description,
		Config:      ir.DefaultConfig(),
	}

	if file.Generate != nil {
		if err := generate(pop, file.Generate, dir, v.LookupPath(cue.ParsePath("generate"))); err != nil {
			return nil, err
		}
	}

	if len(file.Source) > 0 {
		if pop.Shared() {
			return nil, &CompileError{
				Field:   "source",
				Message: "source conflicts with the champernowne generator's parity tape",
				Pos:     v.LookupPath(cue.ParsePath("source")).Pos(),
			}
		}
		pop.Source = toSymbols(file.Source)
	}

	for i, mf := range file.Machines {
		pos := v.LookupPath(cue.MakePath(cue.Str("machines"), cue.Index(i))).Pos()
		spec, err := compileMachine(mf, len(pop.Machines), pos)
		if err != nil {
			return nil, err
		}
		pop.Machines = append(pop.Machines, spec)
	}

	explicitMax := file.Config != nil && file.Config.MaxPopulation != nil
	if file.Config != nil {
		applyConfig(&pop.Config, file.Config)
	}
	if !explicitMax && len(pop.Machines) > pop.Config.MaxPopulation {
		pop.Config.MaxPopulation = len(pop.Machines)
	}

	if err := pop.Config.Validate(); err != nil {
		return nil, &CompileError{
			Field:   "config",
			Message: err.Error(),
			Pos:     v.LookupPath(cue.ParsePath("config")).Pos(),
		}
	}

	if pop.Name == "" {
		pop.Name = "population"
	}
	return pop, nil
}

// generate runs at most one generator and seeds pop with its machines,
// config baseline and (for champernowne) the shared source tape.
func generate(pop *ir.Population, g *generateFile, dir string, v cue.Value) error {
	kinds := 0
	for _, set := range []bool{g.Templates != nil, g.Champernowne != nil, g.Starlark != nil} {
		if set {
			kinds++
		}
	}
	if kinds > 1 {
		return &CompileError{
			Field:   "generate",
			Message: "at most one generator may be used",
			Pos:     v.Pos(),
		}
	}

	switch {
	case g.Templates != nil:
		gen := rulegen.DovetailPopulation(g.Templates.Count)
		pop.Config = gen.Config
		pop.Machines = gen.Machines
		if pop.Name == "" {
			pop.Name = gen.Name
		}

	case g.Champernowne != nil:
		upTo := g.Champernowne.UpTo
		if upTo == 0 {
			upTo = DefaultChampernowneUpTo
		}
		gen, _ := rulegen.ChampernownePopulation(g.Champernowne.Count, upTo)
		pop.Config = gen.Config
		pop.Source = gen.Source
		pop.Machines = gen.Machines
		if pop.Name == "" {
			pop.Name = gen.Name
		}

	case g.Starlark != nil:
		s := g.Starlark
		pos := v.LookupPath(cue.ParsePath("starlark")).Pos()
		filename, src, err := scriptSource(s.Script, s.Code, dir)
		if err != nil {
			return &CompileError{Field: "generate.starlark", Message: err.Error(), Pos: pos}
		}
		defaults := rulegen.ScriptDefaults{
			States:  orDefault(s.States, 2),
			Symbols: orDefault(s.Symbols, 2),
			Count:   orDefault(s.Count, DefaultScriptCount),
		}
		tables, err := rulegen.FromStarlark(filename, src, defaults)
		if err != nil {
			return &CompileError{Field: "generate.starlark", Message: err.Error(), Pos: pos}
		}
		for i, table := range tables {
			pop.Machines = append(pop.Machines, ir.MachineSpec{
				Name:  fmt.Sprintf("script-%d", i),
				Table: table,
			})
		}
	}
	return nil
}

func scriptSource(script, code, dir string) (string, []byte, error) {
	switch {
	case script != "" && code != "":
		return "", nil, fmt.Errorf("script and code are mutually exclusive")
	case code != "":
		return "inline.star", []byte(code), nil
	case script == "":
		return "", nil, fmt.Errorf("one of script or code is required")
	}

	path := script
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	return path, src, nil
}

func compileMachine(mf machineFile, index int, pos token.Pos) (ir.MachineSpec, error) {
	symbols := orDefault(mf.Table.Symbols, 2)
	rows := make([][]ir.Rule, len(mf.Table.Rules))
	for s, row := range mf.Table.Rules {
		rows[s] = make([]ir.Rule, len(row))
		for sym, pair := range row {
			rows[s][sym] = ir.Rule{Write: ir.Symbol(pair[0]), Next: ir.State(pair[1])}
		}
	}

	table, err := ir.NewRuleTable(mf.Table.States, symbols, rows)
	if err != nil {
		return ir.MachineSpec{}, &CompileError{
			Field:   "machines.table",
			Message: fmt.Sprintf("machine %d: %v", index, err),
			Pos:     pos,
		}
	}

	spec := ir.MachineSpec{
		Name:        mf.Name,
		Description: mf.Description,
		Table:       table,
	}
	if spec.Name == "" {
		spec.Name = fmt.Sprintf("m%d", index)
	}

	if mf.Tape != nil {
		tape, err := compileTape(*mf.Tape)
		if err != nil {
			return ir.MachineSpec{}, &CompileError{
				Field:   "machines.tape",
				Message: fmt.Sprintf("machine %d: %v", index, err),
				Pos:     pos,
			}
		}
		spec.Tape = tape
	}
	return spec, nil
}

func compileTape(tf tapeFile) (ir.TapeSpec, error) {
	spec := ir.TapeSpec{
		Fill:  ir.Symbol(tf.Fill),
		Cells: toSymbols(tf.Cells),
	}
	if len(tf.Set) > 0 {
		spec.Set = make(map[int]ir.Symbol, len(tf.Set))
		for key, sym := range tf.Set {
			cell, err := strconv.Atoi(key)
			if err != nil {
				return ir.TapeSpec{}, fmt.Errorf("set: cell %q is not an index", key)
			}
			spec.Set[cell] = ir.Symbol(sym)
		}
	}
	return spec, nil
}

func applyConfig(cfg *ir.Config, cf *configFile) {
	if cf.Window != nil {
		cfg.Window = *cf.Window
	}
	if cf.Warmup != nil {
		cfg.Warmup = *cf.Warmup
	}
	if cf.MaxStages != nil {
		cfg.MaxStages = *cf.MaxStages
	}
	if cf.MaxPopulation != nil {
		cfg.MaxPopulation = *cf.MaxPopulation
	}
	if cf.TapeLength != nil {
		cfg.TapeLength = *cf.TapeLength
	}
	if cf.Observe != nil {
		cfg.Observe = ir.ObserveMode(*cf.Observe)
	}
	if cf.TapeMode != nil {
		cfg.TapeMode = ir.TapeMode(*cf.TapeMode)
	}
}

func toSymbols(ints []int) ir.Symbols {
	if len(ints) == 0 {
		return nil
	}
	out := make(ir.Symbols, len(ints))
	for i, v := range ints {
		out[i] = ir.Symbol(v)
	}
	return out
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(field string, err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Field: field, Message: err.Error()}
	}

	first := errs[0]
	ce := &CompileError{Field: field, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
