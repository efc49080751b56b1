package rulegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/ittm/internal/ir"
)

// Champernowne returns the digits of 1, 2, ..., upTo concatenated.
func Champernowne(upTo int) string {
	var sb strings.Builder
	for n := 1; n <= upTo; n++ {
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String()
}

// Parity maps each decimal digit to d mod 2. Non-digits map to 0.
func Parity(digits string) ir.Symbols {
	out := make(ir.Symbols, len(digits))
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		if c >= '0' && c <= '9' {
			out[i] = ir.Symbol((c - '0') % 2)
		}
	}
	return out
}

// ParseNumbers greedily cuts digits into chunks of four (the last chunk may
// be shorter) and returns at most count of them as integers.
func ParseNumbers(digits string, count int) []int {
	var out []int
	for start := 0; start < len(digits) && len(out) < count; start += 4 {
		end := min(start+4, len(digits))
		n, err := strconv.Atoi(digits[start:end])
		if err != nil {
			break
		}
		out = append(out, n)
	}
	return out
}

// Archetype is a next-state pattern for the factorization generator. The
// written symbol is always the symbol read.
type Archetype string

const (
	ArchetypeCycleProne Archetype = "cycle-prone"
	ArchetypeMixed      Archetype = "mixed"
	ArchetypeHaltProne  Archetype = "halt-prone"
)

var archetypeNext = map[Archetype][2][2]ir.State{
	ArchetypeHaltProne:  {{1, 1}, {2, 2}},
	ArchetypeCycleProne: {{1, 1}, {0, 0}},
	ArchetypeMixed:      {{1, 1}, {2, 0}},
}

// ArchetypeFor selects by factor count mod 4: 0 and 1 are cycle-prone,
// 2 is mixed, 3 is halt-prone.
func ArchetypeFor(factorCount int) Archetype {
	switch factorCount % 4 {
	case 2:
		return ArchetypeMixed
	case 3:
		return ArchetypeHaltProne
	default:
		return ArchetypeCycleProne
	}
}

// Table builds the archetype's 2-state, 2-symbol rule table.
func (a Archetype) Table() *ir.RuleTable {
	next := archetypeNext[a]
	rows := make([][]ir.Rule, 2)
	for s := range rows {
		rows[s] = []ir.Rule{
			{Write: 0, Next: next[s][0]},
			{Write: 1, Next: next[s][1]},
		}
	}
	return ir.MustRuleTable(2, 2, rows)
}

// ChampernowneMachine records how one machine's table was chosen.
type ChampernowneMachine struct {
	Number        int
	Factorization Factorization
	Archetype     Archetype
}

// ChampernowneConfig returns the bounds of the factorization simulation.
func ChampernowneConfig(n int) ir.Config {
	cfg := ir.DefaultConfig()
	cfg.Window = 3
	cfg.Warmup = 30
	cfg.MaxStages = 10000
	cfg.MaxPopulation = max(cfg.MaxPopulation, n)
	return cfg
}

// ChampernownePopulation builds n machines sharing the parity tape of
// Champernowne(upTo). Machine i factorizes the i-th four-digit chunk of the
// same digits, or i+1 when there are fewer chunks.
func ChampernownePopulation(n, upTo int) (*ir.Population, []ChampernowneMachine) {
	digits := Champernowne(upTo)
	numbers := ParseNumbers(digits, n)

	machines := make([]ir.MachineSpec, n)
	info := make([]ChampernowneMachine, n)
	for i := range machines {
		num := i + 1
		if i < len(numbers) {
			num = numbers[i]
		}
		f := Factorize(num)
		arch := ArchetypeFor(f.Count())

		info[i] = ChampernowneMachine{Number: num, Factorization: f, Archetype: arch}
		machines[i] = ir.MachineSpec{
			Name:        fmt.Sprintf("n%d", num),
			Description: fmt.Sprintf("%s %s", f, arch),
			Table:       arch.Table(),
		}
	}

	pop := &ir.Population{
		Name:     "champernowne",
		Config:   ChampernowneConfig(n),
		Source:   Parity(digits),
		Machines: machines,
	}
	return pop, info
}
