package testutil

import "github.com/roach88/ittm/internal/ir"

// Config returns the default bounds with the given window, warmup and
// stage budget.
func Config(window, warmup, maxStages int) ir.Config {
	cfg := ir.DefaultConfig()
	cfg.Window = window
	cfg.Warmup = warmup
	cfg.MaxStages = maxStages
	return cfg
}

// Population builds a population with private zero-filled tapes.
func Population(cfg ir.Config, tables ...*ir.RuleTable) *ir.Population {
	return &ir.Population{
		Name:     "test",
		Config:   cfg,
		Machines: Machines(tables...),
	}
}

// SharedPopulation builds a population reading a shared source tape.
func SharedPopulation(cfg ir.Config, source ir.Symbols, tables ...*ir.RuleTable) *ir.Population {
	p := Population(cfg, tables...)
	p.Source = source
	return p
}
