package engine

import (
	"errors"

	"github.com/roach88/ittm/internal/ir"
)

// machine is the mutable record of one population member.
// It is only ever touched by the goroutine stepping it.
type machine struct {
	index int
	name  string
	table *ir.RuleTable
	tape  Tape

	state        ir.State
	position     uint64
	personalStep uint64
	haltStep     uint64
	done         bool
	verdict      ir.Verdict
	period       int
	firstStage   uint64
	fault        string

	history *History
}

func newMachine(index int, spec ir.MachineSpec, tape Tape, window int) *machine {
	return &machine{
		index:   index,
		name:    spec.Name,
		table:   spec.Table,
		tape:    tape,
		verdict: ir.VerdictPending,
		history: NewHistory(window),
	}
}

// StepEvent describes one machine step. Observers receive events in
// ascending machine order within a stage.
type StepEvent struct {
	Stage        uint64
	Machine      int
	PersonalStep uint64 // after the step
	Read         ir.Symbol
	Write        ir.Symbol
	Next         ir.State
	Verdict      ir.Verdict
	Period       int

	// Err is the isolated fault that stopped the machine, if any.
	Err error
}

// step executes exactly one step. The caller guarantees the machine is not done.
func (m *machine) step(stage uint64, observe ir.ObserveMode, oracle LoopOracle, halting *HaltingSet) StepEvent {
	if m.firstStage == 0 {
		m.firstStage = stage
		m.verdict = ir.VerdictRunning
	}
	ev := StepEvent{Stage: stage, Machine: m.index}

	sym, err := m.tape.Read(m.position)
	if err != nil {
		return m.faulted(ev, NewTapeFault(m.index, stage, m.position, err))
	}
	ev.Read = sym

	rule, err := m.table.Lookup(m.state, sym)
	if err != nil {
		if errors.Is(err, ir.ErrSymbolOutOfRange) {
			return m.faulted(ev, NewSymbolFault(m.index, stage, int(sym), m.table.NumSymbols(), err))
		}
		return m.faulted(ev, NewConfigError(m.index, err))
	}

	obs := uint8(rule.Write)
	if observe == ir.ObserveState {
		obs = uint8(rule.Next)
	}
	m.history.Record(m.personalStep, obs)

	if err := m.tape.Write(m.position, rule.Write); err != nil {
		return m.faulted(ev, NewTapeFault(m.index, stage, m.position, err))
	}
	m.state = rule.Next
	m.position++
	m.personalStep++
	m.haltStep = m.personalStep

	switch {
	case rule.Next == m.table.HaltState():
		m.done = true
		m.verdict = ir.VerdictHalted
		halting.Mark(m.index)
	default:
		if p, ok := oracle.DetectPeriod(m.history, m.personalStep); ok {
			m.done = true
			m.verdict = ir.VerdictLooped
			m.period = p
		}
	}

	ev.PersonalStep = m.personalStep
	ev.Write = rule.Write
	ev.Next = rule.Next
	ev.Verdict = m.verdict
	ev.Period = m.period
	return ev
}

// faulted forces the machine done without a halting bit.
func (m *machine) faulted(ev StepEvent, err *RuntimeError) StepEvent {
	m.done = true
	m.verdict = ir.VerdictFaulted
	m.haltStep = m.personalStep
	m.fault = err.Error()

	ev.PersonalStep = m.personalStep
	ev.Next = m.state
	ev.Verdict = m.verdict
	ev.Err = err
	return ev
}

func (m *machine) snapshot() ir.MachineSnapshot {
	return ir.MachineSnapshot{
		Index:        m.index,
		Name:         m.name,
		State:        m.state,
		TapePosition: m.position,
		PersonalStep: m.personalStep,
		Done:         m.done,
		HaltStep:     m.haltStep,
		Verdict:      m.verdict,
		Period:       m.period,
		FirstStage:   m.firstStage,
		Fault:        m.fault,
		Window:       m.history.Window(),
	}
}
