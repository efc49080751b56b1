package store

import (
	"context"
	"fmt"

	"github.com/roach88/ittm/internal/engine"
	"github.com/roach88/ittm/internal/ir"
)

// RunRecord is one archived run.
type RunRecord struct {
	ID               string
	Seq              int64
	Name             string
	Population       *ir.Population
	PopulationDigest string
	Digest           string
	Stages           uint64
	Outcome          ir.Outcome
	HaltingSet       string
	Halted           int
	Size             int
	EngineVersion    string
}

// NewRunRecord builds the archive record for a finished run. ID and Seq are
// assigned by WriteRun.
func NewRunRecord(pop *ir.Population, res *engine.Result) (RunRecord, error) {
	digest, err := res.Digest()
	if err != nil {
		return RunRecord{}, fmt.Errorf("new run record: %w", err)
	}
	popDigest, err := ir.PopulationDigest(pop)
	if err != nil {
		return RunRecord{}, fmt.Errorf("new run record: %w", err)
	}
	return RunRecord{
		Name:             pop.Name,
		Population:       pop,
		PopulationDigest: popDigest,
		Digest:           digest,
		Stages:           res.Stages,
		Outcome:          res.Outcome,
		HaltingSet:       res.HaltingSet.String(),
		Halted:           res.Halted(),
		Size:             len(res.Machines),
		EngineVersion:    ir.EngineVersion,
	}, nil
}

// WriteRun archives a run with its final machine snapshots and optional step
// events in one transaction. The run is assigned a fresh id and the next seq;
// the completed record is returned.
func (s *Store) WriteRun(ctx context.Context, rec RunRecord, machines []ir.MachineSnapshot, steps []engine.StepEvent) (RunRecord, error) {
	popJSON, err := marshalPopulation(rec.Population)
	if err != nil {
		return RunRecord{}, fmt.Errorf("write run: %w", err)
	}

	id, err := s.ids.NewID()
	if err != nil {
		return RunRecord{}, fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RunRecord{}, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return RunRecord{}, fmt.Errorf("write run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, name, population, population_digest, digest, stages, outcome, halting_set, halted, population_size, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		seq,
		rec.Name,
		popJSON,
		rec.PopulationDigest,
		rec.Digest,
		int64(rec.Stages),
		string(rec.Outcome),
		rec.HaltingSet,
		rec.Halted,
		rec.Size,
		rec.EngineVersion,
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("write run: %w", err)
	}

	for _, m := range machines {
		window, err := marshalWindow(m.Window)
		if err != nil {
			return RunRecord{}, fmt.Errorf("write run: machine %d: %w", m.Index, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO machines
			(run_id, idx, name, state, tape_position, personal_step, done, halt_step, verdict, period, first_stage, fault, history)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			id,
			m.Index,
			m.Name,
			int(m.State),
			int64(m.TapePosition),
			int64(m.PersonalStep),
			m.Done,
			int64(m.HaltStep),
			string(m.Verdict),
			m.Period,
			int64(m.FirstStage),
			m.Fault,
			window,
		)
		if err != nil {
			return RunRecord{}, fmt.Errorf("write run: machine %d: %w", m.Index, err)
		}
	}

	for _, ev := range steps {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO steps
			(run_id, stage, machine, personal_step, read_symbol, write_symbol, next_state, verdict)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			id,
			int64(ev.Stage),
			ev.Machine,
			int64(ev.PersonalStep),
			int(ev.Read),
			int(ev.Write),
			int(ev.Next),
			string(ev.Verdict),
		)
		if err != nil {
			return RunRecord{}, fmt.Errorf("write run: step %d/%d: %w", ev.Stage, ev.Machine, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return RunRecord{}, fmt.Errorf("write run: commit: %w", err)
	}

	rec.ID = id
	rec.Seq = seq
	return rec, nil
}
