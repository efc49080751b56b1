package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ittm/internal/engine"
	"github.com/roach88/ittm/internal/ir"
	"github.com/roach88/ittm/internal/runquery"
)

const runColumns = `id, seq, name, population, population_digest, digest, stages, outcome, halting_set, halted, population_size, engine_version`

// ReadRun retrieves a single run by ID.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE id = ?
	`, id)

	rec, err := scanRun(row)
	if err != nil {
		return RunRecord{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return rec, nil
}

// ListRuns returns all runs ordered by seq. A non-empty name restricts the
// list to runs of that population.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context, name string) ([]RunRecord, error) {
	var q runquery.Query
	if name != "" {
		q.Filter = runquery.Equals{Column: "name", Value: name}
	}
	return s.QueryRuns(ctx, q)
}

// QueryRuns returns the runs matching q ordered by seq.
//
// Returns an empty slice (not nil) if no runs match.
func (s *Store) QueryRuns(ctx context.Context, q runquery.Query) ([]RunRecord, error) {
	suffix, args, err := runquery.Compile(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs`+suffix, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadMachines returns the final snapshots of a run ordered by index.
func (s *Store) ReadMachines(ctx context.Context, runID string) ([]ir.MachineSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, name, state, tape_position, personal_step, done, halt_step, verdict, period, first_stage, fault, history
		FROM machines
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query machines: %w", err)
	}
	defer rows.Close()

	machines := []ir.MachineSnapshot{}
	for rows.Next() {
		var (
			m                               ir.MachineSnapshot
			state                           int
			pos, step, haltStep, firstStage int64
			verdict, window                 string
		)
		if err := rows.Scan(
			&m.Index, &m.Name, &state, &pos, &step, &m.Done, &haltStep,
			&verdict, &m.Period, &firstStage, &m.Fault, &window,
		); err != nil {
			return nil, fmt.Errorf("scan machine: %w", err)
		}
		m.State = ir.State(state)
		m.TapePosition = uint64(pos)
		m.PersonalStep = uint64(step)
		m.HaltStep = uint64(haltStep)
		m.FirstStage = uint64(firstStage)
		m.Verdict = ir.Verdict(verdict)
		if m.Window, err = unmarshalWindow(window); err != nil {
			return nil, err
		}
		machines = append(machines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate machines: %w", err)
	}
	return machines, nil
}

// ReadSteps returns the archived step events of a run in emission order
// (stage, then machine). Runs archived without a trace return an empty slice.
func (s *Store) ReadSteps(ctx context.Context, runID string) ([]engine.StepEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stage, machine, personal_step, read_symbol, write_symbol, next_state, verdict
		FROM steps
		WHERE run_id = ?
		ORDER BY stage ASC, machine ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	steps := []engine.StepEvent{}
	for rows.Next() {
		var (
			ev                engine.StepEvent
			stage, step       int64
			read, write, next int
			verdict           string
		)
		if err := rows.Scan(&stage, &ev.Machine, &step, &read, &write, &next, &verdict); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		ev.Stage = uint64(stage)
		ev.PersonalStep = uint64(step)
		ev.Read = ir.Symbol(read)
		ev.Write = ir.Symbol(write)
		ev.Next = ir.State(next)
		ev.Verdict = ir.Verdict(verdict)
		steps = append(steps, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var (
		rec              RunRecord
		popJSON, outcome string
		stages           int64
	)
	if err := row.Scan(
		&rec.ID, &rec.Seq, &rec.Name, &popJSON, &rec.PopulationDigest, &rec.Digest,
		&stages, &outcome, &rec.HaltingSet, &rec.Halted, &rec.Size, &rec.EngineVersion,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, err
		}
		return RunRecord{}, fmt.Errorf("scan run: %w", err)
	}

	pop, err := unmarshalPopulation(popJSON)
	if err != nil {
		return RunRecord{}, err
	}
	rec.Population = pop
	rec.Stages = uint64(stages)
	rec.Outcome = ir.Outcome(outcome)
	return rec, nil
}
