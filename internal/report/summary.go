package report

import (
	"encoding/json"
	"io"

	"github.com/roach88/ittm/internal/engine"
	"github.com/roach88/ittm/internal/ir"
)

// Summary is the JSON form of a finished run.
type Summary struct {
	Population   string               `json:"population"`
	Outcome      ir.Outcome           `json:"outcome"`
	Stages       uint64               `json:"stages"`
	HaltingSet   string               `json:"halting_set"`
	Halted       int                  `json:"halted"`
	Size         int                  `json:"size"`
	Digest       string               `json:"digest"`
	Undetermined []int                `json:"undetermined,omitempty"`
	Machines     []ir.MachineSnapshot `json:"machines"`
}

// NewSummary builds the summary of a finished run.
func NewSummary(pop *ir.Population, res *engine.Result) (Summary, error) {
	digest, err := res.Digest()
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Population:   pop.Name,
		Outcome:      res.Outcome,
		Stages:       res.Stages,
		HaltingSet:   res.HaltingSet.String(),
		Halted:       res.Halted(),
		Size:         len(res.Machines),
		Digest:       digest,
		Undetermined: res.Inconclusive(),
		Machines:     res.Machines,
	}, nil
}

// WriteJSON writes the summary as indented JSON.
func WriteJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
