package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/ittm/internal/ir"
)

// marshalPopulation converts a population to JSON TEXT for storage.
// Rule tables serialize through ir.RuleTable's own JSON form, so the
// decoded population is validated again on read.
func marshalPopulation(pop *ir.Population) (string, error) {
	data, err := json.Marshal(pop)
	if err != nil {
		return "", fmt.Errorf("marshal population: %w", err)
	}
	return string(data), nil
}

func unmarshalPopulation(data string) (*ir.Population, error) {
	var pop ir.Population
	if err := json.Unmarshal([]byte(data), &pop); err != nil {
		return nil, fmt.Errorf("unmarshal population: %w", err)
	}
	return &pop, nil
}

// marshalWindow stores a history window as canonical JSON (an integer array).
func marshalWindow(w ir.Symbols) (string, error) {
	items := make([]any, len(w))
	for i, s := range w {
		items[i] = int(s)
	}
	data, err := ir.MarshalCanonical(items)
	if err != nil {
		return "", fmt.Errorf("marshal window: %w", err)
	}
	return string(data), nil
}

func unmarshalWindow(data string) (ir.Symbols, error) {
	var w ir.Symbols
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return nil, fmt.Errorf("unmarshal window: %w", err)
	}
	return w, nil
}
