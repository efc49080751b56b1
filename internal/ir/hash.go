package ir

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Domain prefixes for content-addressed digests.
// Version suffix enables future algorithm migration.
const (
	DomainResult     = "ittm/result/v1"
	DomainPopulation = "ittm/population/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ResultDigest computes the digest of a finished run.
//
// Two runs of the same population must produce the same digest; this is
// what replay verifies. The digest covers the outcome, the stage count,
// the rendered halting set and every machine snapshot.
func ResultDigest(outcome Outcome, stages uint64, haltingSet string, machines []MachineSnapshot) (string, error) {
	snaps := make([]any, len(machines))
	for i, m := range machines {
		window := make([]any, len(m.Window))
		for j, s := range m.Window {
			window[j] = int(s)
		}
		snaps[i] = map[string]any{
			"index":         m.Index,
			"name":          m.Name,
			"state":         int(m.State),
			"tape_position": m.TapePosition,
			"personal_step": m.PersonalStep,
			"done":          m.Done,
			"halt_step":     m.HaltStep,
			"verdict":       string(m.Verdict),
			"period":        m.Period,
			"first_stage":   m.FirstStage,
			"fault":         m.Fault,
			"window":        window,
		}
	}

	obj := map[string]any{
		"outcome":     string(outcome),
		"stages":      stages,
		"halting_set": haltingSet,
		"machines":    snaps,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ResultDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainResult, canonical), nil
}

// PopulationDigest computes the content address of a population definition.
func PopulationDigest(p *Population) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("PopulationDigest: failed to marshal: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return "", fmt.Errorf("PopulationDigest: failed to decode: %w", err)
	}

	canonical, err := MarshalCanonical(generic)
	if err != nil {
		return "", fmt.Errorf("PopulationDigest: failed to canonicalize: %w", err)
	}
	return hashWithDomain(DomainPopulation, canonical), nil
}

// MustResultDigest is like ResultDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustResultDigest(outcome Outcome, stages uint64, haltingSet string, machines []MachineSnapshot) string {
	d, err := ResultDigest(outcome, stages, haltingSet, machines)
	if err != nil {
		panic(err)
	}
	return d
}
