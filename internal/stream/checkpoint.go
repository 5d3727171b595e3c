package stream

import (
	"fmt"
	"io"

	"github.com/strburst/MinesweeperX/internal/gp"
)

// State is the run-progress snapshot a checkpoint carries alongside the
// configuration and catalog images.
type State struct {
	Run         int
	GoodRuns    int
	Generation  int
	Individuals []*gp.Individual
}

// Save writes a complete checkpoint: configuration, node catalog, run
// counters, population, terminator.
func (c *Codec) Save(out io.Writer, cfg *gp.Config, st *State) error {
	w := newWriter(out)
	c.encodeConfig(w, cfg)
	c.encodeBranchSet(w, c.branches)
	w.i32(int32(st.Run))
	w.i32(int32(st.GoodRuns))
	w.i32(int32(st.Generation))
	c.encodePopulation(w, st.Individuals)
	w.u32(endMarker)
	return w.flush()
}

// Load reads a checkpoint and verifies it belongs to the current run: the
// stored configuration must equal cfg field for field and the stored
// catalog must equal the codec's branch set. Either mismatch, an unknown
// tag, or a missing terminator fails the whole restore.
func (c *Codec) Load(in io.Reader, cfg *gp.Config) (*State, error) {
	r := newReader(in)

	storedCfg, err := c.decodeConfig(r)
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint configuration: %w", err)
	}
	if !storedCfg.Equal(cfg) {
		return nil, fmt.Errorf("%w: stored parameters differ from the current run", ErrConfigMismatch)
	}

	storedBranches, err := c.decodeBranchSet(r)
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint catalog: %w", err)
	}
	if !storedBranches.Equal(c.branches) {
		return nil, fmt.Errorf("%w: stored node sets differ from the current catalog", ErrCatalogMismatch)
	}

	st := &State{}
	st.Run = int(r.i32())
	st.GoodRuns = int(r.i32())
	st.Generation = int(r.i32())
	if r.err != nil {
		return nil, fmt.Errorf("reading run counters: %w", r.err)
	}

	st.Individuals, err = c.decodePopulation(r)
	if err != nil {
		return nil, fmt.Errorf("reading population: %w", err)
	}

	if marker := r.u32(); r.err != nil || marker != endMarker {
		if r.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptStream, r.err)
		}
		return nil, fmt.Errorf("%w: bad terminator %#x", ErrCorruptStream, marker)
	}
	return st, nil
}
