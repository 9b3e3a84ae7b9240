package core

import "fmt"

// Config is the immutable configuration of a pipeline run.
// Build it with NewConfig or DefaultConfig; accessors hand out copies so
// callers cannot change a Config after construction.
type Config struct {
	subjects []Subject
	columns  []Column
	policy   UnknownLevelPolicy
}

// NewConfig validates subject keys and output columns and returns a Config.
func NewConfig(subjectKeys []string, columns []Column, policy UnknownLevelPolicy) (Config, error) {
	if len(subjectKeys) == 0 {
		return Config{}, fmt.Errorf("config: at least one subject is required")
	}
	subjects, err := ParseSubjects(subjectKeys)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if len(columns) == 0 {
		return Config{}, fmt.Errorf("config: at least one output column is required")
	}
	if err := checkColumns(columns); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if policy == "" {
		policy = PolicyFail
	}
	if _, err := ParsePolicy(string(policy)); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	cols := make([]Column, len(columns))
	copy(cols, columns)
	return Config{subjects: subjects, columns: cols, policy: policy}, nil
}

// DefaultConfig returns the configuration used by the reference exports:
// ELA, Math, Science, the canonical column order, and PolicyFail.
func DefaultConfig() Config {
	return Config{
		subjects: Subjects(),
		columns:  DefaultColumns(),
		policy:   PolicyFail,
	}
}

// Subjects returns the configured subjects in order.
func (c Config) Subjects() []Subject {
	out := make([]Subject, len(c.subjects))
	copy(out, c.subjects)
	return out
}

// Columns returns the configured output columns in order.
func (c Config) Columns() []Column {
	out := make([]Column, len(c.columns))
	copy(out, c.columns)
	return out
}

// Policy returns the unknown performance-level policy.
func (c Config) Policy() UnknownLevelPolicy {
	return c.policy
}

// InputColumns returns the input columns a file must provide for this config:
// the two identity columns followed by three score columns per subject.
func (c Config) InputColumns() []string {
	cols := make([]string, 0, 2+3*len(c.subjects))
	cols = append(cols, IdentityColumn, GradeColumn)
	for _, s := range c.subjects {
		cols = append(cols, s.PerfColumn(), s.ScaledColumn(), s.CPIColumn())
	}
	return cols
}

// Pipeline runs expand, filter, remap, and project, in that order, over one
// file's records. It holds no mutable state and is safe for concurrent use.
type Pipeline struct {
	cfg      Config
	remapper PerformanceLevelRemapper
}

// NewPipeline builds a pipeline from cfg.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if len(cfg.subjects) == 0 || len(cfg.columns) == 0 {
		return nil, fmt.Errorf("pipeline: config has no subjects or columns; use NewConfig or DefaultConfig")
	}
	return &Pipeline{
		cfg:      cfg,
		remapper: PerformanceLevelRemapper{Policy: cfg.policy},
	}, nil
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Run converts records to projected output rows.
func (p *Pipeline) Run(records []InputRecord) ([]OrderedRecord, error) {
	out, _, err := p.RunWithStats(records)
	return out, err
}

// RunWithStats is Run plus per-stage row counts.
func (p *Pipeline) RunWithStats(records []InputRecord) ([]OrderedRecord, RunStats, error) {
	stats := RunStats{InputRows: len(records)}

	expanded := Expand(records, p.cfg.subjects)
	stats.Expanded = len(expanded)

	kept := FilterBlankScores(expanded)
	stats.Dropped = len(expanded) - len(kept)

	remapped, err := p.remapper.Remap(kept)
	if err != nil {
		return nil, stats, fmt.Errorf("remap: %w", err)
	}

	// NewConfig already rejected unknown columns, so this only fails for a
	// Config built outside NewConfig.
	out, err := Project(remapped, p.cfg.columns)
	if err != nil {
		return nil, stats, fmt.Errorf("project: %w", err)
	}
	stats.Output = len(out)

	return out, stats, nil
}
