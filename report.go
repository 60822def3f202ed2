package ledgerlens

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ledgerlens/ledgerlens/engine"
	"github.com/ledgerlens/ledgerlens/schema"
)

// ReportSpec is the declarative description of one report: which objects and
// fields to select, how to filter the resulting rows, and which metric
// formula to compute over which time range. It is what the visual composer
// produces and what this library consumes.
type ReportSpec struct {
	Title string `yaml:"title,omitempty"`

	// Objects lists the selected entities. The first is the primary object:
	// every result row corresponds to one of its records.
	Objects []string `yaml:"objects"`

	// Fields are the selected columns, in display order.
	Fields []schema.FieldRef `yaml:"fields"`

	// Derived are computed columns appended to each row view.
	Derived []engine.DerivedField `yaml:"derived,omitempty"`

	// Filters restrict the row views shown in tables. Metric blocks carry
	// their own independent filters.
	Filters engine.FilterGroup `yaml:"filters,omitempty"`

	// Metrics is the optional formula to compute over the time range.
	Metrics *engine.Formula `yaml:"metrics,omitempty"`

	Time TimeRange `yaml:"time"`

	// MaxBuckets overrides the series-length cap. Zero uses the default.
	MaxBuckets int `yaml:"maxBuckets,omitempty"`
}

// TimeRange bounds a report, with an optional explicit granularity.
type TimeRange struct {
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
	Granularity string `yaml:"granularity,omitempty"`
}

// LoadReport reads a report spec from a YAML file.
func LoadReport(path string) (*ReportSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report file: %w", err)
	}

	return ParseReport(data)
}

// ParseReport builds a report spec from YAML bytes.
func ParseReport(data []byte) (*ReportSpec, error) {
	var spec ReportSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}

	return &spec, nil
}

// Validate checks the spec against a catalog. Unlike engine computation,
// which degrades softly, validation fails hard: a spec that names unknown
// objects or an inverted time range is a caller bug worth surfacing early.
func (s *ReportSpec) Validate(catalog *schema.Catalog) error {
	if len(s.Objects) == 0 {
		return ErrNoObjects
	}

	for _, name := range s.Objects {
		if _, ok := catalog.Object(name); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownObject, name)
		}
	}

	for _, ref := range s.Fields {
		if err := validateFieldRef(catalog, ref); err != nil {
			return err
		}
	}

	if _, _, err := s.Range(); err != nil {
		return err
	}

	if s.Time.Granularity != "" {
		if _, err := engine.ParseGranularity(s.Time.Granularity); err != nil {
			return err
		}
	}

	if s.Metrics != nil && s.Metrics.Calculation != nil {
		ids := make(map[string]bool, len(s.Metrics.Blocks))
		for _, b := range s.Metrics.Blocks {
			ids[b.ID] = true
		}

		calc := s.Metrics.Calculation
		for _, operand := range []string{calc.LeftOperand, calc.RightOperand} {
			if !ids[operand] {
				return fmt.Errorf("%w: %q", ErrUnknownBlock, operand)
			}
		}
	}

	return nil
}

// validateFieldRef accepts derived.* refs without catalog lookup; everything
// else must exist in the schema.
func validateFieldRef(catalog *schema.Catalog, ref schema.FieldRef) error {
	if ref.Object == "derived" {
		return nil
	}

	obj, ok := catalog.Object(ref.Object)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownObject, ref.Object)
	}
	if obj.Field(ref.Field) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownField, ref.Qualified())
	}

	return nil
}

// Range parses the spec's time bounds.
func (s *ReportSpec) Range() (start, end time.Time, err error) {
	start, err = time.Parse("2006-01-02", s.Time.Start)
	if err != nil {
		return start, end, fmt.Errorf("%w: start %q", ErrInvalidTimeRange, s.Time.Start)
	}

	end, err = time.Parse("2006-01-02", s.Time.End)
	if err != nil {
		return start, end, fmt.Errorf("%w: end %q", ErrInvalidTimeRange, s.Time.End)
	}

	if end.Before(start) {
		return start, end, fmt.Errorf("%w: end precedes start", ErrInvalidTimeRange)
	}

	return start, end, nil
}

// ResolveGranularity returns the explicit granularity, or a suggestion
// derived from the range's span when the spec leaves it unset.
func (s *ReportSpec) ResolveGranularity() engine.Granularity {
	if s.Time.Granularity != "" {
		if g, err := engine.ParseGranularity(s.Time.Granularity); err == nil {
			return g
		}
	}

	start, end, err := s.Range()
	if err != nil {
		return engine.GranularityMonth
	}

	return engine.SuggestGranularity(start, end)
}
