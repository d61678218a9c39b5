package output

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/psc-mapa/psc-cli/internal/region"
)

// FailedCode records a postal code whose boundary could not be built.
type FailedCode struct {
	Code  string `yaml:"code"`
	Error string `yaml:"error"`
}

// Report summarizes one build run.
type Report struct {
	GeneratedAt    time.Time      `yaml:"generated_at"`
	Strategy       string         `yaml:"strategy"`
	Points         int            `yaml:"points"`
	Regions        int            `yaml:"regions"`
	TotalAreaKm2   float64        `yaml:"total_area_km2"`
	MethodCounts   map[string]int `yaml:"method_counts"`
	AdjacencyEdges int            `yaml:"adjacency_edges"`
	PaletteSize    int            `yaml:"palette_size"`
	ColorsUsed     int            `yaml:"colors_used"`
	ColorConflicts int            `yaml:"color_conflicts"`
	Failed         []FailedCode   `yaml:"failed_codes,omitempty"`
}

// Summarize fills the region-derived fields of a report.
func Summarize(rep *Report, regions []*region.Region) {
	rep.Regions = len(regions)
	rep.MethodCounts = map[string]int{}
	colors := map[int]struct{}{}
	for _, r := range regions {
		rep.TotalAreaKm2 += r.AreaKm2
		rep.MethodCounts[string(r.Method)]++
		if r.ColorIndex >= 0 {
			colors[r.ColorIndex] = struct{}{}
		}
	}
	rep.ColorsUsed = len(colors)
}

// AddFailure appends a failed code, keeping the list sorted and free of
// duplicates.
func (r *Report) AddFailure(code string, err error) {
	for _, f := range r.Failed {
		if f.Code == code {
			return
		}
	}
	r.Failed = append(r.Failed, FailedCode{Code: code, Error: err.Error()})
	sort.Slice(r.Failed, func(i, j int) bool { return r.Failed[i].Code < r.Failed[j].Code })
}

// WriteReport serializes the report as YAML.
func WriteReport(path string, rep *Report) error {
	data, err := yaml.Marshal(rep)
	if err != nil {
		return eris.Wrap(err, "output: marshal report")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "output: create output dir")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "output: write %s", path)
	}
	zap.L().Info("run report written", zap.String("path", path))
	return nil
}
