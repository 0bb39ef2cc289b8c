package render

import (
	"io"

	json "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/xraph/anvil/features"
)

// Report is the serialized form of a run.
type Report struct {
	Tables  []TableDoc `json:"tables" yaml:"tables"`
	Summary SummaryDoc `json:"summary" yaml:"summary"`
}

// TableDoc is one serialized group.
type TableDoc struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Adapters    []string     `json:"adapters" yaml:"adapters"`
	Features    []FeatureDoc `json:"features" yaml:"features"`
}

// FeatureDoc is one serialized probe row.
type FeatureDoc struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Results     []CellDoc `json:"results" yaml:"results"`
}

// CellDoc is one serialized outcome.
type CellDoc struct {
	Adapter string `json:"adapter" yaml:"adapter"`
	State   string `json:"state" yaml:"state"`
	Text    string `json:"text" yaml:"text"`
	Comment string `json:"comment,omitempty" yaml:"comment,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// SummaryDoc totals every cell.
type SummaryDoc struct {
	Success int `json:"success" yaml:"success"`
	Failure int `json:"failure" yaml:"failure"`
	Concern int `json:"concern" yaml:"concern"`
}

// NewReport converts tables into their serialized form.
func NewReport(tables []*features.Table) Report {
	total := features.Total(tables)
	r := Report{
		Tables: make([]TableDoc, 0, len(tables)),
		Summary: SummaryDoc{
			Success: total.Success,
			Failure: total.Failure,
			Concern: total.Concern,
		},
	}

	for _, t := range tables {
		td := TableDoc{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Adapters:    t.Adapters,
			Features:    make([]FeatureDoc, 0, len(t.Features)),
		}
		for _, f := range t.Features {
			fd := FeatureDoc{
				ID:          f.ID,
				Name:        f.Name,
				Description: f.Description,
				Results:     make([]CellDoc, 0, len(f.Cells)),
			}
			for _, c := range f.Cells {
				cd := CellDoc{
					Adapter: c.Adapter,
					State:   c.State.String(),
					Text:    c.Text,
					Comment: c.Comment,
				}
				if c.Err != nil {
					cd.Error = c.Err.Error()
				}
				fd.Results = append(fd.Results, cd)
			}
			td.Features = append(td.Features, fd)
		}
		r.Tables = append(r.Tables, td)
	}

	return r
}

// YAML renders a Report document.
type YAML struct{}

// Render implements Renderer.
func (y *YAML) Render(w io.Writer, tables []*features.Table) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewReport(tables)); err != nil {
		return err
	}
	return enc.Close()
}

// JSON renders a Report document.
type JSON struct {
	Indent bool
}

// Render implements Renderer.
func (j *JSON) Render(w io.Writer, tables []*features.Table) error {
	enc := json.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	if j.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(NewReport(tables))
}
