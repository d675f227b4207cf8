package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/factlens/factlens/internal/model"
)

// Renderer writes reports to their output projections. Rendering is a
// pure function of the report; it never modifies it.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON to the given path
func (r *Renderer) RenderJSON(report *model.ResearchReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write JSON report: %w", err)
	}
	return nil
}

// WriteJSON writes the report as indented JSON to the given writer
func (r *Renderer) WriteJSON(w io.Writer, report *model.ResearchReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
