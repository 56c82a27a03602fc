// Package export renders a full tally snapshot with its derived views as JSON or YAML.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/stats"
	"github.com/julianstephens/tally/internal/tracker"
)

// Format is an export encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml, case-insensitively. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want json or yaml)", s)
	}
}

// Document is the exported file
type Document struct {
	GeneratedAt time.Time          `json:"generated_at" yaml:"generated_at"`
	Today       string             `json:"today" yaml:"today"`
	Settings    models.Settings    `json:"settings" yaml:"settings"`
	Habits      []models.Habit     `json:"habits" yaml:"habits"`
	Tasks       []models.Task      `json:"tasks" yaml:"tasks"`
	Goals       []models.Goal      `json:"goals" yaml:"goals"`
	Stats       stats.Bundle       `json:"stats" yaml:"stats"`
	Heatmap     []stats.HeatmapDay `json:"heatmap" yaml:"heatmap"`
}

// FromDashboard builds the export document. Nil collections become empty lists.
func FromDashboard(d tracker.Dashboard, generatedAt time.Time) Document {
	doc := Document{
		GeneratedAt: generatedAt.UTC(),
		Today:       d.Today,
		Settings:    d.Settings,
		Habits:      d.Habits,
		Tasks:       d.Tasks,
		Goals:       d.Goals,
		Stats:       d.Stats,
		Heatmap:     d.Heatmap,
	}
	if doc.Habits == nil {
		doc.Habits = []models.Habit{}
	}
	if doc.Tasks == nil {
		doc.Tasks = []models.Task{}
	}
	if doc.Goals == nil {
		doc.Goals = []models.Goal{}
	}
	if doc.Heatmap == nil {
		doc.Heatmap = []stats.HeatmapDay{}
	}
	return doc
}

// Write encodes doc to w in the given format.
func Write(w io.Writer, doc Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
