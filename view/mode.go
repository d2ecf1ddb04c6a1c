package view

import (
	"fmt"
	"strings"
)

// Mode is the view shown by the coordinator.
type Mode int

const (
	ModeLayout  Mode = iota // Force-directed graph
	ModeDiagram             // Entity relationship diagram
	ModeTable               // One table per entity
)

// Modes lists every mode in switching order.
func Modes() []Mode {
	return []Mode{ModeLayout, ModeDiagram, ModeTable}
}

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeLayout:
		return "layout"
	case ModeDiagram:
		return "diagram"
	case ModeTable:
		return "table"
	default:
		return "unknown"
	}
}

// Title returns the name shown in headers.
func (m Mode) Title() string {
	switch m {
	case ModeLayout:
		return "Graph"
	case ModeDiagram:
		return "ER Diagram"
	case ModeTable:
		return "Tables"
	default:
		return "Unknown"
	}
}

// Next returns the mode after m, wrapping around.
func (m Mode) Next() Mode {
	return Mode((int(m) + 1) % len(Modes()))
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m >= ModeLayout && m <= ModeTable
}

// ParseMode converts a name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "layout", "graph", "force":
		return ModeLayout, nil
	case "diagram", "erd", "er":
		return ModeDiagram, nil
	case "table", "tables":
		return ModeTable, nil
	default:
		return 0, fmt.Errorf("unknown view mode: %s", s)
	}
}
