package view

import (
	"context"

	"schemaviz/table"
)

// TableRenderer shows one table per entity. It keeps no state.
type TableRenderer struct{}

// NewTableRenderer creates a table renderer.
func NewTableRenderer() *TableRenderer {
	return &TableRenderer{}
}

// Mode returns ModeTable.
func (r *TableRenderer) Mode() Mode {
	return ModeTable
}

// Render builds the tables and their text form.
func (r *TableRenderer) Render(ctx context.Context, req Request) (Frame, error) {
	frame := Frame{Mode: ModeTable, ContentType: "text/plain; charset=utf-8"}
	if req.Dataset == nil {
		frame.Text = table.String(nil)
		return frame, nil
	}
	frame.Tables = table.RenderResolved(req.Dataset)
	frame.Text = table.String(frame.Tables)
	return frame, nil
}

// Resize is a no-op.
func (r *TableRenderer) Resize(Surface) {}

// Close is a no-op.
func (r *TableRenderer) Close() {}
