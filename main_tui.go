package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"schemaviz/config"
	"schemaviz/export"
	"schemaviz/markdown"
	"schemaviz/schema"
	"schemaviz/server"
	"schemaviz/terminal"
	"schemaviz/view"
)

// runInteractive opens the terminal viewer on a live layout.
func runInteractive(ctx context.Context, cfg *config.Config, mode view.Mode, ds schema.Dataset, filename string) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}

	// Log output would draw over the screen
	logger := zap.NewNop()

	coord := newCoordinator(cfg, true, terminal.Refresher(screen), logger)
	defer coord.Close()
	coord.SetContext(ctx)

	if err := coord.SetDataset(ds); err != nil {
		screen.Fini()
		return err
	}
	if err := coord.SelectMode(mode); err != nil {
		screen.Fini()
		return err
	}

	viewer := terminal.NewViewer(screen, coord, filepath.Base(filename), logger)
	return viewer.Run(ctx)
}

// runServer serves the views until ctx ends.
func runServer(ctx context.Context, cfg *config.Config, addr string, mode view.Mode, ds schema.Dataset, logger *zap.Logger) error {
	hub := server.NewHub(logger.Named("hub"))
	coord := newCoordinator(cfg, true, hub.Notify, logger)
	defer coord.Close()
	coord.SetContext(ctx)

	if err := coord.SetDataset(ds); err != nil {
		return err
	}
	if err := coord.SelectMode(mode); err != nil {
		return err
	}

	srv := server.New(coord, hub, server.Options{
		Addr:   firstNonEmpty(addr, cfg.Server.Addr),
		Logger: logger.Named("server"),
	})
	return srv.ListenAndServe(ctx)
}

// runMarkdownUpdate replaces an erDiagram block of a Markdown document with
// the diagram generated from ds.
func runMarkdownUpdate(filename string, blockIndex int, ds schema.Dataset, outputFile string, logger *zap.Logger) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading markdown file: %w", err)
	}

	scanner := markdown.NewScanner(string(content))
	blocks := scanner.ERDiagrams()
	if len(blocks) == 0 {
		return fmt.Errorf("no erDiagram blocks found in %s", filename)
	}

	var selected markdown.Block
	switch {
	case blockIndex > 0:
		if blockIndex > len(blocks) {
			return fmt.Errorf("block index %d is out of range (found %d blocks)", blockIndex, len(blocks))
		}
		selected = blocks[blockIndex-1]
	case len(blocks) == 1:
		selected = blocks[0]
	default:
		for i, b := range blocks {
			fmt.Fprintln(os.Stderr, markdown.Describe(b, i))
		}
		return fmt.Errorf("multiple erDiagram blocks found, please specify which one with -block")
	}

	source, err := export.NewMermaidExporter().Export(schema.Resolve(ds, logger))
	if err != nil {
		return fmt.Errorf("generating diagram: %w", err)
	}
	updated, err := scanner.ReplaceBlock(selected, source)
	if err != nil {
		return fmt.Errorf("replacing block: %w", err)
	}

	if outputFile == "" {
		outputFile = filename
	}
	if err := os.WriteFile(outputFile, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing markdown file: %w", err)
	}
	logger.Info("markdown block updated",
		zap.String("file", outputFile),
		zap.Int("line", selected.StartLine+1))
	return nil
}
