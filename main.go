package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"schemaviz/config"
	"schemaviz/erd"
	"schemaviz/export"
	"schemaviz/importer"
	"schemaviz/logging"
	"schemaviz/schema"
	"schemaviz/validation"
	"schemaviz/view"
)

func main() {
	var (
		viewName    = flag.String("view", "", "View to render: layout, diagram, table (default from config)")
		format      = flag.String("format", "text", "Output format: text, svg, or an export format (mermaid, markdown, json, yaml, table)")
		outputFile  = flag.String("o", "", "Output file (default: stdout)")
		interactive = flag.Bool("i", false, "Interactive terminal viewer")
		serveAddr   = flag.String("serve", "", "Serve views over HTTP on this address (e.g. :8080)")
		inputFormat = flag.String("input-format", "", "Input format: json, models, yaml, mermaid, markdown, bson (auto-detect if not specified)")
		configFile  = flag.String("config", "", "Config file (default: ./schemaviz.yaml if present)")
		ticks       = flag.Int("ticks", 0, "Maximum layout ticks for static renders (default from config)")
		engine      = flag.String("engine", "", "Diagram engine: source or mmdc (default from config)")
		validate    = flag.Bool("validate", false, "Report dataset problems and exit")
		markdownDoc = flag.String("markdown", "", "Regenerate an erDiagram block in this Markdown file from the dataset")
		blockIndex  = flag.Int("block", 0, "Which erDiagram block to regenerate (1-based, 0 = the only one)")
		help        = flag.Bool("help", false, "Show help")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] dataset-file\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Visualizes collections and their relationships as a force layout,\n")
		fmt.Fprintf(os.Stderr, "an ER diagram or attribute tables.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s schema.json                         # Force layout as text\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -view table schema.yaml             # Attribute tables\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -view layout -format svg -o g.svg schema.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -format mermaid schema.json         # erDiagram source\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -i samples.json                     # Interactive viewer\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -serve :8080 models.json            # HTTP + websocket\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -markdown README.md schema.json     # Update erDiagram block\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  cat schema.mmd | %s -input-format mermaid -\n", os.Args[0])
	}

	flag.Parse()

	if *help {
		flag.Usage()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "Error: Please provide a dataset file (or - for stdin)\n\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *engine != "" {
		cfg.Diagram.Engine = *engine
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *ticks > 0 {
		cfg.Layout.MaxTicks = *ticks
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ds, err := loadDataset(args[0], *inputFormat, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *validate {
		if !report(os.Stdout, ds) {
			os.Exit(1)
		}
		os.Exit(0)
	}

	if *markdownDoc != "" {
		if err := runMarkdownUpdate(*markdownDoc, *blockIndex, ds, *outputFile, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	mode, err := view.ParseMode(firstNonEmpty(*viewName, cfg.View.Mode))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *serveAddr != "":
		err = runServer(ctx, cfg, *serveAddr, mode, ds, logger)
	case *interactive:
		err = runInteractive(ctx, cfg, mode, ds, args[0])
	default:
		err = runRender(ctx, cfg, mode, *format, ds, *outputFile, logger)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadDataset imports a file, or stdin when filename is "-".
func loadDataset(filename, inputFormat string, logger *zap.Logger) (schema.Dataset, error) {
	registry := importer.NewRegistry(logger.Named("import"))
	if filename != "-" {
		return registry.ImportFile(filename, inputFormat)
	}

	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("reading stdin: %w", err)
	}
	return registry.ImportWithFormat(content, inputFormat)
}

// report prints validation issues and returns false if any is an error.
func report(w io.Writer, ds schema.Dataset) bool {
	issues := validation.NewDatasetValidator().Validate(ds)
	if len(issues) == 0 {
		fmt.Fprintln(w, "No problems found")
		return true
	}
	for _, issue := range issues {
		fmt.Fprintln(w, issue.Error())
	}
	return !validation.HasErrors(issues)
}

// runRender writes one view, or an export, to stdout or a file.
func runRender(ctx context.Context, cfg *config.Config, mode view.Mode, format string, ds schema.Dataset, outputFile string, logger *zap.Logger) error {
	var output []byte

	switch format {
	case "text", "svg":
		coord := newCoordinator(cfg, false, nil, logger)
		defer coord.Close()
		coord.SetContext(ctx)
		if err := coord.SetDataset(ds); err != nil {
			return err
		}

		renderFormat := view.FormatText
		if format == "svg" {
			renderFormat = view.FormatSVG
		}
		frame := coord.RenderAs(ctx, mode, renderFormat)
		if frame.Err != nil {
			return fmt.Errorf("%s view: %w", mode, frame.Err)
		}
		if frame.Body != nil {
			output = frame.Body
		} else {
			output = []byte(frame.Text + "\n")
		}

	default:
		exportFormat, err := export.ParseFormat(format)
		if err != nil {
			return fmt.Errorf("invalid format: %w", err)
		}
		exporter, err := export.NewExporter(exportFormat)
		if err != nil {
			return fmt.Errorf("creating exporter: %w", err)
		}
		text, err := exporter.Export(schema.Resolve(ds, logger))
		if err != nil {
			return fmt.Errorf("exporting dataset: %w", err)
		}
		output = []byte(text)
	}

	if outputFile == "" {
		_, err := os.Stdout.Write(output)
		return err
	}
	if err := os.WriteFile(outputFile, output, 0o644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}

// newCoordinator builds a coordinator from the configuration.
func newCoordinator(cfg *config.Config, live bool, onChange func(), logger *zap.Logger) *view.Coordinator {
	var eng erd.Engine
	if cfg.Diagram.Engine == "mmdc" {
		eng = erd.NewCLIEngine(cfg.CLIEngineSettings(), logger.Named("mmdc"))
	}

	return view.New(view.Options{
		Layout:   cfg.LayoutSettings(),
		Live:     live,
		Interval: cfg.Layout.Interval,
		FPS:      cfg.Layout.FPS,
		Ticks:    cfg.Layout.MaxTicks,
		Engine:   eng,
		Diagram:  cfg.DiagramSettings(),
		Surface:  view.Surface{Cols: cfg.View.Cols, Rows: cfg.View.Rows},
		Logger:   logger,
		OnChange: onChange,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
