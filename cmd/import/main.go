// Command import converts any supported dataset format into canonical
// schemaviz JSON.
package main

import (
	"flag"
	"fmt"
	"os"

	"schemaviz/export"
	"schemaviz/importer"
	"schemaviz/logging"
	"schemaviz/schema"
)

func main() {
	var (
		inputFile = flag.String("i", "", "Input file path")
		format    = flag.String("f", "", "Input format (json, models, yaml, mermaid, markdown, bson) - auto-detect if not specified")
		output    = flag.String("o", "", "Output file path (default: stdout)")
		outFormat = flag.String("to", "json", "Output format: json or yaml")
		verbose   = flag.Bool("v", false, "Log dropped links and detection details")
	)

	flag.Parse()

	if *inputFile == "" {
		fmt.Fprintf(os.Stderr, "Error: input file required (-i)\n")
		flag.Usage()
		os.Exit(1)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, err := logging.New(level, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	registry := importer.NewRegistry(logger)
	ds, err := registry.ImportFile(*inputFile, *format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing dataset: %v\n", err)
		os.Exit(1)
	}

	exportFormat, err := export.ParseFormat(*outFormat)
	if err != nil || (exportFormat != export.FormatJSON && exportFormat != export.FormatYAML) {
		fmt.Fprintf(os.Stderr, "Error: output format must be json or yaml\n")
		os.Exit(1)
	}
	exporter, err := export.NewExporter(exportFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	data, err := exporter.Export(schema.Resolve(ds, logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error converting dataset: %v\n", err)
		os.Exit(1)
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(data), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Successfully imported %d entities to %s\n", len(ds.Entities), *output)
	} else {
		fmt.Print(data)
	}
}
