// Command datui explores tabular datasets from the command line. It loads
// parquet, avro, or csv files, runs a query pipeline over them, and prints
// the result as a table, CSV, or JSON Lines.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/derekwisong/datui/frame"
	"github.com/derekwisong/datui/output"
	"github.com/derekwisong/datui/pipeline"
	"github.com/derekwisong/datui/reader"
	"github.com/derekwisong/datui/template"
)

var (
	queryFlag       = flag.String("q", "", "query (e.g., \"select sym, total: sum price by sym where qty > 0\")")
	formatFlag      = flag.String("f", "table", "Output format: table, csv, jsonl")
	limitFlag       = flag.Int("limit", 0, "Limit number of rows (0 = unlimited)")
	schemaFlag      = flag.Bool("schema", false, "Show the file schema and exit")
	templateFlag    = flag.String("template", "", "Apply a saved template by name, or \"auto\" for the most relevant one")
	templatesFlag   = flag.String("templates-dir", defaultTemplatesDir(), "Directory holding templates.json")
	interactiveFlag = flag.Bool("i", false, "Interactive mode: read queries from stdin")
	verboseFlag     = flag.Bool("v", false, "Verbose logging to stderr")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <file>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Explore parquet, avro, and csv files with a query pipeline.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s data.parquet\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -f csv -q \"select sym, avg price by sym\" trades.parquet\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -template auto trades_2026.csv\n", os.Args[0])
	}

	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: missing file argument\n\n")
		flag.Usage()
		os.Exit(1)
	}
	filename := flag.Arg(0)

	df, err := reader.Load(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Error: file '%s' not found\n", filename)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}

	if *schemaFlag {
		if err := printSchema(df, *formatFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	p := pipeline.New(df)

	if *templateFlag != "" {
		if err := applyTemplate(p, df, filename, *templateFlag, *templatesFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if *queryFlag != "" {
		if err := p.SetQuery(*queryFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing query: %v\n", err)
			fmt.Fprintf(os.Stderr, "\nAvailable columns: %v\n", df.Schema().Names())
			os.Exit(1)
		}
	}

	if *interactiveFlag {
		if err := runInteractive(p); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	result, err := p.Recompute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *limitFlag > 0 && result.Height() > *limitFlag {
		result, err = result.Lazy().Slice(0, *limitFlag).Collect()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	formatter, err := output.New(*formatFlag, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Supported formats: table, csv, jsonl\n")
		os.Exit(1)
	}
	if err := formatter.Format(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
}

// runInteractive reads one query per line from stdin and prints each
// result with the configured formatter. A blank line resets to the
// identity query; "exit" or EOF ends the session. Recomputes run through
// the controller so a query typed while the previous one is still
// materializing simply supersedes it.
func runInteractive(p *pipeline.Pipeline) error {
	logger := log.NewNopLogger()
	if *verboseFlag {
		logger = level.NewFilter(log.NewLogfmtLogger(os.Stderr), level.AllowDebug())
	}
	ctrl := pipeline.NewController(p, logger)
	defer ctrl.Close()

	formatter, err := output.New(*formatFlag, os.Stdout)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprintln(os.Stderr, "Type a query per line (blank line resets, \"exit\" quits).")
	for {
		fmt.Fprint(os.Stderr, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}
		if line == "" {
			p.ClearQuery()
		} else if err := p.SetQuery(line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}

		want := ctrl.Request(context.Background())
		for update := range ctrl.Updates() {
			if update.Generation != want {
				continue
			}
			if update.Err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", update.Err)
			} else if err := formatter.Format(update.Frame); err != nil {
				fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
			}
			break
		}
	}
	return scanner.Err()
}

// applyTemplate restores a saved pipeline configuration. Stages that no
// longer apply to this dataset are reported as warnings and skipped.
func applyTemplate(p *pipeline.Pipeline, df *frame.DataFrame, filename, name, dir string) error {
	mgr, err := template.NewManager(dir)
	if err != nil {
		return err
	}

	var tpl template.Template
	if name == "auto" {
		best, ok := mgr.MostRelevant(filename, df.Schema().Names())
		if !ok {
			return fmt.Errorf("no template matches %s", filename)
		}
		tpl = best
	} else {
		found, ok := mgr.ByName(name)
		if !ok {
			return fmt.Errorf("template %q not found", name)
		}
		tpl = found
	}

	failures := p.Apply(tpl.Settings)
	for _, f := range failures {
		fmt.Fprintf(os.Stderr, "Warning: template stage %s skipped: %v\n", f.Stage, f.Cause)
	}
	if err := mgr.RecordUsage(tpl.ID); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: recording template usage: %v\n", err)
	}
	return nil
}

// printSchema renders the column names and types with the requested
// formatter.
func printSchema(df *frame.DataFrame, format string) error {
	schema := df.Schema()
	names := make([]interface{}, len(schema))
	types := make([]interface{}, len(schema))
	for i, f := range schema {
		names[i] = f.Name
		types[i] = f.Type.String()
	}
	out, err := frame.New(
		frame.NewSeries("name", names),
		frame.NewSeries("type", types),
	)
	if err != nil {
		return err
	}
	formatter, err := output.New(format, os.Stdout)
	if err != nil {
		return err
	}
	return formatter.Format(out)
}

func defaultTemplatesDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "datui")
	}
	return ".datui"
}
