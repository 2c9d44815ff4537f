// Command levelcheck validates and analyzes .level files.
//
//	levelcheck validate [--dir levels] [FILE...]
//	levelcheck analyze [--json] [--dir levels] [FILE...]
//
// Without FILE arguments every *.level file in --dir is checked. The exit
// status is non-zero when a file fails to parse or, for analyze --strict,
// when the analysis reports warnings.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/snake-game/game/engine"
	"github.com/wricardo/snake-game/game/level"
)

// CheckResult is the outcome of checking one file
type CheckResult struct {
	File     string        `json:"file"`
	Valid    bool          `json:"valid"`
	Error    string        `json:"error,omitempty"`
	Analysis *level.Report `json:"analysis,omitempty"`
}

var errChecksFailed = errors.New("level check failed")

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func dirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "dir",
		Value:   "levels",
		Usage:   "directory scanned when no files are given",
		Sources: cli.EnvVars("LEVELS_DIR"),
	}
}

func newCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "levelcheck",
		Usage:  "validate and analyze snake level files",
		Writer: w,
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "parse each level and report format errors",
				ArgsUsage: "[FILE...]",
				Flags:     []cli.Flag{dirFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					files, err := levelFiles(cmd.String("dir"), cmd.Args().Slice())
					if err != nil {
						return err
					}
					return report(cmd.Root().Writer, checkFiles(files, false), false, false)
				},
			},
			{
				Name:      "analyze",
				Usage:     "report size, reachability and warnings for each level",
				ArgsUsage: "[FILE...]",
				Flags: []cli.Flag{
					dirFlag(),
					&cli.BoolFlag{Name: "json", Usage: "print results as JSON"},
					&cli.BoolFlag{Name: "strict", Usage: "fail when a level has warnings"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					files, err := levelFiles(cmd.String("dir"), cmd.Args().Slice())
					if err != nil {
						return err
					}
					return report(cmd.Root().Writer, checkFiles(files, true), cmd.Bool("json"), cmd.Bool("strict"))
				},
			},
		},
	}
}

// levelFiles returns args when present, otherwise the sorted *.level files in dir
func levelFiles(dir string, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*"+level.Extension))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files in %s", level.Extension, dir)
	}
	sort.Strings(files)
	return files, nil
}

func checkFiles(files []string, analyze bool) []CheckResult {
	results := make([]CheckResult, 0, len(files))
	for _, f := range files {
		results = append(results, checkFile(f, analyze))
	}
	return results
}

func checkFile(path string, analyze bool) CheckResult {
	result := CheckResult{File: filepath.Base(path)}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read file: %v", err)
		return result
	}

	lvl, err := engine.ParseLevel(string(data))
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Valid = true
	if analyze {
		result.Analysis = level.Analyze(lvl)
	}
	return result
}

func report(w io.Writer, results []CheckResult, asJSON, strict bool) error {
	failed := 0
	for _, r := range results {
		if !r.Valid || (strict && r.Analysis != nil && !r.Analysis.OK()) {
			failed++
		}
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			printResult(w, r)
		}
		fmt.Fprintf(w, "\n%d/%d levels passed\n", len(results)-failed, len(results))
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errChecksFailed, failed, len(results))
	}
	return nil
}

func printResult(w io.Writer, r CheckResult) {
	if !r.Valid {
		fmt.Fprintf(w, "✗ %s: %s\n", r.File, r.Error)
		return
	}
	fmt.Fprintf(w, "✓ %s\n", r.File)

	a := r.Analysis
	if a == nil {
		return
	}
	fmt.Fprintf(w, "   Grid: %dx%d, walls %d, free %d, reachable %d\n", a.Width, a.Height, a.Walls, a.Free, a.Reachable)
	fmt.Fprintf(w, "   Head: (%d,%d), length %d, food (%d,%d)\n", a.Head.X, a.Head.Y, a.Length, a.Food.X, a.Food.Y)
	for _, warning := range a.Warnings {
		fmt.Fprintf(w, "   ⚠️  %s\n", warning)
	}
}
