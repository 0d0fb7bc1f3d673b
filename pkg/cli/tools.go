package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/getmockd/seedql/pkg/cli/internal/output"
	"github.com/getmockd/seedql/pkg/config"
	"github.com/getmockd/seedql/pkg/graphql"
	"github.com/getmockd/seedql/pkg/merge"
	"github.com/getmockd/seedql/pkg/seed"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ─── validate command ───────────────────────────────────────────────────────

// FileResult is the validation outcome of one seed file.
type FileResult struct {
	File   string   `json:"file"`
	Seeds  int      `json:"seeds"`
	Valid  int      `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate <seed files...>",
	Short: "Validate seed files",
	Long: `Validate the seed records in one or more seed files without starting a
server. Arguments may be glob patterns; ** matches recursively.`,
	Example: `  seedql validate seeds/*.yaml
  seedql validate 'seeds/**/*.json' --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		for _, pattern := range args {
			matches, err := expandPattern(pattern)
			if err != nil {
				return err
			}
			files = append(files, matches...)
		}

		results := make([]FileResult, 0, len(files))
		invalid := 0
		for _, f := range files {
			res := validateSeedFile(f)
			invalid += len(res.Errors)
			results = append(results, res)
		}

		if err := printResult(cmd, results, func() {
			tw := output.Table(cmd.OutOrStdout())
			for _, r := range results {
				if len(r.Errors) == 0 {
					fmt.Fprintf(tw, "ok\t%s\t(%d seeds)\n", r.File, r.Seeds)
					continue
				}
				fmt.Fprintf(tw, "FAIL\t%s\t(%d of %d seeds valid)\n", r.File, r.Valid, r.Seeds)
				for _, e := range r.Errors {
					fmt.Fprintf(tw, "\t  %s\t\n", e)
				}
			}
			_ = tw.Flush()
		}); err != nil {
			return err
		}

		if invalid > 0 {
			return fmt.Errorf("%d invalid seed(s)", invalid)
		}
		return nil
	},
}

func validateSeedFile(path string) FileResult {
	res := FileResult{File: path}
	records, err := config.LoadSeedFile(path)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return res
	}
	res.Seeds = len(records)
	for i, rec := range records {
		kind, err := seed.ParseKind(rec.Kind)
		if err == nil {
			_, err = seed.Validate(rec.GroupID(), kind, rec.Input, rec.Options)
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("seed %d (%s): %v", i, rec.OperationName, err))
			continue
		}
		res.Valid++
	}
	return res
}

// expandPattern expands a glob; a pattern without matches is returned as is
// so the missing file is reported.
func expandPattern(pattern string) ([]string, error) {
	matches, err := config.ExpandGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("expanding %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return []string{pattern}, nil
	}
	sort.Strings(matches)
	return matches, nil
}

// ─── merge command ──────────────────────────────────────────────────────────

var (
	mergeBaselinePath string
	mergePatchPath    string
)

// MergeOutput is the result of an offline merge.
type MergeOutput struct {
	Data     map[string]any  `json:"data"`
	Warnings []merge.Warning `json:"warnings"`
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge a seed patch onto a baseline response offline",
	Long: `Merge a seed's data onto a baseline data tree and print the result with
any warnings. Lists grown with $length repeat the template item, since no
schema is available to re-synthesize new items.

Files may be JSON or YAML. A file holding a "data" key is read as a full
response and its data is used.`,
	Example: `  seedql merge --baseline baseline.json --patch seed.yaml`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		baseline, err := readTree(mergeBaselinePath)
		if err != nil {
			return err
		}
		patch, err := readTree(mergePatchPath)
		if err != nil {
			return err
		}

		engine := merge.NewEngine(merge.DefaultOptions(), newLogger(cmd, "", ""))
		data, warnings, err := engine.Merge(cmd.Context(), baseline, patch, &merge.Context{})
		if err != nil {
			return err
		}
		if warnings == nil {
			warnings = []merge.Warning{}
		}

		result := MergeOutput{Data: data, Warnings: warnings}
		return printResult(cmd, result, func() {
			_ = output.JSON(cmd.OutOrStdout(), result.Data)
			for _, w := range warnings {
				output.Warn(cmd.ErrOrStderr(), "%s", w)
			}
		})
	},
}

// readTree decodes a JSON or YAML object from path, unwrapping a "data"
// key when present.
func readTree(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tree map[string]any
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		err = yaml.Unmarshal(raw, &tree)
	} else {
		err = json.Unmarshal(raw, &tree)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if data, ok := tree["data"]; ok {
		inner, ok := data.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: data must be an object", path)
		}
		return inner, nil
	}
	return tree, nil
}

// ─── rewrite command ────────────────────────────────────────────────────────

var rewriteOperation string

// RewriteOutput is the result of rewriting an operation.
type RewriteOutput struct {
	OperationName string `json:"operationName"`
	Query         string `json:"query"`
}

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <query file|->",
	Short: "Print an operation as the server rewrites it",
	Long: `Print an operation with fragments inlined and __typename added to every
object selection, the form baselines are generated from. Use - to read
the operation from stdin.`,
	Example: `  seedql rewrite queries/owner.graphql
  echo '{ me { name } }' | seedql rewrite -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw []byte
		var err error
		if args[0] == "-" {
			raw, err = io.ReadAll(cmd.InOrStdin())
		} else {
			raw, err = os.ReadFile(args[0])
		}
		if err != nil {
			return err
		}

		rewritten, err := graphql.Rewrite(string(raw), rewriteOperation)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		result := RewriteOutput{OperationName: rewritten.OperationName, Query: rewritten.Query}
		return printResult(cmd, result, func() {
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(result.Query))
		})
	},
}

func init() {
	mergeCmd.Flags().StringVar(&mergeBaselinePath, "baseline", "", "Baseline response or data file")
	mergeCmd.Flags().StringVar(&mergePatchPath, "patch", "", "Seed data file")
	_ = mergeCmd.MarkFlagRequired("baseline")
	_ = mergeCmd.MarkFlagRequired("patch")

	rewriteCmd.Flags().StringVarP(&rewriteOperation, "operation", "o", "", "Operation to select in multi-operation documents")

	rootCmd.AddCommand(validateCmd, mergeCmd, rewriteCmd)
}
