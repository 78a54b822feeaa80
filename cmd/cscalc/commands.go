package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/congenital-syphilis-mcp-server/internal/config"
	"github.com/congenital-syphilis-mcp-server/internal/dataset"
	"github.com/congenital-syphilis-mcp-server/internal/domain"
	"github.com/congenital-syphilis-mcp-server/internal/logging"
	"github.com/congenital-syphilis-mcp-server/internal/service"
)

// cli holds the state shared by every subcommand once flags are parsed.
type cli struct {
	configFile    string
	datasetSource string
	datasetPath   string
	datasetURL    string
	logLevel      string

	cfg    *domain.Config
	logger *logrus.Logger
	ops    *logging.OperationLogger
}

func newRootCmd() *cobra.Command {
	app := &cli{}

	rootCmd := &cobra.Command{
		Use:          "cscalc",
		Short:        "Congenital syphilis outcome evaluator",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.configFile, "config", "", "Path to a config file (default: ./config.yaml if present)")
	flags.StringVar(&app.datasetSource, "dataset-source", "", "Category dataset source: embedded, file, http, or sqlite")
	flags.StringVar(&app.datasetPath, "dataset-path", "", "Dataset file or SQLite database path")
	flags.StringVar(&app.datasetURL, "dataset-url", "", "Dataset document URL")
	flags.StringVar(&app.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(app.evaluateCmd())
	rootCmd.AddCommand(app.classifyCmd())
	rootCmd.AddCommand(app.fourfoldCmd())
	rootCmd.AddCommand(app.categoriesCmd())

	return rootCmd
}

// init loads configuration and applies flag overrides. Logs go to stderr so
// stdout stays machine-readable.
func (a *cli) init(logOut io.Writer) error {
	var (
		manager *config.Manager
		err     error
	)
	if a.configFile != "" {
		manager, err = config.NewManagerWithFile(a.configFile)
	} else {
		manager, err = config.NewManager()
	}
	if err != nil {
		return err
	}

	cfg := manager.GetConfig()
	if a.datasetSource != "" {
		cfg.Dataset.Source = a.datasetSource
	}
	if a.datasetPath != "" {
		cfg.Dataset.Path = a.datasetPath
	}
	if a.datasetURL != "" {
		cfg.Dataset.URL = a.datasetURL
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if cfg.Dataset.Source == domain.DatasetSourceSQLite && cfg.Dataset.Path == "" {
		cfg.Dataset.Path = config.DefaultLiteConfig().SQLitePath()
	}

	a.cfg = cfg
	a.logger = logging.NewWithOutput(cfg.Logging, logOut)
	a.ops = logging.NewOperationLogger(a.logger)
	return nil
}

func (a *cli) newEvaluator() (*service.EvaluationService, func(), error) {
	source, err := dataset.NewSource(a.cfg.Dataset, a.logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	if closer, ok := source.(io.Closer); ok {
		cleanup = func() { closer.Close() }
	}
	return service.NewEvaluationService(a.logger, source), cleanup, nil
}

// run wraps a command body with operation logging.
func (a *cli) run(cmd *cobra.Command, name string, params map[string]interface{}, fn func(ctx context.Context) error) error {
	ctx, opID := a.ops.StartOperation(cmd.Context(), logging.OperationCLICommand, name, params)
	err := fn(ctx)
	a.ops.EndOperation(ctx, opID, err)
	return err
}

func (a *cli) evaluateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run the full evaluation for a case file (JSON or YAML)",
		Long: "Reads an evaluation request with approach, clinical input, titer histories, " +
			"and optional treatment dates, then prints the outcome, recommendations, and trend data.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, "evaluate", map[string]interface{}{"file": file}, func(ctx context.Context) error {
				req, err := readEvaluationRequest(file, cmd.InOrStdin())
				if err != nil {
					return err
				}

				evaluator, cleanup, err := a.newEvaluator()
				if err != nil {
					return err
				}
				defer cleanup()

				result, err := evaluator.Evaluate(ctx, req)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "Case file; - reads JSON from stdin")
	return cmd
}

// readEvaluationRequest decodes a case file, choosing YAML or JSON by
// extension.
func readEvaluationRequest(path string, stdin io.Reader) (*service.EvaluationRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read case file: %w", err)
	}

	req := &service.EvaluationRequest{}
	if path != "-" && dataset.FormatFromPath(path) == dataset.FormatYAML {
		err = yaml.Unmarshal(data, req)
	} else {
		err = json.Unmarshal(data, req)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse case file: %w", err)
	}
	return req, nil
}

type classifyOutput struct {
	Approach           domain.Approach        `json:"approach"`
	Outcome            domain.OutcomeCategory `json:"outcome"`
	OutcomeLabel       string                 `json:"outcome_label"`
	RequiresEvaluation bool                   `json:"requires_evaluation"`
	Warnings           []string               `json:"warnings,omitempty"`
}

func (a *cli) classifyCmd() *cobra.Command {
	var (
		approach string
		raw      domain.RawClinicalInput
		maternal string
		infant   string
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Print the outcome category for the given clinical findings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, "classify", map[string]interface{}{"approach": approach}, func(ctx context.Context) error {
				parsed, err := domain.ParseApproach(approach)
				if err != nil {
					return domain.NewValidationError("approach", "must be conventional or reverse", approach)
				}

				if maternal != "" {
					raw.MaternalTiter = maternal
				}
				if infant != "" {
					raw.InfantTiter = infant
				}
				input, warnings := raw.Normalize()

				outcome := service.Classify(parsed, input)
				return writeJSON(cmd.OutOrStdout(), classifyOutput{
					Approach:           parsed,
					Outcome:            outcome,
					OutcomeLabel:       outcome.String(),
					RequiresEvaluation: outcome.RequiresEvaluation(),
					Warnings:           warnings,
				})
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&approach, "approach", "conventional", "Screening approach: conventional or reverse")
	flags.StringVar(&raw.RPRResult, "rpr", "", "Maternal RPR result: reactive or nonreactive")
	flags.StringVar(&raw.TreponemalTest, "treponemal", "", "Maternal treponemal test: reactive or nonreactive")
	flags.StringVar(&raw.TreatmentHistory, "treatment", "", "Maternal treatment: adequate-before, adequate-during, or inadequate")
	flags.StringVar(&maternal, "maternal-titer", "", "Maternal titer at delivery, e.g. 1:16")
	flags.StringVar(&infant, "infant-titer", "", "Infant titer, e.g. 1:64")
	flags.StringVar(&raw.InfantExam, "exam", "", "Infant physical exam: normal or abnormal")

	return cmd
}

func (a *cli) fourfoldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fourfold INFANT MATERNAL",
		Short: "Report whether the infant titer is fourfold or greater than the maternal titer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, "fourfold", map[string]interface{}{"infant": args[0], "maternal": args[1]}, func(ctx context.Context) error {
				fourfold, err := service.IsFourfoldOrGreaterRaw(args[0], args[1])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
					"infant":   args[0],
					"maternal": args[1],
					"fourfold": fourfold,
				})
			})
		},
	}
}

func (a *cli) categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Inspect and manage the category dataset",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show ID",
		Short: "Print the display content for an outcome code (0-6)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, "categories show", map[string]interface{}{"id": args[0]}, func(ctx context.Context) error {
				id, err := strconv.Atoi(args[0])
				if err != nil || !domain.OutcomeCategory(id).IsValid() {
					return fmt.Errorf("%w: %q", domain.ErrInvalidOutcome, args[0])
				}

				evaluator, cleanup, err := a.newEvaluator()
				if err != nil {
					return err
				}
				defer cleanup()

				content := evaluator.Lookup().Resolve(ctx, domain.OutcomeCategory(id))
				return writeJSON(cmd.OutOrStdout(), content)
			})
		},
	})

	var from, dbPath string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Load a dataset document into a SQLite database",
		Long: "Imports categories from a JSON or YAML document (or the built-in dataset when --from " +
			"is omitted) into the SQLite file used by --dataset-source sqlite.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = config.DefaultLiteConfig().SQLitePath()
			}
			return a.run(cmd, "categories import", map[string]interface{}{"from": from, "db": dbPath}, func(ctx context.Context) error {
				var ds *domain.CategoryDataset
				var err error
				if from == "" {
					ds, err = dataset.NewEmbeddedSource().Load(ctx)
				} else {
					ds, err = dataset.NewFileSource(from).Load(ctx)
				}
				if err != nil {
					return err
				}

				if err := dataset.ImportSQLite(ctx, dbPath, ds); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d categories into %s\n", len(ds.Categories), dbPath)
				return nil
			})
		},
	}
	importCmd.Flags().StringVar(&from, "from", "", "Dataset document to import (default: built-in dataset)")
	importCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default: ~/.cscalc/categories.db)")
	cmd.AddCommand(importCmd)

	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
