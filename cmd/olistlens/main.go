package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spektr-org/olistlens/config"
	"github.com/spektr-org/olistlens/engine"
	"github.com/spektr-org/olistlens/facts"
	"github.com/spektr-org/olistlens/helpers"
	"github.com/spektr-org/olistlens/server"
	"github.com/spektr-org/olistlens/session"
)

// ============================================================================
// OLISTLENS CLI — Commerce analytics over an Olist fact package
// ============================================================================

var version = "dev"

var (
	verbose    bool
	configPath string
	dataSource string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "olistlens",
	Short:   "Commerce analytics over an Olist fact package",
	Long:    "olistlens filters, aggregates and ranks a pre-aggregated Olist fact package into executive, operations and customer-satisfaction views.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		switch {
		case err == nil:
			cfg, err = config.Load(path)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
		case configPath != "":
			return err
		default:
			cfg = config.Default()
		}

		if dataSource != "" {
			cfg.Data.Source = dataSource
		}
		if cfg.Quiet() && !verbose {
			log.SetOutput(io.Discard)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&dataSource, "data", "d", "", "Data package: JSON file, URL, SQLite export or CSV directory")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(presetCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("olistlens", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/olistlens/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to point data.source at your fact package.")
		return nil
	},
}

// --- validate command ---

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load the data package and report row counts and metadata coverage",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		printValidation(cmd.OutOrStdout(), store)
		return nil
	},
}

// --- view command ---

var (
	flagFrom     string
	flagTo       string
	flagCountry  string
	flagGrain    string
	flagStates   []string
	flagPayments []string
	flagRank     []string
	flagCategory string
	flagState    string
	flagCell     string
	flagView     string
	flagFormat   string
	flagPanel    string
	flagOut      string
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Compute the view model for a filter, ranking and selection",
	Example: `  olistlens view --data olist.json --from 2017-01-01 --to 2017-12-31 --states SP,RJ
  olistlens view --rank states=bottom:5 --state RJ --format text --view operations
  olistlens view --cell SP:credit_card --format csv --panel cell_orders --out orders.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		ev, err := parseEvents(cmd)
		if err != nil {
			return err
		}
		return render(ev.apply(cmd.Context(), sess))
	},
}

// --- preset command ---

var presetCmd = &cobra.Command{
	Use:       "preset <name>",
	Short:     "Apply a storyline preset: executive, operations or customer-satisfaction",
	Args:      cobra.ExactArgs(1),
	ValidArgs: session.Presets,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		vm, err := sess.Preset(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(vm)
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local JSON server",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(sess, port)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{viewCmd, presetCmd} {
		cmd.Flags().StringVarP(&flagFormat, "format", "f", "json", "Output format: json, pretty, text, csv, chart")
		cmd.Flags().StringVar(&flagPanel, "panel", "", "Panel for text, csv and chart output (default: the view's ranked panel)")
		cmd.Flags().StringVarP(&flagOut, "out", "o", "", "Write output to file instead of stdout")
	}

	viewCmd.Flags().StringVar(&flagFrom, "from", "", "Start date (YYYY-MM-DD)")
	viewCmd.Flags().StringVar(&flagTo, "to", "", "End date (YYYY-MM-DD)")
	viewCmd.Flags().StringVar(&flagCountry, "country", "", "Country filter")
	viewCmd.Flags().StringVar(&flagGrain, "grain", "", "Period grain: day, month, year")
	viewCmd.Flags().StringSliceVar(&flagStates, "states", nil, "Customer states (comma separated)")
	viewCmd.Flags().StringSliceVar(&flagPayments, "payments", nil, "Payment types (comma separated)")
	viewCmd.Flags().StringArrayVar(&flagRank, "rank", nil, "Ranking control panel=mode:n, repeatable")
	viewCmd.Flags().StringVar(&flagCategory, "category", "", "Select a product category")
	viewCmd.Flags().StringVar(&flagState, "state", "", "Select a customer state")
	viewCmd.Flags().StringVar(&flagCell, "cell", "", "Select a state/payment cell as STATE:PAYMENT")
	viewCmd.Flags().StringVar(&flagView, "view", "", "Active view: executive, operations, customer-satisfaction")

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8050, "Port to run server on")
}

// ============================================================================
// HELPERS
// ============================================================================

func openStore(ctx context.Context) (*facts.Store, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := helpers.OpenSource(ctx, cfg.Data.Source, cfg.Data.FetchTimeout)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func openSession(ctx context.Context) (*session.Session, error) {
	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	return session.New(store, cfg.DefaultFilter(), cfg.EngineOptions()...), nil
}

func render(vm *engine.ViewModel) error {
	w := io.Writer(os.Stdout)
	if flagOut != "" {
		f, err := os.Create(flagOut)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := writeOutput(w, vm, flagFormat, flagPanel, cfg.Formatter()); err != nil {
		return err
	}
	if flagOut != "" {
		log.Printf("📄 %s written to %s", flagFormat, flagOut)
	}
	return nil
}
