package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mnmetro-config/internal/common/config"
	"github.com/mnmetro-config/internal/common/db"
	"github.com/mnmetro-config/internal/common/logger"
	"github.com/mnmetro-config/internal/common/maintenance"
	"github.com/mnmetro-config/internal/metroconfig/importer"
	"github.com/mnmetro-config/internal/metroconfig/reader"
	"github.com/mnmetro-config/pkg/metro/models"
)

// app carries state shared by all subcommands.
type app struct {
	envFile  string
	filePath string
	cfg      *config.Config
	log      logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "mnmetro",
		Short:         "Query a MnDOT metro_config.xml document",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env", "", "Path to a .env file (defaults to ./.env when present)")
	root.PersistentFlags().StringVarP(&a.filePath, "file", "f", "", "Path to metro_config.xml (overrides MNMETRO_CONFIG_FILE)")

	root.AddCommand(
		a.corridorsCmd(),
		a.nodesCmd(),
		a.nodeCmd(),
		a.statsCmd(),
		a.importCmd(),
	)

	return root
}

func (a *app) init() error {
	var envFiles []string
	if a.envFile != "" {
		envFiles = append(envFiles, a.envFile)
	}
	if err := config.LoadEnv(envFiles...); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.filePath != "" {
		cfg.Metro.FilePath = a.filePath
	}
	if err := cfg.Metro.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.log = logger.NewWithConfig(logger.LoggerConfig{
		Level:           logger.ParseLogLevel(cfg.Logging.Level),
		Console:         true,
		File:            cfg.Logging.FilePath != "",
		FilePath:        cfg.Logging.FilePath,
		MaxSizeMB:       10,
		MaxBackups:      5,
		MaxAgeDays:      30,
		Compress:        true,
		TimeFieldFormat: time.RFC3339,
	})
	return nil
}

func (a *app) openReader() (*reader.Reader, error) {
	return reader.Open(a.cfg.Metro.FilePath, a.log)
}

func (a *app) corridorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "corridors",
		Short: "List corridors in document order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openReader()
			if err != nil {
				return err
			}
			corridors, err := r.ListCorridors()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ROUTE\tDIR")
			for _, c := range corridors {
				fmt.Fprintf(w, "%s\t%s\n", c.Route, c.Direction)
			}
			return w.Flush()
		},
	}
}

func (a *app) nodesCmd() *cobra.Command {
	var (
		route     string
		direction string
		where     []string
		withLen   bool
	)

	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List r_nodes of a corridor, optionally filtered by exact attribute matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			constraints, err := models.ParseConstraints(where)
			if err != nil {
				return err
			}

			r, err := a.openReader()
			if err != nil {
				return err
			}

			corridor := models.Corridor{Route: route, Direction: direction}
			nodes, err := r.FindNodes(corridor, constraints...)
			if err != nil {
				return err
			}

			if err := writeNodes(cmd.OutOrStdout(), nodes); err != nil {
				return err
			}

			if withLen {
				length, err := r.CorridorLength(corridor)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "length: %.0f m\n", length)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&route, "route", "", "Corridor route, e.g. I-35W")
	cmd.Flags().StringVar(&direction, "dir", "", "Corridor direction, e.g. SB")
	cmd.Flags().StringArrayVar(&where, "where", nil, "Exact attribute match field=value (repeatable, ANDed)")
	cmd.Flags().BoolVar(&withLen, "length", false, "Print the corridor length")
	_ = cmd.MarkFlagRequired("route")
	_ = cmd.MarkFlagRequired("dir")

	return cmd
}

func (a *app) nodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "node NAME",
		Short: "Show a single r_node by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openReader()
			if err != nil {
				return err
			}
			n, c, err := r.FindNode(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "corridor: %s\n", c)
			if err := writeNodes(out, []models.Node{n}); err != nil {
				return err
			}
			for _, d := range n.Detectors {
				fmt.Fprintf(out, "  detector %s lane=%s category=%s\n", d.Name, deref(d.Lane), deref(d.Category))
			}
			return nil
		},
	}
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openReader()
			if err != nil {
				return err
			}
			s, err := r.Stats()
			if err != nil {
				return err
			}
			ts, _ := r.TimeStamp()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "time_stamp: %s\n", ts)
			fmt.Fprintf(out, "corridors: %d\nr_nodes: %d\nstations: %d\ndetectors: %d\n",
				s.Corridors, s.Nodes, s.Stations, s.Detectors)
			return nil
		},
	}
}

func (a *app) importCmd() *cobra.Command {
	var (
		force bool
		keep  int
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy corridors and r_nodes into Postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Database.Validate(); err != nil {
				return err
			}

			r, err := a.openReader()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.runImport(ctx, cmd.OutOrStdout(), r, force, keep)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Import even if this time stamp is already active")
	cmd.Flags().IntVar(&keep, "keep", 3, "Inactive versions to keep after import (negative disables cleanup)")
	return cmd
}

func (a *app) runImport(ctx context.Context, out io.Writer, r *reader.Reader, force bool, keep int) error {
	database, err := db.New(ctx, a.cfg.Database.ConnectionString(), a.log)
	if err != nil {
		return err
	}
	defer database.Close()

	imp := importer.NewImporter(database,
		importer.WithBatchSize(a.cfg.Database.BatchSize),
		importer.WithForce(force))

	if err := imp.EnsureSchema(ctx); err != nil {
		return err
	}

	result, err := imp.Import(ctx, r)
	if err != nil {
		return err
	}

	if result.Skipped {
		fmt.Fprintln(out, "already imported")
		return nil
	}
	fmt.Fprintf(out, "version %d: %d corridors, %d r_nodes, %d detectors\n",
		result.VersionID, result.Corridors, result.Nodes, result.Detectors)

	if keep < 0 {
		return nil
	}
	removed, err := maintenance.New(database, a.log).CleanupOldVersions(ctx, keep)
	if err != nil {
		return err
	}
	if len(removed) > 0 {
		fmt.Fprintf(out, "removed %d old versions\n", len(removed))
	}
	return nil
}

func writeNodes(out io.Writer, nodes []models.Node) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tLABEL\tLAT\tLON\tSTATION\tS_LIMIT\tLANES")
	for _, n := range nodes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			n.Name,
			n.Type,
			deref(n.Label),
			formatFloat(n.Latitude),
			formatFloat(n.Longitude),
			deref(n.StationID),
			formatInt(n.SpeedLimit),
			deref(n.Lanes),
		)
	}
	return w.Flush()
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func formatFloat(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatInt(i *int) string {
	if i == nil {
		return "-"
	}
	return strconv.Itoa(*i)
}
