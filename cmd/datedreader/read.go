package main

import (
	"bufio"
	"errors"
	"fmt"

	"datedreader/pkg/checkpoint"
	"datedreader/pkg/logger"
	"datedreader/pkg/reader"
	"datedreader/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	// Read command flags
	fromDate   string
	dateFormat string
	location   string
	forceDate  bool
	strict     bool
	showStats  bool
)

// readCmd represents the read command
var readCmd = &cobra.Command{
	Use:   "read <template>...",
	Short: "Print new lines from dated files since the last run",
	Long: `Print every line written to the files named by each template since the
previous run, then remember how far it got.

Each template is read from its checkpoint through today's file. Without a
checkpoint the read starts at --from (default: today). All templates share
one session: checkpoints are loaded once before reading and saved once after,
including when a read fails.

Lines go to stdout; status and logs go to stderr.`,
	Example: `  # Follow up on today's application log
  datedreader read '/var/log/app/{date}.log' --date-format %Y-%m-%d

  # Catch up from the start of the month, nested year/month/day directories
  datedreader read '/data/{date}/events.log' --from 2024-01-01

  # Re-read ignoring the stored checkpoint
  datedreader read '/var/log/app/{date}.log' --from 2024-01-01 --force

  # Keep checkpoints in SQLite
  datedreader read '/var/log/app/{date}.log' --store sqlite --store-path ./cp.db`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)

	readCmd.Flags().StringVar(&fromDate, "from", "", "start date YYYY-MM-DD when there is no checkpoint (default: today)")
	readCmd.Flags().StringVar(&dateFormat, "date-format", "", "strftime pattern substituted for {date} (default: %Y/%m/%d)")
	readCmd.Flags().StringVar(&location, "location", "", "time zone deciding what today is (default: Local)")
	readCmd.Flags().BoolVar(&forceDate, "force", false, "ignore stored checkpoints and start at --from")
	readCmd.Flags().BoolVar(&strict, "strict", false, "fail on templates without a {date} placeholder")
	readCmd.Flags().BoolVar(&showStats, "stats", false, "print a per-template summary to stderr")
}

func runRead(cmd *cobra.Command, args []string) error {
	extra := map[string]interface{}{
		"date-format": dateFormat,
		"location":    location,
	}
	if cmd.Flags().Changed("strict") {
		extra["strict"] = strict
	}
	cfg, err := loadConfig(extra)
	if err != nil {
		return err
	}

	opts := reader.ReadOptions{
		DateFormat: cfg.Reader.DateFormat,
		ForceDate:  forceDate,
	}
	if fromDate != "" {
		from, err := checkpoint.ParseDate(fromDate)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		opts.FromDate = &from
	}
	if forceDate && opts.FromDate == nil {
		ui.PrintWarning("--force without --from restarts every template at the beginning of today")
	}

	loc, err := cfg.Reader.LoadLocation()
	if err != nil {
		return err
	}

	store, err := checkpoint.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint store: %w", err)
	}
	defer store.Close()

	log := logger.GetLogger().WithField("component", "read")
	logger.LogComponentStart("read", map[string]interface{}{
		"templates": len(args),
		"store":     cfg.Store.Driver,
		"force":     forceDate,
	})

	out := bufio.NewWriter(cmd.OutOrStdout())
	tracker := ui.NewStatusTracker()

	err = reader.WithSession(store, func(s *reader.Session) error {
		var readErrs []error
		for _, template := range args {
			if err := readTemplate(s, template, opts, out, log, tracker); err != nil {
				// A failed template does not stop the others
				readErrs = append(readErrs, fmt.Errorf("%s: %w", template, err))
			}
		}
		return errors.Join(readErrs...)
	},
		reader.WithLocation(loc),
		reader.WithStrictTemplates(cfg.Reader.StrictTemplates),
		reader.WithLogger(log),
	)

	if ferr := out.Flush(); ferr != nil {
		err = errors.Join(err, fmt.Errorf("write output: %w", ferr))
	}
	if showStats {
		tracker.PrintSummary()
	}
	return err
}

func readTemplate(s *reader.Session, template string, opts reader.ReadOptions, out *bufio.Writer, log logger.Logger, tracker *ui.StatusTracker) error {
	lines, err := s.ReadDatedFiles(template, opts)
	if err != nil {
		tracker.Record(template, 0, 0, err)
		return err
	}
	defer lines.Close()

	for lines.Next() {
		if _, err := fmt.Fprintln(out, lines.Text()); err != nil {
			// Abandon: the checkpoint stays where it was so nothing is lost
			tracker.Record(template, lines.Count(), lines.Files(), err)
			return fmt.Errorf("write output: %w", err)
		}
	}

	err = lines.Err()
	logger.LogReadSummary(log, template, lines.Count(), lines.Files(), err)
	tracker.Record(template, lines.Count(), lines.Files(), err)
	return err
}
