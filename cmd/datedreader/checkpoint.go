package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"datedreader/pkg/checkpoint"
	"datedreader/pkg/ui"

	"github.com/spf13/cobra"
)

var resetAll bool

// checkpointCmd represents the checkpoint command
var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect and manage stored checkpoints",
}

var checkpointShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List every template with the date and byte offset reached",
	Args:  cobra.NoArgs,
	RunE:  runCheckpointShow,
}

var checkpointResetCmd = &cobra.Command{
	Use:   "reset [template]...",
	Short: "Forget checkpoints so the next read starts at --from",
	Example: `  datedreader checkpoint reset '/var/log/app/{date}.log'
  datedreader checkpoint reset --all`,
	RunE: runCheckpointReset,
}

var checkpointBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy the JSON checkpoint file next to itself as <file>.backup",
	Args:  cobra.NoArgs,
	RunE:  runCheckpointBackup,
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointShowCmd)
	checkpointCmd.AddCommand(checkpointResetCmd)
	checkpointCmd.AddCommand(checkpointBackupCmd)

	checkpointResetCmd.Flags().BoolVar(&resetAll, "all", false, "remove every checkpoint")
}

func openStore() (checkpoint.Store, error) {
	cfg, err := loadConfig(nil)
	if err != nil {
		return nil, err
	}
	store, err := checkpoint.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint store: %w", err)
	}
	return store, nil
}

func runCheckpointShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	table, err := store.Load()
	if err != nil {
		return err
	}
	if len(table) == 0 {
		ui.PrintInfo("Checkpoints", "none")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TEMPLATE\tDATE\tOFFSET")
	for _, template := range table.Templates() {
		e := table[template]
		fmt.Fprintf(w, "%s\t%s\t%d\n", template, e.Date, e.Offset)
	}
	return w.Flush()
}

func runCheckpointReset(cmd *cobra.Command, args []string) error {
	if !resetAll && len(args) == 0 {
		return errors.New("name at least one template, or pass --all")
	}
	if resetAll && len(args) > 0 {
		return errors.New("--all does not take templates")
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	table, err := store.Load()
	if err != nil {
		return err
	}

	var removed, missing []string
	if resetAll {
		removed = table.Templates()
		table = checkpoint.NewTable()
	} else {
		for _, template := range args {
			if _, ok := table.Get(template); !ok {
				missing = append(missing, template)
				continue
			}
			table.Delete(template)
			removed = append(removed, template)
		}
	}

	if err := store.Save(table); err != nil {
		return fmt.Errorf("failed to save checkpoints: %w", err)
	}

	if len(missing) > 0 {
		ui.PrintWarning("No checkpoint stored for")
		ui.PrintList(missing)
	}
	ui.PrintSuccess(fmt.Sprintf("Removed %d checkpoint(s)", len(removed)))
	ui.PrintList(removed)
	return nil
}

func runCheckpointBackup(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	fs, ok := store.(*checkpoint.FileStore)
	if !ok {
		return fmt.Errorf("backup is only supported for the json store")
	}

	path, err := fs.Backup()
	if err != nil {
		return err
	}
	if path == "" {
		ui.PrintWarning("No checkpoint file to back up", fs.Path())
		return nil
	}
	ui.PrintSuccess("Backup written: " + path)
	return nil
}
