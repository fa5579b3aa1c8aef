package cli

import (
	"fmt"

	"github.com/lazypower/lethe/internal/store"
	"github.com/spf13/cobra"
)

var journalLimit int

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect a previous run's journal",
}

var journalEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recorded decay events, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournal()
		if err != nil {
			return err
		}
		defer j.Close()

		events, err := j.DecayEvents(journalLimit)
		if err != nil {
			return err
		}
		for _, ev := range events {
			fmt.Printf("%s  %-12s %s (%d -> %d)\n",
				ev.Timestamp.Format("2006-01-02 15:04:05"), ev.Type, ev.Capability, ev.OldLevel, ev.NewLevel)
		}
		return nil
	},
}

var journalChecksCmd = &cobra.Command{
	Use:   "checks",
	Short: "Show recorded safety checks, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournal()
		if err != nil {
			return err
		}
		defer j.Close()

		checks, err := j.Checks(journalLimit)
		if err != nil {
			return err
		}
		for _, c := range checks {
			fmt.Printf("%s  %-10s active=%d essential=%d  %s\n",
				c.Timestamp.Format("2006-01-02 15:04:05"), c.Status, c.ActiveCount, c.EssentialCount, c.Message)
		}
		return nil
	},
}

var journalHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show recorded health snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournal()
		if err != nil {
			return err
		}
		defer j.Close()

		snaps, err := j.Snapshots(journalLimit)
		if err != nil {
			return err
		}
		for _, s := range snaps {
			fmt.Printf("%s  health=%5.1f%%  active=%d degraded=%d deleted=%d of %d\n",
				s.Timestamp.Format("2006-01-02 15:04:05"), s.Health, s.Active, s.Degraded, s.Deleted, s.Total)
		}
		return nil
	},
}

func openJournal() (*store.Journal, error) {
	path := flagJournalPath
	if path == "" {
		var err error
		path, err = store.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return store.Open(path)
}

var flagJournalPath string

func init() {
	journalCmd.PersistentFlags().IntVar(&journalLimit, "limit", 20, "max rows to show (0 = all)")
	journalCmd.PersistentFlags().StringVar(&flagJournalPath, "path", "", "journal database path (default ~/.lethe/lethe.db)")
	journalCmd.AddCommand(journalEventsCmd)
	journalCmd.AddCommand(journalChecksCmd)
	journalCmd.AddCommand(journalHealthCmd)
}
