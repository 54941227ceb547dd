package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/reclaim/internal/presentation"
	"github.com/zjrosen/reclaim/internal/recycling"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate ledger statistics",
	Long: `Show the total recycling count, total points awarded, and active class
count as JSON.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		formatter := presentation.NewFormatter(os.Stdout)
		return formatter.FormatResult(presentation.FromStats(rt.Service.GetStats()))
	},
}

var (
	historyActor string
	historyClass string
	historyLast  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show ledger records",
	Long: `Show recorded exchanges as JSON, newest last. Filters are mutually
exclusive.

Examples:
  reclaim history --last 20
  reclaim history --for-actor user:alice
  reclaim history --for-class pet-bottle`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if historyActor != "" && historyClass != "" {
			return fmt.Errorf("--for-actor and --for-class are mutually exclusive")
		}

		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		var records []recycling.Record
		switch {
		case historyActor != "":
			records = rt.Service.HistoryForActor(recycling.Identity(historyActor))
		case historyClass != "":
			records = rt.Service.HistoryForClass(historyClass)
		default:
			records = rt.Service.RecentRecords(historyLast)
		}

		formatter := presentation.NewFormatter(os.Stdout)
		return formatter.FormatRecords(presentation.FromRecords(records))
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyActor, "for-actor", "", "only records by this actor")
	historyCmd.Flags().StringVar(&historyClass, "for-class", "", "only records for this class")
	historyCmd.Flags().IntVar(&historyLast, "last", 50, "number of most recent records when unfiltered")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
}
