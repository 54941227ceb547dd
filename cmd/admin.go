package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/reclaim/internal/presentation"
	"github.com/zjrosen/reclaim/internal/recycling"
)

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Halt all recycle operations",
	Long: `Halt single and batch recycling. Registry changes, queries, and
emergency rescue stay available while paused.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return setPaused(true)
	},
}

var unpauseCmd = &cobra.Command{
	Use:   "unpause",
	Short: "Resume recycle operations",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return setPaused(false)
	},
}

func setPaused(paused bool) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	actor := recycling.Identity(adminActor())
	if paused {
		err = rt.Service.Pause(actor)
	} else {
		err = rt.Service.Unpause(actor)
	}
	if err != nil {
		return err
	}

	formatter := presentation.NewFormatter(os.Stdout)
	return formatter.FormatResult(map[string]any{"paused": paused})
}

var rescueTo string

var rescueCmd = &cobra.Command{
	Use:   "rescue <class-id> <unit-id>",
	Short: "Move a stuck custodial unit to a recovery identity",
	Long: `Emergency escape hatch for units stranded in custodial holding. The
unit moves to the recovery identity without touching the ledger, and the
command works even while operations are paused.

Example:
  reclaim rescue pet-bottle b-001 --to user:alice`,
	Args: cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		actor := recycling.Identity(adminActor())
		if err := rt.Service.EmergencyRescue(actor, args[0], args[1], recycling.Identity(rescueTo)); err != nil {
			return err
		}

		formatter := presentation.NewFormatter(os.Stdout)
		return formatter.FormatResult(map[string]any{
			"class_id": args[0],
			"unit_id":  args[1],
			"to":       rescueTo,
		})
	},
}

func init() {
	rescueCmd.Flags().StringVar(&rescueTo, "to", "", "recovery identity receiving the unit (required)")
	_ = rescueCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(unpauseCmd)
	rootCmd.AddCommand(rescueCmd)
}
