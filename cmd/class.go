package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/reclaim/internal/assetclass"
	"github.com/zjrosen/reclaim/internal/presentation"
	"github.com/zjrosen/reclaim/internal/recycling"
)

var classRate uint64

var classRegisterCmd = &cobra.Command{
	Use:   "class:register <class-id>",
	Short: "Register a recyclable asset class",
	Long: `Register an asset class at a given points-per-unit rate and mark it
active. Registering a previously deactivated class reactivates it and
keeps its recorded history.

Examples:
  reclaim class:register pet-bottle --rate 10
  reclaim class:register glass -r 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		classID := args[0]
		collaborator := assetclass.NewStored(classID, rt.UnitStore())
		cls, err := rt.Service.Register(recycling.Identity(adminActor()), classID, collaborator, classRate)
		if err != nil {
			return err
		}

		formatter := presentation.NewFormatter(os.Stdout)
		return formatter.FormatResult(presentation.FromClass(*cls))
	},
}

var classRateCmd = &cobra.Command{
	Use:   "class:rate <class-id>",
	Short: "Change a class's points-per-unit rate",
	Long: `Change the rate used by future exchanges. Already-recorded history is
never touched.

Example:
  reclaim class:rate pet-bottle --rate 12`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		cls, err := rt.Service.UpdateRate(recycling.Identity(adminActor()), args[0], classRate)
		if err != nil {
			return err
		}

		formatter := presentation.NewFormatter(os.Stdout)
		return formatter.FormatResult(presentation.FromClass(*cls))
	},
}

var classActivateCmd = &cobra.Command{
	Use:   "class:activate <class-id>",
	Short: "Make a class eligible for recycling again",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return setClassActive(args[0], true)
	},
}

var classDeactivateCmd = &cobra.Command{
	Use:   "class:deactivate <class-id>",
	Short: "Stop accepting a class for recycling",
	Long: `Deactivate a class. This is the only removal path: the configuration
and the class's history stay in place, and the class can be reactivated
later.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return setClassActive(args[0], false)
	},
}

func setClassActive(classID string, active bool) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	cls, err := rt.Service.SetActive(recycling.Identity(adminActor()), classID, active)
	if err != nil {
		return err
	}

	formatter := presentation.NewFormatter(os.Stdout)
	return formatter.FormatResult(presentation.FromClass(*cls))
}

var classListCmd = &cobra.Command{
	Use:   "class:list",
	Short: "List all known asset classes",
	Long: `List every registered class with its rate, status, and recycle counter
as JSON.

Examples:
  reclaim class:list
  reclaim class:list | jq '.[].class_id'`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		formatter := presentation.NewFormatter(os.Stdout)
		return formatter.FormatClasses(presentation.FromClasses(rt.Service.ListClasses()))
	},
}

var mintOwner string

var mintCmd = &cobra.Command{
	Use:   "mint <class-id> <unit-id>...",
	Short: "Mint units into a class",
	Long: `Assign fresh uniquely-identified units to an owner. Minting is a
collaborator concern, not a registry operation: the class does not have
to be registered yet.

Example:
  reclaim mint pet-bottle b-001 b-002 --owner user:alice`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		class := assetclass.NewStored(args[0], rt.UnitStore())
		for _, unitID := range args[1:] {
			if err := class.Mint(unitID, recycling.Identity(mintOwner)); err != nil {
				return err
			}
		}

		formatter := presentation.NewFormatter(os.Stdout)
		return formatter.FormatResult(map[string]any{
			"class_id": args[0],
			"owner":    mintOwner,
			"minted":   len(args[1:]),
		})
	},
}

func init() {
	classRegisterCmd.Flags().Uint64VarP(&classRate, "rate", "r", 0, "points awarded per unit (required)")
	_ = classRegisterCmd.MarkFlagRequired("rate")
	classRateCmd.Flags().Uint64VarP(&classRate, "rate", "r", 0, "new points-per-unit rate (required)")
	_ = classRateCmd.MarkFlagRequired("rate")
	mintCmd.Flags().StringVar(&mintOwner, "owner", "", "owning identity for the new units (required)")
	_ = mintCmd.MarkFlagRequired("owner")

	rootCmd.AddCommand(classRegisterCmd)
	rootCmd.AddCommand(classRateCmd)
	rootCmd.AddCommand(classActivateCmd)
	rootCmd.AddCommand(classDeactivateCmd)
	rootCmd.AddCommand(classListCmd)
	rootCmd.AddCommand(mintCmd)
}
