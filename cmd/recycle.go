package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/reclaim/internal/presentation"
	"github.com/zjrosen/reclaim/internal/recycling"
)

var useDestruction bool

var recycleCmd = &cobra.Command{
	Use:   "recycle <class-id> <unit-id>",
	Short: "Recycle a single unit",
	Long: `Surrender one unit for points. By default the unit moves into custodial
holding; with --destroy it is permanently destroyed instead.

The acting identity (--actor) must currently own the unit.

Examples:
  reclaim recycle pet-bottle b-001 --actor user:alice
  reclaim recycle pet-bottle b-002 --actor user:alice --destroy`,
	Args: cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		if actorFlag == "" {
			return fmt.Errorf("--actor is required")
		}

		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx := context.Background()
		actor := recycling.Identity(actorFlag)

		var record recycling.Record
		if useDestruction {
			record, err = rt.Service.RecycleByDestruction(ctx, actor, args[0], args[1])
		} else {
			record, err = rt.Service.RecycleByTransfer(ctx, actor, args[0], args[1])
		}
		if err != nil {
			return err
		}

		formatter := presentation.NewFormatter(os.Stdout)
		return formatter.FormatResult(presentation.FromRecord(record))
	},
}

var batchItems []string

var recycleBatchCmd = &cobra.Command{
	Use:   "recycle:batch",
	Short: "Recycle up to 50 units in one call",
	Long: `Recycle multiple units as one batch. Items are processed in order and
isolated from each other: a failing item is reported and skipped while
the rest proceed. Prior successes are never unwound.

Each --item takes "class/unit" for a custodial transfer or
"class/unit/destroy" for destruction.

Examples:
  reclaim recycle:batch --actor user:alice \
    --item pet-bottle/b-001 \
    --item pet-bottle/b-002/destroy \
    --item glass/g-001`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if actorFlag == "" {
			return fmt.Errorf("--actor is required")
		}

		items, err := parseBatchItems(batchItems)
		if err != nil {
			return err
		}

		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		result, err := rt.Service.RecycleBatch(context.Background(), recycling.Identity(actorFlag), items)
		if err != nil {
			return err
		}

		formatter := presentation.NewFormatter(os.Stdout)
		return formatter.FormatResult(presentation.FromBatchResult(result))
	},
}

// parseBatchItems parses "class/unit" or "class/unit/destroy" specs.
func parseBatchItems(specs []string) ([]recycling.BatchItem, error) {
	items := make([]recycling.BatchItem, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, "/")
		switch {
		case len(parts) == 2:
			items = append(items, recycling.BatchItem{ClassID: parts[0], UnitID: parts[1]})
		case len(parts) == 3 && parts[2] == "destroy":
			items = append(items, recycling.BatchItem{ClassID: parts[0], UnitID: parts[1], UseDestruction: true})
		default:
			return nil, fmt.Errorf("invalid item %q: want class/unit or class/unit/destroy", spec)
		}
	}
	return items, nil
}

var canRecycleCmd = &cobra.Command{
	Use:   "can-recycle <class-id> <unit-id>",
	Short: "Check whether a unit could be recycled right now",
	Long: `Run the eligibility checks of an exchange without changing anything.
The answer is always a value; an ineligible unit reports its reason.

Example:
  reclaim can-recycle pet-bottle b-001 --actor user:alice`,
	Args: cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		if actorFlag == "" {
			return fmt.Errorf("--actor is required")
		}

		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		ok, reason := rt.Service.CanRecycle(recycling.Identity(actorFlag), args[0], args[1])
		out := map[string]any{"ok": ok}
		if reason != "" {
			out["reason"] = reason
		}

		formatter := presentation.NewFormatter(os.Stdout)
		return formatter.FormatResult(out)
	},
}

var calcQuantity uint64

var calcCmd = &cobra.Command{
	Use:   "calc <class-id>",
	Short: "Calculate points for a quantity of units",
	Long: `Multiply a class's current rate by a quantity without touching any
state.

Example:
  reclaim calc pet-bottle --quantity 40`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		points, err := rt.Service.CalculatePoints(args[0], calcQuantity)
		if err != nil {
			return err
		}

		formatter := presentation.NewFormatter(os.Stdout)
		return formatter.FormatResult(map[string]any{
			"class_id": args[0],
			"quantity": calcQuantity,
			"points":   points,
		})
	},
}

func init() {
	recycleCmd.Flags().BoolVar(&useDestruction, "destroy", false, "destroy the unit instead of moving it to custody")
	recycleBatchCmd.Flags().StringArrayVar(&batchItems, "item", nil,
		`batch item as "class/unit" or "class/unit/destroy" (repeatable)`)
	calcCmd.Flags().Uint64VarP(&calcQuantity, "quantity", "q", 1, "number of units")

	rootCmd.AddCommand(recycleCmd)
	rootCmd.AddCommand(recycleBatchCmd)
	rootCmd.AddCommand(canRecycleCmd)
	rootCmd.AddCommand(calcCmd)
}
