package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tgienger/rooted/internal/errs"
	"github.com/tgienger/rooted/internal/planner"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan all open tasks into the coming workdays",
	RunE:  runPlan,
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Pick the single next thing to do and plan it from now",
	RunE:  runNext,
}

func runPlan(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	now := a.clock.Now()
	if _, err := a.engine.ReleaseWaits(now); err != nil {
		if !errors.Is(err, errs.ErrPartialFailure) {
			return err
		}
		a.log.Printf("plan: %v", err)
	}
	result, err := a.planner.PlanPass(now)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(result.Plan.Slots) == 0 {
		fmt.Fprintln(out, "Nothing to plan.")
	}
	lastDay := -1
	for _, s := range result.Plan.Slots {
		if s.Day != lastDay {
			fmt.Fprintf(out, "%s\n", s.Start.Format("Monday 2 January"))
			lastDay = s.Day
		}
		fmt.Fprintf(out, "  %s-%s  %-4d %-30s score %.1f\n",
			s.Start.Format("15:04"), s.End.Format("15:04"), s.Task.ID, s.Task.Name, s.Score)
	}
	if len(result.Plan.Skipped) > 0 {
		fmt.Fprintf(out, "Not planned (%d):\n", len(result.Plan.Skipped))
		for _, s := range result.Plan.Skipped {
			fmt.Fprintf(out, "  %-4d %-30s %s\n", s.Task.ID, s.Task.Name, s.Reason)
		}
	}
	if len(result.Leftovers) > 0 {
		fmt.Fprintf(out, "%d task(s) carried over from an earlier plan\n", len(result.Leftovers))
	}
	return nil
}

func runNext(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	next, err := a.planner.PlanNext(a.clock.Now())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, id := range next.AutoCompleted {
		fmt.Fprintf(out, "Filter %d passed\n", id)
	}
	switch next.Outcome {
	case planner.NextIdle:
		fmt.Fprintln(out, "Nothing is active.")
	case planner.NextPlanned:
		fmt.Fprintf(out, "Next: %d %s, %s-%s\n", next.Task.ID, next.Task.Name,
			next.Start.Format("15:04"), next.End.Format("15:04"))
	default:
		fmt.Fprintf(out, "Next: %d %s (%s): %s\n", next.Task.ID, next.Task.Name, next.Task.Kind, next.Reason)
	}
	return nil
}
