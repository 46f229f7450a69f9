package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tgienger/rooted/internal/engine"
	"github.com/tgienger/rooted/internal/errs"
	"github.com/tgienger/rooted/internal/template"
)

var instantiateCmd = &cobra.Command{
	Use:   "instantiate <template-file>",
	Short: "Create the tasks of a template without starting a project",
	Long: `Creates one inactive task per block of the template. The project starts once
the start task is answered with "rooted answer <start-task-id> <project name>".`,
	Args: cobra.ExactArgs(1),
	RunE: runInstantiate,
}

var startCmd = &cobra.Command{
	Use:   "start <template-file> <project name>",
	Short: "Instantiate a template and start it as a project",
	Args:  cobra.ExactArgs(2),
	RunE:  runStart,
}

var answerCmd = &cobra.Command{
	Use:   "answer <task-id> <answer>",
	Short: "Record the answer to a question, start or end task",
	Long: `Records an answer. Answering the start task of an instantiated template
names the project and starts its flow.`,
	Args: cobra.ExactArgs(2),
	RunE: runAnswer,
}

var doneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Complete a task and activate what follows it",
	Args:  cobra.ExactArgs(1),
	RunE:  runDone,
}

func init() {
	doneCmd.Flags().Int("minutes", 0, "Minutes spent, logged as a focus session ending now")
	doneCmd.Flags().Bool("interrupted", false, "The focus session was interrupted")
}

func runInstantiate(cmd *cobra.Command, args []string) error {
	tpl, err := template.Load(args[0])
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	batch, err := a.engine.Instantiate(tpl)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Instantiated %q: %d tasks, %d connections (batch %s)\n",
		batch.TemplateName, len(batch.TaskIDs), len(batch.Connections), batch.ID)
	if err := batch.Skipped(); err != nil {
		fmt.Fprintf(out, "Warning: %v\n", err)
	}
	if start, ok := tpl.Start(); ok && start.Question != "" {
		fmt.Fprintf(out, "Start task %d asks: %s\n", batch.StartTaskID, start.Question)
	}
	fmt.Fprintf(out, "Run: rooted answer %d <project name>\n", batch.StartTaskID)
	return nil
}

func runStart(cmd *cobra.Command, args []string) error {
	tpl, err := template.Load(args[0])
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	project, report, err := a.engine.StartProject(tpl, args[1])
	if err != nil && !errors.Is(err, errs.ErrPartialFailure) {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Project %d %q started from %s\n", project.ID, project.Title, project.TemplateName)
	printReport(out, a, report)
	return err
}

func runAnswer(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.engine.Answer(id, args[1]); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Answered task %d\n", id)

	task, err := a.db.GetTask(id)
	if err != nil {
		return err
	}
	if task.Kind != template.KindStart || task.ProjectID != nil {
		return nil
	}

	project, report, err := a.engine.Bootstrap(task.BatchID)
	if err != nil && !errors.Is(err, errs.ErrPartialFailure) {
		return err
	}
	fmt.Fprintf(out, "Project %d %q started\n", project.ID, project.Title)
	printReport(out, a, report)
	return err
}

func runDone(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	minutes, _ := cmd.Flags().GetInt("minutes")
	interrupted, _ := cmd.Flags().GetBool("interrupted")

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.engine.Complete(id)
	if err != nil && !errors.Is(err, errs.ErrPartialFailure) {
		return err
	}
	if minutes > 0 {
		end := a.clock.Now()
		if _, ferr := a.engine.RecordFocus(id, end.Add(-time.Duration(minutes)*time.Minute), end, interrupted); ferr != nil {
			return ferr
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Completed task %d\n", id)
	printReport(out, a, report)
	return err
}

func printReport(out io.Writer, a *app, r *engine.Report) {
	if r == nil {
		return
	}
	name := func(id int64) string {
		if t, err := a.db.GetTask(id); err == nil {
			return fmt.Sprintf("%d %s (%s)", t.ID, t.Name, t.Kind)
		}
		return fmt.Sprintf("%d", id)
	}
	for _, id := range r.Completed[min(1, len(r.Completed)):] {
		fmt.Fprintf(out, "  completed  %s\n", name(id))
	}
	for _, id := range r.Activated {
		fmt.Fprintf(out, "  activated  %s\n", name(id))
	}
	for _, id := range r.Pending {
		fmt.Fprintf(out, "  waiting    %s\n", name(id))
	}
	for _, f := range r.Failures {
		fmt.Fprintf(out, "  failed     %v\n", f)
	}
	if r.EndOfFlow {
		fmt.Fprintln(out, "  end of this branch")
	}
}
