package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tgienger/rooted/internal/engine"
	"github.com/tgienger/rooted/internal/models"
	"github.com/tgienger/rooted/internal/template"
)

var renameCmd = &cobra.Command{
	Use:   "rename <project-id> <title>",
	Short: "Rename a project",
	Args:  cobra.ExactArgs(2),
	RunE:  runRename,
}

var editCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Change the priority, duration or deadline of an open task",
	Long: `Changes the scheduling inputs of an open task. Flags that are not given keep
their value. A planned task keeps its slot until the next "rooted plan".`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	renameCmd.Flags().String("description", "", "New project description")

	editCmd.Flags().String("priority", "", "Priority 1-5 or a named tier")
	editCmd.Flags().Int("duration", 0, "Expected duration in minutes, 0 for the default")
	editCmd.Flags().Float64("risk", 0, "Risk factor")
	editCmd.Flags().String("deadline", "", `Deadline as YYYY-MM-DD, or "none" to clear it`)
	editCmd.Flags().String("deadline-type", "", "hard, soft, advisory or none")
}

func runRename(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	description, _ := cmd.Flags().GetString("description")

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	project, err := a.engine.RenameProject(id, args[1], description)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Project %d renamed to %q\n", project.ID, project.Title)
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	edit, err := taskEdit(cmd)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := a.engine.EditTask(id, edit)
	if err != nil {
		return err
	}
	printTask(cmd.OutOrStdout(), *task)
	return nil
}

// taskEdit collects the flags that were given on the command line
func taskEdit(cmd *cobra.Command) (engine.TaskEdit, error) {
	var edit engine.TaskEdit
	flags := cmd.Flags()
	if !flags.Changed("priority") && !flags.Changed("duration") && !flags.Changed("risk") &&
		!flags.Changed("deadline") && !flags.Changed("deadline-type") {
		return edit, errors.New("nothing to change")
	}

	if flags.Changed("priority") {
		v, _ := flags.GetString("priority")
		p, err := template.ParsePriority(v)
		if err != nil {
			return edit, err
		}
		edit.Priority = &p
	}
	if flags.Changed("duration") {
		d, _ := flags.GetInt("duration")
		edit.Duration = &d
	}
	if flags.Changed("risk") {
		r, _ := flags.GetFloat64("risk")
		edit.RiskFactor = &r
	}
	if flags.Changed("deadline-type") {
		v, _ := flags.GetString("deadline-type")
		dt := models.ParseDeadlineType(v)
		edit.DeadlineType = &dt
	}
	if flags.Changed("deadline") {
		v, _ := flags.GetString("deadline")
		if strings.EqualFold(strings.TrimSpace(v), "none") {
			edit.ClearDeadline = true
		} else {
			d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(v), time.Local)
			if err != nil {
				return edit, fmt.Errorf("deadline %q: want YYYY-MM-DD", v)
			}
			edit.Deadline = &d
		}
	}
	return edit, nil
}
