package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tgienger/rooted/internal/models"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List open tasks",
	RunE:  runTasks,
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects and templates waiting for a project name",
	RunE:  runProjects,
}

func init() {
	tasksCmd.Flags().Int64("project", 0, "Only tasks of this project, in any status")
}

func runTasks(cmd *cobra.Command, args []string) error {
	projectID, _ := cmd.Flags().GetInt64("project")

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var tasks []models.Task
	if projectID > 0 {
		tasks, err = a.db.ListTasks(projectID)
	} else {
		tasks, err = a.db.ListTasksByStatus([]models.TaskStatus{models.StatusActive, models.StatusPlanned})
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks.")
		return nil
	}
	for _, t := range tasks {
		printTask(out, t)
	}
	return nil
}

func printTask(out io.Writer, t models.Task) {
	when := ""
	switch {
	case t.PlannedStart != nil && t.PlannedEnd != nil:
		when = t.PlannedStart.Format("Mon 02 Jan 15:04") + "-" + t.PlannedEnd.Format("15:04")
	case t.AvailableAt != nil && t.Status == models.StatusActive:
		when = "from " + t.AvailableAt.Format("Mon 02 Jan")
	case t.Deadline != nil:
		when = "due " + t.Deadline.Format("Mon 02 Jan")
	}
	fmt.Fprintf(out, "%-4d %-10s %-11s %-30s %s\n", t.ID, t.Status, t.Kind, t.Name, when)
}

func runProjects(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	projects, err := a.db.ListProjects()
	if err != nil {
		return err
	}
	pending, err := a.db.PendingBatches()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(projects) == 0 && len(pending) == 0 {
		fmt.Fprintln(out, "No projects.")
		return nil
	}
	for _, p := range projects {
		counts, err := a.db.CountTasksByStatus(p.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-4d %-30s %-10s %d open, %d done\n", p.ID, p.Title, p.Status,
			counts[models.StatusActive]+counts[models.StatusPlanned], counts[models.StatusCompleted])
	}
	for _, b := range pending {
		start, err := a.db.FindStartTask(b.ID)
		if err != nil {
			continue
		}
		fmt.Fprintf(out, "     %-30s waiting for a name: rooted answer %d <name>\n", b.TemplateName, start.ID)
	}
	return nil
}
