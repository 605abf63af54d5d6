package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/todos/internal/model"
	"github.com/Makepad-fr/todos/internal/tasklist"
	"github.com/Makepad-fr/todos/internal/ui"
)

func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("usage: %s", usage)
		}
		return nil
	}
}

// -------------- subcommands ----------------

func (a *app) lsCmd() *cobra.Command {
	var group, asJSON bool
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List tasks",
		Args:  exactArgs(0, "todos ls [--group] [--json]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, false); err != nil {
				return err
			}
			tasks, err := a.store.List(cmd.Context())
			if err != nil {
				a.logger.Error("request failed", "op", tasklist.OpLoad.String(), "error", err)
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(tasks)
			}

			t := ui.Current()
			d, p := tasklist.Stats(tasks)
			var lines []string
			lines = append(lines, ui.Header(d, p))
			lines = append(lines, t.Muted.Render(ui.ProgressBar(d, d+p, 28)))
			lines = append(lines, "")
			if group {
				lines = append(lines, groupLines(tasks)...)
			} else {
				lines = append(lines, flatLines(tasks)...)
			}
			lines = append(lines, "")
			lines = append(lines, t.Muted.Render("Tip: add with `todos add \"Buy milk\"`"))
			ui.Panel(out, lines)
			return nil
		},
	}
	cmd.Flags().BoolVar(&group, "group", false, "group output by pending/done")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print tasks as JSON")
	return cmd
}

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a new task (title can be multiple words)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usagef("usage: todos add <title...>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			if strings.TrimSpace(title) == "" {
				return usagef("add: empty title")
			}
			if err := a.setup(cmd, false); err != nil {
				return err
			}
			t, err := a.store.Create(cmd.Context(), title)
			if err != nil {
				a.logger.Error("request failed", "op", tasklist.OpCreate.String(), "error", err)
				return fmt.Errorf("%s (%w)", tasklist.MsgCreateFailed, err)
			}
			ui.OK(cmd.OutOrStdout(), "added #"+t.ID.String())
			return nil
		},
	}
}

func (a *app) doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle done for the task with the given id",
		Args:  exactArgs(1, "todos done <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, false); err != nil {
				return err
			}
			id := model.ID(args[0])
			tasks, err := a.store.List(cmd.Context())
			if err != nil {
				a.logger.Error("request failed", "op", tasklist.OpLoad.String(), "error", err)
				return err
			}
			l := tasklist.New()
			l.Replace(tasks)
			t, ok := l.Find(id)
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), ui.Current().Muted.Render("Hint: run `todos ls` to see valid ids"))
				return usagef("no task with id %s", id)
			}
			p, err := a.store.SetCompleted(cmd.Context(), id, !t.Completed)
			if err != nil {
				a.logger.Error("request failed", "op", tasklist.OpToggle.String(), "task_id", id.String(), "error", err)
				return fmt.Errorf("%s (%w)", tasklist.MsgToggleFailed, err)
			}
			l.Merge(id, p)
			t, _ = l.Find(id)
			state := "open"
			if t.Completed {
				state = "done"
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("toggled #%s (%s)", id, state))
			return nil
		},
	}
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove the task with the given id",
		Args:  exactArgs(1, "todos rm <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, false); err != nil {
				return err
			}
			id := model.ID(args[0])
			if err := a.store.Delete(cmd.Context(), id); err != nil {
				a.logger.Error("request failed", "op", tasklist.OpDelete.String(), "task_id", id.String(), "error", err)
				return fmt.Errorf("%s (%w)", tasklist.MsgDeleteFailed, err)
			}
			ui.OK(cmd.OutOrStdout(), "removed #"+id.String())
			return nil
		},
	}
}

// -------------- rendering helpers --------------

func flatLines(tasks []model.Task) []string {
	t := ui.Current()
	if len(tasks) == 0 {
		return []string{t.Muted.Render("No tasks found.")}
	}
	out := make([]string, 0, len(tasks))
	for _, tk := range tasks {
		idx := fmt.Sprintf("%5s", "#"+tk.ID.String())
		box := t.Muted.Render(t.BoxUnchecked)
		title := ui.Truncate(tk.Title, 80)
		if tk.Completed {
			box = t.Success.Render(t.BoxChecked)
			title = t.Done.Render(title)
		}
		out = append(out, fmt.Sprintf("%s %s %s", t.Muted.Render(idx), box, title))
	}
	return out
}

func groupLines(tasks []model.Task) []string {
	t := ui.Current()
	var pend, done []model.Task
	for _, tk := range tasks {
		if tk.Completed {
			done = append(done, tk)
		} else {
			pend = append(pend, tk)
		}
	}
	var lines []string
	lines = append(lines, t.Accent.Render("Pending"))
	if len(pend) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, flatLines(pend)...)
	}
	lines = append(lines, "")
	lines = append(lines, t.Accent.Render("Done"))
	if len(done) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, flatLines(done)...)
	}
	return lines
}
