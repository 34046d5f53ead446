package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/CrowderSoup/taskboard/board"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// withBoard opens the board, runs fn against it and closes the store.
func (a *app) withBoard(cmd *cobra.Command, fn func(ctx context.Context, b *board.Board) error) error {
	ctx := cmd.Context()
	b, kv, err := a.openBoard(ctx)
	if err != nil {
		return err
	}
	defer kv.Close()
	return fn(ctx, b)
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBoard(cmd, func(ctx context.Context, b *board.Board) error {
				printBoard(cmd.OutOrStdout(), b.View())
				return nil
			})
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	var due, priority string
	cmd := &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a task to the To Do column",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBoard(cmd, func(ctx context.Context, b *board.Board) error {
				task, err := b.Create(ctx, strings.Join(args, " "), due, priority)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), task.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&due, "due", "d", "", "due datetime, YYYY-MM-DDTHH:MM")
	cmd.Flags().StringVarP(&priority, "priority", "p", string(board.PriorityMedium), "Low, Medium or High")
	return cmd
}

func (a *app) toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a task's completed flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBoard(cmd, func(ctx context.Context, b *board.Board) error {
				return b.ToggleComplete(ctx, args[0])
			})
		},
	}
}

func (a *app) moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <column>",
		Short: "Move a task to the end of a column (todo, in-progress, done)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, ok := board.ParseColumn(args[1])
			if !ok {
				target = board.Column(args[1])
			}
			return a.withBoard(cmd, func(ctx context.Context, b *board.Board) error {
				return b.Move(ctx, args[0], target)
			})
		},
	}
}

func (a *app) editCmd() *cobra.Command {
	var text, due, priority, column string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task; fields not given keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBoard(cmd, func(ctx context.Context, b *board.Board) error {
				form, err := b.BeginEdit(args[0])
				if err != nil {
					return err
				}
				in := board.EditInput{
					Text:     form.Text,
					Datetime: form.Datetime,
					Priority: string(form.Priority),
				}
				flags := cmd.Flags()
				if flags.Changed("text") {
					in.Text = text
				}
				if flags.Changed("due") {
					in.Datetime = due
				}
				if flags.Changed("priority") {
					in.Priority = priority
				}
				if flags.Changed("column") {
					in.Column = column
				}
				return b.SubmitEdit(ctx, in)
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "new text")
	cmd.Flags().StringVarP(&due, "due", "d", "", "new due datetime")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "new priority")
	cmd.Flags().StringVarP(&column, "column", "c", "", "column to move the task to")
	return cmd
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBoard(cmd, func(ctx context.Context, b *board.Board) error {
				return b.Delete(ctx, args[0])
			})
		},
	}
}

func (a *app) purgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete every completed task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBoard(cmd, func(ctx context.Context, b *board.Board) error {
				n, err := b.DeleteAllChecked(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d tasks\n", n)
				return nil
			})
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(a.cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	})
	return cmd
}

func printBoard(w io.Writer, v board.View) {
	for _, col := range v.Columns {
		fmt.Fprintf(w, "%s (%d)\n", col.Title, len(col.Tasks))
		for _, t := range col.Tasks {
			check := " "
			if t.Completed {
				check = "x"
			}
			countdown := t.Countdown
			if countdown == "" {
				countdown = "-"
			}
			fmt.Fprintf(w, "  [%s] %s  %s  %s  %s\n", check, t.ID, t.Text, t.Priority, countdown)
		}
	}
	if v.BulkDeleteEnabled {
		fmt.Fprintln(w, "Completed tasks can be purged")
	}
}
