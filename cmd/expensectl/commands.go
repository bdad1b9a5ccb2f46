package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"myexpenses/internal/cli"
	"myexpenses/internal/core"
	"myexpenses/internal/services"
)

// clearPrompt mirrors the confirmation shown by the web page.
const clearPrompt = "Clear all expenses? This cannot be undone."

func addCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Record an expense stamped with the current date and time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, _ := cmd.Flags().GetString("category")
			description, _ := cmd.Flags().GetString("description")

			_, err := st.svc.AddExpense(cmd.Context(), core.ExpenseInput{
				Amount:      args[0],
				Category:    category,
				Description: description,
			})
			if errors.Is(err, core.ErrInvalidAmount) {
				return errors.New(core.UserMessage(err, core.InvalidAmountMessage))
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(services.AddedMessage))
			return nil
		},
	}
	cmd.Flags().StringP("category", "c", "", `category label (default "Other")`)
	cmd.Flags().StringP("description", "d", "", "free-text description")
	return cmd
}

func listCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show all expenses with their index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable(st.svc.List(cmd.Context())))
			return nil
		},
	}
}

func deleteCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <index>",
		Short: "Delete the expense at the index shown by list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil || index < 0 {
				return fmt.Errorf("invalid index %q: must be a non-negative integer", args[0])
			}

			removed, err := st.svc.DeleteAt(cmd.Context(), index)
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning(fmt.Sprintf("No expense at index %d, nothing deleted", index)))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted expense %d", index)))
			return nil
		},
	}
}

func clearCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), clearPrompt) {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("Aborted"))
				return nil
			}

			if err := st.svc.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("All expenses cleared"))
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// confirm asks a yes/no question; anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func importCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Append the expenses of a CSV file (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			count, err := st.svc.ImportCSV(cmd.Context(), string(data))
			if err != nil {
				var ue *core.UserError
				if errors.As(err, &ue) {
					return errors.New(ue.UserMessage)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d rows", count)))
			return nil
		},
	}
}

func exportCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the expenses as CSV to stdout or a file",
		Long: `Write the expenses as CSV. Without --out the CSV goes to stdout. When --out
names a directory the file is created there as myexpenses_<date>.csv.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("out")
			filename, body := st.svc.ExportCSV(cmd.Context())

			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), body)
				return nil
			}
			if info, err := os.Stat(out); err == nil && info.IsDir() {
				out = filepath.Join(out, filename)
			}
			if err := os.WriteFile(out, []byte(body), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess("Exported to "+out))
			return nil
		},
	}
	cmd.Flags().StringP("out", "o", "", "output file or directory")
	return cmd
}

func summaryCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show totals per category as a bar chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			width, _ := cmd.Flags().GetInt("width")
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle("Summary by category"))
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderChart(st.svc.Summary(cmd.Context()), width))
			return nil
		},
	}
	cmd.Flags().Int("width", cli.DefaultBarWidth, "width of the longest bar")
	return cmd
}
