package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"apshelper.com/job-helper/internal/model"
)

func init() {
	historyCmd := &cobra.Command{
		Use:   "history <session-id>",
		Short: "Print a stored chat session",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistory,
	}

	assessmentsCmd := &cobra.Command{
		Use:   "assessments",
		Short: "List saved assessments, newest first",
		Args:  cobra.NoArgs,
		RunE:  runAssessments,
	}
	assessmentsCmd.Flags().String("example", "", "Only assessments of this work example id")

	RootCmd.AddCommand(historyCmd, assessmentsCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	msgs, err := client.ChatHistory(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), msgs, func(w io.Writer) {
		if len(msgs) == 0 {
			fmt.Fprintln(w, "No messages.")
			return
		}
		for _, m := range msgs {
			fmt.Fprintf(w, "%s: %s\n", m.Role, m.Content)
		}
	})
}

func runAssessments(cmd *cobra.Command, args []string) error {
	exampleID, _ := cmd.Flags().GetString("example")
	list, err := client.ListAssessments(cmd.Context(), exampleID)
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), list, func(w io.Writer) { renderAssessments(w, list) })
}

func renderAssessments(w io.Writer, list []model.Assessment) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No saved assessments.")
		return
	}
	for i, a := range list {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "[%s] %s %s\n", a.ID, a.APSLevel, a.CreatedAt.Local().Format(timeLayout))
		fmt.Fprintln(w, a.Assessment)
	}
}
