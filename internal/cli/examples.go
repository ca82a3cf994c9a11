package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"apshelper.com/job-helper/internal/form"
	"apshelper.com/job-helper/internal/model"
)

func init() {
	examplesCmd := &cobra.Command{
		Use:     "examples",
		Aliases: []string{"ex"},
		Short:   "Manage work examples",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List work examples",
		Args:  cobra.NoArgs,
		RunE:  runExamplesList,
	}
	listCmd.Flags().StringP("search", "s", "", "Only examples whose title, text or role contain this text")
	listCmd.Flags().StringP("level", "l", "", "Only examples at this APS level")
	listCmd.Flags().StringP("capability", "c", "", "Only examples claiming this capability")
	listCmd.Flags().StringP("tag", "t", "", "Only examples with this tag")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one work example",
		Args:  cobra.ExactArgs(1),
		RunE:  runExamplesShow,
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a work example",
		Args:  cobra.NoArgs,
		RunE:  runExamplesAdd,
	}
	addExampleFlags(addCmd)

	editCmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Update a work example; only the given flags change",
		Args:  cobra.ExactArgs(1),
		RunE:  runExamplesEdit,
	}
	addExampleFlags(editCmd)

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a work example",
		Args:  cobra.ExactArgs(1),
		RunE:  runExamplesRm,
	}

	assessCmd := &cobra.Command{
		Use:   "assess <id>",
		Short: "Assess a work example against the ILS at its level",
		Args:  cobra.ExactArgs(1),
		RunE:  runExamplesAssess,
	}
	assessCmd.Flags().Bool("save", false, "Save the assessment")

	examplesCmd.AddCommand(listCmd, showCmd, addCmd, editCmd, rmCmd, assessCmd)

	filtersCmd := &cobra.Command{
		Use:   "filters",
		Short: "Show the capabilities, behaviours, tags and levels available as filters",
		Args:  cobra.NoArgs,
		RunE:  runFilters,
	}

	RootCmd.AddCommand(examplesCmd, filtersCmd)
}

func addExampleFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Title")
	cmd.Flags().String("text", "", "Example text (STAR format works well)")
	cmd.Flags().String("role", "", "Your role at the time")
	cmd.Flags().String("level", model.DefaultAPSLevel, "APS level: "+strings.Join(model.APSLevels, ", "))
	cmd.Flags().String("capabilities", "", "Comma-separated ILS capabilities")
	cmd.Flags().String("behaviours", "", "Comma-separated ILS behaviours")
	cmd.Flags().String("tags", "", "Comma-separated tags")
}

// applyExampleFlags copies the flags the user set onto the form.
func applyExampleFlags(cmd *cobra.Command, f *form.WorkExampleForm) {
	fields := map[string]*string{
		"title":        &f.Title,
		"text":         &f.ExampleText,
		"role":         &f.Role,
		"level":        &f.APSLevel,
		"capabilities": &f.Capabilities,
		"behaviours":   &f.Behaviours,
		"tags":         &f.Tags,
	}
	for name, dst := range fields {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
}

func checkLevel(cmd *cobra.Command) error {
	level, _ := cmd.Flags().GetString("level")
	if cmd.Flags().Changed("level") && !model.ValidAPSLevel(level) {
		return fmt.Errorf("unknown level %q (want one of %s)", level, strings.Join(model.APSLevels, ", "))
	}
	return nil
}

func runExamplesList(cmd *cobra.Command, args []string) error {
	search, _ := cmd.Flags().GetString("search")
	level, _ := cmd.Flags().GetString("level")
	capability, _ := cmd.Flags().GetString("capability")
	tag, _ := cmd.Flags().GetString("tag")

	deferred, err := refresh(cmd)
	if err != nil {
		return err
	}
	sess.SetSearch(search)
	sess.SetExampleFilters(level, capability, tag)

	examples := sess.VisibleExamples()
	if err := emit(cmd.OutOrStdout(), examples, func(w io.Writer) { renderExamples(w, examples) }); err != nil {
		return err
	}
	return deferred
}

func runExamplesShow(cmd *cobra.Command, args []string) error {
	if err := sess.Load(cmd.Context()); err != nil {
		return err
	}
	ex, ok := sess.Example(args[0])
	if !ok {
		return fmt.Errorf("work example %s not found", args[0])
	}
	return emit(cmd.OutOrStdout(), ex, func(w io.Writer) { renderExample(w, ex) })
}

func runExamplesAdd(cmd *cobra.Command, args []string) error {
	if err := checkLevel(cmd); err != nil {
		return err
	}
	sess.UpdateForm(func(f *form.WorkExampleForm) {
		f.OpenNew()
		applyExampleFlags(cmd, f)
	})
	ex, err := sess.SubmitExample(cmd.Context())
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), ex, func(w io.Writer) { fmt.Fprintf(w, "created %s\n", ex.ID) })
}

func runExamplesEdit(cmd *cobra.Command, args []string) error {
	if err := checkLevel(cmd); err != nil {
		return err
	}
	if err := sess.Load(cmd.Context()); err != nil {
		return err
	}
	if err := sess.EditExample(args[0]); err != nil {
		return fmt.Errorf("work example %s: %w", args[0], err)
	}
	sess.UpdateForm(func(f *form.WorkExampleForm) { applyExampleFlags(cmd, f) })

	ex, err := sess.SubmitExample(cmd.Context())
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), ex, func(w io.Writer) { fmt.Fprintf(w, "updated %s\n", ex.ID) })
}

func runExamplesRm(cmd *cobra.Command, args []string) error {
	return sess.DeleteExample(cmd.Context(), args[0])
}

func runExamplesAssess(cmd *cobra.Command, args []string) error {
	save, _ := cmd.Flags().GetBool("save")

	if err := sess.Load(cmd.Context()); err != nil {
		return err
	}
	text, err := sess.Assess(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("work example %s: %w", args[0], err)
	}
	current, _ := sess.CurrentAssessment()
	if save {
		saved, err := sess.SaveAssessment(cmd.Context())
		if err != nil {
			return err
		}
		current = *saved
	}
	return emit(cmd.OutOrStdout(), current, func(w io.Writer) { renderMarkdown(w, text) })
}

func runFilters(cmd *cobra.Command, args []string) error {
	deferred, err := refresh(cmd)
	if err != nil {
		return err
	}
	opts := sess.FilterOptions()
	err = emit(cmd.OutOrStdout(), opts, func(w io.Writer) {
		renderList(w, "levels", opts.APSLevels)
		renderList(w, "capabilities", opts.Capabilities)
		renderList(w, "behaviours", opts.Behaviours)
		renderList(w, "tags", opts.Tags)
	})
	if err != nil {
		return err
	}
	return deferred
}
