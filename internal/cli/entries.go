package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func init() {
	entriesCmd := &cobra.Command{
		Use:   "entries",
		Short: "Manage stored application text",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		Args:  cobra.NoArgs,
		RunE:  runEntriesList,
	}
	listCmd.Flags().StringP("search", "s", "", "Only entries containing this text (case-insensitive)")
	listCmd.Flags().StringP("tag", "t", "", "Only entries with this tag")

	addCmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Store text; the server tags it with AI",
		Long:  "Store text. Content can be a positional arg or piped via stdin.",
		RunE:  runEntriesAdd,
	}

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE:  runEntriesRm,
	}

	entriesCmd.AddCommand(listCmd, addCmd, rmCmd)

	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "List tags used by entries",
		Args:  cobra.NoArgs,
		RunE:  runTags,
	}

	RootCmd.AddCommand(entriesCmd, tagsCmd)
}

func runEntriesList(cmd *cobra.Command, args []string) error {
	search, _ := cmd.Flags().GetString("search")
	tag, _ := cmd.Flags().GetString("tag")

	deferred, err := refresh(cmd)
	if err != nil {
		return err
	}
	sess.SetSearch(search)
	if tag != "" {
		sess.SelectTag(tag)
	}

	entries := sess.VisibleEntries()
	if err := emit(cmd.OutOrStdout(), entries, func(w io.Writer) { renderEntries(w, entries) }); err != nil {
		return err
	}
	return deferred
}

func runEntriesAdd(cmd *cobra.Command, args []string) error {
	content, err := readContent(cmd, args)
	if err != nil {
		return err
	}
	entry, err := sess.StoreEntry(cmd.Context(), content)
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), entry, func(w io.Writer) {
		fmt.Fprintf(w, "stored %s\ntags: %s\n", entry.ID, strings.Join(entry.Tags, ", "))
	})
}

func runEntriesRm(cmd *cobra.Command, args []string) error {
	return sess.DeleteEntry(cmd.Context(), args[0])
}

func runTags(cmd *cobra.Command, args []string) error {
	deferred, err := refresh(cmd)
	if err != nil {
		return err
	}
	tags := sess.Tags()
	if err := emit(cmd.OutOrStdout(), tags, func(w io.Writer) { renderList(w, "tags", tags) }); err != nil {
		return err
	}
	return deferred
}

// readContent takes text from args, or from stdin when it is piped.
func readContent(cmd *cobra.Command, args []string) (string, error) {
	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else if in := cmd.InOrStdin(); in != os.Stdin || stdinPiped() {
		b, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		content = string(b)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", errors.New("content is required (positional arg or stdin)")
	}
	return content, nil
}

func stdinPiped() bool {
	fd := os.Stdin.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}
