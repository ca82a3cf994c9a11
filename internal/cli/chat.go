package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Ask the APS assistant",
		Long: `Send one message, or with no arguments start an interactive chat.
Type /quit or press Ctrl+D to leave. The conversation keeps one session.`,
		RunE: runChat,
	}
	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) > 0 {
		reply, err := sess.SendChat(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return emit(out, sess.Messages(), func(w io.Writer) { renderMarkdown(w, reply) })
	}

	fmt.Fprintf(out, "session %s\n", sess.ID())
	sc := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "/quit" || line == "/exit" {
			return nil
		}
		if line == "" {
			continue
		}
		// A failed message was already reported; keep the conversation going.
		if reply, err := sess.SendChat(cmd.Context(), line); err == nil {
			fmt.Fprintln(out)
			renderMarkdown(out, reply)
			fmt.Fprintln(out)
		}
	}
}
