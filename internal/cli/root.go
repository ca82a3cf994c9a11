// Package cli implements the apshelper commands.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"apshelper.com/job-helper/internal/config"
	"apshelper.com/job-helper/internal/gateway"
	"apshelper.com/job-helper/internal/logging"
	"apshelper.com/job-helper/internal/session"
)

var (
	apiURL     string
	verbose    bool
	formatFlag string

	logger *zap.Logger
	client *gateway.Client
	sess   *session.Session
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "apshelper",
	Short: "APS job application assistant",
	Long: `Chat about the APS Integrated Leadership System, keep tagged application
text, and manage work examples with AI assessment against the ILS.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadConfig(); err != nil {
			return err
		}
		if formatFlag != "text" && formatFlag != "json" {
			return fmt.Errorf("unknown --format %q (want text or json)", formatFlag)
		}
		base := apiURL
		if base == "" {
			base = config.AppConfig.APIBaseURL
		}

		var err error
		logger, err = logging.NewConsole(verbose)
		if err != nil {
			return err
		}
		client = gateway.New(strings.TrimRight(base, "/"), logger)
		sess = session.New(client, &consoleNotifier{out: cmd.ErrOrStderr()}, logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Backend base URL (default: $APS_API_URL or http://localhost:8080/api)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log API calls to stderr")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: text or json")
}

// PrintError writes err to w unless the notifier already showed it.
func PrintError(w io.Writer, err error) {
	if err == nil || session.IsReported(err) {
		return
	}
	fmt.Fprintln(w, "error:", err)
}

// refresh loads the session. A failed fetch the notifier already showed is
// handed back as deferred so listings can still print what did arrive.
func refresh(cmd *cobra.Command) (deferred error, err error) {
	err = sess.Load(cmd.Context())
	if session.IsReported(err) {
		return err, nil
	}
	return nil, err
}

// consoleNotifier prints notifications on stderr, keeping stdout for data.
type consoleNotifier struct {
	out io.Writer
}

func (n *consoleNotifier) Success(msg string) { fmt.Fprintf(n.out, "ok: %s\n", msg) }
func (n *consoleNotifier) Error(msg string)   { fmt.Fprintf(n.out, "error: %s\n", msg) }
