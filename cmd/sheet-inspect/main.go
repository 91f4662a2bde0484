// Command sheet-inspect fetches the contact sheet once and prints the ranked
// contacts, optionally filtered, as text, JSON, YAML or an Excel workbook.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/sheet-inbox/internal/adapters/export"
	"github.com/mikey/sheet-inbox/internal/core"
	"github.com/mikey/sheet-inbox/internal/di"
)

var flags di.CLIFlags

var rootCmd = &cobra.Command{
	Use:   "sheet-inspect",
	Short: "Print the contacts of a published contact sheet",
	Long: `Fetch the contact sheet once, group rows by phone and print the
contacts ranked by their latest message.

The sheet comes from --url, --file or the sources of --config.`,
	SilenceUsage: true,
	RunE:         runList,
}

var replyCmd = &cobra.Command{
	Use:   "reply <phone>",
	Short: "Print the opening message and WhatsApp link for one contact",
	Args:  cobra.ExactArgs(1),
	RunE:  runReply,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Fetch once and print the refresh summary",
	RunE:  runStatus,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.File, "file", "", "Read the sheet from a local CSV file")
	pf.StringVar(&flags.URL, "url", "", "Published CSV export URL")
	pf.StringVar(&flags.Window, "window", "", "Recency window, e.g. 15m")
	pf.StringVar(&flags.Timezone, "timezone", "", "IANA timezone of the sheet timestamps")
	pf.StringVar(&flags.ConfigFile, "config", "", "Path to config file")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose logging")
	pf.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")

	rootCmd.Flags().StringVarP(&flags.Query, "query", "q", "", "Only show contacts whose phone or messages match")
	rootCmd.Flags().StringVarP(&flags.Format, "format", "f", export.FormatText, "Output format: text, json, yaml or xlsx")
	rootCmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Write to this file instead of stdout")

	rootCmd.AddCommand(replyCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loaded builds the container and refreshes the service once before calling fn
func loaded(ctx context.Context, fn func(svc *core.InboxService, settings core.FeedSettings) error) error {
	container, err := di.BuildCLIContainer(&flags)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}

	return container.Invoke(func(svc *core.InboxService, settings core.FeedSettings, logger *zap.Logger) error {
		defer logger.Sync()

		if _, err := svc.Refresh(ctx); err != nil {
			return err
		}
		return fn(svc, settings)
	})
}

func runList(cmd *cobra.Command, _ []string) error {
	return loaded(cmd.Context(), func(svc *core.InboxService, settings core.FeedSettings) error {
		contacts := svc.List(flags.Query)

		out, closeOut, err := output(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if err := export.Write(out, flags.Format, contacts, settings.TimeParser.Location()); err != nil {
			closeOut()
			return err
		}
		return closeOut()
	})
}

func runReply(cmd *cobra.Command, args []string) error {
	return loaded(cmd.Context(), func(svc *core.InboxService, _ core.FeedSettings) error {
		draft, err := svc.DraftReply(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Phone: %s\n", draft.Phone)
		fmt.Fprintf(w, "Source: %s\n", draft.Source)
		fmt.Fprintf(w, "Text: %s\n", draft.Text)
		fmt.Fprintf(w, "Link: %s\n", draft.URL)
		return nil
	})
}

func runStatus(cmd *cobra.Command, _ []string) error {
	return loaded(cmd.Context(), func(svc *core.InboxService, settings core.FeedSettings) error {
		st := svc.Status()
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Cycle: %s\n", st.CycleID)
		fmt.Fprintf(w, "Fetched: %s\n", st.LastSuccess.In(settings.TimeParser.Location()).Format(time.RFC3339))
		fmt.Fprintf(w, "Sources: %d\n", st.Sources)
		fmt.Fprintf(w, "Records: %d\n", st.Records)
		fmt.Fprintf(w, "Contacts: %d\n", st.Groups)
		fmt.Fprintf(w, "From cache: %t\n", st.FromCache)
		return nil
	})
}

// output returns the writer for --output, or stdout when it is empty
func output(stdout io.Writer) (io.Writer, func() error, error) {
	if flags.Output == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(flags.Output)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
