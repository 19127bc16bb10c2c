package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cognicore/docprep/pkg/docprep"
	"github.com/cognicore/docprep/pkg/docprep/archive"
)

func newRunCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Extract archives, redact every document and write segments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.settings()
			if err != nil {
				return err
			}
			log, err := c.logger(s)
			if err != nil {
				return err
			}
			defer log.Sync()

			p, err := docprep.New(docprep.Options{Settings: s, Logger: log})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sum, runErr := p.Run(ctx)
			c.printSummary(cmd.OutOrStdout(), sum)
			if runErr != nil {
				return runErr
			}
			if sum.Failed > 0 {
				return fmt.Errorf("%d of %d chunks failed; rerun to rewrite their segments", sum.Failed, len(sum.Chunks))
			}
			return nil
		},
	}
}

func newExtractCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Only extract the archives of the configured period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.settings()
			if err != nil {
				return err
			}
			log, err := c.logger(s)
			if err != nil {
				return err
			}
			defer log.Sync()

			p, err := docprep.New(docprep.Options{Settings: s, Logger: log})
			if err != nil {
				return err
			}
			report, err := p.Extract(cmd.Context())
			if err != nil {
				return err
			}
			c.printArchives(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func (c *cli) palette() (ok, warn, bad func(a ...interface{}) string) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)
	if c.noColor {
		green.DisableColor()
		yellow.DisableColor()
		red.DisableColor()
	}
	return green.SprintFunc(), yellow.SprintFunc(), red.SprintFunc()
}

func (c *cli) printArchives(w io.Writer, r archive.Report) {
	ok, warn, bad := c.palette()
	fmt.Fprintf(w, "archives:  %s extracted, %s existing, %s failed\n",
		ok(r.Count(archive.StatusExtracted)),
		warn(r.Count(archive.StatusExisting)),
		bad(r.Count(archive.StatusFailed)))
	for _, res := range r.Results {
		if res.Err != nil {
			fmt.Fprintf(w, "  %s %s: %v\n", bad("✗"), res.Archive, res.Err)
		}
	}
}

func (c *cli) printSummary(w io.Writer, s docprep.Summary) {
	ok, warn, bad := c.palette()
	fmt.Fprintf(w, "run %s (period %s)\n", s.RunID, s.Period)
	c.printArchives(w, s.Archives)
	fmt.Fprintf(w, "documents: %d found, %s written, %s skipped, %s blacklisted (drop ratio %.2f)\n",
		s.Documents, ok(s.Written), warn(s.Skipped), warn(s.Blacklisted), s.DropRatio())
	for _, ch := range s.Chunks {
		if ch.Err != nil {
			fmt.Fprintf(w, "  %s chunk %d: %v\n", bad("✗"), ch.Index, ch.Err)
		}
	}
	status := ok("ok")
	if s.Failed > 0 {
		status = bad(fmt.Sprintf("%d chunks failed", s.Failed))
	}
	fmt.Fprintf(w, "segments:  %d chunks, %s, %s\n", len(s.Chunks), status, s.Duration.Round(time.Millisecond))
}
