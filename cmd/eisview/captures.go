package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"eisview/capture"
	"eisview/config"
)

func newCapturesCmd(load func() (*config.Config, error)) *cobra.Command {
	capturesCmd := &cobra.Command{
		Use:   "captures",
		Short: "List and export recorded capture sessions",
	}

	capturesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List capture sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			captures := capture.NewSqliteStore(cfg.Capture.Path)
			defer func() { _ = captures.Close() }()

			sessions, err := captures.Sessions(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tDEVICE\tSTARTED\tSAMPLES")
			for _, session := range sessions {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					session.ID, session.Device, humanize.Time(session.StartedAt), humanize.Comma(int64(session.Samples)))
			}
			return w.Flush()
		},
	})

	capturesCmd.AddCommand(&cobra.Command{
		Use:   "export <id> <file.json>",
		Short: "Write a capture session as a replay record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			captures := capture.NewSqliteStore(cfg.Capture.Path)
			defer func() { _ = captures.Close() }()

			record, err := captures.LoadRecord(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := capture.WriteRecordFile(args[1], record); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s samples to %s\n", humanize.Comma(int64(record.Len())), args[1])
			return err
		},
	})

	capturesCmd.AddCommand(&cobra.Command{
		Use:   "import <raw.jsonl> <file.json>",
		Short: "Turn a serial raw log into a replay record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := load(); err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = file.Close() }()

			record, skipped, err := capture.RecordFromRawLog(file)
			if err != nil {
				return err
			}
			if skipped > 0 {
				log.Warn().Int("skipped", skipped).Msg("skipped lines that didn't decode")
			}
			if err := capture.WriteRecordFile(args[1], record); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s samples to %s\n", humanize.Comma(int64(record.Len())), args[1])
			return err
		},
	})

	return capturesCmd
}
