package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ninja0404/launchpad-go-sdk/pkg/notify"
)

type eventLine struct {
	Tag     string          `json:"tag"`
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Text    string          `json:"text,omitempty"`
	Project string          `json:"project,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	At      time.Time       `json:"at"`
}

func newListenCmd(opts *globalOpts) *cobra.Command {
	var tags []string
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Print push notifications as JSON lines until interrupted",
		RunE: withDeps(opts, func(cmd *cobra.Command, args []string, d *runtimeDeps) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sub := d.hub.Subscribe(tags...)
			defer sub.Close()
			if err := d.listen(ctx); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for {
				ev, err := sub.Next(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return err
				}
				line := eventLine{Tag: ev.Tag, Success: ev.Success, Error: ev.Error, Text: ev.Text, Data: ev.Data, At: ev.At}
				if ev.Project != nil {
					line.Project = ev.Project.ID
				}
				if err := enc.Encode(line); err != nil {
					return err
				}
			}
		}),
	}
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "only print these tags (e.g. "+notify.TagBuyCompleted+")")
	return cmd
}
