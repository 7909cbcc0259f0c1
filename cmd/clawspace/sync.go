package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tianmingyun/huggingface-openclaw/pkg/hub"
	"github.com/tianmingyun/huggingface-openclaw/pkg/snapshot"
)

// The hub client is the production Store implementation.
var _ snapshot.Store = (*hub.Client)(nil)

// newSyncer wires the snapshot syncer from the environment settings. A
// missing dataset id yields a syncer whose operations all report
// not-configured.
func newSyncer(s settings) (*snapshot.Syncer, error) {
	cfg := snapshot.Config{
		DatasetID:    s.DatasetID,
		StateRoot:    s.StateRoot,
		LookbackDays: s.LookbackDays,
		Interval:     s.Interval,
	}
	if s.DatasetID != "" {
		var opts []hub.Option
		if s.HubEndpoint != "" {
			opts = append(opts, hub.WithEndpoint(s.HubEndpoint))
		}
		store, err := hub.NewClient(s.DatasetID, s.HubToken, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to build hub client: %w", err)
		}
		cfg.Store = store
	}
	return snapshot.New(cfg)
}

var syncCmd = &cobra.Command{
	Use:   "sync [backup|restore]",
	Short: "Run one snapshot sync operation against the dataset repo",
	Long: `Run a single backup or restore cycle against the configured dataset repo.

"backup" uploads today's archive; any other argument, or none, restores
the most recent one. Sync is fail-open: any failure is logged and the
command still exits 0, so a broken dataset never takes the container down
with it. Configuration comes from the environment (OPENCLAW_SYNC_DATASET,
HF_TOKEN, OPENCLAW_STATE_DIR).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Anything other than "backup", including no argument, restores.
		op := "restore"
		if len(args) == 1 && args[0] == "backup" {
			op = "backup"
		}

		syncer, err := newSyncer(loadSettings())
		if err != nil {
			// Misconfiguration is still fail-open here: log and exit clean.
			snapshot.LogResult(op, snapshot.Result{Outcome: snapshot.OutcomeFailed, Err: err})
			return nil
		}

		var res snapshot.Result
		if op == "backup" {
			res = syncer.Backup(cmd.Context())
		} else {
			res = syncer.Restore(cmd.Context())
		}
		snapshot.LogResult(op, res)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
