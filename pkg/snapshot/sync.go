// Package snapshot preserves mutable agent state across container
// restarts. Space containers are ephemeral, so on every boot the most
// recent dated archive is restored from a dataset repo, and a periodic
// loop uploads a fresh archive for the current day. Both directions are
// fail-open: a sync failure is logged and never crashes the host.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/juju/clock"

	"github.com/tianmingyun/huggingface-openclaw/pkg/log"
)

// DefaultInterval is the wall-clock cadence of the periodic backup loop.
const DefaultInterval = 3 * time.Hour

// DefaultPartitions are the top-level subtrees of the state root eligible
// for backup and restore. Everything else under the root, notably the
// skill install area, is out of scope so a restore can never clobber a
// freshly provisioned skill with a stale copy.
var DefaultPartitions = []string{"sessions", "workspace", "memory", "plugins", "agents"}

// Store is the remote archive namespace the syncer talks to. pkg/hub
// implements it against a HuggingFace dataset repo.
type Store interface {
	// List enumerates all object names currently stored. An empty dataset
	// yields an empty slice, not an error.
	List(ctx context.Context) ([]string, error)
	// Download fetches one named object into destDir and returns its path.
	Download(ctx context.Context, name, destDir string) (string, error)
	// Upload stores or overwrites an object under the given name.
	Upload(ctx context.Context, localPath, name string) error
}

// Outcome classifies how a sync operation ended.
type Outcome string

const (
	// OutcomeRestored means a snapshot was downloaded and extracted.
	OutcomeRestored Outcome = "restored"
	// OutcomeBackedUp means today's archive was built and uploaded.
	OutcomeBackedUp Outcome = "backed-up"
	// OutcomeNotConfigured means no dataset is configured; sync is a no-op.
	OutcomeNotConfigured Outcome = "not-configured"
	// OutcomeNoSnapshot means no archive exists within the lookback window.
	OutcomeNoSnapshot Outcome = "no-snapshot"
	// OutcomeBusy means a backup cycle was skipped because the previous
	// one is still running.
	OutcomeBusy Outcome = "busy"
	// OutcomeFailed means the operation aborted; Err carries the cause.
	OutcomeFailed Outcome = "failed"
)

// Result is the explicit value every sync operation returns. No error from
// this subsystem ever escapes as a panic or a fatal; the caller decides
// what to log and always proceeds.
type Result struct {
	Outcome Outcome
	Archive string
	Err     error
}

// Restored reports whether local state was replaced from a snapshot.
func (r Result) Restored() bool { return r.Outcome == OutcomeRestored }

// Config carries everything the syncer needs. No ambient environment
// lookups happen inside the component; the CLI edge populates this.
type Config struct {
	// DatasetID is the dataset repo archives live in. Empty disables sync.
	DatasetID string
	// StateRoot is the local directory tree snapshots restore into and
	// backups read from.
	StateRoot string
	// Partitions overrides DefaultPartitions when non-nil.
	Partitions []string
	// LookbackDays overrides DefaultLookbackDays when positive.
	LookbackDays int
	// Interval overrides DefaultInterval when positive.
	Interval time.Duration
	// Clock supplies time for archive naming and the periodic loop.
	// Defaults to the wall clock.
	Clock clock.Clock
	// Store is the remote client. Required whenever DatasetID is set.
	Store Store
	// ScratchDir is where archives are staged before upload and after
	// download. Defaults to the system temp directory.
	ScratchDir string
}

// Syncer orchestrates restore on boot and periodic backups thereafter.
type Syncer struct {
	cfg     Config
	backing atomic.Bool
}

// New validates cfg, fills defaults, and returns a Syncer.
func New(cfg Config) (*Syncer, error) {
	if cfg.DatasetID != "" {
		if cfg.Store == nil {
			return nil, errors.New("snapshot: store is required when a dataset is configured")
		}
		if cfg.StateRoot == "" {
			return nil, errors.New("snapshot: state root is required when a dataset is configured")
		}
	}
	if cfg.Partitions == nil {
		cfg.Partitions = DefaultPartitions
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultLookbackDays
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = os.TempDir()
	}
	return &Syncer{cfg: cfg}, nil
}

// Configured reports whether a dataset repo is configured at all.
func (s *Syncer) Configured() bool { return s.cfg.DatasetID != "" }

// Interval returns the effective backup cadence.
func (s *Syncer) Interval() time.Duration { return s.cfg.Interval }

// Restore downloads and extracts the most recent snapshot within the
// lookback window. It must run before anything else reads or writes the
// state root; the gateway is not launched until it returns.
func (s *Syncer) Restore(ctx context.Context) Result {
	if !s.Configured() {
		return Result{Outcome: OutcomeNotConfigured}
	}

	index, err := s.cfg.Store.List(ctx)
	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("failed to list dataset %s: %w", s.cfg.DatasetID, err)}
	}

	name, ok := SelectArchive(index, s.cfg.Clock.Now().UTC(), s.cfg.LookbackDays)
	if !ok {
		return Result{Outcome: OutcomeNoSnapshot}
	}

	local, err := s.cfg.Store.Download(ctx, name, s.cfg.ScratchDir)
	if err != nil {
		return Result{Outcome: OutcomeFailed, Archive: name, Err: fmt.Errorf("failed to download %s: %w", name, err)}
	}
	defer os.Remove(local)

	if err := ExtractArchive(local, s.cfg.StateRoot); err != nil {
		return Result{Outcome: OutcomeFailed, Archive: name, Err: fmt.Errorf("failed to extract %s: %w", name, err)}
	}
	return Result{Outcome: OutcomeRestored, Archive: name}
}

// Backup archives the configured partitions and uploads the result under
// today's name, overwriting any earlier upload for the same day. Repeated
// backups on one day collapse to a single stored object reflecting the
// latest run. A cycle that overlaps a still-running one is skipped rather
// than racing it for the staging path.
func (s *Syncer) Backup(ctx context.Context) Result {
	if !s.Configured() {
		return Result{Outcome: OutcomeNotConfigured}
	}
	if !s.backing.CompareAndSwap(false, true) {
		return Result{Outcome: OutcomeBusy}
	}
	defer s.backing.Store(false)

	name := ArchiveName(s.cfg.Clock.Now().UTC())
	staged := filepath.Join(s.cfg.ScratchDir, name)
	defer os.Remove(staged)

	if err := BuildArchive(s.cfg.StateRoot, s.cfg.Partitions, staged); err != nil {
		return Result{Outcome: OutcomeFailed, Archive: name, Err: fmt.Errorf("failed to build %s: %w", name, err)}
	}
	if err := s.cfg.Store.Upload(ctx, staged, name); err != nil {
		return Result{Outcome: OutcomeFailed, Archive: name, Err: fmt.Errorf("failed to upload %s: %w", name, err)}
	}
	return Result{Outcome: OutcomeBackedUp, Archive: name}
}

// RunPeriodic invokes Backup every interval until ctx is cancelled. A
// failed cycle is logged and the loop stays on schedule; there is no final
// backup on shutdown, so at most one interval of changes is lost on a
// kill. Runs on the injected clock so tests never sleep wall time.
func (s *Syncer) RunPeriodic(ctx context.Context) {
	if !s.Configured() {
		return
	}
	timer := s.cfg.Clock.NewTimer(s.cfg.Interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.Chan():
			res := s.Backup(ctx)
			LogResult("backup", res)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// LogResult writes one log line describing a sync result, at a severity
// matching the outcome. Failures surface here and nowhere else.
func LogResult(op string, res Result) {
	switch res.Outcome {
	case OutcomeNotConfigured:
		log.Debug("state sync not configured, skipping", "op", op)
	case OutcomeNoSnapshot:
		log.Info("no snapshot found within lookback window, starting cold", "op", op)
	case OutcomeBusy:
		log.Warn("previous backup still running, skipping cycle", "op", op)
	case OutcomeFailed:
		log.Error("state sync failed", "op", op, "archive", res.Archive, "error", res.Err)
	default:
		log.Info("state sync completed", "op", op, "outcome", string(res.Outcome), "archive", res.Archive)
	}
}
