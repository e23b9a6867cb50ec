package backup

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/TanZiPeng/mcserver/internal/utils"
	"go.uber.org/zap"
)

// ErrBackupInProgress rejects a job start while another job is still running
// in this process.
var ErrBackupInProgress = errors.New("a backup is already running")

const errorPreviewLimit = 500

// Settings is the configuration slice a job needs, captured at job start so
// a concurrent config update cannot change a running job.
type Settings struct {
	DataPath string
	Remote   string
	Bucket   string
}

// Runner orchestrates backup jobs: it plans sub-transfers, brackets them
// with ledger writes, and reports through the notifier. At most one job runs
// per process.
type Runner struct {
	history  *History
	syncer   Syncer
	notifier Notifier
	settings func() Settings
	log      *zap.Logger
	now      func() time.Time

	running atomic.Bool
}

func NewRunner(history *History, syncer Syncer, notifier Notifier, settings func() Settings, log *zap.Logger) *Runner {
	return &Runner{
		history:  history,
		syncer:   syncer,
		notifier: notifier,
		settings: settings,
		log:      log,
		now:      time.Now,
	}
}

// Running reports whether a job is currently executing.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// StartAsync triggers a job and returns immediately. The only error is
// ErrBackupInProgress.
func (r *Runner) StartAsync(selected []string) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrBackupInProgress
	}

	go func() {
		defer r.running.Store(false)
		r.run(context.Background(), selected)
	}()

	return nil
}

// Execute runs a job synchronously and returns the completed record. The
// only error is ErrBackupInProgress; job failures report through the record
// status instead.
func (r *Runner) Execute(ctx context.Context, selected []string) (*Record, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrBackupInProgress
	}
	defer r.running.Store(false)

	return r.run(ctx, selected), nil
}

func (r *Runner) run(ctx context.Context, selected []string) *Record {
	start := r.now()
	st := r.settings()

	rec := NewRecord(start, st, selected)
	invs := BuildInvocations(st.DataPath, rec.RemotePath, selected)

	// the running record must be durable before any transfer starts
	r.history.Append(*rec)

	r.log.Info("backup started",
		zap.String("id", rec.ID),
		zap.String("remote", rec.RemotePath),
		zap.Int("sub_transfers", len(invs)))

	r.notifier.Notify(ctx, SeverityInfo, "Backup started",
		fmt.Sprintf("**Source**: `%s`\n**Destination**: `%s`\n**Backup ID**: `%s`",
			st.DataPath, rec.RemotePath, rec.ID))

	var (
		stats    TransferStats
		stdouts  []string
		stderrs  []string
		failed   bool
		abortErr error
	)

	for _, inv := range invs {
		res := r.syncer.Run(ctx, inv)

		if res.Output != "" {
			stdouts = append(stdouts, res.Output)
		}
		if res.ErrOutput != "" {
			stderrs = append(stderrs, res.ErrOutput)
		}

		// rclone writes its final stats block to stderr, so scan both streams
		stats.Add(ParseTransferStats(res.Output + "\n" + res.ErrOutput))

		if res.Err != nil {
			// the tool could not run; the remaining sub-transfers would fail the same way
			abortErr = res.Err
			break
		}

		if res.ExitCode != 0 {
			failed = true
			r.log.Warn("sub-transfer failed",
				zap.String("id", rec.ID),
				zap.String("source", inv.Source),
				zap.Int("exit_code", res.ExitCode))
		}
	}

	end := r.now()
	rec.EndTime = &end
	rec.Duration = math.Round(end.Sub(start).Seconds()*100) / 100
	rec.Output = strings.Join(stdouts, "\n")
	rec.FilesTransferred = stats.Files
	rec.BytesTransferred = stats.Bytes

	switch {
	case abortErr != nil:
		rec.Status = StatusError
		rec.Error = abortErr.Error()
	case failed:
		rec.Status = StatusError
		rec.Error = strings.Join(stderrs, "\n")
	default:
		rec.Status = StatusSuccess
	}

	// durable state first, notification second
	if !r.history.Update(*rec) {
		r.log.Warn("backup record missing from history at completion", zap.String("id", rec.ID))
	}

	if rec.Status == StatusSuccess {
		r.log.Info("backup finished",
			zap.String("id", rec.ID),
			zap.Float64("duration_s", rec.Duration),
			zap.Int64("files", rec.FilesTransferred),
			zap.Int64("bytes", rec.BytesTransferred))

		r.notifier.Notify(ctx, SeveritySuccess, "Backup completed",
			fmt.Sprintf("**Backup ID**: `%s`\n**Duration**: %.2f s\n**Files transferred**: %d\n**Data transferred**: %s\n**Destination**: `%s`",
				rec.ID, rec.Duration, rec.FilesTransferred,
				utils.FormatBytes(rec.BytesTransferred), rec.RemotePath))
	} else {
		preview := rec.Error
		if len(preview) > errorPreviewLimit {
			preview = preview[:errorPreviewLimit]
		}
		if preview == "" {
			preview = "unknown error"
		}

		r.log.Error("backup failed",
			zap.String("id", rec.ID),
			zap.Float64("duration_s", rec.Duration),
			zap.String("error", utils.TruncateString(rec.Error, 200)))

		r.notifier.Notify(ctx, SeverityError, "Backup failed",
			fmt.Sprintf("**Backup ID**: `%s`\n**Duration**: %.2f s\n**Error**:\n```\n%s\n```",
				rec.ID, rec.Duration, preview))
	}

	return rec
}
