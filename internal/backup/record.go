package backup

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

const timestampLayout = "20060102_150405"

// Record is one entry in the backup ledger. JSON names match the on-disk
// history format.
type Record struct {
	ID               string     `json:"id"`
	Timestamp        string     `json:"timestamp"`
	Status           Status     `json:"status"`
	LocalPath        string     `json:"local_path"`
	RemotePath       string     `json:"remote_path"`
	SelectedPaths    []string   `json:"selected_paths,omitempty"`
	Output           string     `json:"output"`
	Error            string     `json:"error,omitempty"`
	Duration         float64    `json:"duration"`
	FilesTransferred int64      `json:"files_transferred"`
	BytesTransferred int64      `json:"bytes_transferred"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time,omitempty"`
}

// NewRecord seeds a running record for a job starting at now. The id and
// remote path both derive from the second-resolution timestamp.
func NewRecord(now time.Time, st Settings, selected []string) *Record {
	ts := now.Format(timestampLayout)

	return &Record{
		ID:            "backup_" + ts,
		Timestamp:     ts,
		Status:        StatusRunning,
		LocalPath:     st.DataPath,
		RemotePath:    fmt.Sprintf("%s:%s/%s", st.Remote, st.Bucket, ts),
		SelectedPaths: selected,
		StartTime:     now,
	}
}

func (r *Record) Terminal() bool {
	return r.Status == StatusSuccess || r.Status == StatusError
}
