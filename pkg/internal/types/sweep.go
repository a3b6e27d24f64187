package types

import "time"

// SweepReport 孤儿对象清理结果.
type SweepReport struct {
	StartedAt time.Time `json:"started_at"`
	DryRun    bool      `json:"dry_run"`
	Scanned   int       `json:"scanned"`
	Orphans   []string  `json:"orphans"`
	Removed   []string  `json:"removed"`
	Dangling  []string  `json:"dangling"`
}
