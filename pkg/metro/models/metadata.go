package models

import "time"

// VersionInfo describes one imported metro_config document.
type VersionInfo struct {
	VersionID int
	TimeStamp string
	Source    string
	CreatedAt time.Time
	IsActive  bool
}
