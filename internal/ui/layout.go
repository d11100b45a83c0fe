package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width to show secondary columns.
	LayoutWideWidth = 140
)

// Activity log limits.
const (
	// ActivityLineLimit is the number of log lines read into the activity view.
	ActivityLineLimit = 2000
)

// Timing constants.
const (
	// DefaultUIInterval is the header refresh interval.
	DefaultUIInterval = time.Second

	// ActionTimeout bounds a single save, delete or login request.
	ActionTimeout = 30 * time.Second

	// FlashDuration is how long a status message stays in the command bar.
	FlashDuration = 4 * time.Second
)

// pageWindowSize is the number of page numbers shown in the footer.
const pageWindowSize = 3
