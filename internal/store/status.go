package store

import (
	"fmt"
	"time"
)

// Status is the rendered form of `index status`.
type Status struct {
	Ready       bool
	Model       string
	Dim         int
	Vectors     int
	LastRefresh string
	RelativeAge string
	Analytics   Analytics
}

// LoadStatus reports the index's current status. It does not
// re-verify checksums; that is `index verify`'s job.
func LoadStatus(root string) (Status, bool) {
	paths := NewPaths(root)
	manifest, err := LoadManifest(paths.Manifest)
	if err != nil {
		return Status{}, false
	}
	analytics, _ := LoadAnalytics(paths.Analytics)
	return Status{
		Ready:       true,
		Model:       manifest.Model,
		Dim:         manifest.Dim,
		Vectors:     manifest.Counts.Chunks,
		LastRefresh: manifest.LastRefresh,
		RelativeAge: RelativeAge(manifest.LastRefresh),
		Analytics:   analytics,
	}, true
}

// RelativeAge renders an RFC-3339 timestamp as a human-readable age
// ("now", "3m ago", "2h ago", "5d ago", "2w ago").
func RelativeAge(iso string) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return ""
	}
	d := time.Since(t)
	seconds := int64(d.Seconds())

	switch {
	case seconds < 60:
		return "now"
	case seconds < 3600:
		return fmt.Sprintf("%dm ago", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh ago", seconds/3600)
	case seconds < 604800:
		return fmt.Sprintf("%dd ago", seconds/86400)
	default:
		return fmt.Sprintf("%dw ago", seconds/604800)
	}
}
