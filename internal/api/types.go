package api

import (
	"scenefilter/internal/segment"
	"scenefilter/internal/store"
	"scenefilter/internal/trust"
)

// FilterState echoes the effective filter settings to API consumers.
type FilterState struct {
	Enabled             bool              `json:"enabled"`
	SafeMode            string            `json:"safeMode"`
	ConfidenceThreshold int               `json:"confidenceThreshold"`
	AdaptiveMode        bool              `json:"adaptiveMode"`
	AudioOnlyMode       bool              `json:"audioOnlyMode"`
	PreviewBeforeSkip   bool              `json:"previewBeforeSkip"`
	AutoSkipDelaySec    int               `json:"autoSkipDelaySec"`
	DebugMode           bool              `json:"debugMode"`
	CommunitySync       bool              `json:"communitySync"`
	CategoryActions     map[string]string `json:"categoryActions"`
}

// StateResponse is the aggregate payload behind the state endpoint: the
// settings, the merged trust-scored segments for the movie, the subset the
// gate would apply automatically, and the catalog provenance.
type StateResponse struct {
	State        FilterState    `json:"state"`
	MovieID      string         `json:"movieId,omitempty"`
	Segments     []trust.Scored `json:"segments"`
	AutoSegments []trust.Scored `json:"autoSegments"`
	Source       string         `json:"source"`
	Threshold    int            `json:"threshold"`
}

// MutationResponse reports the refreshed view after a segment mutation.
type MutationResponse struct {
	MovieID      string         `json:"movieId"`
	Segments     []trust.Scored `json:"segments"`
	AutoSegments []trust.Scored `json:"autoSegments"`
	Source       string         `json:"source"`
}

// ContributionResponse reports how many heuristic candidates landed.
type ContributionResponse struct {
	MovieID string `json:"movieId"`
	Added   int    `json:"added"`
}

// LocalSegmentsResponse lists the locally owned segments for one movie,
// manual tier first.
type LocalSegmentsResponse struct {
	MovieID  string            `json:"movieId"`
	Segments []segment.Segment `json:"segments"`
}

// ImportResponse wraps an import merge summary.
type ImportResponse struct {
	Summary store.ImportSummary `json:"summary"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running        bool   `json:"running"`
	PID            int    `json:"pid"`
	DatabasePath   string `json:"databasePath"`
	LockFilePath   string `json:"lockFilePath"`
	CatalogSource  string `json:"catalogSource"`
	ActiveContexts int    `json:"activeContexts"`
	ActiveDetector int    `json:"activeDetectors"`
}

// ContextResponse carries a freshly minted viewing-context identifier.
type ContextResponse struct {
	ContextID string `json:"contextId"`
}
