package domain

// Statistics summarizes an analyze call.
type Statistics struct {
	TotalFiles    int `json:"totalFiles"`
	AnalyzedFiles int `json:"analyzedFiles"`
	ClustersFound int `json:"clustersFound"`
}

// AnalysisResult is returned to the caller for review.
type AnalysisResult struct {
	Fingerprints []AudioFingerprint `json:"fingerprints"`
	Clusters     []AudioCluster     `json:"clusters"`
	Statistics   Statistics         `json:"statistics"`
	Threshold    float64            `json:"threshold,omitempty"`
	Errors       []FileError        `json:"errors,omitempty"`
	Message      string             `json:"message,omitempty"`
}

// MoveStatus is the outcome of a single file move.
type MoveStatus string

const (
	MoveSuccess MoveStatus = "success"
	MoveError   MoveStatus = "error"
	MovePlanned MoveStatus = "planned"
)

// FileOutcome reports what happened to one file during organize.
type FileOutcome struct {
	SourcePath string     `json:"sourcePath"`
	TargetPath string     `json:"targetPath"`
	Renamed    bool       `json:"renamed"`
	Status     MoveStatus `json:"status"`
	Error      string     `json:"error,omitempty"`
}

// OrganizeSummary counts per-file outcomes so callers can reconcile partial completion.
type OrganizeSummary struct {
	Moved  int `json:"moved"`
	Failed int `json:"failed"`
}

// OrganizeResult is returned by an organize call.
type OrganizeResult struct {
	ClusterID     string          `json:"clusterId,omitempty"`
	FolderPath    string          `json:"folderPath"`
	FolderCreated bool            `json:"folderCreated"`
	TitleFound    bool            `json:"titleFound"`
	Category      Category        `json:"category,omitempty"`
	Confidence    float64         `json:"confidence,omitempty"`
	DryRun        bool            `json:"dryRun,omitempty"`
	Results       []FileOutcome   `json:"results"`
	Summary       OrganizeSummary `json:"summary"`
}

// PartialFailure reports whether some but not necessarily all moves failed.
func (r OrganizeResult) PartialFailure() bool {
	return r.Summary.Failed > 0
}
