package domain

import "time"

// DurationCategory buckets an estimated duration.
type DurationCategory string

const (
	DurationSnippet DurationCategory = "snippet"
	DurationShort   DurationCategory = "short"
	DurationMedium  DurationCategory = "medium"
	DurationLong    DurationCategory = "long"
)

// FormatGroup buckets file formats by compression family.
type FormatGroup string

const (
	FormatLossless   FormatGroup = "lossless"
	FormatCompressed FormatGroup = "compressed"
	FormatOther      FormatGroup = "other"
)

// Features holds the signals derived from a file descriptor.
type Features struct {
	DurationCategory DurationCategory `json:"durationCategory"`
	FormatGroup      FormatGroup      `json:"formatGroup"`
	FilenameTokens   []string         `json:"filenameTokens"`
	DateContext      string           `json:"dateContext"`
}

// AudioFingerprint is the immutable feature record for one audio file.
// Duration is an estimate derived from the file size, not a measurement.
type AudioFingerprint struct {
	FilePath     string    `json:"filePath"`
	FileName     string    `json:"fileName"`
	Duration     float64   `json:"duration"`
	FileSize     int64     `json:"fileSize"`
	ModifiedDate time.Time `json:"modifiedDate"`
	Format       string    `json:"format"`
	Features     Features  `json:"features"`
}
