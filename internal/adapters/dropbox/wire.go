package dropbox

import (
	"time"

	"github.com/ewilliams-labs/takesort/internal/core/domain"
)

type pathArg struct {
	Path string `json:"path"`
}

type listFolderArg struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
	Limit     int    `json:"limit,omitempty"`
}

type listFolderContinueArg struct {
	Cursor string `json:"cursor"`
}

type createFolderArg struct {
	Path       string `json:"path"`
	Autorename bool   `json:"autorename"`
}

type relocationArg struct {
	FromPath   string `json:"from_path"`
	ToPath     string `json:"to_path"`
	Autorename bool   `json:"autorename"`
}

// metadata is the ".tag" discriminated entry shared by every files endpoint.
type metadata struct {
	Tag            string     `json:".tag"`
	Name           string     `json:"name"`
	PathDisplay    string     `json:"path_display"`
	PathLower      string     `json:"path_lower"`
	Size           *int64     `json:"size,omitempty"`
	ClientModified *time.Time `json:"client_modified,omitempty"`
	ServerModified *time.Time `json:"server_modified,omitempty"`
}

type listFolderResult struct {
	Entries []metadata `json:"entries"`
	Cursor  string     `json:"cursor"`
	HasMore bool       `json:"has_more"`
}

type metadataResult struct {
	Metadata metadata `json:"metadata"`
}

type apiError struct {
	ErrorSummary string `json:"error_summary"`
}

// toDomain maps an entry. Deleted entries and unknown tags are reported as
// not ok. The client modification time is preferred because it follows the
// file from the recorder; the server time only records the upload.
func (m metadata) toDomain() (domain.FileDescriptor, bool) {
	kind, err := domain.ParseEntryKind(m.Tag)
	if err != nil {
		return domain.FileDescriptor{}, false
	}
	p := m.PathDisplay
	if p == "" {
		p = m.PathLower
	}

	switch kind {
	case domain.KindFolder:
		d := domain.NewFolder(p)
		d.Name = m.Name
		return d, true
	case domain.KindFile:
		d := domain.FileDescriptor{Kind: domain.KindFile, Path: p, Name: m.Name, Size: m.Size}
		modified := m.ClientModified
		if modified == nil {
			modified = m.ServerModified
		}
		if modified != nil {
			utc := modified.UTC()
			d.Modified = &utc
		}
		return d, true
	default:
		return domain.FileDescriptor{}, false
	}
}
