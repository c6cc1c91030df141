package naming

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ewilliams-labs/takesort/internal/core/domain"
)

// DateLayout is the folder and file date prefix.
const DateLayout = "20060102"

var (
	unsafeChars        = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
	repeatedUnderscore = regexp.MustCompile(`_+`)
)

// NormalizeTitle converts a title to Title_Case_With_Underscores and drops
// characters that are unsafe in folder names.
func NormalizeTitle(title string) string {
	titled := cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(title)))
	titled = strings.Join(strings.Fields(titled), "_")
	titled = unsafeChars.ReplaceAllString(titled, "_")
	titled = repeatedUnderscore.ReplaceAllString(titled, "_")
	return strings.Trim(titled, "_")
}

// FolderName builds "{YYYYMMDD}_{Title}". Without a usable title it falls
// back to "{YYYYMMDD}_{NN}", counting up from 01 until the name is absent
// from existing. Only the fallback avoids collisions.
func FolderName(date time.Time, title string, existing []string) (name string, titled bool) {
	prefix := date.Format(DateLayout)
	if normalized := NormalizeTitle(title); normalized != "" {
		return prefix + "_" + normalized, true
	}

	taken := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		taken[strings.ToLower(e)] = struct{}{}
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s_%02d", prefix, n)
		if _, ok := taken[strings.ToLower(candidate)]; !ok {
			return candidate, false
		}
	}
}

// ClusterDate is the earliest modification date among files, or now when
// none is known.
func ClusterDate(files []domain.AudioFingerprint, now time.Time) time.Time {
	var earliest time.Time
	for _, f := range files {
		if f.ModifiedDate.IsZero() {
			continue
		}
		if earliest.IsZero() || f.ModifiedDate.Before(earliest) {
			earliest = f.ModifiedDate
		}
	}
	if earliest.IsZero() {
		return now
	}
	return earliest
}

// ShouldRename reports whether a file carries a recorder-generated name
// (containing both "379" and "ch") that should be replaced.
func ShouldRename(fileName string) bool {
	lower := strings.ToLower(fileName)
	return strings.Contains(lower, "379") && strings.Contains(lower, "ch")
}

// RenamedFile returns "{date}_{NN}.{ext}" for the given 1-based index.
func RenamedFile(datePrefix string, index int, fileName string) string {
	name := fmt.Sprintf("%s_%02d", datePrefix, index)
	if ext := strings.ToLower(path.Ext(fileName)); ext != "" {
		name += ext
	}
	return name
}

// Move is one planned file relocation.
type Move struct {
	Source  string
	Target  string
	Renamed bool
}

// PlanMoves orders files by path and computes their targets inside folderPath.
func PlanMoves(files []domain.AudioFingerprint, folderPath string, datePrefix string) []Move {
	sorted := make([]domain.AudioFingerprint, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FilePath < sorted[j].FilePath
	})

	moves := make([]Move, 0, len(sorted))
	for i, f := range sorted {
		name := f.FileName
		if name == "" {
			name = path.Base(f.FilePath)
		}
		renamed := ShouldRename(name)
		if renamed {
			name = RenamedFile(datePrefix, i+1, name)
		}
		moves = append(moves, Move{
			Source:  f.FilePath,
			Target:  path.Join(folderPath, name),
			Renamed: renamed,
		})
	}
	return moves
}
