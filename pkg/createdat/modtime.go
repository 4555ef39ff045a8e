package createdat

import (
	"io/fs"
	"os"
	"time"
)

// ModificationLayout renders content-modification dates as
// yyyy-MM-ddTHH:mm:ss.SSSZ.
const ModificationLayout = "2006-01-02T15:04:05.000Z"

// StatFunc reads file metadata. os.Stat satisfies it.
type StatFunc func(name string) (fs.FileInfo, error)

// ModificationDate returns the content-modification date of a file. A nil
// stat uses os.Stat.
func ModificationDate(stat StatFunc, path string) (time.Time, error) {
	if stat == nil {
		stat = os.Stat
	}
	info, err := stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// FormatModificationDate formats t in UTC with millisecond precision.
func FormatModificationDate(t time.Time) string {
	return t.UTC().Format(ModificationLayout)
}
