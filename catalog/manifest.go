package catalog

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mwantia/x4vfs/data"
	"github.com/mwantia/x4vfs/data/errors"
)

// Manifest lines have the shape "path size timestamp hash". The path may
// contain spaces, so it is matched greedily up to the last three fields.
var recordPattern = regexp.MustCompile(`^(.+) ([0-9]+) ([0-9]+) ([0-9a-f]+)$`)

// Record is one manifest line with its derived position in the data blob.
type Record struct {
	Path      string
	Dirs      []string
	Name      string
	Size      int64
	Offset    int64
	Timestamp int64
	Hash      string
}

// ParseManifest reads a manifest and returns its records in file order.
// Offsets are the running sum of the sizes of all preceding lines, including
// lines whose path has no separator; those lines are dropped from the result.
// A single line that does not match the record shape fails the whole manifest
// with a *errors.ManifestError.
func ParseManifest(r io.Reader, manifest string) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		records []Record
		offset  int64
		lineNo  int
	)

	for scanner.Scan() {
		lineNo++

		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		parts := recordPattern.FindStringSubmatch(strings.ToLower(line))
		if parts == nil {
			return nil, errors.MalformedManifest(fmt.Errorf("unexpected record %q", line), manifest, lineNo)
		}

		size, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return nil, errors.MalformedManifest(err, manifest, lineNo)
		}
		if size > math.MaxInt64-offset {
			return nil, errors.MalformedManifest(fmt.Errorf("size %d overflows blob offset %d", size, offset), manifest, lineNo)
		}
		// Informational only; out of range values are kept as zero
		timestamp, _ := strconv.ParseInt(parts[3], 10, 64)

		start := offset
		offset += size

		path := parts[1]
		if !strings.Contains(path, "/") {
			continue
		}

		dirs, name := data.SplitPath(path)
		if name == "" {
			continue
		}

		records = append(records, Record{
			Path:      path,
			Dirs:      dirs,
			Name:      name,
			Size:      size,
			Offset:    start,
			Timestamp: timestamp,
			Hash:      parts[4],
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.MalformedManifest(err, manifest, lineNo)
	}

	return records, nil
}
