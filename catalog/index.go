package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mwantia/x4vfs/backend"
	"github.com/mwantia/x4vfs/data"
	dataerrors "github.com/mwantia/x4vfs/data/errors"
	"github.com/mwantia/x4vfs/log"
)

const (
	ManifestExtension = ".cat"
	DataExtension     = ".dat"
)

// Pair is one manifest and its companion data blob, both as storage keys.
type Pair struct {
	Name     string
	Manifest string
	Data     string
}

// Index resolves logical paths of one data source to archive entries.
//
// Manifests are enumerated when the index is created but parsed lazily: a
// lookup that misses parses one more queued manifest and retries, until the
// path resolves or the queue runs dry. The tree only ever grows and the
// first manifest to register a file keeps it.
type Index struct {
	mu sync.Mutex

	storage backend.ArchiveStorage
	dir     string
	log     *log.Logger

	queue    []Pair
	blobs    map[string]int64
	loaded   map[string]struct{}
	parsed   []string
	failures data.Errors
	tree     *Tree
}

// NewIndex enumerates the archive pairs found directly in dir. Nothing is
// parsed yet. Pairs are parsed from the highest name downwards, so a later
// numbered catalog shadows an earlier one.
func NewIndex(ctx context.Context, storage backend.ArchiveStorage, dir string, opts ...IndexOption) (*Index, error) {
	options := newDefaultIndexOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	caps := storage.GetCapabilities()
	if caps == nil || !caps.Contains(backend.CapabilityListing) {
		return nil, dataerrors.Unsupported(storage.Name(), "listing")
	}

	dir = data.NormalizePath(dir)
	stats, err := storage.ListObjects(ctx, dir)
	if err != nil {
		return nil, err
	}

	// Lowercased name to the stat as listed, so pairs resolve on
	// case-sensitive storage
	names := make(map[string]*data.ObjectStat, len(stats))
	for _, stat := range stats {
		if !stat.IsDir {
			names[strings.ToLower(stat.Name)] = stat
		}
	}

	idx := &Index{
		storage: storage,
		dir:     dir,
		log:     options.Logger,
		blobs:   make(map[string]int64),
		loaded:  make(map[string]struct{}),
		tree:    NewTree(),
	}

	// stats are sorted by name, the queue is popped from the end
	for _, stat := range stats {
		if stat.IsDir {
			continue
		}

		lower := strings.ToLower(stat.Name)
		if !strings.HasSuffix(lower, ManifestExtension) {
			continue
		}
		if options.Exclude != nil && options.Exclude.MatchString(lower) {
			idx.log.Debug("Skipping excluded manifest '%s'", stat.Key)
			continue
		}

		base := stat.Name[:len(stat.Name)-len(ManifestExtension)]
		blob, ok := names[strings.ToLower(base)+DataExtension]
		if !ok {
			idx.log.Debug("Skipping manifest '%s' without data blob", stat.Key)
			continue
		}

		pair := Pair{
			Name:     base,
			Manifest: data.JoinPath(dir, stat.Name),
			Data:     data.JoinPath(dir, blob.Name),
		}
		// Range-read backends report real object sizes in their listings
		if caps.Contains(backend.CapabilityRangeRead) {
			idx.blobs[pair.Data] = blob.Size
		}

		idx.queue = append(idx.queue, pair)
	}

	idx.log.Debug("Enumerated %d archive pairs in '%s'", len(idx.queue), dir)

	return idx, nil
}

// Dir returns the storage directory this index was built from.
func (idx *Index) Dir() string {
	return idx.dir
}

// TryResolve looks path up in the tree as parsed so far. It never parses.
func (idx *Index) TryResolve(path string) (data.Entry, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	dirs, name := data.SplitPath(path)
	node, ok := idx.tree.Find(dirs)
	if !ok {
		return data.Entry{}, false
	}

	return idx.tree.File(node, name)
}

// Advance parses the next queued manifest. Malformed or unreadable manifests
// are dropped from the queue and recorded; Advance then moves on to the next
// one. Returns false once the queue is exhausted without a successful parse,
// or when ctx is done.
func (idx *Index) Advance(ctx context.Context) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return idx.advanceUnsafe(ctx)
}

// Lookup resolves path, parsing queued manifests only while the next path
// segment or the file name is still missing.
func (idx *Index) Lookup(ctx context.Context, path string) (data.Entry, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	dirs, name := data.SplitPath(path)
	if name == "" {
		return data.Entry{}, dataerrors.InvalidPath(path)
	}
	// Manifest records without a separator are never registered
	if len(dirs) == 0 {
		return data.Entry{}, dataerrors.NotFound(path)
	}

	node := RootID
	for _, segment := range dirs {
		child, ok := idx.tree.Child(node, segment)
		for !ok && idx.advanceUnsafe(ctx) {
			child, ok = idx.tree.Child(node, segment)
		}

		if !ok {
			return data.Entry{}, missed(ctx, path)
		}
		node = child
	}

	entry, ok := idx.tree.File(node, name)
	for !ok && idx.advanceUnsafe(ctx) {
		entry, ok = idx.tree.File(node, name)
	}

	if !ok {
		return data.Entry{}, missed(ctx, path)
	}

	return entry, nil
}

// missed reports a failed lookup. A lookup cut short by ctx may have left
// manifests unparsed, so it is not a definite miss.
func missed(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return dataerrors.NotFound(path)
}

// Exists reports whether path resolves in this index.
func (idx *Index) Exists(ctx context.Context, path string) bool {
	_, err := idx.Lookup(ctx, path)
	return err == nil
}

// Open resolves path and reads its bytes.
func (idx *Index) Open(ctx context.Context, path string) ([]byte, error) {
	entry, err := idx.Lookup(ctx, path)
	if err != nil {
		return nil, err
	}

	return idx.Read(ctx, entry)
}

// Read fetches exactly entry.Size bytes at entry.Offset of its data blob.
// Entries reaching past the end of a blob of known length fail with
// data.ErrReadFailed without touching storage.
func (idx *Index) Read(ctx context.Context, entry data.Entry) ([]byte, error) {
	if length, ok := idx.blobs[entry.Pair]; ok {
		if entry.Offset < 0 || entry.Size < 0 || entry.Offset > length || entry.Size > length-entry.Offset {
			return nil, dataerrors.ReadFailed(fmt.Errorf("entry '%s' at %d+%d exceeds blob length %d",
				entry.Name, entry.Offset, entry.Size, length), entry.Pair)
		}
	}

	return backend.ReadRange(ctx, idx.storage, entry.Pair, entry.Offset, entry.Size)
}

// LoadAll drains the queue and returns the number of manifests parsed.
func (idx *Index) LoadAll(ctx context.Context) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	count := 0
	for idx.advanceUnsafe(ctx) {
		count++
	}
	return count
}

// ReadDirectory fully loads the index and lists the directory at path.
func (idx *Index) ReadDirectory(ctx context.Context, path string) ([]string, []data.Entry, error) {
	idx.LoadAll(ctx)
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	segments := strings.Split(strings.ToLower(data.NormalizePath(path)), "/")
	if len(segments) == 1 && segments[0] == "" {
		segments = nil
	}

	node, ok := idx.tree.Find(segments)
	if !ok {
		return nil, nil, dataerrors.NotFound(path)
	}

	return idx.tree.Directories(node), idx.tree.Files(node), nil
}

// Pending returns the number of manifests still queued.
func (idx *Index) Pending() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return len(idx.queue)
}

// Parsed returns the manifest keys parsed so far, in parse order.
func (idx *Index) Parsed() []string {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return append([]string(nil), idx.parsed...)
}

// Failures returns the manifests that could not be parsed, joined.
func (idx *Index) Failures() error {
	return idx.failures.Errors()
}

// FileCount returns the number of files registered so far.
func (idx *Index) FileCount() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return idx.tree.FileCount()
}

// Must be called with lock held.
func (idx *Index) advanceUnsafe(ctx context.Context) bool {
	for len(idx.queue) > 0 {
		if ctx.Err() != nil {
			return false
		}

		pair := idx.queue[len(idx.queue)-1]
		idx.queue = idx.queue[:len(idx.queue)-1]

		if _, ok := idx.loaded[pair.Manifest]; ok {
			continue
		}

		if err := idx.parseUnsafe(ctx, pair); err != nil {
			idx.failures.Add(err)
			idx.log.Warn("Skipping archive pair '%s': %v", pair.Manifest, err)
			continue
		}

		return true
	}

	return false
}

// Must be called with lock held.
func (idx *Index) parseUnsafe(ctx context.Context, pair Pair) error {
	reader, err := idx.storage.OpenObject(ctx, pair.Manifest)
	if err != nil {
		return dataerrors.MalformedManifest(err, pair.Manifest, 0)
	}
	defer reader.Close()

	records, err := ParseManifest(reader, pair.Manifest)
	if err != nil {
		var manifestErr *dataerrors.ManifestError
		if errors.As(err, &manifestErr) {
			return err
		}
		return dataerrors.MalformedManifest(err, pair.Manifest, 0)
	}

	registered := 0
	for _, record := range records {
		node := idx.tree.EnsurePath(record.Dirs)
		if idx.tree.InsertFile(node, data.Entry{
			Pair:   pair.Data,
			Name:   record.Name,
			Size:   record.Size,
			Offset: record.Offset,
		}) {
			registered++
		}
	}

	idx.loaded[pair.Manifest] = struct{}{}
	idx.parsed = append(idx.parsed, pair.Manifest)
	idx.log.Debug("Parsed '%s': %d records, %d registered", pair.Manifest, len(records), registered)

	return nil
}
