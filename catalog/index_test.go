package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/mwantia/x4vfs/backend"
	"github.com/mwantia/x4vfs/backend/direct"
	"github.com/mwantia/x4vfs/backend/ephemeral"
	"github.com/mwantia/x4vfs/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixtureFile struct {
	path    string
	content string
}

// putPair writes a manifest and data blob named base into dir.
func putPair(eb *ephemeral.EphemeralBackend, dir, base string, files ...fixtureFile) {
	var manifest, blob strings.Builder
	for _, file := range files {
		fmt.Fprintf(&manifest, "%s %d 1700000000 0123abcd\n", file.path, len(file.content))
		blob.WriteString(file.content)
	}

	eb.Put(data.JoinPath(dir, base+ManifestExtension), []byte(manifest.String()))
	eb.Put(data.JoinPath(dir, base+DataExtension), []byte(blob.String()))
}

func newTestIndex(t *testing.T, eb *ephemeral.EphemeralBackend, dir string, opts ...IndexOption) *Index {
	t.Helper()

	idx, err := NewIndex(t.Context(), eb, dir, opts...)
	require.NoError(t, err)
	return idx
}

func TestIndex_Offsets(t *testing.T) {
	eb := ephemeral.NewEphemeralBackend()
	putPair(eb, "", "01",
		fixtureFile{"libraries/a.xml", "<a>12</a>"},
		fixtureFile{"loose.txt", "xx"},
		fixtureFile{"libraries/b.xml", "<b/>"},
		fixtureFile{"md/c.xml", "<c>ccc</c>"},
	)

	idx := newTestIndex(t, eb, "")
	ctx := t.Context()

	tests := []struct {
		path   string
		offset int64
		size   int64
		want   string
	}{
		{"libraries/a.xml", 0, 9, "<a>12</a>"},
		{"libraries/b.xml", 11, 4, "<b/>"},
		{"md/c.xml", 15, 10, "<c>ccc</c>"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			entry, err := idx.Lookup(ctx, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.offset, entry.Offset)
			assert.Equal(t, tt.size, entry.Size)
			assert.Equal(t, "01.dat", entry.Pair)

			content, err := idx.Open(ctx, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(content))
		})
	}
}

func TestIndex_LazyParsing(t *testing.T) {
	eb := ephemeral.NewEphemeralBackend()
	putPair(eb, "", "01", fixtureFile{"aiscripts/one.xml", "1"})
	putPair(eb, "", "02", fixtureFile{"libraries/two.xml", "2"})
	putPair(eb, "", "03", fixtureFile{"md/three.xml", "3"})

	idx := newTestIndex(t, eb, "")
	ctx := t.Context()

	assert.Equal(t, 3, idx.Pending())
	assert.Empty(t, idx.Parsed())

	_, ok := idx.TryResolve("md/three.xml")
	assert.False(t, ok)

	// Root level paths never resolve and never parse
	_, err := idx.Lookup(ctx, "three.xml")
	assert.ErrorIs(t, err, data.ErrNotExist)
	assert.Empty(t, idx.Parsed())

	// Highest name is parsed first
	_, err = idx.Lookup(ctx, "md/three.xml")
	require.NoError(t, err)
	assert.Equal(t, []string{"03.cat"}, idx.Parsed())

	_, ok = idx.TryResolve("md/three.xml")
	assert.True(t, ok)

	_, err = idx.Lookup(ctx, "libraries/two.xml")
	require.NoError(t, err)
	assert.Equal(t, []string{"03.cat", "02.cat"}, idx.Parsed())
	assert.Equal(t, 1, idx.Pending())

	// A miss exhausts the queue
	_, err = idx.Lookup(ctx, "libraries/missing.xml")
	assert.ErrorIs(t, err, data.ErrNotExist)
	assert.Equal(t, 0, idx.Pending())
	assert.Len(t, idx.Parsed(), 3)

	assert.False(t, idx.Advance(ctx))
}

func TestIndex_FirstRegisteredWins(t *testing.T) {
	eb := ephemeral.NewEphemeralBackend()
	putPair(eb, "", "01", fixtureFile{"libraries/x.xml", "old"}, fixtureFile{"libraries/only01.xml", "o"})
	putPair(eb, "", "02", fixtureFile{"libraries/x.xml", "new"})

	idx := newTestIndex(t, eb, "")
	ctx := t.Context()

	content, err := idx.Open(ctx, "libraries/x.xml")
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))

	// Parsing 01 later must not replace the entry
	_, err = idx.Lookup(ctx, "libraries/only01.xml")
	require.NoError(t, err)
	assert.Equal(t, 0, idx.LoadAll(ctx))

	content, err = idx.Open(ctx, "libraries/x.xml")
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
	assert.Equal(t, 2, idx.FileCount())
}

func TestIndex_MalformedManifestSkipped(t *testing.T) {
	eb := ephemeral.NewEphemeralBackend()
	putPair(eb, "", "01", fixtureFile{"libraries/good.xml", "good"})
	eb.Put("02.cat", []byte("libraries/bad.xml 3 0 00\nthis is not a record\n"))
	eb.Put("02.dat", []byte("bad"))

	idx := newTestIndex(t, eb, "")
	ctx := t.Context()

	content, err := idx.Open(ctx, "libraries/good.xml")
	require.NoError(t, err)
	assert.Equal(t, "good", string(content))

	_, err = idx.Lookup(ctx, "libraries/bad.xml")
	assert.ErrorIs(t, err, data.ErrNotExist)

	failures := idx.Failures()
	require.Error(t, failures)
	assert.ErrorIs(t, failures, data.ErrMalformedManifest)
	assert.Equal(t, []string{"01.cat"}, idx.Parsed())
}

func TestIndex_Enumeration(t *testing.T) {
	eb := ephemeral.NewEphemeralBackend()
	putPair(eb, "mods", "01", fixtureFile{"a/b.xml", "b"})
	putPair(eb, "mods", "01_sig", fixtureFile{"a/sig.xml", "s"})
	eb.Put("mods/02.cat", []byte("a/orphan.xml 1 0 00\n"))
	eb.Put("mods/nested/03.cat", []byte("a/nested.xml 1 0 00\n"))
	eb.Put("mods/nested/03.dat", []byte("n"))

	idx := newTestIndex(t, eb, "mods")
	assert.Equal(t, "mods", idx.Dir())
	assert.Equal(t, 1, idx.Pending())

	idx = newTestIndex(t, eb, "mods", WithExcludePattern(nil))
	assert.Equal(t, 2, idx.Pending())

	idx = newTestIndex(t, eb, "mods", WithExcludePattern(regexp.MustCompile(`^01\.`)))
	assert.Equal(t, 1, idx.Pending())
	_, err := idx.Lookup(t.Context(), "a/sig.xml")
	assert.NoError(t, err)

	_, err = NewIndex(t.Context(), eb, "missing")
	assert.ErrorIs(t, err, data.ErrNotExist)
}

func TestIndex_CaseInsensitiveLookup(t *testing.T) {
	eb := ephemeral.NewEphemeralBackend()
	putPair(eb, "", "01", fixtureFile{"Libraries/Wares.XML", "<wares/>"})

	idx := newTestIndex(t, eb, "")
	ctx := t.Context()

	for _, path := range []string{"libraries/wares.xml", "LIBRARIES/WARES.xml", `libraries\wares.xml`, "/libraries//wares.xml"} {
		assert.True(t, idx.Exists(ctx, path), path)
	}

	_, err := idx.Lookup(ctx, "")
	assert.ErrorIs(t, err, data.ErrInvalidPath)
}

func TestIndex_ReadFailure(t *testing.T) {
	eb := ephemeral.NewEphemeralBackend()
	eb.Put("01.cat", []byte("a/ok.xml 2 0 00\na/cut.xml 10 0 00\n"))
	eb.Put("01.dat", []byte("okpartial"))

	idx := newTestIndex(t, eb, "")
	ctx := t.Context()

	content, err := idx.Open(ctx, "a/ok.xml")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(content))

	_, err = idx.Open(ctx, "a/cut.xml")
	assert.ErrorIs(t, err, data.ErrReadFailed)
}

func TestIndex_ReadDirectory(t *testing.T) {
	eb := ephemeral.NewEphemeralBackend()
	putPair(eb, "", "01", fixtureFile{"md/b.xml", "b"}, fixtureFile{"aiscripts/x.xml", "x"})
	putPair(eb, "", "02", fixtureFile{"md/a.xml", "a"}, fixtureFile{"md/sub/c.xml", "c"})

	idx := newTestIndex(t, eb, "")
	ctx := t.Context()

	dirs, files, err := idx.ReadDirectory(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"aiscripts", "md"}, dirs)
	assert.Empty(t, files)

	dirs, files, err = idx.ReadDirectory(ctx, "MD")
	require.NoError(t, err)
	assert.Equal(t, []string{"sub"}, dirs)
	require.Len(t, files, 2)
	assert.Equal(t, "a.xml", files[0].Name)
	assert.Equal(t, "02.dat", files[0].Pair)
	assert.Equal(t, "b.xml", files[1].Name)

	_, _, err = idx.ReadDirectory(ctx, "libraries")
	assert.ErrorIs(t, err, data.ErrNotExist)
}

// unlistable hides the listing capability of the wrapped storage.
type unlistable struct {
	backend.ArchiveStorage
}

func (unlistable) GetCapabilities() *backend.BackendCapabilities {
	return &backend.BackendCapabilities{}
}

func TestIndex_RequiresListing(t *testing.T) {
	eb := ephemeral.NewEphemeralBackend()
	putPair(eb, "", "01", fixtureFile{"libraries/a.xml", "<a/>"})

	_, err := NewIndex(t.Context(), unlistable{eb}, "")
	require.ErrorIs(t, err, data.ErrUnsupported)
}

func TestIndex_OversizedEntry(t *testing.T) {
	manifest := []byte("libraries/x.xml 999999999999999999 0 00\nlibraries/y.xml 4 0 00\n")

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "01.cat"), manifest, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "01.dat"), []byte("<x/>"), 0o644))

	db, err := direct.NewDirectBackend(root)
	require.NoError(t, err)

	eb := ephemeral.NewEphemeralBackend()
	eb.Put("01.cat", manifest)
	eb.Put("01.dat", []byte("<x/>"))

	for name, storage := range map[string]backend.ArchiveStorage{"direct": db, "ephemeral": eb} {
		t.Run(name, func(t *testing.T) {
			idx, err := NewIndex(t.Context(), storage, "")
			require.NoError(t, err)

			_, err = idx.Open(t.Context(), "libraries/x.xml")
			assert.ErrorIs(t, err, data.ErrReadFailed)

			// The following entry starts past the end of the blob
			_, err = idx.Open(t.Context(), "libraries/y.xml")
			assert.ErrorIs(t, err, data.ErrReadFailed)
		})
	}
}

func TestIndex_ListedBlobName(t *testing.T) {
	eb := ephemeral.NewEphemeralBackend()
	eb.Put("01.CAT", []byte("libraries/x.xml 4 0 00\n"))
	eb.Put("01.DAT", []byte("<x/>"))

	idx := newTestIndex(t, eb, "")

	content, err := idx.Open(t.Context(), "libraries/x.xml")
	require.NoError(t, err)
	assert.Equal(t, "<x/>", string(content))
}

func TestIndex_CancelledLookup(t *testing.T) {
	eb := ephemeral.NewEphemeralBackend()
	putPair(eb, "", "01", fixtureFile{"libraries/x.xml", "<x/>"})

	idx := newTestIndex(t, eb, "")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := idx.Lookup(ctx, "libraries/x.xml")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, data.ErrNotExist)
	assert.Equal(t, 1, idx.Pending())

	_, _, err = idx.ReadDirectory(ctx, "libraries")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = idx.Lookup(t.Context(), "libraries/x.xml")
	assert.NoError(t, err)
}
