package vfs_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
	vfs "github.com/mwantia/x4vfs"
	"github.com/mwantia/x4vfs/backend"
	"github.com/mwantia/x4vfs/backend/direct"
	"github.com/mwantia/x4vfs/backend/ephemeral"
	"github.com/mwantia/x4vfs/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testFile struct {
	path    string
	content string
}

// TestStorage writes archive fixtures into a storage backend.
type TestStorage struct {
	backend.ArchiveStorage
	put    func(key string, content []byte)
	remove func(key string)
}

func (ts *TestStorage) Pair(dir, name string, files ...testFile) {
	var manifest, blob strings.Builder
	for _, file := range files {
		fmt.Fprintf(&manifest, "%s %d 1700000000 00ff\n", file.path, len(file.content))
		blob.WriteString(file.content)
	}

	ts.put(dir+"/"+name+".cat", []byte(manifest.String()))
	ts.put(dir+"/"+name+".dat", []byte(blob.String()))
}

type TestStorageFactory func(t *testing.T) *TestStorage

func GetTestStorageFactories() map[string]TestStorageFactory {
	return map[string]TestStorageFactory{
		"ephemeral": func(t *testing.T) *TestStorage {
			storage := ephemeral.NewEphemeralBackend()
			return &TestStorage{ArchiveStorage: storage, put: storage.Put, remove: storage.Delete}
		},
		"direct": func(t *testing.T) *TestStorage {
			root := t.TempDir()
			storage, err := direct.NewDirectBackend(root)
			require.NoError(t, err)

			return &TestStorage{
				ArchiveStorage: storage,
				put: func(key string, content []byte) {
					path := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(key, "/")))
					require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
					require.NoError(t, os.WriteFile(path, content, 0o644))
				},
				remove: func(key string) {
					require.NoError(t, os.Remove(filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(key, "/")))))
				},
			}
		},
	}
}

func newTestFileSystem(t *testing.T, storage *TestStorage, opts ...vfs.VirtualFileSystemOption) *vfs.VirtualFileSystem {
	t.Helper()

	ctx := t.Context()
	require.NoError(t, storage.Open(ctx))

	opts = append([]vfs.VirtualFileSystemOption{vfs.WithLogger(log.NewNopLogger())}, opts...)
	fs, err := vfs.NewVirtualFileSystem(ctx, storage, opts...)
	require.NoError(t, err)

	return fs
}

func documentString(t *testing.T, doc *etree.Document) string {
	t.Helper()

	content, err := doc.WriteToString()
	require.NoError(t, err)
	return content
}

func TestVirtualFileSystem_OverlayDocument(t *testing.T) {
	for name, factory := range GetTestStorageFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			storage := factory(t)

			storage.Pair("", "01", testFile{"libraries/x.xml", "<x>abc</x>"})
			storage.Pair("extensions/modA", "ext_01", testFile{"libraries/x.xml", `<diff><add sel="/x"><b/></add></diff>`})

			fs := newTestFileSystem(t, storage)

			doc, err := fs.OpenDocument(ctx, "libraries/x.xml")
			require.NoError(t, err)
			assert.Equal(t, "<x>abc<b/></x>", documentString(t, doc))

			// Base bytes win over the overlay copy
			content, err := fs.OpenFile(ctx, "libraries/x.xml")
			require.NoError(t, err)
			assert.Equal(t, "<x>abc</x>", string(content))

			// Overlay files are reachable by their qualified path
			content, err = fs.OpenFile(ctx, "extensions/modA/libraries/x.xml")
			require.NoError(t, err)
			assert.Contains(t, string(content), "<diff>")

			assert.True(t, fs.Exists(ctx, `EXTENSIONS\moda\Libraries\X.xml`))
		})
	}
}

func TestVirtualFileSystem_OverlayOrder(t *testing.T) {
	ctx := t.Context()
	storage := GetTestStorageFactories()["ephemeral"](t)

	storage.Pair("", "01", testFile{"libraries/wares.xml", `<wares><ware id="a"/></wares>`})
	storage.Pair("extensions/mod_b", "ext_01", testFile{"libraries/wares.xml", `<diff><add sel="/wares"><ware id="b"/></add></diff>`})
	storage.Pair("extensions/mod_a", "ext_01", testFile{"libraries/wares.xml", `<diff><replace sel="/wares/ware[@id='a']/@id">z</replace></diff>`})
	storage.Pair("extensions/mod_c", "ext_01", testFile{"libraries/wares.xml", `<diff><remove sel="/wares/ware[@id='b']"/></diff>`})

	fs := newTestFileSystem(t, storage)

	layers := fs.Layers()
	require.Len(t, layers, 4)
	assert.Equal(t, vfs.BaseLayerID, layers[0].ID)
	assert.Equal(t, "extensions/mod_a", layers[1].ID)
	assert.Equal(t, "extensions/mod_b", layers[2].ID)
	assert.Equal(t, "extensions/mod_c", layers[3].ID)

	doc, err := fs.OpenDocument(ctx, "libraries/wares.xml")
	require.NoError(t, err)
	assert.Equal(t, `<wares><ware id="z"/></wares>`, documentString(t, doc))

	doc, err = fs.OpenDocument(ctx, "libraries/wares.xml")
	require.NoError(t, err)
	assert.Equal(t, `<wares><ware id="z"/></wares>`, documentString(t, doc), "documents are rebuilt on every call")
}

func TestVirtualFileSystem_WithoutExtensions(t *testing.T) {
	ctx := t.Context()
	storage := GetTestStorageFactories()["ephemeral"](t)

	storage.Pair("", "01", testFile{"libraries/x.xml", "<x>abc</x>"})
	storage.Pair("extensions/modA", "ext_01", testFile{"libraries/x.xml", `<diff><add sel="/x"><b/></add></diff>`})

	fs := newTestFileSystem(t, storage, vfs.WithoutExtensions())
	require.Len(t, fs.Layers(), 1)

	doc, err := fs.OpenDocument(ctx, "libraries/x.xml")
	require.NoError(t, err)
	assert.Equal(t, "<x>abc</x>", documentString(t, doc))
}

func TestVirtualFileSystem_OverlaySeed(t *testing.T) {
	ctx := t.Context()
	storage := GetTestStorageFactories()["ephemeral"](t)

	storage.Pair("", "01", testFile{"libraries/other.xml", "<other/>"})
	storage.Pair("extensions/moda", "ext_01", testFile{"md/new.xml", `<mdscript name="new"/>`})
	storage.Pair("extensions/modb", "ext_01", testFile{"md/new.xml", `<mdscript name="new"><cues/></mdscript>`})

	fs := newTestFileSystem(t, storage)

	doc, err := fs.OpenDocument(ctx, "md/new.xml")
	require.NoError(t, err)
	assert.Equal(t, `<mdscript name="new"><cues/></mdscript>`, documentString(t, doc))
}

func TestVirtualFileSystem_Indirection(t *testing.T) {
	ctx := t.Context()
	storage := GetTestStorageFactories()["ephemeral"](t)

	storage.Pair("", "01",
		testFile{"index/macros.xml", `<index><entry name="foo" value="bar\baz"/></index>`},
		testFile{"bar/baz.xml", `<macros><macro name="foo"/></macros>`},
	)
	storage.Pair("extensions/modA", "ext_01",
		testFile{"index/macros.xml", `<diff><add sel="/index"><entry name="modded" value="extensions\modA\bar\mod"/></add></diff>`},
		testFile{"bar/mod.xml", `<macros><macro name="modded"/></macros>`},
	)

	fs := newTestFileSystem(t, storage)

	expected, err := fs.OpenDocument(ctx, "bar/baz.xml")
	require.NoError(t, err)

	indirect, ok, err := fs.OpenIndirected(ctx, "index/macros.xml", "foo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, documentString(t, expected), documentString(t, indirect))

	// Entries added by overlays are visible through the cached index
	modded, ok, err := fs.OpenIndirected(ctx, "index/macros.xml", "modded")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "modded", modded.FindElement("//macro").SelectAttrValue("name", ""))

	_, ok, err = fs.OpenIndirected(ctx, "index/macros.xml", "unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = fs.OpenIndirected(ctx, "index/missing.xml", "foo")
	require.NoError(t, err)
	assert.False(t, ok)

	// Mutating a returned document leaves the cache intact
	indirect.Root().CreateAttr("touched", "yes")
	again, ok, err := fs.OpenIndirected(ctx, "index/macros.xml", "foo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, again.Root().SelectAttr("touched"))
}

func TestVirtualFileSystem_LocalizedDocument(t *testing.T) {
	ctx := t.Context()
	storage := GetTestStorageFactories()["ephemeral"](t)

	storage.Pair("", "01", testFile{"t/0001-l044.xml", `<language id="44"><page id="1"><t id="1">Base</t></page></language>`})
	storage.Pair("extensions/modA", "ext_01", testFile{"t/0001-l044.xml", `<language id="44"><page id="1"><t id="2">Mod</t></page><page id="2"><t id="1">New</t></page></language>`})

	fs := newTestFileSystem(t, storage)

	doc, err := fs.OpenLocalizedDocument(ctx, "t/0001-l044.xml")
	require.NoError(t, err)

	pages := doc.FindElements("/language/page")
	require.Len(t, pages, 2)
	assert.Len(t, pages[0].SelectElements("t"), 2)
	assert.Equal(t, "2", pages[1].SelectAttrValue("id", ""))
}

func TestVirtualFileSystem_Errors(t *testing.T) {
	ctx := t.Context()
	storage := GetTestStorageFactories()["ephemeral"](t)

	storage.Pair("", "01", testFile{"libraries/broken.xml", "<broken>"})
	storage.put("02.cat", []byte("libraries/bad.xml\n"))
	storage.put("02.dat", []byte{})

	fs := newTestFileSystem(t, storage)

	_, err := fs.OpenFile(ctx, "")
	assert.ErrorIs(t, err, vfs.ErrInvalidPath)

	_, err = fs.OpenFile(ctx, "libraries/missing.xml")
	assert.ErrorIs(t, err, vfs.ErrNotExist)
	assert.NotErrorIs(t, err, vfs.ErrInvalidPath)

	_, err = fs.OpenDocument(ctx, "/")
	assert.ErrorIs(t, err, vfs.ErrInvalidPath)

	_, err = fs.OpenDocument(ctx, "libraries/missing.xml")
	assert.ErrorIs(t, err, vfs.ErrNotExist)

	_, err = fs.OpenDocument(ctx, "libraries/broken.xml")
	assert.ErrorIs(t, err, vfs.ErrMalformedDocument)

	layers := fs.Layers()
	require.Len(t, layers, 1)
	assert.ErrorIs(t, layers[0].Failures, vfs.ErrMalformedManifest)
	assert.Equal(t, 0, layers[0].Pending)
}

func TestVirtualFileSystem_ReadDirectory(t *testing.T) {
	ctx := t.Context()
	storage := GetTestStorageFactories()["ephemeral"](t)

	storage.Pair("", "01", testFile{"libraries/a.xml", "<a/>"}, testFile{"md/x.xml", "<x/>"})
	storage.Pair("extensions/modA", "ext_01", testFile{"libraries/a.xml", "<diff/>"}, testFile{"libraries/b.xml", "<b/>"}, testFile{"aiscripts/s.xml", "<s/>"})

	fs := newTestFileSystem(t, storage)

	entries, err := fs.ReadDirectory(ctx, "")
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name)
		assert.True(t, entry.IsDir)
	}
	assert.Equal(t, []string{"aiscripts", "libraries", "md"}, names)

	entries, err = fs.ReadDirectory(ctx, "libraries")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, vfs.DirEntry{Name: "a.xml", Size: 4, Layer: vfs.BaseLayerID}, entries[0])
	assert.Equal(t, vfs.DirEntry{Name: "b.xml", Size: 4, Layer: "extensions/modA"}, entries[1])

	_, err = fs.ReadDirectory(ctx, "missing")
	assert.ErrorIs(t, err, vfs.ErrNotExist)

	for _, layer := range fs.Layers() {
		assert.Equal(t, 0, layer.Pending)
		assert.Equal(t, 1, layer.Parsed)
	}
}

func TestOpen(t *testing.T) {
	ctx := t.Context()
	root := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(root, "01.cat"), []byte("libraries/x.xml 4 0 00\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "01.dat"), []byte("<x/>"), 0o644))

	fs, err := vfs.Open(ctx, root, vfs.WithoutTerminalLog())
	require.NoError(t, err)
	defer fs.Close(ctx)

	content, err := fs.OpenFile(ctx, "libraries/x.xml")
	require.NoError(t, err)
	assert.Equal(t, "<x/>", string(content))

	_, err = vfs.Open(ctx, filepath.Join(root, "missing"))
	assert.ErrorIs(t, err, vfs.ErrMountFailed)

	_, err = vfs.Open(ctx, root, vfs.WithExtensionsDir(""))
	assert.ErrorIs(t, err, vfs.ErrInvalidPath)
}

func TestVirtualFileSystem_RepeatedAddOverlay(t *testing.T) {
	ctx := t.Context()
	storage := GetTestStorageFactories()["ephemeral"](t)

	storage.Pair("", "01", testFile{"libraries/x.xml", "<x><a/></x>"})
	storage.Pair("extensions/mod_a", "ext_01", testFile{"libraries/x.xml", `<diff><add sel="/x"><b/></add></diff>`})
	storage.Pair("extensions/mod_b", "ext_01", testFile{"libraries/x.xml", `<diff><add sel="/x"><b/></add></diff>`})

	fs := newTestFileSystem(t, storage)

	doc, err := fs.OpenDocument(ctx, "libraries/x.xml")
	require.NoError(t, err)
	assert.Equal(t, "<x><a/><b/><b/></x>", documentString(t, doc))
}

func TestVirtualFileSystem_CancelledIndirection(t *testing.T) {
	storage := GetTestStorageFactories()["ephemeral"](t)

	storage.Pair("", "01",
		testFile{"index/macros.xml", `<index><entry name="foo" value="bar\baz"/></index>`},
		testFile{"bar/baz.xml", `<macros><macro name="foo"/></macros>`},
	)

	fs := newTestFileSystem(t, storage)

	cancelled, cancel := context.WithCancel(t.Context())
	cancel()

	_, ok, err := fs.OpenIndirected(cancelled, "index/macros.xml", "foo")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)

	_, err = fs.OpenFile(cancelled, "bar/baz.xml")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, vfs.ErrNotExist)

	// The aborted load left nothing behind in the index cache
	doc, ok, err := fs.OpenIndirected(t.Context(), "index/macros.xml", "foo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "foo", doc.FindElement("//macro").SelectAttrValue("name", ""))
}

func TestVirtualFileSystem_VanishedBlob(t *testing.T) {
	for name, factory := range GetTestStorageFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			storage := factory(t)

			storage.Pair("", "01", testFile{"libraries/x.xml", "<x>base</x>"})
			storage.Pair("extensions/modA", "ext_01", testFile{"libraries/x.xml", "<x>mod</x>"})

			fs := newTestFileSystem(t, storage)
			storage.remove("01.dat")

			_, err := fs.OpenFile(ctx, "libraries/x.xml")
			assert.ErrorIs(t, err, vfs.ErrReadFailed)

			_, err = fs.OpenDocument(ctx, "libraries/x.xml")
			assert.ErrorIs(t, err, vfs.ErrReadFailed)
		})
	}
}
