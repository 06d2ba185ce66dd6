package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	vfs "github.com/mwantia/x4vfs"
	"github.com/mwantia/x4vfs/backend/ephemeral"
	"github.com/mwantia/x4vfs/lang"
	"github.com/mwantia/x4vfs/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putPair(eb *ephemeral.EphemeralBackend, dir string, files map[string]string) {
	var manifest, blob strings.Builder
	for path, content := range files {
		fmt.Fprintf(&manifest, "%s %d 0 00\n", path, len(content))
		blob.WriteString(content)
	}

	eb.Put(dir+"/01.cat", []byte(manifest.String()))
	eb.Put(dir+"/01.dat", []byte(blob.String()))
}

func newTestFileSystem(t *testing.T) *vfs.VirtualFileSystem {
	t.Helper()

	eb := ephemeral.NewEphemeralBackend()
	putPair(eb, "", map[string]string{
		lang.LanguagesPath: `<languages><language id="44" name="English"/></languages>`,
		"t/0001-l044.xml":  `<language id="44"><page id="20201"><t id="1">Energy Cells</t><t id="2">Water (comment)</t></page></language>`,
		WaresPath: `<wares>
  <ware id="energycells" name="{20201,1}" group="energy" transport="container" tags="container economy" volume="6"><price min="10" average="16" max="22"/></ware>
  <ware id="spacesuit" name="Suit" group="x" transport="container" tags="personalupgrade"/>
</wares>`,
	})
	putPair(eb, "extensions/modA", map[string]string{
		WaresPath: `<diff><add sel="/wares"><ware id="water" name="{20201,2}" group="water" transport="liquid" tags="economy liquid"/></add></diff>`,
	})

	fs, err := vfs.NewVirtualFileSystem(t.Context(), eb, vfs.WithLogger(log.NewNopLogger()))
	require.NoError(t, err)
	return fs
}

type failingExporter struct{}

func (failingExporter) Name() string {
	return "failing"
}

func (failingExporter) Export(ctx context.Context, sink Sink) error {
	return errors.New("boom")
}

func TestRunner_SQLite(t *testing.T) {
	ctx := t.Context()
	fs := newTestFileSystem(t)

	resolver := lang.NewResolver(nil)
	require.NoError(t, resolver.Load(ctx, fs, lang.DefaultLanguage))

	sink, err := NewSQLiteSink(ctx, ":memory:")
	require.NoError(t, err)
	defer sink.Close()

	runID := uuid.New()
	runner, err := NewRunner([]Exporter{
		NewSourceExporter(fs),
		NewLanguageExporter(fs),
		NewTextExporter(resolver),
		NewWareExporter(fs, resolver, nil),
	}, WithRunID(runID))
	require.NoError(t, err)
	assert.Equal(t, runID, runner.RunID())

	require.NoError(t, runner.Run(ctx, sink))

	db := sink.DB()

	var value string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT Value FROM Common WHERE Item = 'RunID'").Scan(&value))
	assert.Equal(t, runID.String(), value)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM Source").Scan(&count))
	assert.Equal(t, 2, count)

	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM Text").Scan(&count))
	assert.Equal(t, 2, count)

	var name string
	var maxPrice int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT Name, MaxPrice FROM Ware WHERE WareID = 'energycells'").Scan(&name, &maxPrice))
	assert.Equal(t, "Energy Cells", name)
	assert.Equal(t, 22, maxPrice)

	require.NoError(t, db.QueryRowContext(ctx, "SELECT Name FROM Ware WHERE WareID = 'water'").Scan(&name))
	assert.Equal(t, "Water ", name)

	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM Ware").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestRunner_RollbackOnFailure(t *testing.T) {
	ctx := t.Context()
	fs := newTestFileSystem(t)

	sink, err := NewSQLiteSink(ctx, ":memory:")
	require.NoError(t, err)
	defer sink.Close()

	runner, err := NewRunner([]Exporter{NewLanguageExporter(fs), failingExporter{}})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, runner.RunID())

	err = runner.Run(ctx, sink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing")

	var count int
	require.NoError(t, sink.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE name IN ('Common', 'Language')").Scan(&count))
	assert.Zero(t, count)
}

func TestNewRunner_NilRunID(t *testing.T) {
	_, err := NewRunner(nil, WithRunID(uuid.Nil))
	assert.Error(t, err)
}
