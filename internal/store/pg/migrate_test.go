package pg

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	migrations "github.com/dropDatabas3/facegate/migrations/postgres"
)

func TestParseMigrations_Embedded(t *testing.T) {
	t.Parallel()
	list, err := NewMigrator(migrations.FS, migrations.Dir).ParseMigrations()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(list), 2)
	for i, m := range list {
		require.NotEmpty(t, m.Up, "migration %d", m.Version)
		require.NotEmpty(t, m.Down, "migration %d", m.Version)
		if i > 0 {
			require.Greater(t, m.Version, list[i-1].Version)
		}
	}
}

func TestParseMigrations_OrderAndMissingUp(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"m/0002_b.up.sql":   {Data: []byte("B")},
		"m/0001_a.up.sql":   {Data: []byte("A")},
		"m/0001_a.down.sql": {Data: []byte("-A")},
		"m/README.md":       {Data: []byte("x")},
	}
	list, err := NewMigrator(fsys, "m").ParseMigrations()
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, 1, list[0].Version)
	require.Equal(t, "-A", list[0].Down)
	require.Equal(t, "b", list[1].Name)

	_, err = NewMigrator(fstest.MapFS{"m/0003_c.down.sql": {Data: []byte("x")}}, "m").ParseMigrations()
	require.Error(t, err)
}
