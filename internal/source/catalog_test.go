package source

import (
	"testing"
	"time"

	"dragonmasher/internal/core/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupIgnoresCase(t *testing.T) {
	for _, name := range []string{"hsk", "HSK", "Hsk"} {
		d, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, "HSK", d.Name)
		assert.False(t, d.Remote())
	}

	_, err := Lookup("wenlin")
	assert.Error(t, err)
}

func TestJunDa(t *testing.T) {
	d, err := Lookup("junda-im")
	require.NoError(t, err)
	assert.Equal(t, "JUNDA-IM", d.Name)
	assert.Equal(t, "JUNDA-IM-", d.Prefix())
	assert.Equal(t, "http://lingua.mtsu.edu/chinese-computing/statistics/char/download.php?Which=IM", d.URL)
	assert.Equal(t, "remote", d.Kind())

	_, err = JunDa("XX")
	assert.Error(t, err)
}

func TestCatalogDescriptorsAreValid(t *testing.T) {
	names := Names()
	assert.Equal(t, []string{"HSK", "TOCFL", "XDCYZ", "SUBTLEX", "LWC", "CEDICT", "UNIHAN", "JUNDA-MO", "JUNDA-CL", "JUNDA-IM"}, names)

	descs := Catalog()
	require.Len(t, descs, len(names))
	for _, d := range descs {
		assert.NoError(t, d.Validate(), d.Name)
		if !d.Remote() {
			assert.Contains(t, d.Description, "excerpt", d.Name)
		}
	}

	subtlex, err := Lookup("SUBTLEX")
	require.NoError(t, err)
	assert.Equal(t, "remote archive", subtlex.Kind())
	assert.Equal(t, []string{"SUBTLEX_CH_131210_CE.utf8"}, subtlex.Whitelist)
}

func TestAllowed(t *testing.T) {
	assert.True(t, allowed(nil, "/tmp/x/anything.txt"))
	assert.True(t, allowed([]string{"cedict_ts.u8"}, "/tmp/x/cedict_ts.u8"))
	assert.False(t, allowed([]string{"cedict_ts.u8"}, "/tmp/x/README.txt"))
}

func TestConfigOptions(t *testing.T) {
	cfg := types.DefaultConfig()
	disabled := false
	cfg.Cache.Enabled = &disabled
	cfg.Cache.Name = "mirror"
	cfg.Cache.TTL = "1h"
	cfg.Download.TempDir = t.TempDir()
	cfg.Sources["CEDICT"] = types.SourceConfig{URL: "file:///srv/cedict.zip", Encoding: "utf-8"}

	s := &Source{}
	for _, opt := range ConfigOptions(&cfg, "cedict") {
		opt(s)
	}
	assert.False(t, s.caching)
	assert.Equal(t, time.Hour, s.ttl)
	assert.Equal(t, "mirror", s.namespace)
	assert.Equal(t, cfg.Download.TempDir, s.tempRoot)
	assert.Equal(t, "file:///srv/cedict.zip", s.desc.URL)
	assert.Equal(t, "utf-8", s.desc.Encoding)
}

func TestDescriptorValidate(t *testing.T) {
	assert.Error(t, Descriptor{}.Validate())
	assert.Error(t, Descriptor{Name: "X"}.Validate())

	d, err := Lookup("HSK")
	require.NoError(t, err)
	d.Files = nil
	assert.Error(t, d.Validate())
}
