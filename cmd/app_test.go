package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"competitor-radar/services"
)

const testCatalog = `
markets:
  - name: Japan Home
    categories:
      - name: Desk Fan
        ranking_urls:
          - https://www.amazon.co.jp/gp/bestsellers/kitchen/2378086051
    competitors:
      - name: BreezeCo
        product_urls:
          - https://www.amazon.co.jp/dp/B0TEST0001
`

// withFlags sets the persistent flag values for one test.
func withFlags(t *testing.T, store, catalog string) {
	t.Helper()
	prevStore, prevCatalog, prevProfile, prevLevel := storeDriver, catalogPath, profilePath, logLevel
	storeDriver, catalogPath, profilePath, logLevel = store, catalog, "", "error"
	t.Cleanup(func() {
		storeDriver, catalogPath, profilePath, logLevel = prevStore, prevCatalog, prevProfile, prevLevel
	})
}

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o644))
	return path
}

func TestMemoryStoreIsSeededFromCatalog(t *testing.T) {
	withFlags(t, "memory", writeCatalog(t))

	a, err := newApp()
	require.NoError(t, err)
	defer a.close()

	store, err := a.openStore(context.Background())
	require.NoError(t, err)

	cats, err := store.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Desk Fan", cats[0].Name)

	comps, err := store.ListCompetitors(context.Background())
	require.NoError(t, err)
	require.Len(t, comps, 1)
	assert.Equal(t, []string{"https://www.amazon.co.jp/dp/B0TEST0001"}, comps[0].ProductURLs)
}

func TestAnalyzerUsesProfileFallbackPrice(t *testing.T) {
	withFlags(t, "memory", writeCatalog(t))

	a, err := newApp()
	require.NoError(t, err)
	defer a.close()

	store, err := a.openStore(context.Background())
	require.NoError(t, err)

	outcomes, err := a.newAnalyzer(store, 7).RunGlobalAnalysis(context.Background())
	require.NoError(t, err)

	require.Len(t, outcomes, 1)
	assert.Equal(t, services.StatusProposal, outcomes[0].Status)
	assert.Equal(t, "NextGen Desk Fan", outcomes[0].ProductName)
	assert.Equal(t, 2980.0, outcomes[0].TargetPrice)

	proposals, err := store.ListProposals(context.Background())
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.Contains(t, proposals[0].Reasoning, "[Advanced Analysis]")
}

func TestUnknownDriversAreRejected(t *testing.T) {
	withFlags(t, "sqlite", "")

	a, err := newApp()
	require.NoError(t, err)
	defer a.close()

	_, err = a.openStore(context.Background())
	assert.ErrorContains(t, err, `unknown store driver "sqlite"`)

	a.cfg.FetchMode = "carrier-pigeon"
	_, err = a.newExtractor()
	assert.ErrorContains(t, err, "unknown fetch mode")
}

func TestHTTPExtractorWiring(t *testing.T) {
	withFlags(t, "memory", "")

	a, err := newApp()
	require.NoError(t, err)
	defer a.close()

	a.cfg.FetchMode = "http"
	e, err := a.newExtractor()
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"extract", "analyze", "collect", "serve", "seed", "proposals", "alerts"} {
		assert.True(t, names[want], want)
	}
}
