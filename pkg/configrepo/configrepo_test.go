package configrepo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marrowvale/lockarbiter/pkg/domain"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "resources"), 0o755))
	return New(hclog.NewNullLogger(), "", dir, "resources")
}

func writeResourceFile(t *testing.T, r *Repository, projectID, body string) {
	t.Helper()
	path := filepath.Join(r.Path, r.Dir, projectID+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadParsesQuotedAndCustomResources(t *testing.T) {
	r := newTestRepo(t)
	writeResourceFile(t, r, "p1", `
resources:
  - id: r1
    name: agents
    kind: quoted
    quota: 3
  - id: r2
    name: ports
    kind: custom
    values: ["8080", "8081"]
`)

	res, err := r.Load("p1")
	require.NoError(t, err)
	require.Len(t, res, 2)

	byName := make(map[string]domain.Resource, 2)
	for _, v := range res {
		byName[v.Name] = v
	}
	assert.Equal(t, 3, byName["agents"].Quota)
	assert.Equal(t, domain.Quoted, byName["agents"].Kind)
	assert.ElementsMatch(t, []string{"8080", "8081"}, byName["ports"].Values)
}

func TestLoadQuotedDefaultsToInfiniteWithoutQuota(t *testing.T) {
	r := newTestRepo(t)
	writeResourceFile(t, r, "p1", `
resources:
  - id: r1
    name: agents
    kind: quoted
`)

	res, err := r.Load("p1")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.True(t, res[0].IsInfinite())
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	r := newTestRepo(t)
	res, err := r.Load("nowhere")
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestLoadCachesResult(t *testing.T) {
	r := newTestRepo(t)
	writeResourceFile(t, r, "p1", `
resources:
  - id: r1
    name: agents
    kind: quoted
    quota: 1
`)
	first, err := r.Load("p1")
	require.NoError(t, err)

	// mutate the file on disk; Load should still return the cached copy
	writeResourceFile(t, r, "p1", `resources: []`)
	second, err := r.Load("p1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoadSkipsMalformedRecordButKeepsOthers(t *testing.T) {
	r := newTestRepo(t)
	writeResourceFile(t, r, "p1", `
resources:
  - id: r1
    name: broken
    kind: custom
    values: []
  - id: r2
    name: agents
    kind: quoted
    quota: 1
`)
	res, err := r.Load("p1")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "agents", res[0].Name)
}

func TestPathToWalksRootFirst(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(r.Path, "projects.yaml"), []byte(`
parent:
  child: mid
  mid: root
`), 0o644))

	path, err := r.PathTo("child")
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "mid", "child"}, path)
}

func TestPathToSingleRootProject(t *testing.T) {
	r := newTestRepo(t)
	path, err := r.PathTo("solo")
	require.NoError(t, err)
	assert.Equal(t, []string{"solo"}, path)
}

func TestPathToDetectsCycle(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(r.Path, "projects.yaml"), []byte(`
parent:
  a: b
  b: a
`), 0o644))

	_, err := r.PathTo("a")
	assert.Error(t, err)
}
