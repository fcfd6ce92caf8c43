package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repoPath(t *testing.T, rel string) string {
	t.Helper()
	p, err := filepath.Abs(filepath.Join("..", "..", rel))
	require.NoError(t, err)
	return p
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf(`
logging:
  level: error
  format: json
storage:
  backend: memory
content:
  items_dir: %s
  troops_dir: %s
  parties_dir: %s
blacklist:
  path: %s
  example_path: %s
scripting:
  score_script: %s
`,
		repoPath(t, "content/items"),
		repoPath(t, "content/troops"),
		repoPath(t, "content/parties"),
		filepath.Join(dir, "blacklist.yaml"),
		repoPath(t, "content/blacklist.example.yaml"),
		repoPath(t, "content/scripts/score.lua"),
	)
	path := filepath.Join(dir, "armory.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", writeConfig(t)}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestBlacklistTest(t *testing.T) {
	out, err := execute(t, "blacklist", "test", "arming_sword", "camel_harness", "no_such_item")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3 items rejected")
	assert.Contains(t, out, "arming_sword\tpass")
	assert.Contains(t, out, "camel_harness\tblocked")
	assert.Contains(t, out, "no_such_item\tunknown")
}

func TestBlacklistTest_AllPass(t *testing.T) {
	out, err := execute(t, "blacklist", "test", "lance", "arming_sword@fine")
	require.NoError(t, err)
	assert.Contains(t, out, "arming_sword@fine\tpass")
}

func TestDistributeScenario(t *testing.T) {
	out, err := execute(t, "distribute", "--soldiers", repoPath(t, "content/scenarios/border_skirmish.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "party north")
	assert.Contains(t, out, "party steppe")
	assert.Contains(t, out, "vlandian_knight")
	assert.Contains(t, out, "settlement:")
}

func TestDistribute_MissingScenario(t *testing.T) {
	_, err := execute(t, "distribute", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading scenario")
}

func TestArmoryShow(t *testing.T) {
	out, err := execute(t, "armory", "show", "north")
	require.NoError(t, err)
	assert.Contains(t, out, "party north:")
	assert.Contains(t, out, "destrier")
}

func TestArmoryShow_UnknownParty(t *testing.T) {
	_, err := execute(t, "armory", "show", "atlantis")
	require.Error(t, err)
}
