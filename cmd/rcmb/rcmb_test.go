package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(nil)
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func runJSON(t *testing.T, v interface{}, args ...string) {
	t.Helper()
	out, err := runCmd(t, append(args, "--format", "json")...)
	require.NoError(t, err, out)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

type jsonResult struct {
	Target  float64                  `json:"target"`
	Error   string                   `json:"error"`
	Results []map[string]interface{} `json:"results"`
}

func TestFind(t *testing.T) {
	var outs []jsonResult
	runJSON(t, &outs, "find", "--target", "300,400", "--series", "100,200", "--max", "2")
	require.Len(t, outs, 2)

	assert.Equal(t, 300., outs[0].Target)
	require.NotEmpty(t, outs[0].Results)
	assert.InDelta(t, 300, outs[0].Results[0]["value"], 1e-9)
	assert.Equal(t, false, outs[0].Results[0]["parallel"])

	require.NotEmpty(t, outs[1].Results)
	assert.InDelta(t, 400, outs[1].Results[0]["value"], 1e-9)

	out, err := runCmd(t, "find", "--target", "300", "--series", "100,200", "--max", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Target: 300 Ω")
	assert.Contains(t, out, "300 Ω <-- ")

	out, err = runCmd(t, "find", "--kind", "c", "--target", "3u", "--series", "1u,2u", "--max", "2", "--topology", "parallel")
	require.NoError(t, err)
	assert.Contains(t, out, "F <-- ")
}

func TestFindErrors(t *testing.T) {
	_, err := runCmd(t, "find", "--series", "e3")
	assert.Error(t, err)

	_, err = runCmd(t, "find", "--target", "300", "--series", "e7")
	assert.Error(t, err)

	_, err = runCmd(t, "find", "--target", "300", "--filter", "sideways")
	assert.Error(t, err)

	_, err = runCmd(t, "find", "--target", "300", "--series", "100", "--max", "16")
	assert.Error(t, err)
}

func TestDivider(t *testing.T) {
	var outs []jsonResult
	runJSON(t, &outs, "divider", "--target", "1/2", "--series", "100,200",
		"--total-min", "100", "--total-max", "500", "--max", "4")
	require.Len(t, outs, 1)
	require.Empty(t, outs[0].Error)
	require.NotEmpty(t, outs[0].Results)
	for _, res := range outs[0].Results {
		assert.InDelta(t, .5, res["ratio"], 1e-9)
	}

	out, err := runCmd(t, "divider", "--target", "0.5", "--series", "100,200",
		"--total-min", "100", "--total-max", "500", "--elem-tol", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "R1:")
	assert.Contains(t, out, "R2:")
}

func TestSeries(t *testing.T) {
	var values []float64
	runJSON(t, &values, "series", "e3")
	assert.Equal(t, []float64{1, 2.2, 4.7}, values)

	out, err := runCmd(t, "series", "e6", "--min", "1k", "--max", "2k")
	require.NoError(t, err)
	assert.Equal(t, "1 k\n1.5 k\n", out)

	out, err = runCmd(t, "series")
	require.NoError(t, err)
	assert.Contains(t, strings.Fields(out), "e24")
}

func TestTopologies(t *testing.T) {
	var counts []uint64
	runJSON(t, &counts, "topologies")
	require.Len(t, counts, 15)
	assert.Equal(t, []uint64{1, 2, 4, 10}, counts[:4])

	var shapes []map[string]interface{}
	runJSON(t, &shapes, "topologies", "3")
	assert.Len(t, shapes, 4)

	_, err := runCmd(t, "topologies", "16")
	assert.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	pathname := filepath.Join(t.TempDir(), "rcmb.yaml")
	cfg := `
defaults:
  series: 100,200
  max: 2
  format: json
`
	require.NoError(t, os.WriteFile(pathname, []byte(cfg), 0600))

	out, err := runCmd(t, "find", "--config", pathname, "--target", "300")
	require.NoError(t, err)
	var outs []jsonResult
	require.NoError(t, json.Unmarshal([]byte(out), &outs), out)
	require.Len(t, outs, 1)
	assert.InDelta(t, 300, outs[0].Results[0]["value"], 1e-9)

	// flags given on the command line win
	out, err = runCmd(t, "find", "--config", pathname, "--target", "300", "--format", "text")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Target: "), out)

	_, err = runCmd(t, "find", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "--target", "300")
	assert.Error(t, err)
}

func TestScript(t *testing.T) {
	dir := t.TempDir()
	pathname := filepath.Join(dir, "calc.py")
	src := `
import rcmb
combs = rcmb.find_combinations([100, 200], 300, max_elements=2)
if combs[0].Value() != 300:
    raise ValueError("unexpected value")
`
	require.NoError(t, os.WriteFile(pathname, []byte(src), 0600))
	_, err := runCmd(t, "script", pathname)
	require.NoError(t, err)

	failing := filepath.Join(dir, "fail.py")
	require.NoError(t, os.WriteFile(failing, []byte("raise ValueError('boom')\n"), 0600))
	_, err = runCmd(t, "script", failing)
	assert.Error(t, err)
}
