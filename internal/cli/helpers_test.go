package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const pairCUE = `schedule: pair: {
	precision: 1000
	items: [
		{kind: "action", name: "a", duration: 1},
		{kind: "action", name: "b", duration: 1},
	]
}
`

const invalidKindCUE = `schedule: broken: {
	items: [
		{kind: "bogus", name: "a", duration: 1},
	]
}
`

const pairScenarioYAML = `name: pair
description: "Two actions back to back"
schedule:
  name: pair
  precision: 1000
  items:
    - kind: action
      name: a
      duration: 1
    - kind: action
      name: b
      duration: 1
steps:
  - op: initialize
    t: 0
  - op: step
    t: 0.5
  - op: step
    t: 1.5
  - op: finalize
assertions:
  - type: callback_order
    order: ["a:initialize", "a:finalize", "b:initialize", "b:finalize"]
  - type: active
`

// pairSteps is the --step value that walks the pair schedule to its end.
const pairSteps = "initialize:0,step:0.5,step:1.5,finalize"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs cmd with args and returns its stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// decodeResponse decodes a JSON CLIResponse, decoding Data into data.
func decodeResponse(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), "output: %s", out)
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}
}
