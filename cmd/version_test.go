package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)

	got := out.String()
	if !strings.HasPrefix(got, "coldmail "+version+" (commit "+commit) {
		t.Fatalf("unexpected version output %q", got)
	}
}
