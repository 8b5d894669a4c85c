package main

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	demangleStrict, demangleVerbose = false, false
	dumpFormat = "text"
	outputFile = ""

	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestDemangleCommand(t *testing.T) {
	out, err := execute(t, "", "demangle", "_RNvC8rustdump6decode", "not_mangled")
	if err != nil {
		t.Fatalf("demangle error: %v", err)
	}
	if diff := cmp.Diff("rustdump::decode\nnot_mangled\n", out); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestDemangleCommandStdin(t *testing.T) {
	out, err := execute(t, "_RC1a\n\n  _RNvC1a1b  \n", "demangle", "--verbose")
	if err != nil {
		t.Fatalf("demangle error: %v", err)
	}
	if diff := cmp.Diff("_RC1a\ta\n_RNvC1a1b\ta::b\n", out); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestDemangleCommandStrict(t *testing.T) {
	_, err := execute(t, "", "demangle", "--strict", "_RNvC3fo")
	if err == nil {
		t.Fatalf("demangle --strict succeeded on a truncated symbol")
	}
	if !strings.Contains(err.Error(), "_RNvC3fo") {
		t.Fatalf("error %q does not name the symbol", err)
	}
}

func TestFilterCommand(t *testing.T) {
	in := "call _RNvC8rustdump6decode\njmp _ZN3foo3barE\n"
	out, err := execute(t, in, "filter")
	if err != nil {
		t.Fatalf("filter error: %v", err)
	}
	if diff := cmp.Diff("call rustdump::decode\njmp _ZN3foo3barE\n", out); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestDumpCommandJSON(t *testing.T) {
	out, err := execute(t, "", "dump", "--format", "json", "_RNvC8rustdump6decode")
	if err != nil {
		t.Fatalf("dump error: %v", err)
	}

	var got SymbolDump
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	want := SymbolDump{
		Symbol:    "_RNvC8rustdump6decode",
		Demangled: "rustdump::decode",
		Crate:     "rustdump",
		Nodes: []NodeDump{
			{Slot: 0, Kind: "Nested", Detail: `ns=value parent=1 name="decode"`},
			{Slot: 1, Kind: "Crate", Detail: "name=rustdump"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestDumpCommandText(t *testing.T) {
	out, err := execute(t, "", "dump", "_RNvC8rustdump6decode")
	if err != nil {
		t.Fatalf("dump error: %v", err)
	}
	for _, want := range []string{"Demangled: rustdump::decode", "Crate: rustdump", "Total: 2 nodes"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDumpCommandErrors(t *testing.T) {
	if _, err := execute(t, "", "dump", "_ZN3foo3barE"); err == nil {
		t.Fatalf("dump of a non-v0 symbol succeeded")
	}
	if _, err := execute(t, "", "dump", "--format", "xml", "_RC1a"); err == nil {
		t.Fatalf("dump with an unknown format succeeded")
	}
}

func TestLogLevelFlag(t *testing.T) {
	var f logLevelFlag
	if err := f.Set("debug"); err != nil {
		t.Fatalf("Set(debug) error: %v", err)
	}
	if f.String() != "debug" {
		t.Fatalf("String() = %q, want %q", f.String(), "debug")
	}
	if err := f.Set("loud"); err == nil {
		t.Fatalf("Set(loud) succeeded")
	}
}
