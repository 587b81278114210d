// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/bureau-foundation/flow/lib/flowdoc"
	"github.com/bureau-foundation/flow/lib/version"
)

const opsManifest = `
name: ops
description: Operations.
subflows:
  - name: deploy
    handler: echo
    params:
      text: Deploying ${target}
    args:
      - name: target
        required: true
  - name: dump
    handler: json
    args:
      - name: verbose
        kind: boolean
      - name: level
        kind: number
        default: 2
  - name: env
    handler: env
    params: {prefix: FLOW_TEST_}
  - ref: loop
workflows:
  - name: loop
    handler: echo
    subflows: [{ref: loop}]
`

// setup writes files into a temporary directory and returns its path.
// FLOW_CONFIG is cleared so the tests never read a developer's config.
func setup(t *testing.T, files map[string]string) string {
	t.Helper()
	t.Setenv("FLOW_CONFIG", "")
	directory := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(directory, name), []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return directory
}

func invoke(t *testing.T, argv ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), argv, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun(t *testing.T) {
	directory := setup(t, map[string]string{"ops.yaml": opsManifest})
	manifest := filepath.Join(directory, "ops.yaml")
	t.Setenv("FLOW_TEST_VAR", "x")

	tests := []struct {
		name       string
		argv       []string
		wantCode   int
		wantStdout string
	}{
		{"echo text", []string{"run", manifest, "deploy", "--target=prod"}, 0, "Deploying prod\n"},
		{"value in next token", []string{"run", manifest, "deploy", "--target", "staging"}, 0, "Deploying staging\n"},
		{"recursive ref", []string{"run", manifest, "loop", "loop", "loop", "hi", "there"}, 0, "hi there\n"},
		{"env", []string{"run", manifest, "env"}, 0, "FLOW_TEST_VAR=x\n"},
		{"flags before manifest", []string{"run", "--log-level", "error", manifest, "loop", "x"}, 0, "x\n"},
		{"missing required", []string{"run", manifest, "deploy"}, 1, ""},
		{"no manifest", []string{"run"}, 1, ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			code, stdout, stderr := invoke(t, test.argv...)
			if code != test.wantCode {
				t.Fatalf("exit code = %d, want %d (stderr %q)", code, test.wantCode, stderr)
			}
			if stdout != test.wantStdout {
				t.Errorf("stdout = %q, want %q", stdout, test.wantStdout)
			}
			if test.wantCode != 0 && !strings.HasPrefix(stderr, "error: ") {
				t.Errorf("stderr = %q, want an error line", stderr)
			}
		})
	}
}

func TestRun_JSONHandler(t *testing.T) {
	directory := setup(t, map[string]string{"ops.yaml": opsManifest})
	code, stdout, stderr := invoke(t, "run", filepath.Join(directory, "ops.yaml"), "dump", "a", "b", "--verbose")
	if code != 0 {
		t.Fatalf("exit code = %d (stderr %q)", code, stderr)
	}

	var got invocation
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	want := invocation{
		Path:       []string{"ops", "dump"},
		Args:       map[string]any{"verbose": true, "level": 2.0},
		Positional: []string{"a", "b"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("invocation = %+v, want %+v", got, want)
	}
}

func TestRun_ForwardedHelpUsesProgram(t *testing.T) {
	directory := setup(t, map[string]string{
		"ops.yaml":  opsManifest,
		"flow.yaml": "program: ops-tool\ncolor: never\n",
	})
	code, stdout, stderr := invoke(t, "--config", filepath.Join(directory, "flow.yaml"),
		"run", filepath.Join(directory, "ops.yaml"), "--", "deploy", "--help")
	if code != 0 {
		t.Fatalf("exit code = %d (stderr %q)", code, stderr)
	}
	if !strings.HasPrefix(stdout, "ops-tool deploy v1.0.0\n") {
		t.Errorf("help = %q, want the manifest's deploy help", stdout)
	}
}

func TestHelpAndVersion(t *testing.T) {
	setup(t, nil)

	code, stdout, _ := invoke(t)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	for _, want := range []string{"flow v" + version.Short(), "Subflows:", "fingerprint", "--log-level"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("root help missing %q:\n%s", want, stdout)
		}
	}

	if _, stdout, _ := invoke(t, "--version"); stdout != version.Short()+"\n" {
		t.Errorf("--version = %q", stdout)
	}
	if _, stdout, _ := invoke(t, "version"); !strings.HasPrefix(stdout, "flow "+version.Info()) {
		t.Errorf("version = %q", stdout)
	}

	code, stdout, stderr := invoke(t, "version", "--json")
	if code != 0 {
		t.Fatalf("version --json = %d (stderr %q)", code, stderr)
	}
	var build version.Build
	if err := json.Unmarshal([]byte(stdout), &build); err != nil {
		t.Fatalf("version --json is not JSON: %v\n%s", err, stdout)
	}
	if build != version.Current() {
		t.Errorf("version --json = %+v, want %+v", build, version.Current())
	}
}

func TestCheck(t *testing.T) {
	directory := setup(t, map[string]string{
		"ops.yaml":    opsManifest,
		"broken.json": `{"name": "broken", "subflows": [{"ref": "missing"}, {"name": "x", "handler": "nope"}]}`,
	})
	valid := filepath.Join(directory, "ops.yaml")
	broken := filepath.Join(directory, "broken.json")

	code, stdout, stderr := invoke(t, "check", valid)
	if code != 0 || stdout != valid+": valid (5 workflows)\n" {
		t.Errorf("check valid = %d, %q (stderr %q)", code, stdout, stderr)
	}

	code, stdout, stderr = invoke(t, "check", valid, broken)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stdout, valid+": valid") {
		t.Errorf("stdout = %q, want the valid manifest reported", stdout)
	}
	if !strings.Contains(stderr, `unknown ref "missing"`) || !strings.Contains(stderr, "1 validation issue(s) found") {
		t.Errorf("stderr = %q", stderr)
	}
	if strings.Contains(stderr, "error:") {
		t.Errorf("issues were reported twice: %q", stderr)
	}
}

func TestDoc(t *testing.T) {
	directory := setup(t, map[string]string{"ops.yaml": opsManifest})
	manifest := filepath.Join(directory, "ops.yaml")

	code, stdout, stderr := invoke(t, "doc", manifest)
	if code != 0 {
		t.Fatalf("doc = %d (stderr %q)", code, stderr)
	}
	if !strings.Contains(stdout, `"name": "ops"`) || !strings.Contains(stdout, `"ref": [`) {
		t.Errorf("JSON document = %s", stdout)
	}

	code, stdout, _ = invoke(t, "doc", manifest, "--format=yaml")
	if code != 0 || !strings.HasPrefix(stdout, "name: ops\n") {
		t.Errorf("YAML document = %d, %q", code, stdout)
	}

	if code, _, stderr := invoke(t, "doc", manifest, "--compression=lz4"); code != 1 ||
		!strings.Contains(stderr, "--compression applies only to --format=cbor") {
		t.Errorf("compression with JSON = %d, %q", code, stderr)
	}
}

func TestDocSnapshotAndInspect(t *testing.T) {
	directory := setup(t, map[string]string{"ops.yaml": opsManifest})
	manifest := filepath.Join(directory, "ops.yaml")
	snapshot := filepath.Join(directory, "ops.flwd")

	code, stdout, stderr := invoke(t, "doc", manifest, "-f", "cbor", "--compression=zstd", "-o", snapshot)
	if code != 0 || stdout != "" {
		t.Fatalf("doc = %d, %q (stderr %q)", code, stdout, stderr)
	}

	file, err := os.Open(snapshot)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	node, err := flowdoc.ReadSnapshot(file)
	if err != nil {
		t.Fatalf("ReadSnapshot() error: %v", err)
	}
	if node.Name != "ops" || node.Count() != 5 {
		t.Errorf("snapshot root = %s with %d workflows", node.Name, node.Count())
	}

	code, stdout, stderr = invoke(t, "inspect", snapshot, "--format=yaml")
	if code != 0 || !strings.HasPrefix(stdout, "name: ops\n") {
		t.Errorf("inspect = %d, %q (stderr %q)", code, stdout, stderr)
	}

	code, stdout, stderr = invoke(t, "inspect", snapshot, "--format=diag")
	if code != 0 || !strings.HasPrefix(stdout, "{") || !strings.Contains(stdout, `"ops"`) {
		t.Errorf("inspect --format=diag = %d, %q (stderr %q)", code, stdout, stderr)
	}

	if code, _, _ := invoke(t, "inspect", snapshot, "--format=cbor"); code != 1 {
		t.Errorf("inspect --format=cbor = %d, want 1", code)
	}
	if code, _, _ := invoke(t, "inspect", manifest); code != 1 {
		t.Errorf("inspect of a manifest = %d, want 1", code)
	}
	if code, _, _ := invoke(t, "inspect", manifest, "--format=diag"); code != 1 {
		t.Errorf("inspect --format=diag of a manifest = %d, want 1", code)
	}

	exported := filepath.Join(directory, "ops.json")
	if code, _, stderr := invoke(t, "doc", manifest, "-o", exported); code != 0 {
		t.Fatalf("doc -o ops.json = %d (stderr %q)", code, stderr)
	}
	code, stdout, stderr = invoke(t, "inspect", exported, "--format=yaml")
	if code != 0 || !strings.HasPrefix(stdout, "name: ops\n") {
		t.Errorf("inspect of a JSON document = %d, %q (stderr %q)", code, stdout, stderr)
	}

	var encoded bytes.Buffer
	if err := flowdoc.Encode(&encoded, node, flowdoc.FormatCBOR); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	plain := filepath.Join(directory, "ops.cbor")
	if err := os.WriteFile(plain, encoded.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, format := range []string{"json", "diag"} {
		code, stdout, stderr = invoke(t, "inspect", plain, "--format="+format)
		if code != 0 || !strings.Contains(stdout, `"ops"`) {
			t.Errorf("inspect of a CBOR document as %s = %d, %q (stderr %q)", format, code, stdout, stderr)
		}
	}
}

func TestDoc_OutputFromConfig(t *testing.T) {
	directory := setup(t, map[string]string{"ops.yaml": opsManifest})
	output := filepath.Join(directory, "out", "ops.yaml")
	if err := os.Mkdir(filepath.Dir(output), 0o755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(directory, "flow.yaml")
	content := "doc:\n  format: yaml\n  output: " + output + "\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FLOW_CONFIG", configPath)

	if code, stdout, stderr := invoke(t, "doc", filepath.Join(directory, "ops.yaml")); code != 0 || stdout != "" {
		t.Fatalf("doc = %d, %q (stderr %q)", code, stdout, stderr)
	}
	written, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(written), "name: ops\n") {
		t.Errorf("written document = %q", written)
	}

	// "-o -" overrides the configured file.
	if code, stdout, _ := invoke(t, "doc", filepath.Join(directory, "ops.yaml"), "-o", "-"); code != 0 ||
		!strings.HasPrefix(stdout, "name: ops\n") {
		t.Errorf("doc -o - = %d, %q", code, stdout)
	}
}

func TestFingerprint(t *testing.T) {
	directory := setup(t, map[string]string{
		"ops.yaml":    opsManifest,
		"edited.yaml": strings.Replace(opsManifest, "description: Operations.", "description: Changed.", 1),
		"grown.yaml":  strings.Replace(opsManifest, "kind: boolean", "kind: boolean\n      - name: extra", 1),
	})
	fingerprint := func(name string, extra ...string) (int, string) {
		t.Helper()
		code, stdout, _ := invoke(t, append([]string{"fingerprint", filepath.Join(directory, name)}, extra...)...)
		return code, strings.TrimSpace(stdout)
	}

	code, base := fingerprint("ops.yaml")
	if code != 0 || !regexp.MustCompile(`^[0-9a-f]{64}$`).MatchString(base) {
		t.Fatalf("fingerprint = %d, %q", code, base)
	}
	if _, edited := fingerprint("edited.yaml"); edited != base {
		t.Error("fingerprint changed with only a description edit")
	}
	if _, grown := fingerprint("grown.yaml"); grown == base {
		t.Error("fingerprint unchanged after adding an argument")
	}

	if code, _ := fingerprint("ops.yaml", "--expect="+base); code != 0 {
		t.Errorf("--expect with the right digest = %d", code)
	}
	code, _, stderr := invoke(t, "fingerprint", filepath.Join(directory, "grown.yaml"), "--expect="+base)
	if code != 1 || !strings.Contains(stderr, "expected "+base) {
		t.Errorf("--expect mismatch = %d, %q", code, stderr)
	}
}

func TestGlobalFlags(t *testing.T) {
	directory := setup(t, map[string]string{
		"bad.yaml": "colour: never\n",
		"ops.yaml": opsManifest,
	})

	code, _, stderr := invoke(t, "--log-level", "loud", "version")
	if code != 1 || !strings.Contains(stderr, `unknown level "loud"`) {
		t.Errorf("bad --log-level = %d, %q", code, stderr)
	}

	code, _, stderr = invoke(t, "version", "--config", filepath.Join(directory, "bad.yaml"))
	if code != 1 || !strings.Contains(stderr, "field colour not found") {
		t.Errorf("bad config = %d, %q", code, stderr)
	}

	code, _, stderr = invoke(t, "--config")
	if code != 1 || !strings.Contains(stderr, "--config requires a value") {
		t.Errorf("bare --config = %d, %q", code, stderr)
	}

	// A buffer is not a terminal, so debug records are JSON.
	code, _, stderr = invoke(t, "check", filepath.Join(directory, "ops.yaml"), "--log-level=debug")
	if code != 0 {
		t.Fatalf("check = %d (stderr %q)", code, stderr)
	}
	if !strings.Contains(stderr, `"msg":"configuration resolved"`) || !strings.Contains(stderr, `"msg":"manifest built"`) {
		t.Errorf("debug log = %q", stderr)
	}
}

func TestBuiltinHandlers_RejectBadParams(t *testing.T) {
	tests := []struct {
		name    string
		factory func(map[string]any) (any, error)
		params  map[string]any
		want    string
	}{
		{"echo unknown", wrap(echoHandler), map[string]any{"txt": "x"}, `unknown param "txt" (want text)`},
		{"echo type", wrap(echoHandler), map[string]any{"text": 5}, `param "text" must be a string`},
		{"json takes none", wrap(jsonHandler), map[string]any{"indent": true}, "this handler takes none"},
		{"env type", wrap(envHandler), map[string]any{"prefix": []any{"A"}}, `param "prefix" must be a string`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := test.factory(test.params)
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Errorf("error = %v, want %q", err, test.want)
			}
		})
	}

	if names := builtinRegistry().Names(); !reflect.DeepEqual(names, []string{"echo", "env", "json"}) {
		t.Errorf("registered handlers = %v", names)
	}
}

func wrap[H any](factory func(map[string]any) (H, error)) func(map[string]any) (any, error) {
	return func(params map[string]any) (any, error) { return factory(params) }
}
