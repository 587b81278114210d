// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flowdef

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/flow/lib/flow"
)

const opsYAML = `
name: ops
description: Operations toolkit.
version: 2.0.0
args:
  - name: region
    default: eu-west
subflows:
  - name: deploy
    description: Deploy a service.
    handler: greet
    params:
      greeting: Deploying
    args:
      - name: target
        alias: t
        required: true
      - name: replicas
        kind: number
        default: 3
      - name: port
        default: 8080
  - ref: tree
examples:
  - command: ops deploy --target=prod
notes: |
  Deploys things.
workflows:
  - name: tree
    description: A recursive tree.
    handler: greet
    subflows:
      - ref: tree
`

const opsJSONC = `{
  // The same tree in JSONC.
  "name": "ops",
  "subflows": [
    {"name": "deploy", "handler": "greet", "args": [{"name": "target", "required": true},]},
    {"ref": "tree"},
  ],
  "workflows": [
    {"name": "tree", "handler": "greet", "subflows": [{"ref": "tree"}]},
  ],
}`

// greetRegistry registers "greet", which writes "<greeting> <target>"
// and the invocation path.
func greetRegistry(t *testing.T) *Registry {
	t.Helper()
	registry := NewRegistry()
	err := registry.Register("greet", func(params map[string]any) (flow.Handler, error) {
		greeting := "Hello"
		if value, ok := params["greeting"]; ok {
			text, isText := value.(string)
			if !isText {
				return nil, fmt.Errorf("greeting must be a string, got %T", value)
			}
			greeting = text
		}
		return func(ctx context.Context, args flow.Values, ec *flow.Context) error {
			fmt.Fprintf(ec.Stdout, "%s %s at %s\n", greeting, args.String("target"), strings.Join(ec.Path, "/"))
			return nil
		}, nil
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	return registry
}

func run(t *testing.T, root *flow.Workflow, argv ...string) (int, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := root.Run(context.Background(), argv,
		flow.WithStdout(&stdout), flow.WithStderr(&stderr), flow.WithColor(flow.ColorNever))
	if stderr.Len() > 0 {
		t.Logf("stderr: %s", stderr.String())
	}
	return code, stdout.String()
}

func TestBuild_YAML(t *testing.T) {
	manifest, err := Parse([]byte(opsYAML), SyntaxYAML)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	root, err := Build(manifest, greetRegistry(t))
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if root.Name != "ops" || root.Version != "2.0.0" || len(root.Examples) != 1 {
		t.Errorf("root = %+v", root.Meta())
	}

	deploy, ok, err := root.Subflow("deploy")
	if err != nil || !ok {
		t.Fatalf("Subflow(deploy) = %v, %v", ok, err)
	}
	if deploy.Args[1].Kind != flow.Number {
		t.Errorf("replicas kind = %s, want number", deploy.Args[1].Kind)
	}
	if deploy.Args[2].Default != "8080" {
		t.Errorf("port default = %#v, want the string \"8080\"", deploy.Args[2].Default)
	}

	code, stdout := run(t, root, "deploy", "-t", "prod")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if stdout != "Deploying prod at ops/deploy\n" {
		t.Errorf("stdout = %q", stdout)
	}

	code, stdout = run(t, root, "tree", "tree", "tree")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if stdout != "Hello  at ops/tree/tree/tree\n" {
		t.Errorf("stdout = %q", stdout)
	}

	if code, _ := run(t, root, "deploy"); code != 1 {
		t.Errorf("missing --target: exit code = %d, want 1", code)
	}
}

func TestBuild_SelfReferenceIsOneWorkflow(t *testing.T) {
	manifest, err := Parse([]byte(opsYAML), SyntaxYAML)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	root, err := Build(manifest, greetRegistry(t))
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	tree, _, err := root.Subflow("tree")
	if err != nil {
		t.Fatalf("Subflow(tree) error: %v", err)
	}
	inner, _, err := tree.Subflow("tree")
	if err != nil {
		t.Fatalf("tree.Subflow(tree) error: %v", err)
	}
	if inner != tree {
		t.Error("a self reference resolved to a different workflow")
	}

	var help bytes.Buffer
	if err := flow.RenderHelp(&help, root, nil, flow.HelpOptions{ShowAll: true, Color: flow.ColorNever}); err != nil {
		t.Fatalf("RenderHelp() error: %v", err)
	}
	if !strings.Contains(help.String(), "ops tree tree (see above)") {
		t.Errorf("help has no stub for the self reference:\n%s", help.String())
	}
}

func TestBuild_JSONC(t *testing.T) {
	manifest, err := Parse([]byte(opsJSONC), SyntaxJSONC)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	root, err := Build(manifest, greetRegistry(t))
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	code, stdout := run(t, root, "deploy", "--target", "staging")
	if code != 0 || stdout != "Hello staging at ops/deploy\n" {
		t.Errorf("run = %d, %q", code, stdout)
	}
}

func TestBuild_RootRef(t *testing.T) {
	manifest, err := Parse([]byte("ref: main\nworkflows:\n  - name: main\n    handler: greet\n"), SyntaxYAML)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	root, err := Build(manifest, greetRegistry(t))
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if root.Name != "main" || root.Handler == nil {
		t.Errorf("root = %+v", root.Meta())
	}
}

func TestBuild_MutualReferences(t *testing.T) {
	source := `
name: game
subflows:
  - ref: ping
workflows:
  - name: ping
    subflows: [{ref: pong}]
  - name: pong
    handler: greet
    subflows: [{ref: ping}]
`
	manifest, err := Parse([]byte(source), SyntaxYAML)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	root, err := Build(manifest, greetRegistry(t))
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	code, stdout := run(t, root, "ping", "pong", "ping", "pong")
	if code != 0 || !strings.HasSuffix(stdout, "at game/ping/pong/ping/pong\n") {
		t.Errorf("run = %d, %q", code, stdout)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr string
	}{
		{"unknown handler", "name: x\nhandler: nope\n", `unknown handler "nope" (registered: greet)`},
		{"unknown ref", "name: x\nsubflows: [{ref: missing}]\n", `unknown ref "missing"`},
		{"missing name", "description: nameless\n", "root: name is required"},
		{"ref with body", "name: x\nsubflows: [{ref: t, name: y}]\nworkflows: [{name: t}]\n", "ref cannot be combined"},
		{"duplicate workflow", "name: x\nworkflows: [{name: t}, {name: t}]\n", "duplicate workflow name"},
		{"duplicate subflow", "name: x\nsubflows: [{name: a}, {name: a}]\n", `duplicate subflow name "a"`},
		{"duplicate argument", "name: x\nargs: [{name: a}, {name: a}]\n", "duplicate argument name"},
		{"reserved argument", "name: x\nargs: [{name: help}]\n", "built-in switch"},
		{"bad default", "name: x\nargs: [{name: n, kind: number, default: many}]\n", "does not match kind"},
		{"params without handler", "name: x\nparams: {a: 1}\n", "params given without a handler"},
		{"factory rejects params", "name: x\nhandler: greet\nparams: {greeting: 5}\n", "greeting must be a string"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			manifest, err := Parse([]byte(test.source), SyntaxYAML)
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			_, err = Build(manifest, greetRegistry(t))
			if err == nil || !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("Build() error = %v, want it to mention %q", err, test.wantErr)
			}
		})
	}
}

func TestBuild_ManifestErrorListsEveryIssue(t *testing.T) {
	manifest, err := Parse([]byte("subflows: [{ref: a}, {ref: b}]\n"), SyntaxYAML)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	_, err = Build(manifest, NewRegistry())
	var manifestErr *ManifestError
	if !errors.As(err, &manifestErr) {
		t.Fatalf("Build() error = %v, want *ManifestError", err)
	}
	if len(manifestErr.Issues) != 3 {
		t.Errorf("issues = %q, want three", manifestErr.Issues)
	}
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	if _, err := Parse([]byte("name: x\nsubflow: []\n"), SyntaxYAML); err == nil {
		t.Error("YAML: Parse() accepted an unknown field")
	}
	if _, err := Parse([]byte(`{"name": "x", "handlr": "echo"}`), SyntaxJSONC); err == nil {
		t.Error("JSONC: Parse() accepted an unknown field")
	}
	if _, err := Parse([]byte("name: x\nargs: [{name: a, kind: date}]\n"), SyntaxYAML); err == nil {
		t.Error("Parse() accepted an unknown kind")
	}
	if _, err := Parse(nil, SyntaxYAML); err == nil {
		t.Error("Parse() accepted an empty document")
	}
}

func TestLoad(t *testing.T) {
	directory := t.TempDir()
	yamlPath := filepath.Join(directory, "ops.yaml")
	jsoncPath := filepath.Join(directory, "ops.jsonc")
	if err := os.WriteFile(yamlPath, []byte(opsYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(jsoncPath, []byte(opsJSONC), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{yamlPath, jsoncPath} {
		manifest, err := Load(path)
		if err != nil {
			t.Errorf("Load(%s) error: %v", path, err)
			continue
		}
		if manifest.Name != "ops" || len(manifest.Workflows) != 1 {
			t.Errorf("Load(%s) = %+v", path, manifest)
		}
	}

	if _, err := Load(filepath.Join(directory, "ops.toml")); err == nil {
		t.Error("Load() accepted an unknown extension")
	}
	if _, err := Load(filepath.Join(directory, "missing.yaml")); err == nil {
		t.Error("Load() accepted a missing file")
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	noop := func(ctx context.Context, args flow.Values, ec *flow.Context) error { return nil }

	if err := registry.RegisterHandler("b", noop); err != nil {
		t.Fatalf("RegisterHandler() error: %v", err)
	}
	if err := registry.RegisterHandler("a", noop); err != nil {
		t.Fatalf("RegisterHandler() error: %v", err)
	}
	if err := registry.RegisterHandler("a", noop); err == nil {
		t.Error("duplicate registration succeeded")
	}
	if err := registry.Register("", nil); err == nil {
		t.Error("empty registration succeeded")
	}
	if names := registry.Names(); strings.Join(names, ",") != "a,b" {
		t.Errorf("Names() = %v, want [a b]", names)
	}

	factory, ok := registry.lookup("a")
	if !ok {
		t.Fatal("lookup(a) failed")
	}
	if _, err := factory(map[string]any{"x": 1}); err == nil {
		t.Error("a plain handler accepted params")
	}
}
