package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// setMockTTY forces isTTY to value until the returned func is called.
func setMockTTY(value bool) func() {
	testIsTTYMutex.Lock()
	testIsTTYOverride = &value
	testIsTTYMutex.Unlock()
	return func() {
		testIsTTYMutex.Lock()
		testIsTTYOverride = nil
		testIsTTYMutex.Unlock()
	}
}

// testEnv points the CLI at a fresh database and clears VISTA_* overrides.
// It returns the database path.
func testEnv(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "settings.db")
	t.Setenv("VISTA_DB_PATH", dbPath)
	for _, k := range []string{"VISTA_WORKSPACE", "VISTA_CAN_UPDATE_SETTINGS", "VISTA_REDIRECT_TARGET", "VISTA_LOG_FORMAT", "VISTA_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	t.Cleanup(setMockTTY(false))
	return dbPath
}

// resetFlags restores every flag on cmd and its children to its default so
// state does not leak between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// run executes the CLI with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("vista %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func decode(t *testing.T, out string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
}

func TestCLI_Help_ListsAllCommands(t *testing.T) {
	testEnv(t)

	out := mustRun(t, "--help")
	for _, name := range []string{"ensure", "describe", "dataset", "setting", "workspace", "export", "import", "mcp", "version"} {
		if !strings.Contains(out, name) {
			t.Errorf("--help output should contain %q", name)
		}
	}
}

func TestCLI_Ensure_RedirectsWhenEmpty(t *testing.T) {
	testEnv(t)

	var res ResolutionOutput
	decode(t, mustRun(t, "ensure", "--json"), &res)
	if res.Outcome != "redirected" {
		t.Errorf("Outcome = %q, want redirected", res.Outcome)
	}
	if res.RedirectTo != "/app/management/datasets/create" {
		t.Errorf("RedirectTo = %q, want default target", res.RedirectTo)
	}

	decode(t, mustRun(t, "ensure", "--json", "--redirect-target", "/new"), &res)
	if res.RedirectTo != "/new" {
		t.Errorf("RedirectTo = %q, want /new", res.RedirectTo)
	}
}

func TestCLI_Ensure_AssignsFirstDataset(t *testing.T) {
	testEnv(t)

	mustRun(t, "dataset", "create", "logs-*", "--id", "logs", "--time-field", "@timestamp")
	mustRun(t, "dataset", "create", "metrics-*", "--id", "metrics")

	var res ResolutionOutput
	decode(t, mustRun(t, "ensure", "--json"), &res)
	if res.Outcome != "assigned" || res.DefaultDataset != "logs" {
		t.Errorf("ensure = %+v, want assigned logs", res)
	}

	decode(t, mustRun(t, "ensure", "--json"), &res)
	if res.Outcome != "valid" {
		t.Errorf("second ensure Outcome = %q, want valid", res.Outcome)
	}

	mustRun(t, "dataset", "delete", "logs")
	decode(t, mustRun(t, "ensure", "--json"), &res)
	if res.Outcome != "reassigned" || res.Removed != "logs" || res.DefaultDataset != "metrics" {
		t.Errorf("ensure after delete = %+v, want reassigned logs -> metrics", res)
	}
}

func TestCLI_Ensure_Disabled(t *testing.T) {
	testEnv(t)
	mustRun(t, "dataset", "create", "logs-*", "--id", "logs")

	var res ResolutionOutput
	decode(t, mustRun(t, "ensure", "--json", "--can-update-settings=false"), &res)
	if res.Outcome != "disabled" {
		t.Errorf("Outcome = %q, want disabled", res.Outcome)
	}

	out := mustRun(t, "setting", "get", "defaultIndex")
	if !strings.Contains(out, "not set") {
		t.Errorf("defaultIndex was written while disabled: %q", out)
	}
}

func TestCLI_Ensure_InvalidPermission(t *testing.T) {
	testEnv(t)
	if _, err := run(t, "ensure", "--can-update-settings=maybe"); err == nil {
		t.Fatal("expected error for invalid --can-update-settings")
	}
}

func TestCLI_DatasetList(t *testing.T) {
	testEnv(t)
	mustRun(t, "dataset", "create", "logs-*", "--id", "logs")
	mustRun(t, "dataset", "create", "metrics-*", "--id", "metrics")
	mustRun(t, "setting", "set", "defaultIndex", "metrics")

	var doc struct {
		Datasets []struct {
			ID      string `json:"id"`
			Default bool   `json:"default"`
		} `json:"datasets"`
	}
	decode(t, mustRun(t, "dataset", "list", "--json"), &doc)
	if len(doc.Datasets) != 2 || doc.Datasets[0].ID != "logs" || !doc.Datasets[1].Default {
		t.Errorf("dataset list = %+v", doc.Datasets)
	}

	out := mustRun(t, "dataset", "list", "--match", "logs-*")
	if !strings.Contains(out, "logs") || strings.Contains(out, "metrics") {
		t.Errorf("filtered list = %q", out)
	}
}

func TestCLI_Settings(t *testing.T) {
	testEnv(t)

	mustRun(t, "setting", "set", "theme", "dark")
	if out := mustRun(t, "setting", "get", "theme"); strings.TrimSpace(out) != "dark" {
		t.Errorf("setting get = %q, want dark", out)
	}

	var all map[string]string
	decode(t, mustRun(t, "setting", "get", "--json"), &all)
	if all["theme"] != "dark" {
		t.Errorf("settings = %v", all)
	}

	mustRun(t, "setting", "remove", "theme")
	if out := mustRun(t, "setting", "get", "theme"); !strings.Contains(out, "not set") {
		t.Errorf("after remove = %q", out)
	}
}

func TestCLI_Workspace(t *testing.T) {
	testEnv(t)

	var ws struct {
		ID          string `json:"id"`
		Privacy     string `json:"privacy"`
		DataSources []struct {
			ID         string `json:"id"`
			EngineType string `json:"engine_type"`
		} `json:"data_sources"`
	}
	decode(t, mustRun(t, "workspace", "create", "Ops", "--source", "os-1=prod", "--json"), &ws)
	if ws.Privacy != "private-to-collaborators" || len(ws.DataSources) != 1 {
		t.Fatalf("created workspace = %+v", ws)
	}

	decode(t, mustRun(t, "workspace", "privacy", ws.ID, "anyone_can_edit", "--json"), &ws)
	if ws.Privacy != "anyone-can-edit" {
		t.Errorf("Privacy = %q, want anyone-can-edit", ws.Privacy)
	}

	decode(t, mustRun(t, "workspace", "assign", ws.ID, "os-2=staging", "--engine", "OpenSearch", "--json"), &ws)
	if len(ws.DataSources) != 2 || ws.DataSources[1].EngineType != "OpenSearch" {
		t.Errorf("after assign = %+v", ws.DataSources)
	}

	decode(t, mustRun(t, "workspace", "assign", ws.ID, "dq-1", "--connection-type", "direct-query-connection", "--json"), &ws)
	if len(ws.DataSources) != 2 {
		t.Errorf("direct query connection was assigned: %+v", ws.DataSources)
	}

	decode(t, mustRun(t, "workspace", "unassign", ws.ID, "os-1", "--json"), &ws)
	if len(ws.DataSources) != 1 || ws.DataSources[0].ID != "os-2" {
		t.Errorf("after unassign = %+v", ws.DataSources)
	}

	out := mustRun(t, "workspace", "show", ws.ID, "--admin")
	if !strings.Contains(out, "Anyone can edit") || !strings.Contains(out, "add-opensearch-connections") {
		t.Errorf("show output = %q", out)
	}

	if _, err := run(t, "workspace", "assign", ws.ID, "os-2=again"); err == nil {
		t.Error("assigning a duplicate data source should fail")
	}
	if _, err := run(t, "workspace", "privacy", ws.ID, "public"); err == nil {
		t.Error("invalid privacy should fail")
	}
}

func TestCLI_ExportImport(t *testing.T) {
	testEnv(t)
	mustRun(t, "dataset", "create", "logs-*", "--id", "logs")
	mustRun(t, "ensure")

	backup := filepath.Join(t.TempDir(), "out", "backup.json")
	var exp ExportResult
	decode(t, mustRun(t, "export", "-o", backup, "--json"), &exp)
	if exp.FileSize == 0 {
		t.Errorf("export wrote %d bytes", exp.FileSize)
	}

	t.Setenv("VISTA_DB_PATH", filepath.Join(t.TempDir(), "other.db"))

	var preview ImportResultOutput
	decode(t, mustRun(t, "import", "-i", backup, "--dry-run", "--json"), &preview)
	if !preview.DryRun || preview.Created != 2 {
		t.Errorf("dry run = %+v, want 2 creations", preview)
	}
	if out := mustRun(t, "setting", "get", "defaultIndex"); !strings.Contains(out, "not set") {
		t.Errorf("dry run wrote settings: %q", out)
	}

	mustRun(t, "import", "-i", backup)
	if out := mustRun(t, "setting", "get", "defaultIndex"); strings.TrimSpace(out) != "logs" {
		t.Errorf("defaultIndex after import = %q, want logs", out)
	}
}

func TestCLI_Import_MissingFile(t *testing.T) {
	testEnv(t)
	_, err := run(t, "import", "-i", filepath.Join(t.TempDir(), "nope.json"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("err = %v, want input file not found", err)
	}
}

func TestCLI_Version_JSON(t *testing.T) {
	testEnv(t)

	var info versionInfo
	decode(t, mustRun(t, "version", "--json"), &info)
	if info.Version == "" || info.Go == "" {
		t.Errorf("version info = %+v", info)
	}
}

func TestCLI_ErrorsAreReadable(t *testing.T) {
	var buf bytes.Buffer
	t.Cleanup(setMockTTY(false))
	outputError(&buf, os.ErrNotExist)
	if !strings.Contains(buf.String(), "file does not exist") {
		t.Errorf("outputError = %q", buf.String())
	}
}

func TestCLI_Describe(t *testing.T) {
	testEnv(t)

	if out := mustRun(t, "describe"); !strings.Contains(out, "No description set") {
		t.Errorf("describe on a fresh store = %q", out)
	}

	out := mustRun(t, "describe", "Ops team dashboards")
	if !strings.Contains(out, "Ops team dashboards") {
		t.Errorf("describe <text> = %q", out)
	}

	var got map[string]string
	decode(t, mustRun(t, "describe", "--json"), &got)
	if got["description"] != "Ops team dashboards" {
		t.Errorf("describe --json = %v", got)
	}

	exported := mustRun(t, "export")
	if !strings.Contains(exported, `"description": "Ops team dashboards"`) {
		t.Errorf("export should carry the description:\n%s", exported)
	}

	if _, err := run(t, "describe", "--clear", "x"); err == nil {
		t.Error("describe --clear with text should fail")
	}
	decode(t, mustRun(t, "describe", "--clear", "--json"), &got)
	if got["description"] != "" {
		t.Errorf("description after --clear = %q", got["description"])
	}
}
