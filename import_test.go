package vista_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hyperengineering/vista"
	"github.com/hyperengineering/vista/workspace"
)

func exportOf(t *testing.T, c *vista.Client) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Export(context.Background(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	return buf.Bytes()
}

func TestImport_IntoEmptyStore(t *testing.T) {
	ctx := context.Background()
	src := newTestClient(t)
	seedClient(t, src)
	data := exportOf(t, src)

	dst := newTestClient(t)
	res, err := dst.Import(ctx, bytes.NewReader(data), vista.MergeStrategyMerge, false)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Created != 3 || res.Total != 3 || len(res.Errors) != 0 {
		t.Errorf("Import() = %+v, want 3 created", res)
	}

	def, err := dst.DefaultDataset(ctx)
	if err != nil || def == nil || def.ID != "logs" {
		t.Errorf("DefaultDataset() after import = %+v, %v", def, err)
	}
	list, _ := dst.ListWorkspaces(ctx)
	if len(list) != 1 || list[0].Privacy != workspace.PrivacyAnyoneCanView {
		t.Errorf("workspaces after import = %+v", list)
	}
}

func TestImport_DryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	src := newTestClient(t)
	seedClient(t, src)

	dst := newTestClient(t)
	res, err := dst.Import(ctx, bytes.NewReader(exportOf(t, src)), vista.MergeStrategyReplace, true)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if !res.DryRun || res.Created != 3 {
		t.Errorf("dry run result = %+v", res)
	}
	stats, _ := dst.Stats(ctx)
	if stats.DatasetCount != 0 || stats.SettingCount != 0 || stats.WorkspaceCount != 0 {
		t.Errorf("dry run wrote data: %+v", stats)
	}
}

func TestImport_Strategies(t *testing.T) {
	doc := `{
		"version": "1.0",
		"settings": {"defaultIndex": "other", "theme": "dark"},
		"datasets": [{"id": "logs", "title": "renamed", "time_field": "ts"}],
		"workspaces": []
	}`

	tests := []struct {
		strategy    vista.MergeStrategy
		wantDefault string
		wantTitle   string
		wantField   string
	}{
		{vista.MergeStrategySkip, "logs", "logs-*", "@timestamp"},
		{vista.MergeStrategyMerge, "logs", "logs-*", "@timestamp"},
		{vista.MergeStrategyReplace, "other", "renamed", "ts"},
	}

	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			ctx := context.Background()
			c := newTestClient(t)
			seedClient(t, c)

			if _, err := c.Import(ctx, strings.NewReader(doc), tt.strategy, false); err != nil {
				t.Fatalf("Import() error = %v", err)
			}

			if got, _ := c.GetSetting(ctx, vista.SettingDefaultDataset); got != tt.wantDefault {
				t.Errorf("defaultIndex = %q, want %q", got, tt.wantDefault)
			}
			if got, _ := c.GetSetting(ctx, "theme"); got != "dark" {
				t.Errorf("theme = %q, want dark (new keys are always created)", got)
			}
			ds, err := c.Store().GetDataset(ctx, "logs")
			if err != nil {
				t.Fatal(err)
			}
			if ds.Title != tt.wantTitle || ds.TimeField != tt.wantField {
				t.Errorf("dataset = %+v, want title %q field %q", ds, tt.wantTitle, tt.wantField)
			}
		})
	}
}

func TestImport_MergeUnionsWorkspaceDataSources(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	ws, err := c.CreateWorkspace(ctx, vista.WorkspaceParams{
		Name:        "Ops",
		DataSources: []workspace.DataSource{{ID: "a", Title: "a"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	doc := `{"version":"1.0","workspaces":[{"id":"` + ws.ID + `","name":"Renamed","privacy":"anyone-can-edit",
		"data_sources":[{"id":"a","title":"a"},{"id":"b","title":"b"}]}]}`
	res, err := c.Import(ctx, strings.NewReader(doc), vista.MergeStrategyMerge, false)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Updated != 1 {
		t.Errorf("Updated = %d, want 1", res.Updated)
	}

	got, _ := c.GetWorkspace(ctx, ws.ID)
	if got.Name != "Ops" || got.Privacy != workspace.DefaultPrivacy {
		t.Errorf("merge changed fields: %+v", got)
	}
	if len(got.DataSources) != 2 || got.DataSources[1].ID != "b" {
		t.Errorf("DataSources = %+v, want [a b]", got.DataSources)
	}
}

func TestImport_ReportsInvalidEntries(t *testing.T) {
	c := newTestClient(t)
	doc := `{"version":"1.0","datasets":[{"id":"","title":"x"}],"workspaces":[{"id":"w","name":"W","privacy":"public"}]}`

	res, err := c.Import(context.Background(), strings.NewReader(doc), vista.MergeStrategyMerge, false)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(res.Errors) != 2 || res.Created != 0 {
		t.Errorf("Import() = %+v, want 2 errors", res)
	}
}

func TestImport_RejectsUnknownVersion(t *testing.T) {
	c := newTestClient(t)
	_, err := c.Import(context.Background(), strings.NewReader(`{"version":"2.0"}`), vista.MergeStrategyMerge, false)
	if !errors.Is(err, vista.ErrUnsupportedExport) {
		t.Errorf("Import() error = %v, want ErrUnsupportedExport", err)
	}
}

func TestImport_RejectsMalformedJSON(t *testing.T) {
	c := newTestClient(t)
	if _, err := c.Import(context.Background(), strings.NewReader(`{`), vista.MergeStrategyMerge, false); err == nil {
		t.Error("Import() of malformed JSON should fail")
	}
}

func TestImport_RepeatedDatasetIDs(t *testing.T) {
	doc := `{
		"version": "1.0",
		"datasets": [
			{"id": "x", "title": "first"},
			{"id": "x", "title": "second"},
			{"id": "y", "title": "other"}
		]
	}`

	for _, strategy := range []vista.MergeStrategy{vista.MergeStrategySkip, vista.MergeStrategyReplace, vista.MergeStrategyMerge} {
		t.Run(string(strategy), func(t *testing.T) {
			ctx := context.Background()
			c := newTestClient(t)

			res, err := c.Import(ctx, strings.NewReader(doc), strategy, false)
			if err != nil {
				t.Fatalf("Import() error = %v", err)
			}
			if res.Created != 2 || res.Total != 3 {
				t.Errorf("Import() = %+v, want 2 created of 3", res)
			}

			ids, err := c.Store().DatasetIDs(ctx)
			if err != nil {
				t.Fatalf("DatasetIDs() error = %v", err)
			}
			if len(ids) != 2 {
				t.Fatalf("DatasetIDs() = %v, want x and y", ids)
			}

			x, err := c.Store().GetDataset(ctx, "x")
			if err != nil {
				t.Fatalf("GetDataset(x) error = %v", err)
			}
			want := "first"
			if strategy == vista.MergeStrategyReplace {
				want = "second"
			}
			if x.Title != want {
				t.Errorf("x.Title = %q, want %q", x.Title, want)
			}
		})
	}
}

func TestImport_Description(t *testing.T) {
	ctx := context.Background()
	src := newTestClient(t)
	if err := src.SetDescription("  ops dashboards  "); err != nil {
		t.Fatalf("SetDescription() error = %v", err)
	}
	data := exportOf(t, src)
	if !strings.Contains(string(data), `"description": "ops dashboards"`) {
		t.Fatalf("export should carry the description:\n%s", data)
	}

	tests := []struct {
		strategy vista.MergeStrategy
		current  string
		dryRun   bool
		want     string
	}{
		{vista.MergeStrategyMerge, "", false, "ops dashboards"},
		{vista.MergeStrategyMerge, "local", false, "local"},
		{vista.MergeStrategySkip, "local", false, "local"},
		{vista.MergeStrategyReplace, "local", false, "ops dashboards"},
		{vista.MergeStrategyReplace, "", true, ""},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%q/dry=%v", tt.strategy, tt.current, tt.dryRun), func(t *testing.T) {
			dst := newTestClient(t)
			if tt.current != "" {
				if err := dst.SetDescription(tt.current); err != nil {
					t.Fatalf("SetDescription() error = %v", err)
				}
			}
			if _, err := dst.Import(ctx, bytes.NewReader(data), tt.strategy, tt.dryRun); err != nil {
				t.Fatalf("Import() error = %v", err)
			}
			got, err := dst.Description()
			if err != nil {
				t.Fatalf("Description() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Description() = %q, want %q", got, tt.want)
			}
		})
	}
}
