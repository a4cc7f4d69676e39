package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/BinToss/DeadLock/pkg/model"
)

func lockedResult() model.Result {
	return model.Result{
		Path:      "/srv/data",
		Status:    model.StatusLocked,
		Ownership: model.OwnershipAllowed,
		Lockers: []model.LockerRecord{
			{PID: 812, ExecutablePath: "/usr/lib/postgresql/bin/postgres", ExecutableName: "postgres", LockedPath: "/srv/data/db/wal.log", User: "postgres", Strategy: "main-module"},
			{PID: 1201, ExecutablePath: "/opt/app/app", ExecutableName: "app", LockedPath: "/srv/data/logs/app.log"},
			{PID: 1530, ExecutablePath: "Access denied", ExecutableName: "Access denied", LockedPath: "/srv/data/logs/app.log"},
		},
		FilesScanned: 42,
		Duration:     35 * time.Millisecond,
	}
}

func TestRenderStandard(t *testing.T) {
	var buf bytes.Buffer
	RenderStandard(&buf, lockedResult(), false)
	out := buf.String()

	assert.Contains(t, out, "Path      : /srv/data\n")
	assert.Contains(t, out, "Status    : Locked (3 processes)\n")
	assert.Contains(t, out, "Ownership : Allowed\n")
	assert.Contains(t, out, "Scanned   : 42 files in 35ms\n")
	assert.Contains(t, out, "postgres (pid 812)")
	assert.Contains(t, out, "User       : postgres")
	assert.Contains(t, out, "Locking    : /srv/data/logs/app.log")
	assert.NotContains(t, out, "\033[", "no escapes without color")
}

func TestRenderStandardUnlockedAndPartial(t *testing.T) {
	var buf bytes.Buffer
	RenderStandard(&buf, model.Result{Path: "/tmp/x", Status: model.StatusUnlocked, FilesScanned: 1, Cancelled: true}, true)
	out := buf.String()

	assert.Contains(t, out, "No process holds this path open.")
	assert.Contains(t, out, "cancelled")
	assert.NotContains(t, out, "Ownership", "unknown ownership is not printed")
	assert.Contains(t, out, string(colorGreen))
}

func TestRenderShort(t *testing.T) {
	var buf bytes.Buffer
	RenderShort(&buf, lockedResult(), false)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	require.Len(t, lines, 3)
	assert.Equal(t, "812 postgres → /srv/data/db/wal.log", lines[0])

	buf.Reset()
	RenderShort(&buf, model.Result{Path: "/tmp/x", Status: model.StatusUnlocked}, false)
	assert.Equal(t, "Unlocked /tmp/x\n", buf.String())
}

func TestPrintTree(t *testing.T) {
	var buf bytes.Buffer
	PrintTree(&buf, lockedResult(), false)

	want := strings.Join([]string{
		"/srv/data",
		"├─ db/wal.log",
		"│  └─ postgres (pid 812)",
		"└─ logs/app.log",
		"   ├─ app (pid 1201)",
		"   └─ Access denied (pid 1530)",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestPrintTreeLimit(t *testing.T) {
	r := model.Result{Path: "/f", Status: model.StatusLocked}
	for pid := 1; pid <= maxTreeLockers+3; pid++ {
		r.Lockers = append(r.Lockers, model.LockerRecord{PID: pid, ExecutableName: "p", LockedPath: "/f"})
	}
	var buf bytes.Buffer
	PrintTree(&buf, r, false)

	assert.Contains(t, buf.String(), "└─ /f\n", "the root file itself is shown in full")
	assert.Contains(t, buf.String(), "... and 3 more")
}

func TestToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ToJSON(&buf, []model.Result{lockedResult(), {Path: "/tmp/free", Status: model.StatusUnlocked}}))

	var doc struct {
		Results []struct {
			Path    string `json:"path"`
			Status  string `json:"status"`
			Lockers []struct {
				PID        int    `json:"pid"`
				LockedPath string `json:"lockedPath"`
			} `json:"lockers"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Results, 2)
	assert.Equal(t, "Locked", doc.Results[0].Status)
	assert.Equal(t, 812, doc.Results[0].Lockers[0].PID)
	assert.NotNil(t, doc.Results[1].Lockers, "an unlocked path has an empty list, not null")
	assert.Contains(t, buf.String(), `"lockers": []`)
}

func TestToYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ToYAML(&buf, []model.Result{lockedResult()}))

	var doc map[string][]map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc["results"], 1)
	assert.Equal(t, "Locked", doc["results"][0]["status"])
	assert.Equal(t, "Allowed", doc["results"][0]["ownership"])
	assert.Len(t, doc["results"][0]["lockers"], 3)
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats() {
		got, err := ParseFormat(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestRenderSanitizesPaths(t *testing.T) {
	r := model.Result{Path: "/tmp/evil\x1b[2J", Status: model.StatusUnlocked}
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatShort, []model.Result{r}, false))

	assert.NotContains(t, buf.String(), "\x1b")
	assert.Contains(t, buf.String(), `evil\\x1b[2J`)
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "/srv/data: Locked by 3 processes", Summary(lockedResult()))
	assert.Equal(t, "/x: Unlocked", Summary(model.Result{Path: "/x", Status: model.StatusUnlocked}))
}
