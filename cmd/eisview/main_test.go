package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eisview/capture"
	"eisview/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigCommand(t *testing.T) {
	out, err := execute(t, "config", "--config", filepath.Join(t.TempDir(), "eisview.yaml"), "--driver", "mock")
	// an explicit config file has to exist
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "eisview.yaml")
	require.NoError(t, os.WriteFile(path, []byte("buffers:\n  profile: mobile\n"), 0o644))

	out, err = execute(t, "config", "--config", path, "--driver", "mock")
	require.NoError(t, err)
	assert.Contains(t, out, "type: mock")
	assert.Contains(t, out, "profile: mobile")
}

func TestConfigCommandRejectsUnknownDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eisview.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	_, err := execute(t, "config", "--config", path, "--driver", "carrier-pigeon")
	assert.ErrorContains(t, err, "unsupported driver type")
}

func TestCapturesCommands(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "captures.db")
	cfgPath := filepath.Join(dir, "eisview.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("{}\n"), 0o644))

	store := capture.NewSqliteStore(dbPath)
	recorder, err := capture.NewRecorder(context.Background(), store, "mock")
	require.NoError(t, err)
	require.NoError(t, recorder.Record(models.RawSample{TimestampMs: 0, FrequencyHz: 100, Real: 10, Imag: -5}))
	require.NoError(t, recorder.Record(models.RawSample{TimestampMs: 500, FrequencyHz: 10, Real: 20, Imag: -9}))
	require.NoError(t, store.Close())

	out, err := execute(t, "captures", "list", "--config", cfgPath, "--capture-path", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, recorder.SessionID())
	assert.Contains(t, out, "mock")

	exported := filepath.Join(dir, "export.json")
	_, err = execute(t, "captures", "export", recorder.SessionID(), exported, "--config", cfgPath, "--capture-path", dbPath)
	require.NoError(t, err)

	record, err := capture.LoadRecordFile(exported)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20}, record.Real)
}

func TestCapturesImport(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "eisview.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("{}\n"), 0o644))

	rawLog := filepath.Join(dir, "RAWLOG.jsonl")
	require.NoError(t, os.WriteFile(rawLog, []byte(
		`{"timestamp":0,"freq":100,"real":10,"imag":-5}`+"\n"+
			"partial line\n"+
			`{"timestamp":250,"freq":10,"real":20,"imag":-9,"humidity":33}`+"\n"), 0o644))

	out := filepath.Join(dir, "sweep.json")
	_, err := execute(t, "captures", "import", rawLog, out, "--config", cfgPath)
	require.NoError(t, err)

	record, err := capture.LoadRecordFile(out)
	require.NoError(t, err)
	assert.Equal(t, 2, record.Len())
	assert.Equal(t, 250.0, *record.TimeAt(1))
}
