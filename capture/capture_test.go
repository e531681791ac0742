package capture

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eisview/models"
)

func f(v float64) *float64 { return &v }

func newTestStore(t *testing.T) *SqliteStore {
	t.Helper()
	store := NewSqliteStore(filepath.Join(t.TempDir(), "captures", "test.db"))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSqliteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	recorder, err := NewRecorder(ctx, store, "EIS-01")
	require.NoError(t, err)

	samples := []models.RawSample{
		{TimestampMs: 0, FrequencyHz: 1000, Real: 100, Imag: -50, HumidityPct: f(40)},
		{TimestampMs: 500, FrequencyHz: 100, Real: 120, Imag: -80},
		{TimestampMs: 1000, FrequencyHz: 10, Real: 300, Imag: -200, HumidityPct: f(0)},
	}
	for _, sample := range samples {
		require.NoError(t, recorder.Record(sample))
	}

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, recorder.SessionID(), sessions[0].ID)
	assert.Equal(t, "EIS-01", sessions[0].Device)
	assert.Equal(t, 3, sessions[0].Samples)

	record, err := store.LoadRecord(ctx, recorder.SessionID())
	require.NoError(t, err)
	require.NoError(t, record.Validate())
	assert.Equal(t, []float64{100, 120, 300}, record.Real)
	assert.Equal(t, []float64{-50, -80, -200}, record.Imag)
	require.Equal(t, 3, record.Len())
	assert.Equal(t, 100.0, *record.FrequencyAt(1))
	assert.Equal(t, 1000.0, *record.TimeAt(2))
}

func TestSqliteStoreUnknownSession(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LoadRecord(context.Background(), "nope")
	var availability *models.DataAvailabilityError
	require.ErrorAs(t, err, &availability)
	assert.ErrorIs(t, err, models.ErrNoReplayData)
}

func TestLoadRecordFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(dir, "valid.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"real":[1,2],"imag":[3,4],"frequencies":[10,null]}`), 0o644))

		record, err := LoadRecordFile(path)
		require.NoError(t, err)
		assert.Equal(t, 2, record.Len())
		assert.Equal(t, 10.0, *record.FrequencyAt(0))
		assert.Nil(t, record.FrequencyAt(1))
		assert.Nil(t, record.TimeAt(0))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRecordFile(filepath.Join(dir, "missing.json"))
		assert.ErrorIs(t, err, models.ErrNoReplayData)
	})

	t.Run("not json", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

		_, err := LoadRecordFile(path)
		assert.ErrorIs(t, err, models.ErrNoReplayData)
	})

	t.Run("missing imag", func(t *testing.T) {
		path := filepath.Join(dir, "noimag.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"real":[1],"frequencies":[10]}`), 0o644))

		_, err := LoadRecordFile(path)
		assert.ErrorIs(t, err, models.ErrNoReplayData)
	})
}

func TestWriteRecordFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	record := &models.ReplayRecord{
		Real:        []float64{1},
		Imag:        []float64{-1},
		Frequencies: []*float64{f(100)},
		Time:        []*float64{f(0)},
	}
	require.NoError(t, WriteRecordFile(path, record))

	loaded, err := LoadRecordFile(path)
	require.NoError(t, err)
	assert.Equal(t, record, loaded)
}

func TestLibrary(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sweep.json"), []byte(`{"real":[1],"imag":[2],"time":[0]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	store := newTestStore(t)
	recorder, err := NewRecorder(ctx, store, "EIS-02")
	require.NoError(t, err)
	require.NoError(t, recorder.Record(models.RawSample{FrequencyHz: 1, Real: 1, Imag: 1}))

	library := &Library{Dir: dir, Store: store}

	entries, err := library.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "file:sweep.json", entries[0].Source)
	assert.Equal(t, "capture:"+recorder.SessionID(), entries[1].Source)
	assert.Contains(t, entries[1].Title, "EIS-02")

	record, err := library.Load(ctx, "file:sweep.json")
	require.NoError(t, err)
	assert.Equal(t, 1, record.Len())

	record, err = library.Load(ctx, "capture:"+recorder.SessionID())
	require.NoError(t, err)
	assert.Equal(t, 1, record.Len())

	// path components are stripped from file sources
	_, err = library.Load(ctx, "file:../../etc/passwd")
	assert.ErrorIs(t, err, models.ErrNoReplayData)

	_, err = library.Load(ctx, "somewhere-else")
	assert.ErrorIs(t, err, models.ErrNoReplayData)
}

func TestRecordFromRawLog(t *testing.T) {
	rawLog := strings.Join([]string{
		`{"timestamp":0,"freq":1000,"real":100,"imag":-50}`,
		`garbage`,
		``,
		`{"timestamp":500,"freq":100,"real":120,"imag":-80,"humidity":40}`,
		`{"timestamp":600,"freq":10}`,
	}, "\n")

	record, skipped, err := RecordFromRawLog(strings.NewReader(rawLog))
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Equal(t, 2, record.Len())
	assert.Equal(t, []float64{100, 120}, record.Real)
	assert.Equal(t, 1000.0, *record.FrequencyAt(0))
	assert.Equal(t, 100.0, *record.FrequencyAt(1))
	assert.Equal(t, 500.0, *record.TimeAt(1))

	_, skipped, err = RecordFromRawLog(strings.NewReader("nope\n"))
	assert.ErrorIs(t, err, models.ErrNoReplayData)
	assert.Equal(t, 1, skipped)
}

func TestRecordFromRawLogSkipsOversizedLine(t *testing.T) {
	rawLog := strings.Repeat("z", maxRawLogLine+10) + "\n" +
		`{"timestamp":0,"freq":50,"real":1,"imag":-1}` + "\n"

	record, skipped, err := RecordFromRawLog(strings.NewReader(rawLog))
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Equal(t, 1, record.Len())
	assert.Equal(t, 50.0, *record.FrequencyAt(0))
}
