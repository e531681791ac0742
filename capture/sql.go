package capture

const initSchemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	device     TEXT NOT NULL,
	started_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS samples (
	session_id   TEXT NOT NULL REFERENCES sessions (id),
	seq          INTEGER NOT NULL,
	timestamp_ms REAL NOT NULL,
	frequency_hz REAL NOT NULL,
	real         REAL NOT NULL,
	imag         REAL NOT NULL,
	humidity     REAL,
	PRIMARY KEY (session_id, seq)
);
`

const insertSessionSQL = `INSERT INTO sessions (id, device, started_at) VALUES (?, ?, ?)`

const insertSampleSQL = `
INSERT INTO samples (session_id, seq, timestamp_ms, frequency_hz, real, imag, humidity)
VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM samples WHERE session_id = ?), ?, ?, ?, ?, ?)`

const listSessionsSQL = `
SELECT s.id, s.device, s.started_at, COUNT(p.seq)
FROM sessions s
LEFT JOIN samples p ON p.session_id = s.id
GROUP BY s.id
ORDER BY s.started_at DESC`

const selectSamplesSQL = `
SELECT timestamp_ms, frequency_hz, real, imag
FROM samples
WHERE session_id = ?
ORDER BY seq`
