package state

// schemaSQL creates the snapshot table used by the SQL backends.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS file_state (
    file_path VARCHAR(512) PRIMARY KEY,
    content_hash VARCHAR(64) NOT NULL,
    recorded_at VARCHAR(32) NOT NULL
);
`
