package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS daily_records (
    date        TEXT PRIMARY KEY,
    sales       TEXT NOT NULL,
    customers   INTEGER NOT NULL,
    weather     TEXT NOT NULL,
    addons      TEXT NOT NULL,
    seq         INTEGER NOT NULL,
    saved_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_daily_records_seq ON daily_records(seq);
`

const pgSchemaSQL = `
CREATE TABLE IF NOT EXISTS daily_records (
    date        DATE PRIMARY KEY,
    sales       NUMERIC NOT NULL,
    customers   INTEGER NOT NULL,
    weather     TEXT NOT NULL,
    addons      NUMERIC NOT NULL,
    seq         BIGSERIAL,
    saved_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- Earlier tables rounded amounts to cents.
ALTER TABLE daily_records
    ALTER COLUMN sales TYPE NUMERIC,
    ALTER COLUMN addons TYPE NUMERIC;
`
