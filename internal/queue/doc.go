// Package queue persists caption jobs in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, and stuck-job recovery. Each job carries a run ID for log
// correlation, its source path, progress fields, the output files it
// produced, and a JSON metadata blob summarising refinement and grouping.
//
// The database is treated as a job history rather than a work queue shared
// between processes; the CLI holds a file lock while a job runs. Schema
// changes bump the version in schema.go; users clear the database to adopt
// the new schema.
package queue
