// Package exporter owns the on-disk store formats and the incremental
// merge that grows them without duplication.
//
// Three store families share one line format (the persisted 6-field CSV
// row): per-ticker files keyed by symbol, per-process-date universe files,
// and the single master store. Merging is set-union over whole lines
// followed by a deterministic sort and an atomic rewrite, which makes
// every merge idempotent and safe to repeat after a crash.
package exporter
