// Package metrics implements the harness's evaluation metrics and metric
// reporting: edit-distance word/phone error rates, conditional scalar
// emission to an external tracking sink, and the append-only outcome
// transcript log evaluation passes write.
package metrics
