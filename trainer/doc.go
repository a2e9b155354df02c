// Package trainer drives the multi-epoch training and evaluation loop for
// the teacher-student distillation harness. The epoch controller (Loop)
// owns optimizer and scheduler lifecycle, checkpoint restoration, and the
// per-epoch train/validate alternation; per-batch behavior is delegated to
// a pluggable Strategy. TeacherStrategy trains a model against ground-truth
// transcripts; StudentStrategy trains against a frozen teacher's
// pseudo-labels mixed with a held-out subset of true transcripts.
package trainer
