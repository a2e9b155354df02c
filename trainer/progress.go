package trainer

import "github.com/tuanio/noisy-student-training-aped/logger"

// progress reports pass position at a fixed batch stride. It is display
// only: the caller iterates the batch sequence itself and feeds each
// observed loss in, so the wrapper can never consume or reorder batches.
type progress struct {
	log    *logger.Logger
	task   string
	epoch  int
	total  int
	stride int
	seen   int
}

func newProgress(log *logger.Logger, task string, epoch, total int) *progress {
	stride := total / 10
	if stride < 1 {
		stride = 1
	}
	return &progress{log: log, task: task, epoch: epoch, total: total, stride: stride}
}

// Observe records one completed batch and logs position at the stride.
func (p *progress) Observe(loss float64) {
	p.seen++
	if p.seen%p.stride != 0 {
		return
	}
	p.log.Info("progress", logger.Fields(
		logger.FieldTask, p.task,
		logger.FieldEpoch, p.epoch,
		logger.FieldBatch, p.seen,
		"total", p.total,
		logger.FieldLoss, loss,
	))
}

// Done logs pass completion.
func (p *progress) Done() {
	p.log.Info("pass complete", logger.Fields(
		logger.FieldTask, p.task,
		logger.FieldEpoch, p.epoch,
		logger.FieldBatch, p.seen,
	))
}
