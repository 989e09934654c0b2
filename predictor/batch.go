package predictor

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/stresskit/core"
)

// minParallelBatch 小于该行数的批量走串行路径，避免为小批量起 goroutine。
const minParallelBatch = 4

// PredictMany 批量推理。
//
// 语义约束：
//   - 结果与输入一一对应且顺序一致（按下标写入，不重排）
//   - 任何一行失败则整批失败，错误携带行号
//   - 批大小边界（1..1000）由 HTTP 层负责，这里不重复限制
func (s *Service) PredictMany(ctx context.Context, records []*core.WorkerRecord) ([]*core.PredictionResult, error) {
	if !s.Ready() {
		return nil, core.NewNotReadyError(core.ModulePredictor, "model not loaded")
	}
	if len(records) == 0 {
		return nil, nil
	}

	results := make([]*core.PredictionResult, len(records))

	// 小批量串行即可，省掉调度开销
	if s.concurrency <= 1 || len(records) < minParallelBatch {
		for i, rec := range records {
			res, err := s.predict(ctx, rec)
			if err != nil {
				return nil, fmt.Errorf("predictor: row %d: %w", i, err)
			}
			results[i] = res
		}
		return results, nil
	}

	eg, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, s.concurrency)

	for i, rec := range records {
		row, record := i, rec
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := s.predict(gctx, record)
			if err != nil {
				return fmt.Errorf("predictor: row %d: %w", row, err)
			}
			results[row] = res
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
