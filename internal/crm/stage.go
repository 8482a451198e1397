package crm

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// resolveStage looks up the configured pipeline and stage by name,
// matching case-insensitively after trimming. It never fails the
// caller: every problem degrades to (0, false) and the deal is created
// without a stage assignment.
func (s *Submitter) resolveStage(ctx context.Context) (int, bool) {
	if s.cfg.Pipeline == "" || s.cfg.Stage == "" {
		return 0, false
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pipelines, err := s.client.ListPipelines(ctx)
	if err != nil {
		zap.L().Warn("stage lookup: listing pipelines failed", zap.Error(err))
		return 0, false
	}

	pipelineID := 0
	for _, p := range pipelines {
		if nameEqual(p.Name, s.cfg.Pipeline) {
			pipelineID = p.ID
			break
		}
	}
	if pipelineID == 0 {
		zap.L().Warn("stage lookup: pipeline not found",
			zap.String("pipeline", s.cfg.Pipeline),
		)
		return 0, false
	}

	stages, err := s.client.ListStages(ctx, pipelineID)
	if err != nil {
		zap.L().Warn("stage lookup: listing stages failed",
			zap.Int("pipeline_id", pipelineID),
			zap.Error(err),
		)
		return 0, false
	}

	for _, st := range stages {
		if nameEqual(st.Name, s.cfg.Stage) {
			return st.ID, true
		}
	}

	zap.L().Warn("stage lookup: stage not found",
		zap.String("pipeline", s.cfg.Pipeline),
		zap.String("stage", s.cfg.Stage),
	)
	return 0, false
}

func nameEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
