package workflow

import (
	"context"
	"log/slog"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
)

// interpret executes a single node and converts the outcome into a step.
func (e *Executor) interpret(
	ctx context.Context,
	logger *slog.Logger,
	chainNode ChainNode,
	executionCtx *models.ExecutionContext,
) *models.WorkflowExecutionStep {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.node",
		attribute.String(otelhelper.NodeIDKey, chainNode.Node.ID),
		attribute.String(otelhelper.NodeTypeKey, string(chainNode.Node.Type)),
	)
	defer span.End()

	step := &models.WorkflowExecutionStep{
		NodeID:    chainNode.Node.ID,
		NodeType:  chainNode.Node.Type,
		StartedAt: executionCtx.Now,
	}

	var output map[string]any

	node, err := e.registry.CreateNode(ctx, chainNode.Node)
	if err == nil {
		nodeCtx, cancel := context.WithTimeout(ctx, e.nodeTimeout)
		output, err = node.Execute(nodeCtx, executionCtx)

		cancel()
	}

	step.FinishedAt = e.now()

	if output == nil {
		output = make(map[string]any)
	}

	if err != nil {
		otelhelper.SetError(span, err, attribute.String(otelhelper.NodeIDKey, chainNode.Node.ID))

		logger.WarnContext(ctx, "Node failed",
			"node_id", chainNode.Node.ID,
			"node_type", chainNode.Node.Type,
			"error", err,
		)

		output["error"] = err.Error()
		step.Status = models.StepStatusFailed
		step.Error = err.Error()
		step.Output = output

		return step
	}

	step.Status = models.StepStatusSuccess
	step.Output = output

	logger.DebugContext(ctx, "Node succeeded", "node_id", chainNode.Node.ID, "node_type", chainNode.Node.Type)

	return step
}
