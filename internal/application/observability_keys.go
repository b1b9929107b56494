package application

// Stable structured-log event keys. These are a documented contract: nodes
// and edges are greppable by exact key across deployments, so renaming one
// is a breaking change to anyone's log pipeline.
const (
	logNodeStart = "node.start"
	logNodeStop  = "node.stop"
	logNodeError = "node.error"
	logNodeTick  = "node.tick"

	logEdgeEnqueue          = "edge.enqueue"
	logEdgeDequeue          = "edge.dequeue"
	logEdgeDrop             = "edge.drop"
	logEdgeReplace          = "edge.replace"
	logEdgeCoalesce         = "edge.coalesce"
	logEdgeCoalesceError    = "edge.coalesce_error"
	logEdgeValidationFailed = "edge.validation_failed"

	logSchedulerStart    = "scheduler.start"
	logSchedulerShutdown = "scheduler.shutdown"
	logSchedulerLoopTick = "scheduler.loop_tick"
)

// Stable metric names, in the same sense: exporters key dashboards and
// alerts off these exact strings.
const (
	metricNodeMessagesTotal       = "node_messages_total"
	metricNodeErrorsTotal         = "node_errors_total"
	metricNodeTickDurationSeconds = "node_tick_duration_seconds"

	metricEdgeEnqueuedTotal      = "edge_enqueued_total"
	metricEdgeDequeuedTotal      = "edge_dequeued_total"
	metricEdgeDroppedTotal       = "edge_dropped_total"
	metricEdgeQueueDepth         = "edge_queue_depth"
	metricEdgeBlockedTimeSeconds = "edge_blocked_time_seconds"

	metricSchedulerRunnableNodes        = "scheduler_runnable_nodes"
	metricSchedulerLoopLatencySeconds   = "scheduler_loop_latency_seconds"
	metricSchedulerPriorityAppliedTotal = "scheduler_priority_applied_total"
)
