package domain

// PolicyKind identifies one of the four overflow behaviors an Edge can
// apply when a Put arrives at a full queue.
type PolicyKind int

const (
	// BlockPolicy makes the producer wait until space frees up or the
	// supplied context is cancelled. It is the zero value so an
	// unconfigured Policy behaves conservatively (no silent data loss).
	BlockPolicy PolicyKind = iota
	// DropPolicy discards the incoming message and keeps the queue
	// contents unchanged.
	DropPolicy
	// LatestPolicy discards the oldest queued message to make room for the
	// incoming one.
	LatestPolicy
	// CoalescePolicy merges the incoming message with the most recently
	// queued one using a MergeFunc, replacing it in place.
	CoalescePolicy
)

// String renders the PolicyKind for logging and error messages.
func (k PolicyKind) String() string {
	switch k {
	case BlockPolicy:
		return "block"
	case DropPolicy:
		return "drop"
	case LatestPolicy:
		return "latest"
	case CoalescePolicy:
		return "coalesce"
	default:
		return "unknown"
	}
}

// MergeFunc combines a newly arriving message with the last message
// currently queued, producing the message that replaces it. Implementations
// must be pure and side-effect free; the scheduler may call them from any
// goroutine that owns the edge at the time.
type MergeFunc func(queued, incoming Message) Message

// Policy configures an Edge's behavior when a Put would otherwise overflow
// its bounded queue. The zero Policy is BlockPolicy.
type Policy struct {
	Kind  PolicyKind
	Merge MergeFunc
}

// Block returns a Policy that blocks producers on a full queue.
func Block() Policy { return Policy{Kind: BlockPolicy} }

// Drop returns a Policy that discards newly arriving messages on a full
// queue.
func Drop() Policy { return Policy{Kind: DropPolicy} }

// Latest returns a Policy that evicts the oldest queued message to admit
// the newest one.
func Latest() Policy { return Policy{Kind: LatestPolicy} }

// Coalesce returns a Policy that merges an incoming message into the most
// recently queued one using merge. merge must be non-nil; Edge
// construction rejects a CoalescePolicy with a nil MergeFunc.
func Coalesce(merge MergeFunc) Policy { return Policy{Kind: CoalescePolicy, Merge: merge} }

// Validate reports a PolicyError if the Policy is internally inconsistent,
// currently only possible for CoalescePolicy with a nil MergeFunc.
func (p Policy) Validate() error {
	if p.Kind == CoalescePolicy && p.Merge == nil {
		return NewPolicyError(p.Kind.String(), "coalesce policy requires a non-nil merge function")
	}
	return nil
}

// PutOutcome classifies the result of a single Edge.TryPut or Edge.Put call.
type PutOutcome int

const (
	// PutOK indicates the message was enqueued without affecting any other
	// queued message.
	PutOK PutOutcome = iota
	// PutBlocked indicates the message was not enqueued because the queue
	// is full under BlockPolicy: TryPut returns it instead of waiting, and
	// Put returns it when ctx is cancelled before space frees up.
	PutBlocked
	// PutDropped indicates the incoming message was discarded under
	// DropPolicy.
	PutDropped
	// PutReplaced indicates an older queued message was evicted to admit
	// the incoming one under LatestPolicy.
	PutReplaced
	// PutCoalesced indicates the incoming message was merged into the most
	// recently queued message under CoalescePolicy.
	PutCoalesced
)

// String renders the PutOutcome for logging and metrics labels.
func (r PutOutcome) String() string {
	switch r {
	case PutOK:
		return "ok"
	case PutBlocked:
		return "blocked"
	case PutDropped:
		return "dropped"
	case PutReplaced:
		return "replaced"
	case PutCoalesced:
		return "coalesced"
	default:
		return "unknown"
	}
}

// PutResult is the outcome of a single attempt to enqueue a Message onto an
// Edge. Edge methods never block internally on behalf of the caller except
// when explicitly asked to (Edge.Put under BlockPolicy); TryPut always
// returns immediately.
type PutResult struct {
	Outcome PutOutcome
	// Err is non-nil only when Outcome cannot be produced, e.g. a
	// cancelled context while blocked.
	Err error
}

// Ok reports whether the put succeeded in admitting the incoming message in
// some form (enqueued, replaced an entry, or coalesced into one). It
// returns false only for PutDropped and for an errored attempt.
func (r PutResult) Ok() bool {
	return r.Err == nil && r.Outcome != PutDropped
}
