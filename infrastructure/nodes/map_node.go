package nodes

import (
	"context"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/meridianhq/meridian-runtime/internal/domain"
	"github.com/meridianhq/meridian-runtime/internal/ports"
)

var _ ports.Node = (*MapNode)(nil)

// TransformFunc converts one payload into another. An error aborts that
// message's delivery but leaves the node running.
type TransformFunc func(payload any) (any, error)

// MapNodeConfig names a MapNode's single input and output port.
type MapNodeConfig struct {
	// InPort names the node's input port. Defaults to "in".
	InPort string
	// OutPort names the node's output port. Defaults to "out".
	OutPort string
}

// MapNode applies a TransformFunc to every message received on InPort and
// emits the result on OutPort.
type MapNode struct {
	name      string
	cfg       MapNodeConfig
	transform TransformFunc
}

// NewMapNode constructs a MapNode. cfg fields default to "in"/"out".
func NewMapNode(name string, cfg MapNodeConfig, transform TransformFunc) (*MapNode, error) {
	if name == "" {
		return nil, domain.NewInvalidArgumentError("name", "must not be empty")
	}
	if transform == nil {
		return nil, domain.NewInvalidArgumentError("transform", "must not be nil")
	}
	if cfg.InPort == "" {
		cfg.InPort = "in"
	}
	if cfg.OutPort == "" {
		cfg.OutPort = "out"
	}
	return &MapNode{name: name, cfg: cfg, transform: transform}, nil
}

func (n *MapNode) Name() string { return n.name }

func (n *MapNode) Ports() []domain.PortSpec {
	return []domain.PortSpec{
		domain.NewInPort(n.cfg.InPort, nil),
		domain.NewOutPort(n.cfg.OutPort, nil),
	}
}

func (n *MapNode) OnStart(ctx context.Context, emit ports.Emitter) error { return nil }

func (n *MapNode) OnMessage(ctx context.Context, port string, msg domain.Message, emit ports.Emitter) error {
	if port != n.cfg.InPort {
		return fmt.Errorf("%s: unexpected input port %q", n.name, port)
	}
	out, err := n.transform(msg.Payload())
	if err != nil {
		return fmt.Errorf("%s: transform: %w", n.name, err)
	}
	emit.Emit(n.cfg.OutPort, msg.WithPayload(out))
	return nil
}

func (n *MapNode) OnTick(ctx context.Context, emit ports.Emitter) error { return nil }

func (n *MapNode) OnStop(ctx context.Context) error { return nil }

// FoldCase returns a TransformFunc that case-folds string payloads using
// Unicode-aware rules, leaving non-string payloads untouched. Grounded on
// the provider request shaping the teacher does with golang.org/x/text.
func FoldCase() TransformFunc {
	folder := cases.Fold()
	return func(payload any) (any, error) {
		s, ok := payload.(string)
		if !ok {
			return payload, nil
		}
		return folder.String(s), nil
	}
}

// TitleCase returns a TransformFunc that title-cases string payloads for the
// given BCP 47 language tag (e.g. "en"), leaving non-string payloads
// untouched.
func TitleCase(tag string) (TransformFunc, error) {
	lang, err := language.Parse(tag)
	if err != nil {
		return nil, fmt.Errorf("parse language tag %q: %w", tag, err)
	}
	titler := cases.Title(lang)
	return func(payload any) (any, error) {
		s, ok := payload.(string)
		if !ok {
			return payload, nil
		}
		return titler.String(s), nil
	}, nil
}
