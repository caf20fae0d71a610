package hangar

import (
	"context"
	"errors"

	"github.com/davidmdm/hangar/pkg/resource"
	"github.com/davidmdm/hangar/pkg/spec"
	"github.com/davidmdm/hangar/pkg/synth"
)

// Sink receives the complete, ordered resource set of a single deployment.
type Sink interface {
	Submit(ctx context.Context, docs []resource.Document) error
}

type SinkFunc func(ctx context.Context, docs []resource.Document) error

func (fn SinkFunc) Submit(ctx context.Context, docs []resource.Document) error { return fn(ctx, docs) }

var ErrNoSink = errors.New("no sink configured")

// Commander ties normalization, composition and emission together.
type Commander struct {
	Config   synth.Config
	Defaults spec.Defaults
	Sink     Sink
}

type Plan struct {
	Deployment spec.Deployment
	Documents  []resource.Document
}

func (plan Plan) FileNames() []string { return FileNames(plan.Documents) }

// Plan normalizes the request and composes its documents without submitting them.
func (commander Commander) Plan(request spec.Request) (Plan, error) {
	deployment, err := spec.Normalize(request, commander.Defaults)
	if err != nil {
		return Plan{}, err
	}

	docs, err := Compose(commander.Config, deployment)
	if err != nil {
		return Plan{}, err
	}

	return Plan{Deployment: deployment, Documents: docs}, nil
}

// Deploy plans the request and submits the documents to the sink in a single call.
// Sink errors are returned as is.
func (commander Commander) Deploy(ctx context.Context, request spec.Request) (Plan, error) {
	if commander.Sink == nil {
		return Plan{}, ErrNoSink
	}

	plan, err := commander.Plan(request)
	if err != nil {
		return Plan{}, err
	}

	if err := commander.Sink.Submit(ctx, plan.Documents); err != nil {
		return plan, err
	}

	return plan, nil
}
