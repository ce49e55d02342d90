package scene

import (
	"context"
	"fmt"

	"github.com/fuzzyvid/storyreel-api/internal/job"
	"github.com/fuzzyvid/storyreel-api/internal/storage"
)

// ObjectGetter fetches a stored object by key. Satisfied by storage.Gateway.
type ObjectGetter interface {
	Get(ctx context.Context, key string) (data []byte, contentType string, err error)
}

// ProjectGate answers approval-gate checks against the saved project
// document. It is the orchestrator's precondition for video and audio jobs,
// so the pipeline stays correct even when a caller's view state is stale.
type ProjectGate struct {
	store ObjectGetter
}

// NewProjectGate creates a gate backed by the given object store.
func NewProjectGate(store ObjectGetter) *ProjectGate {
	return &ProjectGate{store: store}
}

// CanStart reports whether a generation job for the kind may begin on the
// scene. Image jobs have no upstream and pass without loading the project.
func (g *ProjectGate) CanStart(ctx context.Context, projectID string, sceneID int, kind job.Kind) error {
	if _, gated := upstream[kind]; !gated {
		return nil
	}

	data, _, err := g.store.Get(ctx, storage.ProjectKey(projectID))
	if err != nil {
		return fmt.Errorf("%w: project %s not saved", ErrStageLocked, projectID)
	}
	project, err := ParseProject(data)
	if err != nil {
		return err
	}
	sc, err := project.FindScene(sceneID)
	if err != nil {
		return err
	}
	return sc.CanStart(kind)
}
