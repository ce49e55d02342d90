package scene

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuzzyvid/storyreel-api/internal/job"
	"github.com/fuzzyvid/storyreel-api/internal/storage"
)

// fakeStore serves a single stored project document.
type fakeStore struct {
	key  string
	data []byte
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, string, error) {
	if key != f.key || f.data == nil {
		return nil, "", errors.New("not found")
	}
	return f.data, "application/json", nil
}

func storeWithProject(t *testing.T, p *Project) *fakeStore {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return &fakeStore{key: storage.ProjectKey(p.ProjectID), data: data}
}

func TestProjectGateImagePassesWithoutProject(t *testing.T) {
	gate := NewProjectGate(&fakeStore{})

	// Image has no upstream: the gate answers without touching storage,
	// so images can be generated before the project is ever saved.
	err := gate.CanStart(context.Background(), "", 0, job.KindImage)
	assert.NoError(t, err)
}

func TestProjectGateVideoRequiresSavedProject(t *testing.T) {
	gate := NewProjectGate(&fakeStore{})

	err := gate.CanStart(context.Background(), "p1", 0, job.KindVideo)
	assert.ErrorIs(t, err, ErrStageLocked)
}

func TestProjectGateVideoLockedUntilImageApproved(t *testing.T) {
	sc := NewScene(0)
	sc.Status.Image = StatusDone
	project := &Project{ProjectID: "p1", Scenes: []Scene{*sc}}
	gate := NewProjectGate(storeWithProject(t, project))

	err := gate.CanStart(context.Background(), "p1", 0, job.KindVideo)
	assert.ErrorIs(t, err, ErrStageLocked)
}

func TestProjectGateVideoAllowedAfterApproval(t *testing.T) {
	sc := NewScene(0)
	sc.Status.Image = StatusApproved
	project := &Project{ProjectID: "p1", Scenes: []Scene{*sc}}
	gate := NewProjectGate(storeWithProject(t, project))

	err := gate.CanStart(context.Background(), "p1", 0, job.KindVideo)
	assert.NoError(t, err)
}

func TestProjectGateAudioRequiresApprovedVideo(t *testing.T) {
	sc := NewScene(4)
	sc.Status.Image = StatusApproved
	sc.Status.Video = StatusApproved
	project := &Project{ProjectID: "p1", Scenes: []Scene{*sc}}
	gate := NewProjectGate(storeWithProject(t, project))

	assert.NoError(t, gate.CanStart(context.Background(), "p1", 4, job.KindAudio))

	sc.Status.Video = StatusDone
	gate = NewProjectGate(storeWithProject(t, &Project{ProjectID: "p1", Scenes: []Scene{*sc}}))
	assert.ErrorIs(t, gate.CanStart(context.Background(), "p1", 4, job.KindAudio), ErrStageLocked)
}

func TestProjectGateSceneNotFound(t *testing.T) {
	project := &Project{ProjectID: "p1", Scenes: []Scene{*NewScene(0)}}
	gate := NewProjectGate(storeWithProject(t, project))

	err := gate.CanStart(context.Background(), "p1", 7, job.KindVideo)
	assert.ErrorIs(t, err, ErrSceneNotFound)
}

func TestProjectGateMalformedDocument(t *testing.T) {
	gate := NewProjectGate(&fakeStore{key: storage.ProjectKey("p1"), data: []byte("{not json")})

	err := gate.CanStart(context.Background(), "p1", 0, job.KindVideo)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrStageLocked)
}

func TestParseProjectRoundTrip(t *testing.T) {
	raw := []byte(`{
		"project_id": "p42",
		"title": "unmodeled field",
		"scenes": [
			{"scene_id": 0, "status": {"image": "approved", "video": "done", "audio": "pending"},
			 "assets": {"image_key": "projects/p42/scene_0/image_1.png"}}
		]
	}`)

	p, err := ParseProject(raw)
	require.NoError(t, err)
	assert.Equal(t, "p42", p.ProjectID)
	require.Len(t, p.Scenes, 1)

	sc, err := p.FindScene(0)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, sc.Status.Image)
	assert.Equal(t, StatusDone, sc.Status.Video)
	assert.Equal(t, "projects/p42/scene_0/image_1.png", sc.Assets.ImageKey)
}
