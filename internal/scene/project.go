package scene

import (
	"encoding/json"
	"fmt"
)

// Project is the view of a saved project document that the pipeline needs:
// its identity and the per-scene asset states. The full document is persisted
// as an opaque JSON object by the caller; fields the pipeline does not
// interpret are simply not decoded here.
type Project struct {
	ProjectID string  `json:"project_id"`
	Scenes    []Scene `json:"scenes"`
}

// ParseProject decodes a saved project document.
func ParseProject(data []byte) (*Project, error) {
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("scene: parse project: %w", err)
	}
	return &p, nil
}

// FindScene returns the scene with the given ID.
func (p *Project) FindScene(sceneID int) (*Scene, error) {
	for i := range p.Scenes {
		if p.Scenes[i].ID == sceneID {
			return &p.Scenes[i], nil
		}
	}
	return nil, fmt.Errorf("%w: scene %d in project %s", ErrSceneNotFound, sceneID, p.ProjectID)
}
