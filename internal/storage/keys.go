package storage

import (
	"fmt"
	"time"
)

// Keys are deterministic and hierarchical so no two scenes or kinds can
// collide and a bucket listing reads as an audit trail:
//
//	projects/{projectID}/scene_{sceneID}/{kind}_{timestamp}.{ext}
//	projects/{projectID}/project.json

// AssetKey builds the storage key for a generated asset.
func AssetKey(projectID string, sceneID int, kind, ext string, at time.Time) string {
	return fmt.Sprintf("projects/%s/scene_%d/%s_%d.%s", projectID, sceneID, kind, at.Unix(), ext)
}

// ProjectKey builds the storage key for a whole-project document.
func ProjectKey(projectID string) string {
	return fmt.Sprintf("projects/%s/project.json", projectID)
}
