package ingest

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// nameToken returns a collision-proof path component combining the wall
// clock with a random suffix. Two builds started within the same second
// still land in distinct locations.
func nameToken() string {
	return fmt.Sprintf("%d_%s", time.Now().Unix(), uuid.NewString()[:8])
}

// newIndexLocation allocates a fresh directory path for a vector index
// under the tenant's vector root. The directory is not created here;
// the store opener does that.
func newIndexLocation(vectorRoot string) string {
	return filepath.Join(vectorRoot, nameToken())
}

// snapshotFilename derives the on-disk name for a normalized CSV
// snapshot from the original upload filename.
func snapshotFilename(original string) string {
	name := strings.TrimSpace(original)
	if name == "" {
		name = "upload"
	}
	name = strings.ReplaceAll(name, " ", "_")
	name = filepath.Base(name)
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	return fmt.Sprintf("data_%s_%s.csv", nameToken(), name)
}
