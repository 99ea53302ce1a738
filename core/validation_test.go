package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDatasetRecord(t *testing.T) {
	valid := &DatasetRecord{
		Hash:          HashBytes([]byte("fixture")),
		DisplayName:   "team.csv",
		SnapshotPath:  "/data/metadata/u/data_1_ab.csv",
		IndexLocation: "/data/db/u/1_abcd1234",
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, ValidateDatasetRecord(valid))

	t.Run("nil record", func(t *testing.T) {
		err := ValidateDatasetRecord(nil)
		assert.ErrorIs(t, err, ErrInvalidRecord)
	})

	t.Run("empty hash", func(t *testing.T) {
		record := *valid
		record.Hash = ""
		err := ValidateDatasetRecord(&record)
		assert.ErrorIs(t, err, ErrInvalidRecord)
		assert.ErrorIs(t, err, ErrEmptyHash)
	})

	t.Run("empty index location", func(t *testing.T) {
		record := *valid
		record.IndexLocation = ""
		err := ValidateDatasetRecord(&record)
		assert.ErrorIs(t, err, ErrEmptyIndexLocation)
	})

	t.Run("missing snapshot path is tolerated", func(t *testing.T) {
		record := *valid
		record.SnapshotPath = ""
		assert.NoError(t, ValidateDatasetRecord(&record))
	})
}

func TestValidateRole(t *testing.T) {
	assert.NoError(t, ValidateRole(RoleUser))
	assert.NoError(t, ValidateRole(RoleAssistant))
	assert.ErrorIs(t, ValidateRole(Role("system")), ErrInvalidRole)
}
