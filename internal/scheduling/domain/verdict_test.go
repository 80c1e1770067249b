package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConflictReason_JSON_OmitsCommitmentIDWhenInapplicable(t *testing.T) {
	verdict := domain.UnavailableVerdict([]domain.ConflictReason{
		{Code: domain.ConflictOutsideNominalHours},
		{Code: domain.ConflictBlocked},
	})

	raw, err := json.Marshal(verdict)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "commitment_id")
}

func TestConflictReason_JSON_CarriesCommitmentID(t *testing.T) {
	id := uuid.New()
	reason := domain.ConflictReason{
		Code:         domain.ConflictOverlappingCommitment,
		CommitmentID: &id,
	}

	raw, err := json.Marshal(reason)
	require.NoError(t, err)
	assert.Contains(t, string(raw), id.String())

	var decoded domain.ConflictReason
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.NotNil(t, decoded.CommitmentID)
	assert.Equal(t, id, *decoded.CommitmentID)
}
