package job

import (
	"context"
	"testing"
	"time"

	"github.com/emrgen/travelexpense/internal/model"
	"github.com/emrgen/travelexpense/internal/store"
	"github.com/emrgen/travelexpense/internal/tester"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createRegulation(t *testing.T, s store.Store, userID, company string, revision int, latest bool) *model.Regulation {
	r := &model.Regulation{
		ID:                 uuid.New().String(),
		UserID:             userID,
		RegulationName:     company + " 出張旅費規程",
		RegulationType:     model.RegulationTypeDomestic,
		CompanyName:        company,
		ImplementationDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		RevisionNumber:     revision,
		Status:             model.RegulationStatusActive,
		IsLatestVersion:    latest,
	}
	require.NoError(t, s.CreateRegulation(context.Background(), r))
	return r
}

func TestLatestAuditor_Audit(t *testing.T) {
	s := store.NewGormStore(tester.NewDB(t))
	ctx := context.Background()

	// healthy chain
	createRegulation(t, s, "u1", "Acme", 1, false)
	healthy := createRegulation(t, s, "u1", "Acme", 2, true)

	// chain without a latest revision
	createRegulation(t, s, "u1", "Globex", 1, false)
	orphan := createRegulation(t, s, "u1", "Globex", 3, false)

	auditor := NewLatestAuditor(s, time.Minute)
	repaired, err := auditor.Audit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	got, err := s.GetRegulation(ctx, orphan.ID)
	require.NoError(t, err)
	assert.True(t, got.IsLatestVersion)

	got, err = s.GetRegulation(ctx, healthy.ID)
	require.NoError(t, err)
	assert.True(t, got.IsLatestVersion)

	repaired, err = auditor.Audit(ctx)
	require.NoError(t, err)
	assert.Zero(t, repaired)
}

func TestLatestAuditor_RunStops(t *testing.T) {
	s := store.NewGormStore(tester.NewDB(t))
	auditor := NewLatestAuditor(s, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		auditor.Run()
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	auditor.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("auditor did not stop")
	}
}
