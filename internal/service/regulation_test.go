package service

import (
	"context"
	"strings"
	"testing"

	"github.com/emrgen/travelexpense/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	userA = "8b0f7c1e-3d5a-4c2e-9f61-0a7d2b4c5e01"
	userB = "1e2d3c4b-5a69-4788-97a6-b5c4d3e2f102"
)

// createRevisions creates the first regulation of acme and confirms n-1 revisions.
func createRevisions(t *testing.T, s *RegulationService, userID string, n int) []*model.Regulation {
	t.Helper()
	ctx := context.Background()

	res, err := s.Create(ctx, userID, acmeInput())
	require.NoError(t, err)
	require.NotNil(t, res.Regulation)

	regulations := []*model.Regulation{res.Regulation}
	for i := 2; i <= n; i++ {
		res, err := s.Create(ctx, userID, acmeInput())
		require.NoError(t, err)
		require.NotNil(t, res.Proposal)
		require.Equal(t, i, res.Proposal.ProposedRevision)

		regulation, err := s.ConfirmRevision(ctx, userID, res.Proposal.Token)
		require.NoError(t, err)
		regulations = append(regulations, regulation)
	}

	return regulations
}

func TestRegulationService_CreateFirstRevision(t *testing.T) {
	s := newTestRegulationService(t, newTestStore(t))
	ctx := context.Background()

	res, err := s.Create(ctx, userA, acmeInput())
	require.NoError(t, err)
	require.Nil(t, res.Proposal)

	regulation := res.Regulation
	assert.Equal(t, 1, regulation.RevisionNumber)
	assert.True(t, regulation.IsLatestVersion)
	assert.Nil(t, regulation.BaseRegulationID)
	assert.Nil(t, regulation.ParentRegulationID)
	assert.Equal(t, "Acme 出張旅費規程", regulation.RegulationName)
	assert.Equal(t, model.RegulationStatusActive, regulation.Status)
	assert.True(t, strings.HasPrefix(regulation.RegulationFullText, "出張旅費規程"))

	got, err := s.Get(ctx, userA, regulation.ID)
	require.NoError(t, err)
	require.Len(t, got.Positions, 2)
	assert.Equal(t, "部長", got.Positions[0].PositionName)
	assert.Equal(t, "一般社員", got.Positions[1].PositionName)
}

func TestRegulationService_ProposeDoesNotWrite(t *testing.T) {
	st := newTestStore(t)
	s := newTestRegulationService(t, st)
	ctx := context.Background()

	_, err := s.Create(ctx, userA, acmeInput())
	require.NoError(t, err)

	res, err := s.Create(ctx, userA, acmeInput())
	require.NoError(t, err)
	require.Nil(t, res.Regulation)
	require.NotNil(t, res.Proposal)
	assert.Equal(t, 1, res.Proposal.CurrentRevision)
	assert.Equal(t, 2, res.Proposal.ProposedRevision)
	assert.Contains(t, res.Proposal.Message, "改訂版2")

	existing, err := st.ListCompanyRegulations(ctx, userA, "Acme")
	require.NoError(t, err)
	assert.Len(t, existing, 1)
}

func TestRegulationService_ConfirmRevision(t *testing.T) {
	s := newTestRegulationService(t, newTestStore(t))
	ctx := context.Background()

	regulations := createRevisions(t, s, userA, 2)
	first, second := regulations[0], regulations[1]

	assert.Equal(t, 2, second.RevisionNumber)
	assert.True(t, second.IsLatestVersion)
	require.NotNil(t, second.BaseRegulationID)
	assert.Equal(t, first.ID, *second.BaseRegulationID)
	require.NotNil(t, second.ParentRegulationID)
	assert.Equal(t, first.ID, *second.ParentRegulationID)

	first, err := s.Get(ctx, userA, first.ID)
	require.NoError(t, err)
	assert.False(t, first.IsLatestVersion)

	snapshots, err := s.Snapshots(ctx, userA, second.ID)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 2, snapshots[0].VersionNumber)
	assert.Equal(t, "第2版", snapshots[0].VersionName)
	assert.Equal(t, "改訂版2として作成", snapshots[0].ChangeSummary)
	assert.Equal(t, "gzip", snapshots[0].Compression)
	assert.Equal(t, second.RegulationFullText, snapshots[0].Text)
}

func TestRegulationService_DenseRevisions(t *testing.T) {
	s := newTestRegulationService(t, newTestStore(t))
	ctx := context.Background()

	regulations := createRevisions(t, s, userA, 5)

	history, err := s.History(ctx, userA, regulations[2].ID)
	require.NoError(t, err)
	require.Len(t, history, 5)

	latest := 0
	for i, entry := range history {
		assert.Equal(t, i+1, entry.RevisionNumber)
		if entry.IsLatestVersion {
			latest++
			assert.Equal(t, 5, entry.RevisionNumber)
		}
	}
	assert.Equal(t, 1, latest)
	assert.Equal(t, "初版", history[0].VersionName)
	assert.Equal(t, "第5版", history[4].VersionName)

	for _, regulation := range regulations[1:] {
		require.NotNil(t, regulation.BaseRegulationID)
		assert.Equal(t, regulations[0].ID, *regulation.BaseRegulationID)
	}
	assert.Equal(t, regulations[3].ID, *regulations[4].ParentRegulationID)
}

func TestRegulationService_ProposalTokenSingleUse(t *testing.T) {
	s := newTestRegulationService(t, newTestStore(t))
	ctx := context.Background()

	_, err := s.Create(ctx, userA, acmeInput())
	require.NoError(t, err)

	proposal, err := s.ProposeRevision(ctx, userA, acmeInput())
	require.NoError(t, err)

	_, err = s.ConfirmRevision(ctx, userB, proposal.Token)
	assert.ErrorIs(t, err, ErrProposalNotFound)

	// a foreign attempt leaves the proposal redeemable by its owner
	confirmed, err := s.ConfirmRevision(ctx, userA, proposal.Token)
	require.NoError(t, err)
	assert.Equal(t, 2, confirmed.RevisionNumber)

	_, err = s.ConfirmRevision(ctx, userA, proposal.Token)
	assert.ErrorIs(t, err, ErrProposalNotFound)
}

func TestRegulationService_ProposeWithoutChain(t *testing.T) {
	s := newTestRegulationService(t, newTestStore(t))

	_, err := s.ProposeRevision(context.Background(), userA, acmeInput())
	assert.ErrorIs(t, err, ErrNoExistingRegulation)
}

func TestRegulationService_RevisionConflict(t *testing.T) {
	s := newTestRegulationService(t, newTestStore(t))
	ctx := context.Background()

	_, err := s.Create(ctx, userA, acmeInput())
	require.NoError(t, err)

	p1, err := s.ProposeRevision(ctx, userA, acmeInput())
	require.NoError(t, err)
	p2, err := s.ProposeRevision(ctx, userA, acmeInput())
	require.NoError(t, err)
	require.Equal(t, p1.ProposedRevision, p2.ProposedRevision)

	_, err = s.ConfirmRevision(ctx, userA, p1.Token)
	require.NoError(t, err)

	_, err = s.ConfirmRevision(ctx, userA, p2.Token)
	assert.ErrorIs(t, err, ErrRevisionConflict)

	groups, err := s.ListByCompany(ctx, userA, "")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Revisions, 2)
}

func TestRegulationService_ChainsAreScopedByUser(t *testing.T) {
	s := newTestRegulationService(t, newTestStore(t))
	ctx := context.Background()

	createRevisions(t, s, userA, 2)

	res, err := s.Create(ctx, userB, acmeInput())
	require.NoError(t, err)
	require.NotNil(t, res.Regulation)
	assert.Equal(t, 1, res.Regulation.RevisionNumber)

	_, err = s.Get(ctx, userA, res.Regulation.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegulationService_Validation(t *testing.T) {
	s := newTestRegulationService(t, newTestStore(t))

	tests := []struct {
		name    string
		mutate  func(in *RegulationInput)
		field   string
		message string
	}{
		{
			name:    "missing company",
			mutate:  func(in *RegulationInput) { in.CompanyName = "  " },
			field:   "company_name",
			message: "会社名を入力してください",
		},
		{
			name:    "missing representative",
			mutate:  func(in *RegulationInput) { in.Representative = "" },
			field:   "representative",
			message: "代表者名を入力してください",
		},
		{
			name:    "no positions",
			mutate:  func(in *RegulationInput) { in.Positions = nil },
			field:   "positions",
			message: "少なくとも1つの役職を設定してください",
		},
		{
			name:    "unnamed position",
			mutate:  func(in *RegulationInput) { in.Positions[1].Name = "" },
			field:   "positions[1].name",
			message: "役職名を入力してください",
		},
		{
			name:    "negative allowance",
			mutate:  func(in *RegulationInput) { in.Positions[0].DomesticDailyAllowance = -1 },
			field:   "positions[0].domestic_daily_allowance",
			message: "0以上の値を入力してください",
		},
		{
			name:    "malformed date",
			mutate:  func(in *RegulationInput) { in.ImplementationDate = "2024/04/01" },
			field:   "implementation_date",
			message: "実施日をYYYY-MM-DD形式で入力してください",
		},
		{
			name:    "date before reiwa",
			mutate:  func(in *RegulationInput) { in.ImplementationDate = "2018-12-31" },
			field:   "implementation_date",
			message: "実施日は2019年以降の日付を指定してください",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := acmeInput()
			tt.mutate(&in)

			_, err := s.Create(context.Background(), userA, in)
			require.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.message, verr.Message)
		})
	}
}

func TestRegulationService_Update(t *testing.T) {
	s := newTestRegulationService(t, newTestStore(t))
	ctx := context.Background()

	regulations := createRevisions(t, s, userA, 2)
	second := regulations[1]

	text, err := s.Render(ctx, userA, second.ID)
	require.NoError(t, err)
	assert.Contains(t, text, "部長")

	in := acmeInput()
	in.Positions = []PositionInput{{Name: "役員", DomesticDailyAllowance: 7000}}
	in.IsAccommodationRealExpense = true

	updated, err := s.Update(ctx, userA, second.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.RevisionNumber)
	assert.True(t, updated.IsLatestVersion)

	got, err := s.Get(ctx, userA, second.ID)
	require.NoError(t, err)
	require.Len(t, got.Positions, 1)
	assert.Equal(t, "役員", got.Positions[0].PositionName)
	assert.True(t, got.IsAccommodationRealExpense)

	text, err = s.Render(ctx, userA, second.ID)
	require.NoError(t, err)
	assert.Contains(t, text, "役員")
	assert.NotContains(t, text, "部長")

	in.CompanyName = "Other"
	_, err = s.Update(ctx, userA, second.ID, in)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.Update(ctx, userB, second.ID, acmeInput())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegulationService_DeleteNonLatest(t *testing.T) {
	s := newTestRegulationService(t, newTestStore(t))
	ctx := context.Background()

	regulations := createRevisions(t, s, userA, 3)
	require.NoError(t, s.Delete(ctx, userA, regulations[1].ID))

	_, err := s.Get(ctx, userA, regulations[1].ID)
	assert.ErrorIs(t, err, ErrNotFound)

	latest, err := s.Get(ctx, userA, regulations[2].ID)
	require.NoError(t, err)
	assert.True(t, latest.IsLatestVersion)

	// the next revision continues after the highest remaining number
	proposal, err := s.ProposeRevision(ctx, userA, acmeInput())
	require.NoError(t, err)
	assert.Equal(t, 4, proposal.ProposedRevision)
}

func TestRegulationService_DeleteLatestPromotes(t *testing.T) {
	s := newTestRegulationService(t, newTestStore(t))
	ctx := context.Background()

	regulations := createRevisions(t, s, userA, 3)
	require.NoError(t, s.Delete(ctx, userA, regulations[2].ID))

	promoted, err := s.Get(ctx, userA, regulations[1].ID)
	require.NoError(t, err)
	assert.True(t, promoted.IsLatestVersion)

	groups, err := s.ListByCompany(ctx, userA, "Acme")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.NotNil(t, groups[0].Latest)
	assert.Equal(t, regulations[1].ID, groups[0].Latest.ID)
	assert.Equal(t, 1, groups[0].Revisions[0].RevisionNumber)
	assert.Equal(t, 2, groups[0].Revisions[1].RevisionNumber)

	assert.ErrorIs(t, s.Delete(ctx, userA, regulations[2].ID), ErrNotFound)
}

func TestRegulationService_CreateRollsBack(t *testing.T) {
	st := newTestStore(t)
	s := newTestRegulationService(t, &failingStore{Store: st})
	ctx := context.Background()

	_, err := s.Create(ctx, userA, acmeInput())
	require.ErrorIs(t, err, ErrBackendUnavailable)

	existing, err := st.ListCompanyRegulations(ctx, userA, "Acme")
	require.NoError(t, err)
	assert.Empty(t, existing)
}

func TestRegulationService_ConfirmRollsBack(t *testing.T) {
	st := newTestStore(t)
	s := newTestRegulationService(t, st)
	ctx := context.Background()

	regulations := createRevisions(t, s, userA, 1)

	proposal, err := s.ProposeRevision(ctx, userA, acmeInput())
	require.NoError(t, err)

	// share the proposal cache with the failing service
	failing := *s
	failing.store = &failingStore{Store: st}
	_, err = failing.ConfirmRevision(ctx, userA, proposal.Token)
	require.ErrorIs(t, err, ErrBackendUnavailable)

	existing, err := st.ListCompanyRegulations(ctx, userA, "Acme")
	require.NoError(t, err)
	require.Len(t, existing, 1)
	assert.Equal(t, regulations[0].ID, existing[0].ID)
	assert.True(t, existing[0].IsLatestVersion)

	versions, err := st.ListRegulationVersions(ctx, regulations[0].ID)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestRegulationService_ExportAndPreview(t *testing.T) {
	s := newTestRegulationService(t, newTestStore(t))
	ctx := context.Background()

	regulations := createRevisions(t, s, userA, 2)

	file, err := s.Export(ctx, userA, regulations[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "出張旅費規程_Acme_v2.txt", file.FileName)
	assert.Equal(t, regulations[1].RegulationFullText, file.Content)

	preview, err := s.Preview(acmeInput())
	require.NoError(t, err)
	assert.Equal(t, regulations[0].RegulationFullText, preview)

	_, err = s.Export(ctx, userB, regulations[1].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegulationService_ListSearch(t *testing.T) {
	s := newTestRegulationService(t, newTestStore(t))
	ctx := context.Background()

	createRevisions(t, s, userA, 2)
	in := acmeInput()
	in.CompanyName = "Globex"
	_, err := s.Create(ctx, userA, in)
	require.NoError(t, err)

	all, err := s.List(ctx, userA, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	globex, err := s.List(ctx, userA, "Glob")
	require.NoError(t, err)
	require.Len(t, globex, 1)
	assert.Equal(t, "Globex", globex[0].CompanyName)

	latest, err := s.ListLatest(ctx, userA, "")
	require.NoError(t, err)
	require.Len(t, latest, 2)
	for _, r := range latest {
		assert.True(t, r.IsLatestVersion)
	}

	groups, err := s.ListByCompany(ctx, userA, "")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Acme", groups[0].CompanyName)
	assert.Equal(t, "Globex", groups[1].CompanyName)
}
