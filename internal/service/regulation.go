package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/emrgen/travelexpense/internal/cache"
	"github.com/emrgen/travelexpense/internal/compress"
	"github.com/emrgen/travelexpense/internal/metrics"
	"github.com/emrgen/travelexpense/internal/model"
	"github.com/emrgen/travelexpense/internal/render"
	"github.com/emrgen/travelexpense/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

const (
	DefaultSaveTimeout = 30 * time.Second
	DefaultProposalTTL = 10 * time.Minute
)

type RegulationServiceConfig struct {
	SaveTimeout time.Duration
	ProposalTTL time.Duration
}

// SaveResult holds either the saved regulation or, when the company already
// has regulations, the revision proposal that has to be confirmed.
type SaveResult struct {
	Regulation *model.Regulation `json:"regulation,omitempty"`
	Proposal   *RevisionProposal `json:"proposal,omitempty"`
}

type RevisionProposal struct {
	Token            string    `json:"token"`
	CompanyName      string    `json:"company_name"`
	CurrentRevision  int       `json:"current_revision"`
	ProposedRevision int       `json:"proposed_revision"`
	ExpiresAt        time.Time `json:"expires_at"`
	Message          string    `json:"message"`
}

// proposalRecord is what a proposal token resolves to.
type proposalRecord struct {
	UserID           string          `json:"user_id"`
	Input            RegulationInput `json:"input"`
	ProposedRevision int             `json:"proposed_revision"`
}

type CompanyRegulations struct {
	CompanyName string              `json:"company_name"`
	Latest      *model.Regulation   `json:"latest"`
	Revisions   []*model.Regulation `json:"revisions"`
}

type HistoryEntry struct {
	ID                 string                 `json:"id"`
	RevisionNumber     int                    `json:"revision_number"`
	VersionName        string                 `json:"version_name"`
	ChangeSummary      string                 `json:"change_summary"`
	Status             model.RegulationStatus `json:"status"`
	IsLatestVersion    bool                   `json:"is_latest_version"`
	ParentRegulationID *string                `json:"parent_regulation_id"`
	ImplementationDate time.Time              `json:"implementation_date"`
	CreatedAt          time.Time              `json:"created_at"`
}

type ExportFile struct {
	FileName string `json:"file_name"`
	Content  string `json:"content"`
}

// NewRegulationService creates a new RegulationService.
func NewRegulationService(store store.Store, cache cache.RegulationCache, locker cache.Locker, compress compress.Compress, config RegulationServiceConfig) *RegulationService {
	if config.SaveTimeout <= 0 {
		config.SaveTimeout = DefaultSaveTimeout
	}
	if config.ProposalTTL <= 0 {
		config.ProposalTTL = DefaultProposalTTL
	}

	return &RegulationService{
		store:    store,
		cache:    cache,
		locker:   locker,
		compress: compress,
		config:   config,
		now:      time.Now,
	}
}

// RegulationService maintains the revision chains of travel expense regulations.
type RegulationService struct {
	store    store.Store
	cache    cache.RegulationCache
	locker   cache.Locker
	compress compress.Compress
	config   RegulationServiceConfig
	now      func() time.Time
}

func regulationLockKey(userID, companyName string) string {
	return fmt.Sprintf("lock:regulation:%s:%s", userID, companyName)
}

func regulationTextKey(userID, id string) string {
	return userID + ":" + id
}

func (s *RegulationService) lock(ctx context.Context, userID, companyName string) (cache.Lock, error) {
	lock, err := s.locker.Obtain(ctx, regulationLockKey(userID, companyName), s.config.SaveTimeout)
	if errors.Is(err, cache.ErrLockNotObtained) {
		return nil, ErrRevisionInProgress
	}
	if err != nil {
		return nil, backendError(ctx, err)
	}

	return lock, nil
}

func (s *RegulationService) unlock(lock cache.Lock) {
	// the save context may already be expired
	if err := lock.Release(context.Background()); err != nil {
		logrus.Warnf("failed to release regulation lock: %v", err)
	}
}

// Create saves a new regulation. The first regulation of a company becomes
// revision 1, otherwise nothing is written and a revision proposal is returned.
func (s *RegulationService) Create(ctx context.Context, userID string, input RegulationInput) (*SaveResult, error) {
	date, err := input.normalize()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.SaveTimeout)
	defer cancel()

	lock, err := s.lock(ctx, userID, input.CompanyName)
	if err != nil {
		return nil, err
	}
	defer s.unlock(lock)

	existing, err := s.store.ListCompanyRegulations(ctx, userID, input.CompanyName)
	if err != nil {
		return nil, backendError(ctx, err)
	}

	if len(existing) > 0 {
		proposal, err := s.propose(ctx, userID, input, existing)
		if err != nil {
			return nil, err
		}
		return &SaveResult{Proposal: proposal}, nil
	}

	regulation := s.newRegulation(userID, &input, date, 1)
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.CreateRegulation(ctx, regulation); err != nil {
			return err
		}
		return tx.CreateRegulationPositions(ctx, regulation.Positions)
	})
	if errors.Is(err, store.ErrDuplicateKey) {
		metrics.RegulationRevisionConflictsTotal.Inc()
		return nil, ErrRevisionConflict
	}
	if err != nil {
		metrics.RecordRegulationSave("failed")
		logrus.Errorf("failed to create regulation for %s: %v", input.CompanyName, err)
		return nil, backendError(ctx, err)
	}

	metrics.RecordRegulationSave("created")
	logrus.Infof("created regulation %s for %s revision 1", regulation.ID, regulation.CompanyName)

	return &SaveResult{Regulation: regulation}, nil
}

// ProposeRevision validates input as the next revision of an existing company
// chain and returns the token that ConfirmRevision commits.
func (s *RegulationService) ProposeRevision(ctx context.Context, userID string, input RegulationInput) (*RevisionProposal, error) {
	if _, err := input.normalize(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.SaveTimeout)
	defer cancel()

	existing, err := s.store.ListCompanyRegulations(ctx, userID, input.CompanyName)
	if err != nil {
		return nil, backendError(ctx, err)
	}
	if len(existing) == 0 {
		return nil, ErrNoExistingRegulation
	}

	return s.propose(ctx, userID, input, existing)
}

func (s *RegulationService) propose(ctx context.Context, userID string, input RegulationInput, existing []*model.Regulation) (*RevisionProposal, error) {
	current := newRevisionChain(existing).maxRevision
	proposal := &RevisionProposal{
		Token:            uuid.New().String(),
		CompanyName:      input.CompanyName,
		CurrentRevision:  current,
		ProposedRevision: current + 1,
		ExpiresAt:        s.now().Add(s.config.ProposalTTL),
		Message: fmt.Sprintf("「%s」の出張規程は既に存在します。改訂番号を新しく付与しました（改訂版%d）。改訂版として保存する場合は確定してください。",
			input.CompanyName, current+1),
	}

	record := proposalRecord{
		UserID:           userID,
		Input:            input,
		ProposedRevision: proposal.ProposedRevision,
	}
	if err := s.cache.SaveProposal(ctx, proposal.Token, record, s.config.ProposalTTL); err != nil {
		return nil, backendError(ctx, err)
	}

	metrics.RecordRegulationSave("proposed")
	logrus.Infof("proposed revision %d for %s", proposal.ProposedRevision, input.CompanyName)

	return proposal, nil
}

// ConfirmRevision commits a proposed revision. Only the proposing user consumes
// the token, and it is consumed even when the chain moved in the meantime, a new
// proposal is needed after a conflict.
func (s *RegulationService) ConfirmRevision(ctx context.Context, userID, token string) (*model.Regulation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.SaveTimeout)
	defer cancel()

	var record proposalRecord
	if err := s.cache.GetProposal(ctx, token, &record); err != nil {
		return nil, proposalError(ctx, err)
	}
	if record.UserID != userID {
		return nil, ErrProposalNotFound
	}

	record = proposalRecord{}
	if err := s.cache.TakeProposal(ctx, token, &record); err != nil {
		return nil, proposalError(ctx, err)
	}

	input := record.Input
	date, err := input.normalize()
	if err != nil {
		return nil, err
	}

	lock, err := s.lock(ctx, userID, input.CompanyName)
	if err != nil {
		return nil, err
	}
	defer s.unlock(lock)

	var regulation *model.Regulation
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		existing, err := tx.ListCompanyRegulations(ctx, userID, input.CompanyName)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			return ErrNoExistingRegulation
		}

		chain := newRevisionChain(existing)
		if chain.maxRevision+1 != record.ProposedRevision {
			return ErrRevisionConflict
		}

		if err := tx.UnsetLatestRegulation(ctx, userID, input.CompanyName); err != nil {
			return err
		}

		regulation = s.newRegulation(userID, &input, date, record.ProposedRevision)
		regulation.BaseRegulationID = &chain.baseID
		regulation.ParentRegulationID = &chain.parentID

		if err := tx.CreateRegulation(ctx, regulation); err != nil {
			return err
		}
		if err := tx.CreateRegulationPositions(ctx, regulation.Positions); err != nil {
			return err
		}

		version, err := s.snapshot(regulation)
		if err != nil {
			return err
		}
		return tx.CreateRegulationVersion(ctx, version)
	})
	if errors.Is(err, ErrRevisionConflict) || errors.Is(err, store.ErrDuplicateKey) {
		metrics.RegulationRevisionConflictsTotal.Inc()
		logrus.Warnf("revision %d of %s conflicts with a concurrent save", record.ProposedRevision, input.CompanyName)
		return nil, ErrRevisionConflict
	}
	if err != nil {
		metrics.RecordRegulationSave("failed")
		logrus.Errorf("failed to confirm revision %d of %s: %v", record.ProposedRevision, input.CompanyName, err)
		return nil, backendError(ctx, err)
	}

	metrics.RecordRegulationSave("revised")
	logrus.Infof("created regulation %s for %s revision %d", regulation.ID, regulation.CompanyName, regulation.RevisionNumber)

	return regulation, nil
}

// Update edits a regulation in place, the revision number is kept and the
// positions are replaced.
func (s *RegulationService) Update(ctx context.Context, userID, id string, input RegulationInput) (*model.Regulation, error) {
	date, err := input.normalize()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.SaveTimeout)
	defer cancel()

	regulation, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if regulation.CompanyName != input.CompanyName {
		return nil, validationError("company_name", "会社名を変更する場合は新しい規程として作成してください")
	}

	lock, err := s.lock(ctx, userID, input.CompanyName)
	if err != nil {
		return nil, err
	}
	defer s.unlock(lock)

	regulation.RegulationName = regulationName(input.CompanyName)
	regulation.CompanyAddress = input.CompanyAddress
	regulation.Representative = input.Representative
	regulation.DistanceThreshold = input.DistanceThreshold
	regulation.ImplementationDate = date
	regulation.IsTransportationRealExpense = input.IsTransportationRealExpense
	regulation.IsAccommodationRealExpense = input.IsAccommodationRealExpense
	regulation.Status = input.status()
	regulation.Positions = input.positions(regulation.ID)
	regulation.RegulationFullText = render.Regulation(input.document(date))

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.UpdateRegulation(ctx, regulation); err != nil {
			return err
		}
		if err := tx.DeleteRegulationPositions(ctx, regulation.ID); err != nil {
			return err
		}
		return tx.CreateRegulationPositions(ctx, regulation.Positions)
	})
	if err != nil {
		metrics.RecordRegulationSave("failed")
		logrus.Errorf("failed to update regulation %s: %v", id, err)
		return nil, backendError(ctx, err)
	}

	s.invalidate(ctx, userID, regulation.ID)
	metrics.RecordRegulationSave("updated")

	return regulation, nil
}

// Delete removes a regulation and its positions. When the latest revision is
// deleted the highest remaining revision becomes the latest.
func (s *RegulationService) Delete(ctx context.Context, userID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.SaveTimeout)
	defer cancel()

	regulation, err := s.get(ctx, userID, id)
	if err != nil {
		return err
	}

	lock, err := s.lock(ctx, userID, regulation.CompanyName)
	if err != nil {
		return err
	}
	defer s.unlock(lock)

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.DeleteRegulationPositions(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteRegulation(ctx, id); err != nil {
			return err
		}
		if !regulation.IsLatestVersion {
			return nil
		}

		remaining, err := tx.ListCompanyRegulations(ctx, userID, regulation.CompanyName)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			return nil
		}
		return tx.SetLatestRegulation(ctx, remaining[len(remaining)-1].ID)
	})
	if err != nil {
		logrus.Errorf("failed to delete regulation %s: %v", id, err)
		return backendError(ctx, err)
	}

	s.invalidate(ctx, userID, id)
	logrus.Infof("deleted regulation %s of %s revision %d", id, regulation.CompanyName, regulation.RevisionNumber)

	return nil
}

// Get retrieves a regulation with its positions.
func (s *RegulationService) Get(ctx context.Context, userID, id string) (*model.Regulation, error) {
	return s.get(ctx, userID, id)
}

func (s *RegulationService) get(ctx context.Context, userID, id string) (*model.Regulation, error) {
	regulation, err := s.store.GetRegulation(ctx, id)
	if err != nil {
		return nil, backendError(ctx, err)
	}
	if regulation.UserID != userID {
		return nil, ErrNotFound
	}

	return regulation, nil
}

// List retrieves the regulations of a user whose name or company contains search.
func (s *RegulationService) List(ctx context.Context, userID, search string) ([]*model.Regulation, error) {
	regulations, err := s.store.ListRegulations(ctx, userID, store.RegulationFilter{Search: search})
	if err != nil {
		return nil, backendError(ctx, err)
	}

	return regulations, nil
}

// ListLatest retrieves only the latest revision of each company.
func (s *RegulationService) ListLatest(ctx context.Context, userID, search string) ([]*model.Regulation, error) {
	regulations, err := s.store.ListRegulations(ctx, userID, store.RegulationFilter{Search: search, LatestOnly: true})
	if err != nil {
		return nil, backendError(ctx, err)
	}

	return regulations, nil
}

// ListByCompany groups the regulations of a user by company, revisions ascending.
func (s *RegulationService) ListByCompany(ctx context.Context, userID, search string) ([]*CompanyRegulations, error) {
	regulations, err := s.List(ctx, userID, search)
	if err != nil {
		return nil, err
	}

	var groups []*CompanyRegulations
	index := make(map[string]*CompanyRegulations)
	for _, regulation := range regulations {
		group, ok := index[regulation.CompanyName]
		if !ok {
			group = &CompanyRegulations{CompanyName: regulation.CompanyName}
			index[regulation.CompanyName] = group
			groups = append(groups, group)
		}

		group.Revisions = append(group.Revisions, regulation)
		if regulation.IsLatestVersion {
			group.Latest = regulation
		}
	}

	for _, group := range groups {
		sort.Slice(group.Revisions, func(i, j int) bool {
			return group.Revisions[i].RevisionNumber < group.Revisions[j].RevisionNumber
		})
	}

	return groups, nil
}

// History lists the revision chain the regulation belongs to.
func (s *RegulationService) History(ctx context.Context, userID, id string) ([]HistoryEntry, error) {
	regulation, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	chain, err := s.store.ListCompanyRegulations(ctx, userID, regulation.CompanyName)
	if err != nil {
		return nil, backendError(ctx, err)
	}

	entries := make([]HistoryEntry, 0, len(chain))
	for _, r := range chain {
		entries = append(entries, HistoryEntry{
			ID:                 r.ID,
			RevisionNumber:     r.RevisionNumber,
			VersionName:        versionName(r.RevisionNumber),
			ChangeSummary:      changeSummary(r.RevisionNumber),
			Status:             r.Status,
			IsLatestVersion:    r.IsLatestVersion,
			ParentRegulationID: r.ParentRegulationID,
			ImplementationDate: r.ImplementationDate,
			CreatedAt:          r.CreatedAt,
		})
	}

	return entries, nil
}

// Snapshots lists the version snapshots of the chain the regulation belongs to.
func (s *RegulationService) Snapshots(ctx context.Context, userID, id string) ([]*model.RegulationVersion, error) {
	regulation, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	versions, err := s.store.ListRegulationVersions(ctx, regulation.ChainID())
	if err != nil {
		return nil, backendError(ctx, err)
	}

	for _, version := range versions {
		codec, err := compress.New(version.Compression)
		if err != nil {
			return nil, err
		}
		text, err := codec.Decode(version.FullText)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s is corrupted: %w", version.ID, err)
		}
		version.Text = string(text)
	}

	return versions, nil
}

// Render returns the regulation document text.
func (s *RegulationService) Render(ctx context.Context, userID, id string) (string, error) {
	key := regulationTextKey(userID, id)
	text, err := s.cache.GetText(ctx, key)
	if err == nil {
		return text, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logrus.Warnf("regulation text cache unavailable: %v", err)
	}

	regulation, err := s.get(ctx, userID, id)
	if err != nil {
		return "", err
	}

	text = regulation.RegulationFullText
	if text == "" {
		text = render.Regulation(regulationDocument(regulation))
	}

	if err := s.cache.SetText(ctx, key, text); err != nil {
		logrus.Warnf("failed to cache regulation text %s: %v", id, err)
	}

	return text, nil
}

// Export returns the regulation document as a downloadable text file.
func (s *RegulationService) Export(ctx context.Context, userID, id string) (*ExportFile, error) {
	regulation, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	text, err := s.Render(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	return &ExportFile{
		FileName: render.FileName(regulation.CompanyName, regulation.RevisionNumber),
		Content:  text,
	}, nil
}

// Preview renders input without saving it.
func (s *RegulationService) Preview(input RegulationInput) (string, error) {
	date, err := input.normalize()
	if err != nil {
		return "", err
	}

	return render.Regulation(input.document(date)), nil
}

func (s *RegulationService) invalidate(ctx context.Context, userID string, ids ...string) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, regulationTextKey(userID, id))
	}
	// a failed invalidation leaves stale text for at most the cache ttl
	_ = s.cache.Invalidate(context.WithoutCancel(ctx), keys...)
}

func (s *RegulationService) newRegulation(userID string, input *RegulationInput, date time.Time, revision int) *model.Regulation {
	id := uuid.New().String()
	return &model.Regulation{
		ID:                          id,
		UserID:                      userID,
		RegulationName:              regulationName(input.CompanyName),
		RegulationType:              model.RegulationTypeDomestic,
		CompanyName:                 input.CompanyName,
		CompanyAddress:              input.CompanyAddress,
		Representative:              input.Representative,
		DistanceThreshold:           input.DistanceThreshold,
		ImplementationDate:          date,
		RevisionNumber:              revision,
		Status:                      input.status(),
		IsTransportationRealExpense: input.IsTransportationRealExpense,
		IsAccommodationRealExpense:  input.IsAccommodationRealExpense,
		RegulationFullText:          render.Regulation(input.document(date)),
		IsLatestVersion:             true,
		Positions:                   input.positions(id),
	}
}

func (s *RegulationService) snapshot(r *model.Regulation) (*model.RegulationVersion, error) {
	positions, err := json.Marshal(r.Positions)
	if err != nil {
		return nil, err
	}

	text, err := s.compress.Encode([]byte(r.RegulationFullText))
	if err != nil {
		return nil, err
	}

	return &model.RegulationVersion{
		ID:                          uuid.New().String(),
		BaseRegulationID:            r.ChainID(),
		RegulationID:                r.ID,
		UserID:                      r.UserID,
		VersionNumber:               r.RevisionNumber,
		VersionName:                 versionName(r.RevisionNumber),
		RegulationName:              r.RegulationName,
		CompanyName:                 r.CompanyName,
		CompanyAddress:              r.CompanyAddress,
		Representative:              r.Representative,
		DistanceThreshold:           r.DistanceThreshold,
		ImplementationDate:          r.ImplementationDate,
		IsTransportationRealExpense: r.IsTransportationRealExpense,
		IsAccommodationRealExpense:  r.IsAccommodationRealExpense,
		Status:                      r.Status,
		Positions:                   datatypes.JSON(positions),
		FullText:                    text,
		Compression:                 s.compress.Name(),
		ChangeSummary:               changeSummary(r.RevisionNumber),
		CreatedBy:                   r.UserID,
	}, nil
}

// revisionChain summarises the existing revisions of a company.
type revisionChain struct {
	maxRevision int
	baseID      string
	parentID    string
}

// newRevisionChain expects regulations ordered by revision ascending.
func newRevisionChain(regulations []*model.Regulation) revisionChain {
	var chain revisionChain
	if len(regulations) == 0 {
		return chain
	}

	first := regulations[0]
	chain.baseID = first.ChainID()
	if first.RevisionNumber == 1 {
		chain.baseID = first.ID
	}

	last := regulations[len(regulations)-1]
	chain.maxRevision = last.RevisionNumber
	chain.parentID = last.ID
	for _, r := range regulations {
		if r.IsLatestVersion {
			chain.parentID = r.ID
		}
	}

	return chain
}

func proposalError(ctx context.Context, err error) error {
	if errors.Is(err, cache.ErrCacheMiss) {
		return ErrProposalNotFound
	}
	return backendError(ctx, err)
}
