package service

import (
	"context"
	"errors"
	"testing"

	"github.com/emrgen/travelexpense/internal/cache"
	"github.com/emrgen/travelexpense/internal/compress"
	"github.com/emrgen/travelexpense/internal/model"
	"github.com/emrgen/travelexpense/internal/store"
	"github.com/emrgen/travelexpense/internal/tester"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.GormStore {
	return store.NewGormStore(tester.NewDB(t))
}

func newTestRegulationService(t *testing.T, s store.Store) *RegulationService {
	client, _ := tester.Redis(t)
	codec, err := compress.New("gzip")
	require.NoError(t, err)

	return NewRegulationService(s, cache.NewRedisRegulationCache(client), cache.NopLocker{}, codec, RegulationServiceConfig{})
}

func acmeInput() RegulationInput {
	return RegulationInput{
		CompanyName:        "Acme",
		Representative:     "代表取締役 山田 一郎",
		CompanyAddress:     "東京都千代田区1-1",
		DistanceThreshold:  50,
		ImplementationDate: "2024-04-01",
		Positions: []PositionInput{
			{
				Name:                   "部長",
				DomesticDailyAllowance: 5000,
				DomesticAccommodation:  12000,
				DomesticTransportation: 3000,
				OverseasDailyAllowance: 8000,
				OverseasAccommodation:  20000,
				OverseasPreparation:    10000,
				OverseasTransportation: 5000,
			},
			{
				Name:                   "一般社員",
				DomesticDailyAllowance: 3000,
				DomesticAccommodation:  9000,
				DomesticTransportation: 2000,
				OverseasDailyAllowance: 5000,
				OverseasAccommodation:  15000,
				OverseasPreparation:    5000,
				OverseasTransportation: 3000,
			},
		},
	}
}

var errInjected = errors.New("injected failure")

// failingStore fails position inserts, inside and outside transactions.
type failingStore struct {
	store.Store
}

func (f *failingStore) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	return f.Store.Transaction(ctx, func(tx store.Store) error {
		return fn(&failingStore{Store: tx})
	})
}

func (f *failingStore) CreateRegulationPositions(ctx context.Context, positions []model.RegulationPosition) error {
	return errInjected
}
