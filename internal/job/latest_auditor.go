package job

import (
	"context"
	"time"

	goset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/travelexpense/internal/metrics"
	"github.com/emrgen/travelexpense/internal/model"
	"github.com/emrgen/travelexpense/internal/store"
	"github.com/sirupsen/logrus"
)

// LatestAuditor periodically checks that every regulation chain has exactly
// one latest revision and marks the highest revision when it does not.
type LatestAuditor struct {
	store    store.Store
	interval time.Duration
	done     chan struct{}
}

// NewLatestAuditor creates a new LatestAuditor instance.
func NewLatestAuditor(store store.Store, interval time.Duration) *LatestAuditor {
	return &LatestAuditor{
		store:    store,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (a *LatestAuditor) Stop() {
	close(a.done)
}

func (a *LatestAuditor) Run() {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.done:
			return
		case <-ticker.C:
			if _, err := a.Audit(context.Background()); err != nil {
				logrus.Errorf("regulation chain audit failed: %v", err)
			}
		}
	}
}

type chainKey struct {
	userID      string
	companyName string
}

type chain struct {
	key     chainKey
	latest  goset.Set[string]
	highest *model.Regulation
}

// Audit repairs the broken chains and returns how many were repaired.
func (a *LatestAuditor) Audit(ctx context.Context) (int, error) {
	regulations, err := a.store.ScanRegulationChains(ctx)
	if err != nil {
		return 0, err
	}

	var chains []*chain
	index := make(map[chainKey]*chain)
	for _, r := range regulations {
		key := chainKey{userID: r.UserID, companyName: r.CompanyName}
		c, ok := index[key]
		if !ok {
			c = &chain{key: key, latest: goset.NewThreadUnsafeSet[string]()}
			index[key] = c
			chains = append(chains, c)
		}

		if r.IsLatestVersion {
			c.latest.Add(r.ID)
		}
		if c.highest == nil || r.RevisionNumber > c.highest.RevisionNumber {
			c.highest = r
		}
	}

	repaired := 0
	for _, c := range chains {
		if c.latest.Cardinality() == 1 {
			continue
		}

		logrus.Warnf("regulation chain %s/%s has %d latest revisions, marking revision %d",
			c.key.userID, c.key.companyName, c.latest.Cardinality(), c.highest.RevisionNumber)

		err := a.store.Transaction(ctx, func(tx store.Store) error {
			if err := tx.UnsetLatestRegulation(ctx, c.key.userID, c.key.companyName); err != nil {
				return err
			}
			return tx.SetLatestRegulation(ctx, c.highest.ID)
		})
		if err != nil {
			return repaired, err
		}

		metrics.RegulationChainRepairsTotal.Inc()
		repaired++
	}

	return repaired, nil
}
