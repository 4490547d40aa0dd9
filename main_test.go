package travelexpense

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/emrgen/travelexpense/internal/auth"
	"github.com/emrgen/travelexpense/internal/cache"
	"github.com/emrgen/travelexpense/internal/compress"
	"github.com/emrgen/travelexpense/internal/queue"
	"github.com/emrgen/travelexpense/internal/server"
	"github.com/emrgen/travelexpense/internal/service"
	"github.com/emrgen/travelexpense/internal/store"
	"github.com/emrgen/travelexpense/internal/tester"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// newTestBackend serves the rest api on sqlite and miniredis.
func newTestBackend(t *testing.T, expire time.Duration) *httptest.Server {
	gin.SetMode(gin.TestMode)

	st := store.NewGormStore(tester.NewDB(t))
	rdb, _ := tester.Redis(t)
	codec, err := compress.New("brotli")
	require.NoError(t, err)
	notifications := queue.NewRedisQueue(rdb)

	router := server.NewRouter(server.Services{
		Auth: auth.NewService(st, cache.NewRedis(rdb), auth.Config{
			Secret: "client-test-secret",
			Expire: expire,
		}),
		Regulations:   service.NewRegulationService(st, cache.NewRedisRegulationCache(rdb), cache.NewRedisLocker(rdb), codec, service.RegulationServiceConfig{}),
		Applications:  service.NewApplicationService(st, notifications),
		Notifications: service.NewNotificationService(st, notifications),
		Dashboard:     service.NewDashboardService(st),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func registerInput() auth.RegisterInput {
	return auth.RegisterInput{
		Email:      "kato@example.com",
		Password:   "password123",
		FullName:   "加藤 美咲",
		Company:    "Acme",
		Position:   "部長",
		Department: "総務部",
	}
}

func regulationInput() service.RegulationInput {
	return service.RegulationInput{
		CompanyName:        "Acme",
		Representative:     "代表取締役 山田 一郎",
		CompanyAddress:     "東京都千代田区1-1",
		DistanceThreshold:  100,
		ImplementationDate: "2025-01-01",
		Positions: []service.PositionInput{
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
		},
	}
}
