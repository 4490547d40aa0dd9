package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"sync"
	"time"

	"github.com/emrgen/travelexpense/internal/auth"
	"github.com/emrgen/travelexpense/internal/cache"
	"github.com/emrgen/travelexpense/internal/compress"
	"github.com/emrgen/travelexpense/internal/config"
	"github.com/emrgen/travelexpense/internal/job"
	"github.com/emrgen/travelexpense/internal/queue"
	"github.com/emrgen/travelexpense/internal/service"
	"github.com/emrgen/travelexpense/internal/store"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Server represents the server
type Server struct {
	httpPort string
}

// NewServer creates a new server
func NewServer(httpPort string) *Server {
	return &Server{
		httpPort: httpPort,
	}
}

// Start starts the server
func (s *Server) Start() {
	cnf := config.LoadConfig()
	if s.httpPort != "" {
		cnf.HTTPPort = s.httpPort
	}

	if err := Start(cnf); err != nil {
		logrus.Fatalf("error starting server: %v", err)
	}
}

// Start wires the stores and services and serves the rest api until a signal arrives.
func Start(cnf *config.Config) error {
	var err error

	httpPort := ":" + cnf.HTTPPort

	rl, err := net.Listen("tcp", httpPort)
	if err != nil {
		return err
	}

	if cnf.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	rdb := config.GetDb(cnf)
	gormStore := store.NewGormStore(rdb)
	err = gormStore.Migrate()
	if err != nil {
		return err
	}

	redisClient := cache.NewRedisClient(cnf.Redis.Addr, cnf.Redis.Password, cnf.Redis.DB)
	defer redisClient.Close()

	compressor, err := compress.New(cnf.Regulation.Compression)
	if err != nil {
		return err
	}

	notifications, err := queue.New(queue.Options{
		Driver:       cnf.Queue.Driver,
		Redis:        redisClient,
		KafkaBrokers: cnf.Queue.KafkaBrokers,
		KafkaTopic:   cnf.Queue.KafkaTopic,
	})
	if err != nil {
		return err
	}
	defer notifications.Close()

	authService := auth.NewService(gormStore, cache.NewRedis(redisClient), auth.Config{
		Secret:        cnf.JWT.Secret,
		Expire:        cnf.JWT.Expire,
		ResetTokenTTL: cnf.JWT.ResetTokenTTL,
		DemoEnabled:   cnf.DemoEnabled,
	})

	services := Services{
		Auth: authService,
		Regulations: service.NewRegulationService(
			gormStore,
			cache.NewRedisRegulationCache(redisClient),
			cache.NewRedisLocker(redisClient),
			compressor,
			service.RegulationServiceConfig{
				SaveTimeout: cnf.Regulation.SaveTimeout,
				ProposalTTL: cnf.Regulation.ProposalTTL,
			},
		),
		Applications:  service.NewApplicationService(gormStore, notifications),
		Notifications: service.NewNotificationService(gormStore, notifications),
		Dashboard:     service.NewDashboardService(gormStore),
	}

	if cnf.DemoEnabled {
		if err := seedDemo(authService, gormStore); err != nil {
			logrus.Warnf("demo data not seeded: %v", err)
		}
	}

	c := newCORS(cnf.CORS)

	restServer := &http.Server{
		Addr:    httpPort,
		Handler: c.Handler(NewRouter(services)),
	}

	// make sure to wait for the server and the jobs to stop before exiting
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		logrus.Info("starting rest server on: ", httpPort)
		logrus.Info("click on the following link to view the API documentation: http://localhost", httpPort, "/v1/docs/")
		if err := restServer.Serve(rl); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("error starting rest server: %v", err)
			}
		}
		logrus.Infof("rest server stopped")
	}()

	var auditor *job.LatestAuditor
	if cnf.AuditInterval > 0 {
		auditor = job.NewLatestAuditor(gormStore, cnf.AuditInterval)
		wg.Add(1)
		go func() {
			defer wg.Done()
			auditor.Run()
		}()
	}

	time.Sleep(1 * time.Second)
	logrus.Infof("Press Ctrl+C to stop the server")

	// listen for interrupt signal to gracefully shut down the server
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGTERM, unix.SIGINT, unix.SIGTSTP)
	<-sigs
	// clean Ctrl+C output
	fmt.Println()

	if auditor != nil {
		auditor.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = restServer.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("error stopping rest server: %v", err)
	}

	wg.Wait()

	return nil
}

func seedDemo(authService *auth.Service, s store.Store) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := authService.EnsureDemoUser(ctx)
	if err != nil {
		return err
	}

	return service.SeedDemoData(ctx, s, userID, time.Now())
}

// newCORS allows the configured origins. Credentials are only allowed for an
// explicit origin list, never together with the "*" wildcard.
func newCORS(cnf config.CORSConfig) *cors.Cors {
	wildcard := len(cnf.AllowedOrigins) == 0 || slices.Contains(cnf.AllowedOrigins, "*")
	if wildcard {
		logrus.Warn("cors allows any origin, credentials are disabled")
	}

	return cors.New(cors.Options{
		AllowedOrigins:   cnf.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "PUT"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: !wildcard,
	})
}
