package app

import (
	"context"
	"fmt"

	"github.com/netbillhq/netbill/internal/audit"
	"github.com/netbillhq/netbill/internal/billing"
	"github.com/netbillhq/netbill/internal/config"
	"github.com/netbillhq/netbill/internal/db"
	adminapi "github.com/netbillhq/netbill/internal/http/api/admin"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the admin API with database-backed components.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	jwtCfg, _ := config.LoadJWTConfig(configPath)
	if jwtCfg.Secret == "" {
		return fmt.Errorf("jwt secret is required (set `jwt.secret` in config or JWT_SECRET)")
	}

	if errBootstrap := EnsureAdminUser(conn, config.LoadBootstrapConfig(configPath)); errBootstrap != nil {
		return errBootstrap
	}

	engine := billing.NewEngine(conn, audit.NewRecorder(conn))

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	adminapi.RegisterAdminRoutes(router, conn, engine, jwtCfg)

	addr := fmt.Sprintf(":%d", port)
	log.Infof("starting admin api on %s with config=%s", addr, configPath)

	errCh := make(chan error, 1)
	go func() { errCh <- router.Run(addr) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case errRun := <-errCh:
		return errRun
	}
}
