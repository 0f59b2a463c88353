package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-construction-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/client"
	clientrepo "github.com/ovaphlow/pitchfork/service-construction-go/internal/client/repo"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/memstore"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/project"
	projectrepo "github.com/ovaphlow/pitchfork/service-construction-go/internal/project/repo"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/security"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-construction-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-construction-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-construction-go/pkg/utilities"
)

type repositories struct {
	users    user.Repository
	clients  client.Repository
	projects interface {
		project.Repository
		client.ProjectLister
	}
}

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	lg, err := utilities.InitLogger(utilities.LoggerConfig{
		Level:      cfg.Log.Level,
		Dev:        cfg.Log.Dev,
		File:       cfg.Log.File,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Infow("starting construction api", "env", cfg.Env, "addr", cfg.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, db, err := openRepositories(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalf("storage: %v", err)
	}
	if db != nil {
		defer db.Close()
	}

	ids, err := utilities.NewSnowflake(cfg.SnowflakeNode)
	if err != nil {
		sugar.Fatalf("id generator: %v", err)
	}
	codec, err := security.NewTokenCodec(cfg.JWT)
	if err != nil {
		sugar.Fatalf("token codec: %v", err)
	}

	users, err := user.NewUserService(repos.users, security.NewBcryptHasher(cfg.Password.BcryptCost), ids)
	if err != nil {
		sugar.Fatalf("user service: %v", err)
	}
	if email, pw := os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD"); email != "" && pw != "" {
		created, err := users.EnsureAdmin(ctx, email, pw)
		switch {
		case err != nil:
			sugar.Warnw("admin bootstrap failed", "email", email, "err", err)
		case created:
			sugar.Infow("admin account created", "email", email)
		}
	}

	m := metrics.New()
	handler := router.RegisterRoutes(router.Deps{
		Env:         cfg.Env,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      sugar,
		Metrics:     m,
		Authn:       auth.NewAuthenticator(codec, users, sugar),
		Auth:        auth.NewHandler(auth.NewService(users, codec), m, sugar),
		Users:       user.NewHandler(users, sugar),
		Clients:     client.NewHandler(client.NewClientService(repos.clients, repos.projects, ids), sugar),
		Projects:    project.NewHandler(project.NewProjectService(repos.projects, repos.clients, ids), sugar),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// run server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	sugar.Info("service is running; press Ctrl+C to stop")
	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}

// openRepositories picks the in-memory store for memory:// and Postgres
// otherwise. The returned db is nil for the in-memory store.
func openRepositories(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (*repositories, *sqlx.DB, error) {
	if cfg.UsesMemoryStore() {
		log.Warn("using in-memory store; data is lost on exit")
		st := memstore.New()
		return &repositories{users: st.Users(), clients: st.Clients(), projects: st.Projects()}, nil, nil
	}

	db, err := database.Connect(database.Config{
		DSN:            cfg.DatabaseURL,
		MaxConns:       cfg.Database.MaxConns,
		Timeout:        cfg.Database.Timeout,
		TimeZone:       cfg.Database.TimeZone,
		ClientEncoding: cfg.Database.ClientEncoding,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}
	if err := database.Migrate(ctx, db.DB); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("db migrate: %w", err)
	}
	return &repositories{
		users:    userrepo.NewUserRepo(db),
		clients:  clientrepo.NewClientRepo(db),
		projects: projectrepo.NewProjectRepo(db),
	}, db, nil
}
