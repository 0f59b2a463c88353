// Command initadmin creates the first admin account. Credentials come from
// ADMIN_EMAIL and ADMIN_PASSWORD or, when unset, from an interactive prompt.
// Nothing is created if an admin already exists.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-construction-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/security"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-construction-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-construction-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-construction-go/pkg/utilities"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if cfg.UsesMemoryStore() {
		fmt.Fprintln(os.Stderr, "initadmin needs a real database; set ADMIN_EMAIL/ADMIN_PASSWORD for the api instead")
		os.Exit(1)
	}

	lg, err := utilities.InitLogger(utilities.LoggerConfig{Level: cfg.Log.Level, Dev: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	email, password, err := credentials(bufio.NewReader(os.Stdin), os.Stdout, os.Getenv)
	if err != nil {
		sugar.Fatalf("read credentials: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(database.Config{
		DSN:            cfg.DatabaseURL,
		MaxConns:       1,
		Timeout:        cfg.Database.Timeout,
		TimeZone:       cfg.Database.TimeZone,
		ClientEncoding: cfg.Database.ClientEncoding,
	})
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db.DB); err != nil {
		sugar.Fatalf("db migrate: %v", err)
	}

	ids, err := utilities.NewSnowflake(cfg.SnowflakeNode)
	if err != nil {
		sugar.Fatalf("id generator: %v", err)
	}
	svc, err := user.NewUserService(userrepo.NewUserRepo(db), security.NewBcryptHasher(cfg.Password.BcryptCost), ids)
	if err != nil {
		sugar.Fatalf("user service: %v", err)
	}

	created, err := svc.EnsureAdmin(ctx, email, password)
	if err != nil {
		sugar.Fatalf("create admin: %v", err)
	}
	if !created {
		sugar.Info("an admin account already exists; nothing to do")
		return
	}
	sugar.Infow("admin account created", "email", email)
}
