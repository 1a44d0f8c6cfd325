package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/kelseyhightower/envconfig"

	"github.com/noah-isme/adminportal/internal/app"
	"github.com/noah-isme/adminportal/internal/platform/httpx"
	"github.com/noah-isme/adminportal/internal/rbac"
	"github.com/noah-isme/adminportal/internal/users"
)

type seedConfig struct {
	StoreDriver string `envconfig:"STORE_DRIVER" default:"file"`
	StoreDir    string `envconfig:"STORE_DIR" default:"data"`
	KVURL       string `envconfig:"KV_URL" default:"redis://127.0.0.1:6379/0"`
	KVPrefix    string `envconfig:"KV_PREFIX" default:"adminportal:"`

	Username string `envconfig:"SEED_SUPERADMIN_USERNAME" default:"superadmin"`
	Email    string `envconfig:"SEED_SUPERADMIN_EMAIL" default:"superadmin@example.com"`
	Password string `envconfig:"SEED_SUPERADMIN_PASSWORD" default:"admin123"`
}

type testUser struct {
	role     rbac.Role
	username string
	password string
}

var testUsers = []testUser{
	{rbac.RoleAdmin, "admin", "admin123"},
	{rbac.RoleEmp, "employee", "emp123"},
}

func main() {
	withTestUsers := flag.Bool("test-users", false, "also create development admin and employee accounts")
	flag.Parse()

	var cfg seedConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	store, closeStore, err := app.OpenStore(ctx, &app.Config{
		StoreDriver: cfg.StoreDriver,
		StoreDir:    cfg.StoreDir,
		KVURL:       cfg.KVURL,
		KVPrefix:    cfg.KVPrefix,
	}, slog.Default())
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer func() { _ = closeStore() }()

	service := users.NewService(users.NewRepository(store))

	fmt.Println("→ Seeding super admin...")
	u, created, err := service.Bootstrap(ctx, users.Registration{
		Username: cfg.Username,
		Email:    cfg.Email,
		Password: cfg.Password,
	})
	if err != nil {
		log.Fatalf("seed super admin: %v", err)
	}
	if created {
		fmt.Printf("  created %s (%s) as %s\n", u.Username, u.ID, u.Role)
		fmt.Println("  change the default password before going to production")
	} else {
		fmt.Println("  users already present, skipping")
	}

	if !*withTestUsers {
		return
	}
	fmt.Println("→ Seeding test users...")
	for _, tu := range testUsers {
		_, err := service.Create(ctx, tu.role, users.Registration{
			Username: tu.username,
			Email:    tu.username + "@example.com",
			Password: tu.password,
		}, users.SystemActor)
		switch {
		case errors.Is(err, httpx.ErrDuplicate):
			fmt.Printf("  %s exists, skipping\n", tu.username)
		case err != nil:
			log.Fatalf("seed %s: %v", tu.username, err)
		default:
			fmt.Printf("  created %s as %s\n", tu.username, tu.role)
		}
	}
}
