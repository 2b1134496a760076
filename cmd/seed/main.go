package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"foodflow-pickup/internal/config"
	"foodflow-pickup/internal/domain"
	"foodflow-pickup/internal/domain/model"
	"foodflow-pickup/internal/domain/ports/repository"
	pg "foodflow-pickup/internal/infra/db/postgres"
	"foodflow-pickup/internal/infra/web"

	"github.com/jackc/pgx/v4"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	mintSubject := flag.String("mint", "", "also print a caller token for this subject")
	mintRole := flag.String("role", web.RoleDonor, "role claim of the minted token (donor|admin)")
	flag.Parse()

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("database.url is required to seed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	repo := pg.NewTolerancePolicyRepo(pool)
	tm := pg.NewTxManager(pool)

	var (
		result *model.TolerancePolicy
		seeded bool
	)
	err = tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(ctx context.Context, tx repository.Tx) error {
		existing, err := repo.Get(ctx, tx)
		if err == nil {
			result, seeded = existing, false
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		p, err := model.NewTolerancePolicy(*cfg.Tolerance.DefaultEarlyMinutes, *cfg.Tolerance.DefaultLateMinutes)
		if err != nil {
			return err
		}
		if err := repo.Save(ctx, tx, p); err != nil {
			return err
		}
		result, seeded = p, true
		return nil
	})
	if err != nil {
		log.Fatalf("seed tolerance policy: %v", err)
	}
	if seeded {
		fmt.Println("seeded default tolerance policy")
	} else {
		fmt.Println("tolerance policy already present. No changes.")
	}
	fmt.Printf("tolerance policy: early=%dm late=%dm updated_at=%s\n",
		result.EarlyToleranceMinutes, result.LateToleranceMinutes, result.UpdatedAt.Format(time.RFC3339))

	if *mintSubject != "" {
		tok, err := web.NewAuthManager(cfg.Security.JWTSecret).Mint(*mintSubject, *mintRole, 24*time.Hour)
		if err != nil {
			log.Fatalf("mint token: %v", err)
		}
		fmt.Printf("token (%s, %s): %s\n", *mintSubject, *mintRole, tok)
	}
}
