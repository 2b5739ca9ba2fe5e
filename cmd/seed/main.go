package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/comanda-pos/api/internal/config"
	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func main() {
	file := flag.String("file", "seed/establishment.yaml", "Establishment seed file (YAML)")
	flag.Parse()

	base, err := logger.New(logger.Options{Level: "info"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.Component(base, "seed")

	if err := run(context.Background(), *file, log); err != nil {
		log.WithError(err).Fatal("seed failed")
	}
}

func run(ctx context.Context, file string, log *logrus.Entry) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	seed, err := parseSeed(raw)
	if err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	log.Info("connected to database")

	// Establishment and tables are seeded together or not at all.
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	q := database.New(tx)

	est, err := q.GetEstablishmentBySlug(ctx, seed.Slug)
	switch {
	case err == nil:
		log.WithFields(logrus.Fields{"slug": seed.Slug, "id": est.ID}).Info("establishment already exists, skipping")
	case errors.Is(err, pgx.ErrNoRows):
		params, err := seed.params()
		if err != nil {
			return err
		}
		est, err = q.CreateEstablishment(ctx, params)
		if err != nil {
			return fmt.Errorf("create establishment: %w", err)
		}
		log.WithFields(logrus.Fields{"slug": seed.Slug, "id": est.ID}).Info("created establishment")
	default:
		return fmt.Errorf("check establishment: %w", err)
	}

	for _, number := range seed.Tables {
		_, err := q.GetOpenTableByNumber(ctx, database.GetOpenTableByNumberParams{
			EstablishmentID: est.ID,
			TableNumber:     number,
		})
		if err == nil {
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("check table %s: %w", number, err)
		}
		if _, err := q.CreateTable(ctx, database.CreateTableParams{EstablishmentID: est.ID, TableNumber: number}); err != nil {
			return fmt.Errorf("create table %s: %w", number, err)
		}
		log.WithField("table_number", number).Info("opened table")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.WithField("establishment_id", est.ID).Info("seed completed")
	return nil
}
