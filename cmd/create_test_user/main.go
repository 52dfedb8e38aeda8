package main

import (
	"context"
	"flag"
	"fmt"

	"clicker_empire/internal/config"
	"clicker_empire/internal/db"
	"clicker_empire/internal/logger"
	"clicker_empire/internal/repository"
	"clicker_empire/internal/service"
)

func main() {
	tgID := flag.Int64("tg", 1234567890, "telegram user id")
	username := flag.String("username", "testuser", "telegram username")
	premium := flag.Bool("premium", false, "mark the player as Telegram Premium")
	balance := flag.Int64("balance", -1, "starting balance for a new player (default: STARTING_BALANCE)")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret)

	var store repository.PlayerStore
	switch cfg.Storage {
	case config.StoragePostgres:
		pool := db.Connect(cfg.DatabaseURL)
		defer pool.Close()
		store = repository.NewPlayerRepository(pool)
	case config.StorageSQLite:
		sqlDB, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("open sqlite", "error", err)
		}
		defer sqlDB.Close()
		store = repository.NewSQLiteStore(sqlDB)
	default:
		logger.Fatal("create_test_user needs persistent storage", "storage", cfg.Storage)
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		logger.Fatal("load catalog", "error", err)
	}
	rules := cfg.Rules()
	if *balance >= 0 {
		rules.StartingBalance = *balance
	}
	players := service.NewPlayerService(store, catalog, rules)

	ctx := context.Background()
	p, created, err := players.EnsurePlayer(ctx, service.Profile{
		TgID:      *tgID,
		Username:  *username,
		FirstName: "Tester",
		IsPremium: *premium,
	})
	if err != nil {
		logger.Fatal("ensure player", "error", err)
	}

	state, err := players.GetState(ctx, p.ID)
	if err != nil {
		logger.Fatal("read state", "error", err)
	}
	logger.Info("player ready", "id", p.ID, "tg_id", p.TgID, "created", created,
		"balance", state.Balance, "level", state.Level, "energy", state.Energy)

	token, err := service.GenerateJWT(p.ID)
	if err != nil {
		logger.Fatal("generate token", "error", err)
	}
	fmt.Println(token)
}
