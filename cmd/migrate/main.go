// Command migrate runs schema operations for the backend.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"factoryfeed/internal/config"
	"factoryfeed/internal/database"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dialector, err := database.Dialector(cfg)
	if err != nil {
		return err
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Println("schema migrated")
	case "status":
		for _, m := range database.Models() {
			stmt := &gorm.Statement{DB: db}
			if err := stmt.Parse(m); err != nil {
				return fmt.Errorf("parse model: %w", err)
			}
			state := "missing"
			if db.Migrator().HasTable(m) {
				state = "present"
			}
			log.Printf("%-16s %s", stmt.Schema.Table, state)
		}
	default:
		return usage()
	}
	return nil
}
