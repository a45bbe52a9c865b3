package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/sant0-9/soapflow/internal/config"
	"github.com/sant0-9/soapflow/internal/history"
	"github.com/sant0-9/soapflow/internal/logging"
	"github.com/sant0-9/soapflow/internal/storage"
	"github.com/sant0-9/soapflow/internal/templates"
	"github.com/sant0-9/soapflow/internal/tui"
)

var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()
	if *showVersion {
		fmt.Println("soapflow", version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg != nil {
		cfg.ApplyEnv()
	} else {
		// No config file yet. A key in the environment skips the setup wizard.
		cfg = config.FromEnv()
	}

	// Paths come from the defaults until setup has written a config
	paths := cfg
	if paths == nil {
		paths = config.DefaultConfig()
	}

	log, closeLog, err := openLog(paths)
	if err != nil {
		return err
	}
	defer closeLog.Close()
	log.WithField("version", version).Info("starting soapflow")

	dbPath, err := paths.DataPath()
	if err != nil {
		return err
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	tpl := templates.NewStore(db, log)
	tpl.Load(context.Background())

	var hist history.Store = history.NewMemoryStore()
	if paths.History.Persist {
		hist = db.History()
		log.WithField("path", dbPath).Debug("history persisted to disk")
	}

	app := tui.NewApp(tui.Deps{
		Config:    cfg,
		Templates: tpl,
		History:   hist,
		Logger:    log,
	})
	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
	)

	_, err = p.Run()
	if err != nil {
		log.WithError(err).Error("program exited")
	}
	return err
}

func openLog(cfg *config.Config) (*logrus.Logger, io.Closer, error) {
	path, err := cfg.LogPath()
	if err != nil {
		return nil, nil, err
	}
	log, closer, err := logging.New(path, cfg.Log.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	return log, closer, nil
}
