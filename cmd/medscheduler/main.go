package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"medscheduler/internal/config"
	"medscheduler/internal/logging"
	"medscheduler/internal/service/appointments"
	"medscheduler/internal/store"
	"medscheduler/internal/store/flatfile"
	"medscheduler/internal/transport/shell"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	fs := afero.NewOsFs()
	log := logging.New(logging.Config{
		Path:  cfg.LogFile,
		Level: cfg.LogLevel,
		Fs:    fs,
	})
	sched := appointments.NewScheduler(appointments.Rules{
		Open:        cfg.Open,
		Close:       cfg.Close,
		MinDuration: cfg.MinDuration,
	}, log)
	repo := flatfile.NewAppointmentRepo(fs, cfg.DataFile, log)

	rules := sched.Rules()
	log.Info(fmt.Sprintf("Starting scheduler (hours %s-%s, minimum %s, data %s)",
		clock(rules.Open), clock(rules.Close), rules.MinDuration, repo.Path()))

	if cfg.AutoLoad {
		if _, err := repo.Load(sched); err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Error(fmt.Sprintf("Autoload failed: %v", err))
		}
	}

	if _, err := tea.NewProgram(shell.New(sched, repo, log)).Run(); err != nil {
		log.Error(fmt.Sprintf("Shell stopped with error: %v", err))
		fmt.Fprintf(os.Stderr, "shell error: %v\n", err)
		os.Exit(1)
	}
	log.Info("Exiting scheduler")
}

func clock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}
