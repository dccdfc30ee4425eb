package service

import (
	"fmt"
	"os"
	"strings"
	"time"

	"vhc_backend/internal/healthchecks/domain"
	"vhc_backend/platform/config"

	"gopkg.in/yaml.v3"
)

// Settings are the tunables of the board, SLA and KPI computations.
type Settings struct {
	TerminalStatuses       []domain.Status
	ExpiryWindow           time.Duration
	AdvisorMinHealthChecks int
	KPICacheTTL            time.Duration
	Location               *time.Location
}

// boardFile is the optional YAML override file.
type boardFile struct {
	TerminalStatuses       []string `yaml:"terminalStatuses"`
	SLAExpiryWindow        string   `yaml:"slaExpiryWindow"`
	AdvisorMinHealthChecks *int     `yaml:"advisorMinHealthChecks"`
	KPICacheTTL            string   `yaml:"kpiCacheTTL"`
	Timezone               string   `yaml:"timezone"`
}

// LoadSettings builds settings from the environment and applies the YAML file when configured.
func LoadSettings(cfg config.BoardConfig) (Settings, error) {
	loc, err := time.LoadLocation(cfg.GetTimezone())
	if err != nil {
		return Settings{}, fmt.Errorf("load timezone: %w", err)
	}

	terminal, err := parseStatuses(cfg.GetTerminalStatuses())
	if err != nil {
		return Settings{}, err
	}

	s := Settings{
		TerminalStatuses:       terminal,
		ExpiryWindow:           cfg.GetSLAExpiryWindow(),
		AdvisorMinHealthChecks: cfg.GetAdvisorMinHealthChecks(),
		KPICacheTTL:            cfg.GetKPICacheTTL(),
		Location:               loc,
	}

	path := strings.TrimSpace(cfg.GetBoardConfigPath())
	if path == "" {
		return s.withDefaults(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read board config: %w", err)
	}
	s, err = applyBoardFile(s, raw)
	if err != nil {
		return Settings{}, err
	}
	return s.withDefaults(), nil
}

func applyBoardFile(s Settings, raw []byte) (Settings, error) {
	var file boardFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Settings{}, fmt.Errorf("parse board config: %w", err)
	}

	if len(file.TerminalStatuses) > 0 {
		terminal, err := parseStatuses(file.TerminalStatuses)
		if err != nil {
			return Settings{}, err
		}
		s.TerminalStatuses = terminal
	}
	if file.SLAExpiryWindow != "" {
		d, err := time.ParseDuration(file.SLAExpiryWindow)
		if err != nil {
			return Settings{}, fmt.Errorf("board config slaExpiryWindow: %w", err)
		}
		s.ExpiryWindow = d
	}
	if file.AdvisorMinHealthChecks != nil {
		s.AdvisorMinHealthChecks = *file.AdvisorMinHealthChecks
	}
	if file.KPICacheTTL != "" {
		d, err := time.ParseDuration(file.KPICacheTTL)
		if err != nil {
			return Settings{}, fmt.Errorf("board config kpiCacheTTL: %w", err)
		}
		s.KPICacheTTL = d
	}
	if file.Timezone != "" {
		loc, err := time.LoadLocation(file.Timezone)
		if err != nil {
			return Settings{}, fmt.Errorf("board config timezone: %w", err)
		}
		s.Location = loc
	}
	return s, nil
}

func (s Settings) withDefaults() Settings {
	if len(s.TerminalStatuses) == 0 {
		s.TerminalStatuses = domain.DefaultTerminalStatuses
	}
	if s.ExpiryWindow <= 0 {
		s.ExpiryWindow = domain.DefaultExpiryWindow
	}
	if s.AdvisorMinHealthChecks <= 0 {
		s.AdvisorMinHealthChecks = domain.DefaultAdvisorMinHealthChecks
	}
	if s.Location == nil {
		s.Location = time.UTC
	}
	return s
}

func parseStatuses(values []string) ([]domain.Status, error) {
	out := make([]domain.Status, 0, len(values))
	for _, v := range values {
		s := domain.Status(strings.TrimSpace(v))
		if !s.IsKnown() {
			return nil, fmt.Errorf("unknown status %q in terminal set", v)
		}
		out = append(out, s)
	}
	return out, nil
}
