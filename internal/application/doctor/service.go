package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/cerebrum/bofh-go/internal/domain"
	"github.com/cerebrum/bofh-go/internal/ports"
)

// Service runs setup diagnostics without logging in.
type Service struct {
	ConfigProvider ports.ConfigProvider
	HistoryStore   ports.HistoryStore
	Server         ports.ServerProbe
	ProbeTimeout   time.Duration

	// HistoryError is the error met while opening the store, if any.
	HistoryError error
}

// Run executes checks and returns a report. The error is set when any
// check failed.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("format %s, server %s", cfg.ConfigFormatVersion, cfg.Connection.URL)))

	if cfg.Connection.Insecure {
		checks = append(checks, warn("TLS", "certificate verification disabled"))
	} else if cfg.Connection.CertFile != "" {
		checks = append(checks, ok("TLS", "using CA bundle "+cfg.Connection.CertFile))
	} else {
		checks = append(checks, ok("TLS", "using system roots"))
	}

	checks = append(checks, s.historyCheck(cfg), s.serverCheck(ctx))

	report := domain.HealthReport{Checks: checks}
	if failed := report.Failed(); len(failed) > 0 {
		return report, fmt.Errorf("%s: %s", failed[0].Name, failed[0].Details)
	}
	return report, nil
}

func (s *Service) historyCheck(cfg domain.Config) domain.HealthCheck {
	if s.HistoryError != nil {
		return warn("History", s.HistoryError.Error())
	}
	if s.HistoryStore == nil {
		return warn("History", "store not initialized")
	}
	if _, err := s.HistoryStore.LoadRecent(1); err != nil {
		return warn("History", err.Error())
	}
	backend := cfg.History.Backend
	if backend == "" {
		backend = "file"
	}
	return ok("History", backend+" backend readable")
}

func (s *Service) serverCheck(ctx context.Context) domain.HealthCheck {
	if s.Server == nil {
		return warn("Server", "no transport configured")
	}
	timeout := s.ProbeTimeout
	if timeout <= 0 {
		timeout = domain.DefaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	if _, err := s.Server.MOTD(ctx); err != nil {
		return fail("Server", err.Error())
	}
	return ok("Server", fmt.Sprintf("reachable in %s", time.Since(started).Round(time.Millisecond)))
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
