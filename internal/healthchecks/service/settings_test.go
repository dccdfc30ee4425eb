package service

import (
	"testing"
	"time"

	"vhc_backend/internal/healthchecks/domain"
	"vhc_backend/internal/healthchecks/transport"
	"vhc_backend/platform/apperr"

	"github.com/google/uuid"
)

func TestApplyBoardFileOverridesEnvironment(t *testing.T) {
	base := Settings{ExpiryWindow: time.Hour, AdvisorMinHealthChecks: 3}
	raw := []byte(`
terminalStatuses: [completed, cancelled]
slaExpiryWindow: 12h
advisorMinHealthChecks: 8
kpiCacheTTL: 5m
timezone: Europe/London
`)

	s, err := applyBoardFile(base, raw)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(s.TerminalStatuses) != 2 || s.TerminalStatuses[1] != domain.StatusCancelled {
		t.Fatalf("unexpected terminal set %v", s.TerminalStatuses)
	}
	if s.ExpiryWindow != 12*time.Hour || s.AdvisorMinHealthChecks != 8 || s.KPICacheTTL != 5*time.Minute {
		t.Fatalf("unexpected settings %+v", s)
	}
	if s.Location == nil || s.Location.String() != "Europe/London" {
		t.Fatalf("unexpected location %v", s.Location)
	}
}

func TestApplyBoardFileKeepsUnsetFields(t *testing.T) {
	base := Settings{ExpiryWindow: time.Hour, AdvisorMinHealthChecks: 3}

	s, err := applyBoardFile(base, []byte("kpiCacheTTL: 30s\n"))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if s.ExpiryWindow != time.Hour || s.AdvisorMinHealthChecks != 3 || s.KPICacheTTL != 30*time.Second {
		t.Fatalf("unexpected settings %+v", s)
	}
}

func TestApplyBoardFileRejectsUnknownStatus(t *testing.T) {
	if _, err := applyBoardFile(Settings{}, []byte("terminalStatuses: [archived]\n")); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestApplyBoardFileRejectsBadDuration(t *testing.T) {
	if _, err := applyBoardFile(Settings{}, []byte("slaExpiryWindow: soon\n")); err == nil {
		t.Fatal("expected error for malformed duration")
	}
}

func TestSettingsDefaults(t *testing.T) {
	s := Settings{}.withDefaults()
	if len(s.TerminalStatuses) != len(domain.DefaultTerminalStatuses) {
		t.Fatalf("expected default terminal set, got %v", s.TerminalStatuses)
	}
	if s.ExpiryWindow != domain.DefaultExpiryWindow || s.AdvisorMinHealthChecks != domain.DefaultAdvisorMinHealthChecks {
		t.Fatalf("unexpected defaults %+v", s)
	}
	if s.Location != time.UTC {
		t.Fatalf("expected UTC, got %v", s.Location)
	}
}

func TestParseBoardQuery(t *testing.T) {
	site := uuid.New()

	f, err := ParseBoardQuery(transport.BoardQuery{SiteID: site.String()})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.SiteID == nil || *f.SiteID != site || f.TechnicianID != nil || f.AdvisorID != nil {
		t.Fatalf("unexpected filter %+v", f)
	}

	if _, err := ParseBoardQuery(transport.BoardQuery{AdvisorID: "x"}); err == nil {
		t.Fatal("expected error for malformed advisorId")
	}
}

func TestParseKPIQuery(t *testing.T) {
	site := uuid.New()

	got, err := ParseKPIQuery(transport.KPIQuery{SiteID: site.String()})
	if err != nil || got == nil || *got != site {
		t.Fatalf("expected site %s, got %v (err %v)", site, got, err)
	}

	got, err = ParseKPIQuery(transport.KPIQuery{})
	if err != nil || got != nil {
		t.Fatalf("expected no site filter, got %v (err %v)", got, err)
	}

	_, err = ParseKPIQuery(transport.KPIQuery{SiteID: "x"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for malformed siteId, got %v", err)
	}
}

func TestKPICacheKey(t *testing.T) {
	org, site := uuid.New(), uuid.New()

	if got := kpiCacheKey(org, nil, "2024-03"); got != "kpi:"+org.String()+":all:2024-03" {
		t.Fatalf("unexpected key %s", got)
	}
	if got := kpiCacheKey(org, &site, "2024-03"); got != "kpi:"+org.String()+":"+site.String()+":2024-03" {
		t.Fatalf("unexpected key %s", got)
	}
}
