package readiness

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fieldline/equipcat/internal/domain"
)

// storedReport is the serialized form of a Report.
type storedReport struct {
	Ready  bool          `json:"ready"`
	RanAt  time.Time     `json:"ran_at"`
	Checks []storedCheck `json:"checks"`
}

type storedCheck struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Detail     string `json:"detail,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

func (s *Service) saveReport(ctx context.Context, report Report) error {
	stored := storedReport{
		Ready:  report.Ready,
		RanAt:  report.RanAt,
		Checks: make([]storedCheck, len(report.Checks)),
	}
	for i, c := range report.Checks {
		stored.Checks[i] = storedCheck{
			Name:       c.Name,
			Status:     string(c.Status),
			Detail:     c.Detail,
			DurationMs: c.Duration.Milliseconds(),
		}
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := s.reports.SaveLast(ctx, data, report.RanAt); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// Last returns the most recent persisted report. Returns ErrNotFound when no
// run has been recorded or no store is configured.
func (s *Service) Last(ctx context.Context) (Report, error) {
	if s.reports == nil {
		return Report{}, fmt.Errorf("no report store configured: %w", domain.ErrNotFound)
	}

	data, err := s.reports.Last(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load last report: %w", err)
	}

	var stored storedReport
	if err := json.Unmarshal(data, &stored); err != nil {
		return Report{}, fmt.Errorf("decode last report: %w", err)
	}

	report := Report{
		Ready:  stored.Ready,
		RanAt:  stored.RanAt,
		Checks: make([]Check, len(stored.Checks)),
	}
	for i, c := range stored.Checks {
		report.Checks[i] = Check{
			Name:     c.Name,
			Status:   CheckStatus(c.Status),
			Detail:   c.Detail,
			Duration: time.Duration(c.DurationMs) * time.Millisecond,
		}
	}
	return report, nil
}
