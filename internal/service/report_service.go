package service

import (
	"context"
	"fmt"

	"logistics/internal/model"
	"logistics/internal/period"
	"logistics/internal/repository"
)

type ReportService interface {
	// ODNSummary reports the period's delivery progress. "RRF not sent"
	// placeholders never count as ODNs, and a facility counts as RRF-sent
	// only through a real ODN.
	ODNSummary(ctx context.Context, p period.ReportingPeriod) (*model.ODNSummary, error)
}

type reportService struct {
	repo repository.ReportRepository
}

func NewReportService(repo repository.ReportRepository) ReportService {
	return &reportService{repo: repo}
}

func (s *reportService) ODNSummary(ctx context.Context, p period.ReportingPeriod) (*model.ODNSummary, error) {
	total, err := s.repo.CountScheduledFacilities(ctx, p.Parity())
	if err != nil {
		return nil, fmt.Errorf("failed to count facilities: %w", err)
	}
	rows, err := s.repo.RouteODNStats(ctx, p.String())
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate odns: %w", err)
	}

	summary := &model.ODNSummary{
		Period:          p.String(),
		TotalFacilities: total,
		Routes:          rows,
	}
	if summary.Routes == nil {
		summary.Routes = []model.RouteODNStats{}
	}
	for _, r := range rows {
		summary.RRFSentFacilities += r.RRFSentFacilities
		summary.TotalODNs += r.TotalODNs
		summary.DispatchedODNs += r.DispatchedODNs
		summary.PODConfirmed += r.PODConfirmed
		summary.DocumentsCompleted += r.DocumentsCompleted
		summary.QualityConfirmed += r.QualityConfirmed
	}
	return summary, nil
}
