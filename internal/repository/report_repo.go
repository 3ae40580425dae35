package repository

import (
	"context"

	"logistics/internal/model"
	"logistics/internal/period"

	"gorm.io/gorm"
)

type ReportRepository interface {
	// RouteODNStats aggregates the period's real ODNs per route. Facilities
	// without a route are grouped under a nil route id.
	RouteODNStats(ctx context.Context, reportingMonth string) ([]model.RouteODNStats, error)
	CountScheduledFacilities(ctx context.Context, parity period.Parity) (int64, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// An ODN is dispatched once its process is vehicle_requested and a vehicle
// is on the road (or back) for the route in the same period.
const routeODNStatsSQL = `
SELECT
	f.route_id AS route_id,
	COALESCE(r.name, '') AS route_name,
	COUNT(DISTINCT f.id) AS rrf_sent_facilities,
	COUNT(o.id) AS total_odns,
	SUM(CASE WHEN p.status = ? AND EXISTS (
		SELECT 1 FROM route_assignments ra
		WHERE ra.route_id = f.route_id
		  AND ra.ethiopian_month = p.reporting_month
		  AND ra.status IN (?, ?)
	) THEN 1 ELSE 0 END) AS dispatched_odns,
	SUM(CASE WHEN o.pod_confirmed THEN 1 ELSE 0 END) AS pod_confirmed,
	SUM(CASE WHEN o.documents_signed AND o.documents_handover THEN 1 ELSE 0 END) AS documents_completed,
	SUM(CASE WHEN o.quality_confirmed THEN 1 ELSE 0 END) AS quality_confirmed
FROM facilities f
JOIN processes p ON p.facility_id = f.id AND p.reporting_month = ?
JOIN odns o ON o.process_id = p.id AND o.odn_number <> ?
LEFT JOIN routes r ON r.id = f.route_id
GROUP BY f.route_id, r.name
ORDER BY route_name ASC`

func (r *reportRepository) RouteODNStats(ctx context.Context, reportingMonth string) ([]model.RouteODNStats, error) {
	var rows []model.RouteODNStats
	err := GetDB(ctx, r.db).Raw(routeODNStatsSQL,
		model.ProcessStatusVehicleRequested,
		model.AssignmentStatusInProgress, model.AssignmentStatusCompleted,
		reportingMonth,
		model.RRFNotSent,
	).Scan(&rows).Error
	return rows, err
}

func (r *reportRepository) CountScheduledFacilities(ctx context.Context, parity period.Parity) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Facility{}).
		Where("period = ? OR period = ?", model.FacilityPeriodMonthly, string(parity)).
		Count(&total).Error
	return total, err
}
