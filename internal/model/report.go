package model

import "github.com/google/uuid"

// RouteODNStats is one row of the per-route ODN aggregation.
type RouteODNStats struct {
	RouteID            *uuid.UUID `json:"route_id"`
	RouteName          string     `json:"route_name"`
	RRFSentFacilities  int64      `gorm:"column:rrf_sent_facilities" json:"rrf_sent_facilities"`
	TotalODNs          int64      `gorm:"column:total_odns" json:"total_odns"`
	DispatchedODNs     int64      `gorm:"column:dispatched_odns" json:"dispatched_odns"`
	PODConfirmed       int64      `gorm:"column:pod_confirmed" json:"pod_confirmed"`
	DocumentsCompleted int64      `gorm:"column:documents_completed" json:"documents_completed"`
	QualityConfirmed   int64      `gorm:"column:quality_confirmed" json:"quality_confirmed"`
}

// ODNSummary is the period-wide delivery report.
type ODNSummary struct {
	Period             string          `json:"period"`
	TotalFacilities    int64           `json:"totalFacilities"`
	RRFSentFacilities  int64           `json:"rrfSentFacilities"`
	TotalODNs          int64           `json:"totalODNs"`
	DispatchedODNs     int64           `json:"dispatchedODNs"`
	PODConfirmed       int64           `json:"podConfirmed"`
	DocumentsCompleted int64           `json:"documentsCompleted"`
	QualityConfirmed   int64           `json:"qualityConfirmed"`
	Routes             []RouteODNStats `json:"routes"`
}
