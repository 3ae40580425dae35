package service

import (
	"context"
	"testing"

	"logistics/internal/model"
	"logistics/internal/period"
	"logistics/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestODNSummary(t *testing.T) {
	fx := newFixture(t)
	route := testutil.CreateRoute(t, fx.db, "AD-R-1")
	arada := testutil.CreateFacility(t, fx.db, "Arada HC", route, model.FacilityPeriodOdd)
	kirkos := testutil.CreateFacility(t, fx.db, "Kirkos HC", route, model.FacilityPeriodMonthly)
	testutil.CreateFacility(t, fx.db, "Lideta HC", route, model.FacilityPeriodEven)
	yeka := testutil.CreateFacility(t, fx.db, "Yeka HC", nil, model.FacilityPeriodOdd)

	dispatched := testutil.CreateProcess(t, fx.db, arada, tahsas, model.ProcessStatusVehicleRequested, "ODN-1", "ODN-2")
	testutil.CreateProcess(t, fx.db, kirkos, tahsas, model.ProcessStatusVehicleRequested, model.RRFNotSent)
	testutil.CreateProcess(t, fx.db, yeka, tahsas, model.ProcessStatusEWMCompleted, "ODN-9")
	testutil.CreateProcess(t, fx.db, arada, period.ReportingPeriod{Month: period.Hidar, Year: 2018},
		model.ProcessStatusVehicleRequested, "ODN-OLD")
	testutil.CreateAssignment(t, fx.db, route, tahsas, model.AssignmentStatusInProgress)

	require.NoError(t, fx.db.Model(&dispatched.ODNs[0]).Updates(map[string]interface{}{
		"pod_confirmed":      true,
		"documents_signed":   true,
		"documents_handover": true,
	}).Error)

	summary, err := fx.reports.ODNSummary(context.Background(), tahsas)
	require.NoError(t, err)

	assert.Equal(t, "Tahsas 2018", summary.Period)
	assert.EqualValues(t, 3, summary.TotalFacilities, "Odd and Monthly facilities are scheduled in Tahsas")
	assert.EqualValues(t, 2, summary.RRFSentFacilities, "a placeholder-only facility did not send an RRF")
	assert.EqualValues(t, 3, summary.TotalODNs)
	assert.EqualValues(t, 2, summary.DispatchedODNs)
	assert.EqualValues(t, 1, summary.PODConfirmed)
	assert.EqualValues(t, 1, summary.DocumentsCompleted)
	assert.EqualValues(t, 0, summary.QualityConfirmed)

	require.Len(t, summary.Routes, 2)
	assert.Nil(t, summary.Routes[0].RouteID, "facilities without a route sort first")
	assert.EqualValues(t, 1, summary.Routes[0].TotalODNs)
	require.NotNil(t, summary.Routes[1].RouteID)
	assert.Equal(t, route.ID, *summary.Routes[1].RouteID)
	assert.Equal(t, "AD-R-1", summary.Routes[1].RouteName)
	assert.EqualValues(t, 2, summary.Routes[1].DispatchedODNs)
}

func TestODNSummaryEmptyPeriod(t *testing.T) {
	fx := newFixture(t)

	summary, err := fx.reports.ODNSummary(context.Background(), tahsas)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalODNs)
	assert.NotNil(t, summary.Routes)
	assert.Empty(t, summary.Routes)
}
