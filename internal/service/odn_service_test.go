package service

import (
	"context"
	"testing"
	"time"

	"logistics/internal/model"
	"logistics/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deliveredRoute struct {
	route      *model.Route
	process    *model.Process
	sentinel   *model.ODN
	assignment *model.RouteAssignment
}

// newDeliveredRoute builds a route whose vehicle has been requested and
// dispatched in Tahsas 2018, with the assignment in status.
func newDeliveredRoute(t *testing.T, fx *fixture, status string) deliveredRoute {
	t.Helper()
	route := testutil.CreateRoute(t, fx.db, "AD-R-"+uuid.NewString()[:4])
	f1 := testutil.CreateFacility(t, fx.db, "Arada HC", route, model.FacilityPeriodOdd)
	f2 := testutil.CreateFacility(t, fx.db, "Kirkos HC", route, model.FacilityPeriodOdd)
	process := testutil.CreateProcess(t, fx.db, f1, tahsas, model.ProcessStatusVehicleRequested, "ODN-1", "ODN-2")
	empty := testutil.CreateProcess(t, fx.db, f2, tahsas, model.ProcessStatusVehicleRequested, model.RRFNotSent)
	testutil.CreateVehicleRequest(t, fx.db, route, tahsas)
	assignment := testutil.CreateAssignment(t, fx.db, route, tahsas, status)
	return deliveredRoute{route: route, process: process, sentinel: &empty.ODNs[0], assignment: assignment}
}

func TestConfirmPODRequiresCompletedAssignment(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	dr := newDeliveredRoute(t, fx, model.AssignmentStatusInProgress)
	odnID := dr.process.ODNs[0].ID.String()

	_, err := fx.odns.ConfirmPOD(ctx, "", PODConfirmation{ODNID: odnID, PODConfirmed: boolPtr(true)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, model.AssignmentStatusInProgress, DetailsOf(err)["assignment_status"])

	require.NoError(t, fx.db.Model(dr.assignment).Update("status", model.AssignmentStatusCompleted).Error)

	odn, err := fx.odns.ConfirmPOD(ctx, "", PODConfirmation{ODNID: odnID, PODConfirmed: boolPtr(true), PODNumber: " POD-7 "})
	require.NoError(t, err)
	assert.True(t, odn.PODConfirmed)
	assert.Equal(t, model.ODNStatusDelivered, odn.Status)
	assert.Equal(t, "POD-7", odn.PODNumber)
	assert.NotNil(t, odn.PODConfirmedAt)
}

func TestConfirmPODRequiresVehicleRequestedProcess(t *testing.T) {
	fx := newFixture(t)
	facility := testutil.CreateFacility(t, fx.db, "Arada HC", nil, model.FacilityPeriodOdd)
	process := testutil.CreateProcess(t, fx.db, facility, tahsas, model.ProcessStatusEWMCompleted, "ODN-1")

	_, err := fx.odns.ConfirmPOD(context.Background(), "", PODConfirmation{ODNID: process.ODNs[0].ID.String(), PODConfirmed: boolPtr(true)})
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestConfirmPODNotDeliveredNeedsReason(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	dr := newDeliveredRoute(t, fx, model.AssignmentStatusCompleted)
	odnID := dr.process.ODNs[0].ID.String()

	_, err := fx.odns.ConfirmPOD(ctx, "", PODConfirmation{ODNID: odnID, PODConfirmed: boolPtr(false)})
	assert.ErrorIs(t, err, ErrValidation)

	odn, err := fx.odns.ConfirmPOD(ctx, "", PODConfirmation{ODNID: odnID, PODConfirmed: boolPtr(false), PODReason: "facility closed"})
	require.NoError(t, err)
	assert.False(t, odn.PODConfirmed)
	assert.Equal(t, model.ODNStatusNotDelivered, odn.Status)
	assert.Equal(t, "facility closed", odn.PODReason)
}

func TestChecklistOrdering(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	dr := newDeliveredRoute(t, fx, model.AssignmentStatusCompleted)
	odnID := dr.process.ODNs[0].ID.String()

	_, err := fx.odns.UpdateFollowup(ctx, "", FollowupUpdate{ODNID: odnID, DocumentsSigned: boolPtr(true)})
	assert.ErrorIs(t, err, ErrPrecondition, "follow-up before POD")

	_, err = fx.odns.EvaluateQuality(ctx, "", QualityEvaluation{ODNID: odnID, QualityConfirmed: boolPtr(true)})
	assert.ErrorIs(t, err, ErrPrecondition, "quality before documents")

	_, err = fx.odns.ConfirmPOD(ctx, "", PODConfirmation{ODNID: odnID, PODConfirmed: boolPtr(true)})
	require.NoError(t, err)

	odn, err := fx.odns.UpdateFollowup(ctx, "", FollowupUpdate{ODNID: odnID, DocumentsSigned: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, odn.DocumentsSigned)
	assert.False(t, odn.DocumentsHandover)

	_, err = fx.odns.EvaluateQuality(ctx, "", QualityEvaluation{ODNID: odnID, QualityConfirmed: boolPtr(true)})
	assert.ErrorIs(t, err, ErrPrecondition, "quality needs handover too")

	_, err = fx.odns.UpdateFollowup(ctx, "", FollowupUpdate{ODNID: odnID, DocumentsHandover: boolPtr(true)})
	require.NoError(t, err)

	_, err = fx.odns.ConfirmPOD(ctx, "", PODConfirmation{ODNID: odnID, PODConfirmed: boolPtr(false), PODReason: "oops"})
	assert.ErrorIs(t, err, ErrPrecondition, "POD withdrawal after documents")

	odn, err = fx.odns.EvaluateQuality(ctx, "", QualityEvaluation{ODNID: odnID, QualityConfirmed: boolPtr(true), QualityFeedback: "cold chain intact"})
	require.NoError(t, err)
	assert.True(t, odn.QualityConfirmed)
	assert.Equal(t, "cold chain intact", odn.QualityFeedback)

	_, err = fx.odns.UpdateFollowup(ctx, "", FollowupUpdate{ODNID: odnID, DocumentsSigned: boolPtr(false)})
	assert.ErrorIs(t, err, ErrPrecondition, "document withdrawal after quality")
}

func TestSentinelHasNoChecklist(t *testing.T) {
	fx := newFixture(t)
	dr := newDeliveredRoute(t, fx, model.AssignmentStatusCompleted)

	_, err := fx.odns.ConfirmPOD(context.Background(), "", PODConfirmation{ODNID: dr.sentinel.ID.String(), PODConfirmed: boolPtr(true)})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBulkConfirmPODPartialFailure(t *testing.T) {
	fx := newFixture(t)
	dr := newDeliveredRoute(t, fx, model.AssignmentStatusCompleted)

	res := fx.odns.BulkConfirmPOD(context.Background(), "", BulkPODRequest{Updates: []PODConfirmation{
		{ODNID: dr.process.ODNs[0].ID.String(), PODConfirmed: boolPtr(true)},
		{ODNID: dr.sentinel.ID.String(), PODConfirmed: boolPtr(true)},
		{ODNID: uuid.NewString(), PODConfirmed: boolPtr(true)},
		{ODNID: dr.process.ODNs[1].ID.String(), PODConfirmed: boolPtr(false)},
	}})

	assert.Equal(t, 4, res.TotalProcessed)
	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, 3, res.Failed)
	require.Len(t, res.Results, 4)

	assert.True(t, res.Results[0].Success)
	require.NotNil(t, res.Results[0].ODN)
	assert.True(t, res.Results[0].ODN.PODConfirmed)
	assert.False(t, res.Results[1].Success)
	assert.Contains(t, res.Results[1].Error, model.RRFNotSent)
	assert.Contains(t, res.Results[2].Error, "odn not found")
	assert.Contains(t, res.Results[3].Error, "pod_reason")

	var second model.ODN
	require.NoError(t, fx.db.First(&second, "id = ?", dr.process.ODNs[1].ID).Error)
	assert.False(t, second.PODConfirmed)
	assert.Equal(t, model.ODNStatusPending, second.Status)
}

func TestBulkConfirmPODWritesKilometerOnce(t *testing.T) {
	fx := newFixture(t)
	dr := newDeliveredRoute(t, fx, model.AssignmentStatusCompleted)
	require.NoError(t, fx.db.Model(dr.assignment).
		Update("departure_kilometer", decimal.NewNullDecimal(decimal.NewFromInt(1000))).Error)

	km := func(v int64) *decimal.Decimal {
		d := decimal.NewFromInt(v)
		return &d
	}
	third := testutil.CreateFacility(t, fx.db, "Lideta HC", dr.route, model.FacilityPeriodMonthly)
	extra := testutil.CreateProcess(t, fx.db, third, tahsas, model.ProcessStatusVehicleRequested, "ODN-3")

	res := fx.odns.BulkConfirmPOD(context.Background(), "", BulkPODRequest{Updates: []PODConfirmation{
		// Below departure: the whole item rolls back and does not claim the write.
		{ODNID: dr.process.ODNs[0].ID.String(), PODConfirmed: boolPtr(true), ArrivalKilometer: km(900)},
		{ODNID: dr.process.ODNs[1].ID.String(), PODConfirmed: boolPtr(true), ArrivalKilometer: km(1500)},
		{ODNID: extra.ODNs[0].ID.String(), PODConfirmed: boolPtr(true), ArrivalKilometer: km(1600)},
	}})

	assert.Equal(t, 2, res.Successful)
	assert.Equal(t, 1, res.Failed)
	assert.False(t, res.Results[0].Success)
	assert.Contains(t, res.Results[0].Error, "below departure_kilometer")

	var first model.ODN
	require.NoError(t, fx.db.First(&first, "id = ?", dr.process.ODNs[0].ID).Error)
	assert.False(t, first.PODConfirmed)

	var assignment model.RouteAssignment
	require.NoError(t, fx.db.First(&assignment, "id = ?", dr.assignment.ID).Error)
	require.True(t, assignment.ArrivalKilometer.Valid)
	assert.True(t, assignment.ArrivalKilometer.Decimal.Equal(decimal.NewFromInt(1500)), assignment.ArrivalKilometer.Decimal.String())
}

func TestBulkFollowupAndQuality(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	dr := newDeliveredRoute(t, fx, model.AssignmentStatusCompleted)
	a, b := dr.process.ODNs[0].ID.String(), dr.process.ODNs[1].ID.String()

	_, err := fx.odns.ConfirmPOD(ctx, "", PODConfirmation{ODNID: a, PODConfirmed: boolPtr(true)})
	require.NoError(t, err)

	res := fx.odns.BulkUpdateFollowup(ctx, "", BulkFollowupRequest{Updates: []FollowupUpdate{
		{ODNID: a, DocumentsSigned: boolPtr(true), DocumentsHandover: boolPtr(true)},
		{ODNID: b, DocumentsSigned: boolPtr(true), DocumentsHandover: boolPtr(true)},
	}})
	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, res.Results[1].Error, "after POD is confirmed")

	res = fx.odns.BulkEvaluateQuality(ctx, "", BulkQualityRequest{Updates: []QualityEvaluation{
		{ODNID: a, QualityConfirmed: boolPtr(true)},
		{ODNID: b, QualityConfirmed: boolPtr(true)},
	}})
	assert.Equal(t, 1, res.Successful)
	assert.True(t, res.Results[0].Success)
	assert.Contains(t, fx.events.names(), EventODNUpdated)
}

func TestListODNsByStage(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	dr := newDeliveredRoute(t, fx, model.AssignmentStatusCompleted)

	_, err := fx.odns.ConfirmPOD(ctx, "", PODConfirmation{ODNID: dr.process.ODNs[0].ID.String(), PODConfirmed: boolPtr(true)})
	require.NoError(t, err)

	all, total, err := fx.odns.List(ctx, ODNListQuery{Period: tahsas})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total, "sentinel is never listed")
	assert.Len(t, all, 2)

	_, _, err = fx.odns.List(ctx, ODNListQuery{Period: tahsas, Stage: "shipping"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestChecklistClosesWhenRequestDeleted(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	dr := newDeliveredRoute(t, fx, model.AssignmentStatusCompleted)
	odnID := dr.process.ODNs[0].ID.String()

	_, err := fx.odns.ConfirmPOD(ctx, "", PODConfirmation{ODNID: odnID, PODConfirmed: boolPtr(true)})
	require.NoError(t, err)
	_, err = fx.odns.UpdateFollowup(ctx, "", FollowupUpdate{ODNID: odnID, DocumentsSigned: boolPtr(true), DocumentsHandover: boolPtr(true)})
	require.NoError(t, err)

	require.NoError(t, fx.requests.Delete(ctx, "", dr.route.ID.String(), tahsas))

	var process model.Process
	require.NoError(t, fx.db.First(&process, "id = ?", dr.process.ID).Error)
	require.Equal(t, model.ProcessStatusEWMCompleted, process.Status)

	_, err = fx.odns.UpdateFollowup(ctx, "", FollowupUpdate{ODNID: odnID, DocumentsSigned: boolPtr(false)})
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, model.ProcessStatusEWMCompleted, DetailsOf(err)["process_status"])

	_, err = fx.odns.EvaluateQuality(ctx, "", QualityEvaluation{ODNID: odnID, QualityConfirmed: boolPtr(true)})
	assert.ErrorIs(t, err, ErrPrecondition)

	var odn model.ODN
	require.NoError(t, fx.db.First(&odn, "id = ?", odnID).Error)
	assert.True(t, odn.DocumentsSigned)
	assert.False(t, odn.QualityConfirmed)
}

func TestDocumentsLockedAfterNegativeQuality(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	dr := newDeliveredRoute(t, fx, model.AssignmentStatusCompleted)
	odnID := dr.process.ODNs[0].ID.String()

	_, err := fx.odns.ConfirmPOD(ctx, "", PODConfirmation{ODNID: odnID, PODConfirmed: boolPtr(true)})
	require.NoError(t, err)
	_, err = fx.odns.UpdateFollowup(ctx, "", FollowupUpdate{ODNID: odnID, DocumentsSigned: boolPtr(true), DocumentsHandover: boolPtr(true)})
	require.NoError(t, err)

	odn, err := fx.odns.EvaluateQuality(ctx, "", QualityEvaluation{ODNID: odnID, QualityConfirmed: boolPtr(false), QualityFeedback: "broken seals"})
	require.NoError(t, err)
	assert.False(t, odn.QualityConfirmed)
	assert.NotNil(t, odn.QualityEvaluatedAt)

	_, err = fx.odns.UpdateFollowup(ctx, "", FollowupUpdate{ODNID: odnID, DocumentsHandover: boolPtr(false)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Contains(t, err.Error(), "after quality was evaluated")
}

func TestListStageFollowsAssignmentGate(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	dr := newDeliveredRoute(t, fx, model.AssignmentStatusInProgress)

	pending, total, err := fx.odns.List(ctx, ODNListQuery{Period: tahsas, Stage: "pod"})
	require.NoError(t, err)
	assert.Zero(t, total, "assignment still on the road")
	assert.Empty(t, pending)

	require.NoError(t, fx.db.Model(dr.assignment).Update("status", model.AssignmentStatusCompleted).Error)
	ready, total, err := fx.odns.List(ctx, ODNListQuery{Period: tahsas, Stage: "pod"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, ready, 2)

	newer := testutil.CreateAssignment(t, fx.db, dr.route, tahsas, model.AssignmentStatusAssigned)
	require.NoError(t, fx.db.Model(newer).Update("created_at", time.Now().Add(time.Hour)).Error)
	_, total, err = fx.odns.List(ctx, ODNListQuery{Period: tahsas, Stage: "pod"})
	require.NoError(t, err)
	assert.Zero(t, total, "the newest assignment decides")
}
