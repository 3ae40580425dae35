package service

import (
	"context"
	"testing"

	"logistics/internal/model"
	"logistics/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssignmentRequest(route *model.Route, vehicle *model.Vehicle, driver *model.User) CreateRouteAssignmentRequest {
	return CreateRouteAssignmentRequest{
		RouteID:   route.ID.String(),
		VehicleID: vehicle.ID.String(),
		DriverID:  driver.ID.String(),
		Month:     "Tahsas",
		Year:      2018,
	}
}

func vehicleStatus(t *testing.T, fx *fixture, v *model.Vehicle) string {
	t.Helper()
	var got model.Vehicle
	require.NoError(t, fx.db.First(&got, "id = ?", v.ID).Error)
	return got.Status
}

func TestCreateAssignmentRequiresVehicleRequest(t *testing.T) {
	fx := newFixture(t)
	route := testutil.CreateRoute(t, fx.db, "AD-R-1")
	vehicle := testutil.CreateVehicle(t, fx.db, "ET-3-1001")
	driver := testutil.CreateUser(t, fx.db, model.RoleDriver)

	_, err := fx.assignments.Create(context.Background(), "", newAssignmentRequest(route, vehicle, driver))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Contains(t, err.Error(), "no vehicle request")
	assert.Equal(t, model.VehicleStatusAvailable, vehicleStatus(t, fx, vehicle))
}

func TestCreateAssignmentLifecycle(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	route := testutil.CreateRoute(t, fx.db, "AD-R-1")
	testutil.CreateVehicleRequest(t, fx.db, route, tahsas)
	vehicle := testutil.CreateVehicle(t, fx.db, "ET-3-1001")
	driver := testutil.CreateUser(t, fx.db, model.RoleDriver)
	deliverer := testutil.CreateUser(t, fx.db, model.RoleDeliverer)

	req := newAssignmentRequest(route, vehicle, driver)
	req.DelivererID = deliverer.ID.String()
	departure := decimal.NewFromInt(12500)
	req.DepartureKilometer = &departure

	assignment, err := fx.assignments.Create(ctx, "", req)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentStatusAssigned, assignment.Status)
	assert.Equal(t, "Tahsas 2018", assignment.EthiopianMonth)
	require.NotNil(t, assignment.DelivererID)
	assert.Equal(t, deliverer.ID, *assignment.DelivererID)
	assert.True(t, assignment.DepartureKilometer.Decimal.Equal(departure))
	assert.Equal(t, model.VehicleStatusInUse, vehicleStatus(t, fx, vehicle))

	_, err = fx.assignments.Create(ctx, "", newAssignmentRequest(route, vehicle, driver))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, model.VehicleStatusInUse, DetailsOf(err)["vehicle_status"])

	assignment, err = fx.assignments.UpdateStatus(ctx, "", assignment.ID.String(),
		UpdateAssignmentStatusRequest{Status: model.AssignmentStatusInProgress})
	require.NoError(t, err)
	assert.NotNil(t, assignment.DispatchedAt)
	assert.Nil(t, assignment.CompletedAt)
	assert.Equal(t, model.VehicleStatusInUse, vehicleStatus(t, fx, vehicle))

	assignment, err = fx.assignments.UpdateStatus(ctx, "", assignment.ID.String(),
		UpdateAssignmentStatusRequest{Status: model.AssignmentStatusCompleted})
	require.NoError(t, err)
	assert.NotNil(t, assignment.CompletedAt)
	assert.Equal(t, model.VehicleStatusAvailable, vehicleStatus(t, fx, vehicle))
	assert.Contains(t, fx.events.names(), EventAssignmentUpdated)
}

func TestCreateAssignmentChecksRoles(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	route := testutil.CreateRoute(t, fx.db, "AD-R-1")
	testutil.CreateVehicleRequest(t, fx.db, route, tahsas)
	vehicle := testutil.CreateVehicle(t, fx.db, "ET-3-1001")
	dispatcher := testutil.CreateUser(t, fx.db, model.RoleDispatcher)
	driver := testutil.CreateUser(t, fx.db, model.RoleDriver)

	_, err := fx.assignments.Create(ctx, "", newAssignmentRequest(route, vehicle, dispatcher))
	assert.ErrorIs(t, err, ErrValidation)

	req := newAssignmentRequest(route, vehicle, driver)
	req.DelivererID = driver.ID.String()
	_, err = fx.assignments.Create(ctx, "", req)
	assert.ErrorIs(t, err, ErrValidation)

	req = newAssignmentRequest(route, vehicle, driver)
	negative := decimal.NewFromInt(-1)
	req.DepartureKilometer = &negative
	_, err = fx.assignments.Create(ctx, "", req)
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, model.VehicleStatusAvailable, vehicleStatus(t, fx, vehicle))
}

func TestDeleteAssignmentReleasesVehicle(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	route := testutil.CreateRoute(t, fx.db, "AD-R-1")
	testutil.CreateVehicleRequest(t, fx.db, route, tahsas)
	vehicle := testutil.CreateVehicle(t, fx.db, "ET-3-1001")
	driver := testutil.CreateUser(t, fx.db, model.RoleDriver)

	assignment, err := fx.assignments.Create(ctx, "", newAssignmentRequest(route, vehicle, driver))
	require.NoError(t, err)
	require.Equal(t, model.VehicleStatusInUse, vehicleStatus(t, fx, vehicle))

	require.NoError(t, fx.assignments.Delete(ctx, "", assignment.ID.String()))
	assert.Equal(t, model.VehicleStatusAvailable, vehicleStatus(t, fx, vehicle))

	_, err = fx.assignments.Get(ctx, assignment.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAssignments(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	route := testutil.CreateRoute(t, fx.db, "AD-R-1")
	testutil.CreateAssignment(t, fx.db, route, tahsas, model.AssignmentStatusInProgress)
	testutil.CreateAssignment(t, fx.db, route, tahsas, model.AssignmentStatusCompleted)

	all, total, err := fx.assignments.List(ctx, RouteAssignmentListQuery{Period: tahsas})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	done, total, err := fx.assignments.List(ctx, RouteAssignmentListQuery{
		Period: tahsas, Status: model.AssignmentStatusCompleted, RouteID: route.ID.String(),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, done, 1)
	assert.Equal(t, model.AssignmentStatusCompleted, done[0].Status)

	_, _, err = fx.assignments.List(ctx, RouteAssignmentListQuery{Period: tahsas, Status: "Lost"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFinishedAssignmentKeepsReusedVehicle(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	route := testutil.CreateRoute(t, fx.db, "AD-R-1")
	testutil.CreateVehicleRequest(t, fx.db, route, tahsas)
	vehicle := testutil.CreateVehicle(t, fx.db, "ET-3-1001")
	driver := testutil.CreateUser(t, fx.db, model.RoleDriver)

	first, err := fx.assignments.Create(ctx, "", newAssignmentRequest(route, vehicle, driver))
	require.NoError(t, err)
	_, err = fx.assignments.UpdateStatus(ctx, "", first.ID.String(),
		UpdateAssignmentStatusRequest{Status: model.AssignmentStatusCancelled})
	require.NoError(t, err)
	require.Equal(t, model.VehicleStatusAvailable, vehicleStatus(t, fx, vehicle))

	second, err := fx.assignments.Create(ctx, "", newAssignmentRequest(route, vehicle, driver))
	require.NoError(t, err)
	_, err = fx.assignments.UpdateStatus(ctx, "", second.ID.String(),
		UpdateAssignmentStatusRequest{Status: model.AssignmentStatusInProgress})
	require.NoError(t, err)

	_, err = fx.assignments.UpdateStatus(ctx, "", first.ID.String(),
		UpdateAssignmentStatusRequest{Status: model.AssignmentStatusCompleted})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, model.AssignmentStatusCancelled, DetailsOf(err)["from"])
	assert.Equal(t, model.VehicleStatusInUse, vehicleStatus(t, fx, vehicle))

	require.NoError(t, fx.assignments.Delete(ctx, "", first.ID.String()))
	assert.Equal(t, model.VehicleStatusInUse, vehicleStatus(t, fx, vehicle))

	_, err = fx.assignments.UpdateStatus(ctx, "", second.ID.String(),
		UpdateAssignmentStatusRequest{Status: model.AssignmentStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, model.VehicleStatusAvailable, vehicleStatus(t, fx, vehicle))

	_, err = fx.assignments.UpdateStatus(ctx, "", second.ID.String(),
		UpdateAssignmentStatusRequest{Status: model.AssignmentStatusInProgress})
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestReleaseSkipsVehicleHeldElsewhere(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	route := testutil.CreateRoute(t, fx.db, "AD-R-1")
	testutil.CreateVehicleRequest(t, fx.db, route, tahsas)
	vehicle := testutil.CreateVehicle(t, fx.db, "ET-3-1001")
	driver := testutil.CreateUser(t, fx.db, model.RoleDriver)

	assignment, err := fx.assignments.Create(ctx, "", newAssignmentRequest(route, vehicle, driver))
	require.NoError(t, err)
	other := testutil.CreateAssignment(t, fx.db, route, tahsas, model.AssignmentStatusDelayed)
	require.NoError(t, fx.db.Model(other).Update("vehicle_id", vehicle.ID).Error)

	require.NoError(t, fx.assignments.Delete(ctx, "", assignment.ID.String()))
	assert.Equal(t, model.VehicleStatusInUse, vehicleStatus(t, fx, vehicle))
}
