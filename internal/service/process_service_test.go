package service

import (
	"context"
	"testing"

	"logistics/internal/model"
	"logistics/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeODNNumbers(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    []string
		wantErr bool
	}{
		{"trims and dedupes", []string{" ODN-1", "ODN-2", "ODN-1 "}, []string{"ODN-1", "ODN-2"}, false},
		{"sentinel alone is canonicalised", []string{"rrf NOT sent"}, []string{model.RRFNotSent}, false},
		{"sentinel with real odn", []string{model.RRFNotSent, "ODN-1"}, nil, true},
		{"blank entry", []string{"ODN-1", "  "}, nil, true},
		{"empty input", nil, []string{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := normalizeODNNumbers(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestProcessHappyPath(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	o2c := testutil.CreateUser(t, fx.db, model.RoleO2COfficer)
	ewm := testutil.CreateUser(t, fx.db, model.RoleEWMOfficer)

	route := testutil.CreateRoute(t, fx.db, "AD-R-1")
	facility := testutil.CreateFacility(t, fx.db, "Arada HC", route, model.FacilityPeriodOdd)

	// Month and year default to the clock's period.
	process, err := fx.processes.Start(ctx, o2c.ID.String(), StartProcessRequest{FacilityID: facility.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "Tahsas 2018", process.ReportingMonth)
	assert.Equal(t, model.ProcessStatusO2CStarted, process.Status)
	require.NotNil(t, process.StartedBy)
	assert.Equal(t, o2c.ID, *process.StartedBy)

	process, err = fx.processes.Complete(ctx, o2c.ID.String(), CompleteProcessRequest{
		ProcessID:  process.ID.String(),
		ODNNumbers: []string{"ODN-100", "ODN-101"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ProcessStatusCompleted, process.Status)
	assert.Len(t, process.ODNs, 2)
	assert.NotNil(t, process.O2CCompletedAt)

	process, err = fx.processes.EWMComplete(ctx, ewm.ID.String(), process.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.ProcessStatusEWMCompleted, process.Status)
	require.NotNil(t, process.EWMCompletedBy)
	assert.Equal(t, ewm.ID, *process.EWMCompletedBy)

	var actions []string
	require.NoError(t, fx.db.Model(&model.AuditLog{}).Pluck("action", &actions).Error)
	assert.ElementsMatch(t, []string{model.ActionStartProcess, model.ActionCompleteProcess, model.ActionEWMCompleteProcess}, actions)
	assert.Contains(t, fx.events.names(), EventProcessUpdated)
}

func TestStartProcessRejectsDuplicate(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	facility := testutil.CreateFacility(t, fx.db, "Arada HC", nil, model.FacilityPeriodOdd)

	req := StartProcessRequest{FacilityID: facility.ID.String(), Month: "Tahsas", Year: 2018}
	_, err := fx.processes.Start(ctx, "", req)
	require.NoError(t, err)

	_, err = fx.processes.Start(ctx, "", req)
	assert.ErrorIs(t, err, ErrConflict)

	// A different period is a different process.
	req.Month = "Tir"
	_, err = fx.processes.Start(ctx, "", req)
	assert.NoError(t, err)
}

func TestStartProcessUnknownFacility(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.processes.Start(context.Background(), "", StartProcessRequest{FacilityID: "3f0f3bb4-6c49-4d0c-9a3e-2f3f9b8c1a11"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteRequiresAnODN(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	facility := testutil.CreateFacility(t, fx.db, "Arada HC", nil, model.FacilityPeriodOdd)
	process := testutil.CreateProcess(t, fx.db, facility, tahsas, model.ProcessStatusO2CStarted)

	_, err := fx.processes.Complete(ctx, "", CompleteProcessRequest{ProcessID: process.ID.String()})
	assert.ErrorIs(t, err, ErrValidation)

	got, err := fx.processes.Complete(ctx, "", CompleteProcessRequest{ProcessID: process.ID.String(), ODNNumbers: []string{model.RRFNotSent}})
	require.NoError(t, err)
	assert.Equal(t, model.ProcessStatusCompleted, got.Status)
	require.Len(t, got.ODNs, 1)
	assert.True(t, got.ODNs[0].IsSentinel())
}

func TestSentinelCannotJoinRealODNs(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	facility := testutil.CreateFacility(t, fx.db, "Arada HC", nil, model.FacilityPeriodOdd)
	process := testutil.CreateProcess(t, fx.db, facility, tahsas, model.ProcessStatusO2CStarted, "ODN-1")

	_, err := fx.processes.AddODNs(ctx, "", process.ID.String(), AddODNsRequest{ODNNumbers: []string{model.RRFNotSent}})
	assert.ErrorIs(t, err, ErrValidation)

	got, err := fx.processes.AddODNs(ctx, "", process.ID.String(), AddODNsRequest{ODNNumbers: []string{"ODN-1", "ODN-2"}})
	require.NoError(t, err)
	assert.Len(t, got.ODNs, 2)
}

func TestEWMCompleteRequiresO2CCompletion(t *testing.T) {
	fx := newFixture(t)
	facility := testutil.CreateFacility(t, fx.db, "Arada HC", nil, model.FacilityPeriodOdd)
	process := testutil.CreateProcess(t, fx.db, facility, tahsas, model.ProcessStatusO2CStarted, "ODN-1")

	_, err := fx.processes.EWMComplete(context.Background(), "", process.ID.String())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, model.ProcessStatusO2CStarted, DetailsOf(err)["current_status"])
}

func TestEWMRevert(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	facility := testutil.CreateFacility(t, fx.db, "Arada HC", nil, model.FacilityPeriodOdd)

	process := testutil.CreateProcess(t, fx.db, facility, tahsas, model.ProcessStatusEWMCompleted, "ODN-1")
	got, err := fx.processes.EWMRevert(ctx, "", process.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.ProcessStatusO2CStarted, got.Status)
	assert.Nil(t, got.EWMCompletedAt)

	other := testutil.CreateFacility(t, fx.db, "Kirkos HC", nil, model.FacilityPeriodOdd)
	locked := testutil.CreateProcess(t, fx.db, other, tahsas, model.ProcessStatusVehicleRequested, "ODN-2")
	_, err = fx.processes.EWMRevert(ctx, "", locked.ID.String())
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestODNsFrozenAfterVehicleRequest(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	facility := testutil.CreateFacility(t, fx.db, "Arada HC", nil, model.FacilityPeriodOdd)
	process := testutil.CreateProcess(t, fx.db, facility, tahsas, model.ProcessStatusVehicleRequested, "ODN-1")

	_, err := fx.processes.AddODNs(ctx, "", process.ID.String(), AddODNsRequest{ODNNumbers: []string{"ODN-2"}})
	assert.ErrorIs(t, err, ErrPrecondition)

	err = fx.processes.DeleteODN(ctx, "", process.ODNs[0].ID.String())
	assert.ErrorIs(t, err, ErrPrecondition)

	_, err = fx.processes.Complete(ctx, "", CompleteProcessRequest{ProcessID: process.ID.String(), ODNNumbers: []string{"ODN-3"}})
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestDeleteProcessCascadesODNs(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	facility := testutil.CreateFacility(t, fx.db, "Arada HC", nil, model.FacilityPeriodOdd)
	process := testutil.CreateProcess(t, fx.db, facility, tahsas, model.ProcessStatusCompleted, "ODN-1", "ODN-2")

	require.NoError(t, fx.processes.Delete(ctx, "", process.ID.String()))

	var odns int64
	require.NoError(t, fx.db.Model(&model.ODN{}).Count(&odns).Error)
	assert.Zero(t, odns)

	_, err := fx.processes.Get(ctx, process.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, fx.events.names(), EventProcessDeleted)
}

func TestListProcesses(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateFacility(t, fx.db, "A", nil, model.FacilityPeriodOdd)
	b := testutil.CreateFacility(t, fx.db, "B", nil, model.FacilityPeriodOdd)
	testutil.CreateProcess(t, fx.db, a, tahsas, model.ProcessStatusCompleted, "ODN-1")
	testutil.CreateProcess(t, fx.db, b, tahsas, model.ProcessStatusEWMCompleted, "ODN-2")

	all, total, err := fx.processes.List(ctx, ProcessListQuery{Period: tahsas, Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	ewm, total, err := fx.processes.List(ctx, ProcessListQuery{Period: tahsas, Status: model.ProcessStatusEWMCompleted, Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, b.ID, ewm[0].FacilityID)
}
