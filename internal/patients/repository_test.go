package patients

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurolife88/amo-china/pkg/access"
	"github.com/neurolife88/amo-china/pkg/logger"
	"github.com/neurolife88/amo-china/pkg/types"
)

func setupTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewRepository(db, logger.New("debug"), nil)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

var listColumns = []string{
	"deal_id", "lead_id", "deal_name", "clinic_name", "pipeline_name",
	"status_name", "deal_country", "visa_city", "notes", "deal_created_at",
	"clinic_full_name", "clinic_address_chinese", "clinic_address_english",
	"patient_full_name", "patient_first_name", "patient_last_name",
	"patient_preferred_name", "patient_chinese_name", "patient_phone",
	"patient_email", "patient_country", "patient_city", "patient_passport",
	"arrival_datetime", "arrival_transport_type", "arrival_city",
	"arrival_flight_number", "arrival_terminal", "departure_airport_code",
	"passengers_count", "apartment_number", "china_entry_date",
	"departure_transport_type", "departure_city", "departure_datetime",
	"departure_flight_number", "visa_type", "visa_days",
	"visa_entries_count", "visa_corridor_start", "visa_corridor_end",
	"visa_expiry_date",
}

func TestRepository_ListRecords(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	arrival := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

	rows := sqlmock.NewRows(listColumns).AddRow(
		int64(101), int64(5001), "Treatment March", "Boya", "Main",
		types.DealStatusInProgress, "Russia", "Guangzhou", "first visit", created,
		"Boya Clinic", nil, nil,
		"Ivan Petrov", "Ivan", "Petrov",
		nil, "伊万", "+79990001122",
		nil, "Russia", "Moscow", nil,
		arrival, "plane", "Guangzhou",
		"SU204", "T2", "SVO",
		2, "12A", nil,
		nil, nil, nil,
		nil, "L", 30,
		1, nil, nil,
		nil,
	)

	mock.ExpectQuery("SELECT(.|\n)+FROM deals d").WillReturnRows(rows)

	records, err := repo.ListRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, int64(101), rec.DealID)
	assert.Equal(t, "Boya", rec.ClinicName)
	assert.Equal(t, "Ivan Petrov", rec.PatientFullName)
	require.NotNil(t, rec.PatientChineseName)
	assert.Equal(t, "伊万", *rec.PatientChineseName)
	require.NotNil(t, rec.VisaDays)
	assert.Equal(t, 30, *rec.VisaDays)
	assert.Nil(t, rec.DepartureDatetime)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetRecordClinic(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	mock.ExpectQuery("SELECT clinic_name FROM deals").
		WithArgs(int64(101)).
		WillReturnRows(sqlmock.NewRows([]string{"clinic_name"}).AddRow("Boya"))

	clinic, err := repo.GetRecordClinic(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, "Boya", clinic)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetRecordClinic_NotFound(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	mock.ExpectQuery("SELECT clinic_name FROM deals").
		WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"clinic_name"}))

	_, err := repo.GetRecordClinic(context.Background(), 999)
	require.Error(t, err)

	dashErr, ok := err.(*types.DashboardError)
	require.True(t, ok)
	assert.Equal(t, types.ErrorTypeNotFound, dashErr.Type)
}

func TestRepository_UpdateField_RoutesToBackingTable(t *testing.T) {
	tests := []struct {
		name  string
		field access.Field
		query string
	}{
		{"apartment number goes to tickets", access.FieldApartmentNumber, "UPDATE tickets SET apartment_number"},
		{"departure city goes to return_tickets", access.FieldDepartureCity, "UPDATE return_tickets SET departure_city"},
		{"chinese name goes to contacts", access.FieldPatientChineseName, "UPDATE contacts SET chinese_name"},
		{"status goes to deals", "status_name", "UPDATE deals SET status_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupTestRepository(t)
			defer cleanup()

			value := "new-value"
			mock.ExpectExec(tt.query).
				WithArgs(value, int64(101)).
				WillReturnResult(sqlmock.NewResult(0, 1))

			err := repo.UpdateField(context.Background(), 101, tt.field, &value, "user-1")
			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_UpdateField_UnknownField(t *testing.T) {
	repo, _, cleanup := setupTestRepository(t)
	defer cleanup()

	value := "x"
	err := repo.UpdateField(context.Background(), 101, "no_such_field", &value, "user-1")
	require.Error(t, err)

	dashErr, ok := err.(*types.DashboardError)
	require.True(t, ok)
	assert.Equal(t, types.ErrorTypeValidation, dashErr.Type)
}

func TestRepository_UpdateField_NotFound(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	value := "12B"
	mock.ExpectExec("UPDATE tickets SET apartment_number").
		WithArgs(value, int64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateField(context.Background(), 999, access.FieldApartmentNumber, &value, "user-1")
	require.Error(t, err)

	dashErr, ok := err.(*types.DashboardError)
	require.True(t, ok)
	assert.Equal(t, types.ErrorTypeNotFound, dashErr.Type)
}

func TestRepository_UpdateNotes_UsesFunction(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	notes := "patient prefers morning appointments"
	mock.ExpectQuery("SELECT update_deal_notes").
		WithArgs(int64(101), notes, "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"update_deal_notes"}).AddRow(true))

	err := repo.UpdateField(context.Background(), 101, access.FieldNotes, &notes, "user-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateChinaEntryDate_UsesFunction(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	date := "2026-03-15"
	mock.ExpectQuery("SELECT update_china_entry_date").
		WithArgs(int64(101), date).
		WillReturnRows(sqlmock.NewRows([]string{"update_china_entry_date"}).AddRow(true))

	err := repo.UpdateField(context.Background(), 101, access.FieldChinaEntryDate, &date, "user-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListRecords_QueryError(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	mock.ExpectQuery("SELECT(.|\n)+FROM deals d").
		WillReturnError(errors.New("connection refused"))

	_, err := repo.ListRecords(context.Background())
	require.Error(t, err)

	dashErr, ok := err.(*types.DashboardError)
	require.True(t, ok)
	assert.Equal(t, types.ErrorTypeInternal, dashErr.Type)
	assert.Equal(t, types.ErrCodeInternalError, dashErr.Code)
}

func TestRepository_GetProfile(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	userID := "5b3f2b9e-8f0a-4f4e-9c3b-2a1d7e6f5a10"
	clinic := "Boya"
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, email, full_name, role, clinic_name, is_active(.|\n)+FROM profiles").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "full_name", "role", "clinic_name", "is_active", "created_at", "updated_at",
		}).AddRow(userID, "coordinator@boya.cn", "Li Wei", "coordinator", clinic, true, created, created))

	profile, err := repo.GetProfile(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, userID, profile.ID)
	assert.Equal(t, access.RoleCoordinator, profile.Role)
	require.NotNil(t, profile.ClinicName)
	assert.Equal(t, clinic, *profile.ClinicName)
	assert.True(t, profile.IsActive)
}

func TestRepository_GetProfile_NotFound(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	userID := "9d2e4c51-7b3a-4e8f-b6c0-1f2a3d4e5b6c"
	mock.ExpectQuery("SELECT id, email, full_name, role, clinic_name, is_active(.|\n)+FROM profiles").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "full_name", "role", "clinic_name", "is_active", "created_at", "updated_at",
		}))

	_, err := repo.GetProfile(context.Background(), userID)
	require.Error(t, err)

	dashErr, ok := err.(*types.DashboardError)
	require.True(t, ok)
	assert.Equal(t, types.ErrorTypeNotFound, dashErr.Type)
}

func TestRepository_GetClinic(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	fullName := "Boya International Clinic"
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, name, full_name, address_chinese, address_english(.|\n)+FROM clinics").
		WithArgs("Boya").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "full_name", "address_chinese", "address_english", "created_at",
		}).AddRow("c1", "Boya", fullName, "北京市朝阳区", nil, created))

	clinic, err := repo.GetClinic(context.Background(), "Boya")
	require.NoError(t, err)

	assert.Equal(t, "Boya", clinic.Name)
	require.NotNil(t, clinic.FullName)
	assert.Equal(t, fullName, *clinic.FullName)
	assert.Nil(t, clinic.AddressEnglish)
}
