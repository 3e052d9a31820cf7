package patients

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/neurolife88/amo-china/pkg/access"
	"github.com/neurolife88/amo-china/pkg/logger"
	"github.com/neurolife88/amo-china/pkg/monitoring"
	"github.com/neurolife88/amo-china/pkg/types"
)

// backing tables for single-field updates
const (
	tableDeals         = "deals"
	tableContacts      = "contacts"
	tableTickets       = "tickets"
	tableReturnTickets = "return_tickets"
	tableProfiles      = "profiles"
	tableClinics       = "clinics"
)

// fieldColumn routes a dashboard field to its backing table and column.
// Fields missing here are not updatable through the dashboard.
var fieldColumn = map[access.Field]struct {
	table  string
	column string
}{
	"deal_name":     {tableDeals, "deal_name"},
	"pipeline_name": {tableDeals, "pipeline_name"},
	"status_name":   {tableDeals, "status_name"},
	"deal_country":  {tableDeals, "deal_country"},
	"visa_city":     {tableDeals, "visa_city"},

	access.FieldPatientChineseName: {tableContacts, "chinese_name"},

	access.FieldApartmentNumber: {tableTickets, "apartment_number"},
	"arrival_datetime":          {tableTickets, "arrival_datetime"},
	"arrival_city":              {tableTickets, "arrival_city"},
	"arrival_flight_number":     {tableTickets, "arrival_flight_number"},
	"arrival_transport_type":    {tableTickets, "arrival_transport_type"},
	"passengers_count":          {tableTickets, "passengers_count"},

	access.FieldDepartureCity:          {tableReturnTickets, "departure_city"},
	access.FieldDepartureDatetime:      {tableReturnTickets, "departure_datetime"},
	access.FieldDepartureFlightNumber:  {tableReturnTickets, "departure_flight_number"},
	access.FieldDepartureTransportType: {tableReturnTickets, "departure_transport_type"},
}

// Repository handles patient dashboard data operations
type Repository struct {
	db      *sql.DB
	logger  *logger.Logger
	tracing *monitoring.TracingManager
}

// NewRepository creates a new patient repository. tracing may be nil.
func NewRepository(db *sql.DB, log *logger.Logger, tracing *monitoring.TracingManager) *Repository {
	return &Repository{
		db:      db,
		logger:  log,
		tracing: tracing,
	}
}

// startSpan opens a database span when tracing is enabled. The caller
// must End the returned span; without tracing it is nil.
func (r *Repository) startSpan(ctx context.Context, operation, table string) (context.Context, trace.Span) {
	if r.tracing == nil {
		return ctx, nil
	}
	return r.tracing.StartDatabaseSpan(ctx, operation, table)
}

func (r *Repository) spanError(span trace.Span, err error) {
	if span != nil {
		r.tracing.RecordError(span, err)
	}
}

const listRecordsQuery = `
	SELECT
		d.id AS deal_id,
		d.lead_id,
		d.deal_name,
		d.clinic_name,
		d.pipeline_name,
		d.status_name,
		d.deal_country,
		d.visa_city,
		d.notes,
		d.created_at AS deal_created_at,
		cl.full_name AS clinic_full_name,
		cl.address_chinese AS clinic_address_chinese,
		cl.address_english AS clinic_address_english,
		COALESCE(TRIM(CONCAT(c.first_name, ' ', c.last_name)), '') AS patient_full_name,
		c.first_name AS patient_first_name,
		c.last_name AS patient_last_name,
		c.preferred_name AS patient_preferred_name,
		c.chinese_name AS patient_chinese_name,
		c.phone AS patient_phone,
		c.email AS patient_email,
		c.country AS patient_country,
		c.city AS patient_city,
		c.passport AS patient_passport,
		t.arrival_datetime,
		t.arrival_transport_type,
		t.arrival_city,
		t.arrival_flight_number,
		t.arrival_terminal,
		t.departure_airport_code,
		t.passengers_count,
		t.apartment_number,
		t.china_entry_date,
		rt.departure_transport_type,
		rt.departure_city,
		rt.departure_datetime,
		rt.departure_flight_number,
		v.visa_type,
		v.visa_days,
		v.visa_entries_count,
		v.visa_corridor_start,
		v.visa_corridor_end,
		v.visa_expiry_date
	FROM deals d
	LEFT JOIN clinics cl ON cl.name = d.clinic_name
	LEFT JOIN contacts c ON c.deal_id = d.id
	LEFT JOIN tickets t ON t.deal_id = d.id
	LEFT JOIN return_tickets rt ON rt.deal_id = d.id
	LEFT JOIN visas v ON v.deal_id = d.id
	ORDER BY t.arrival_datetime ASC NULLS LAST`

// ListRecords loads every dashboard row. Row-level access filtering is
// the service's responsibility.
func (r *Repository) ListRecords(ctx context.Context) ([]types.PatientRecord, error) {
	start := time.Now()

	ctx, span := r.startSpan(ctx, "select", tableDeals)
	if span != nil {
		defer span.End()
	}

	rows, err := r.db.QueryContext(ctx, listRecordsQuery)
	if err != nil {
		r.logger.DatabaseOperation(ctx, "select", tableDeals, time.Since(start).Milliseconds(), false)
		r.spanError(span, err)
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to query patient records", err)
	}
	defer rows.Close()

	var records []types.PatientRecord
	for rows.Next() {
		var rec types.PatientRecord
		var clinicName sql.NullString

		err := rows.Scan(
			&rec.DealID,
			&rec.LeadID,
			&rec.DealName,
			&clinicName,
			&rec.PipelineName,
			&rec.StatusName,
			&rec.DealCountry,
			&rec.VisaCity,
			&rec.Notes,
			&rec.DealCreatedAt,
			&rec.ClinicFullName,
			&rec.ClinicAddressChinese,
			&rec.ClinicAddressEnglish,
			&rec.PatientFullName,
			&rec.PatientFirstName,
			&rec.PatientLastName,
			&rec.PatientPreferredName,
			&rec.PatientChineseName,
			&rec.PatientPhone,
			&rec.PatientEmail,
			&rec.PatientCountry,
			&rec.PatientCity,
			&rec.PatientPassport,
			&rec.ArrivalDatetime,
			&rec.ArrivalTransportType,
			&rec.ArrivalCity,
			&rec.ArrivalFlightNumber,
			&rec.ArrivalTerminal,
			&rec.DepartureAirportCode,
			&rec.PassengersCount,
			&rec.ApartmentNumber,
			&rec.ChinaEntryDate,
			&rec.DepartureTransportType,
			&rec.DepartureCity,
			&rec.DepartureDatetime,
			&rec.DepartureFlightNumber,
			&rec.VisaType,
			&rec.VisaDays,
			&rec.VisaEntriesCount,
			&rec.VisaCorridorStart,
			&rec.VisaCorridorEnd,
			&rec.VisaExpiryDate,
		)
		if err != nil {
			return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to scan patient record", err)
		}

		rec.ClinicName = clinicName.String
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to read patient records", err)
	}

	r.logger.DatabaseOperation(ctx, "select", tableDeals, time.Since(start).Milliseconds(), true)
	return records, nil
}

// GetRecordClinic returns the clinic that owns a deal. Used for the
// clinic-ownership gate before a mutation.
func (r *Repository) GetRecordClinic(ctx context.Context, dealID int64) (string, error) {
	var clinic sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT clinic_name FROM deals WHERE id = $1`, dealID).Scan(&clinic)
	if err == sql.ErrNoRows {
		return "", types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("deal %d not found", dealID))
	}
	if err != nil {
		return "", types.NewInternalError(types.ErrCodeInternalError, "failed to load deal clinic", err)
	}
	return clinic.String, nil
}

// UpdateField updates a single dashboard field, routing the write to
// the field's backing table. Notes and the China entry date go through
// their dedicated SQL functions.
func (r *Repository) UpdateField(ctx context.Context, dealID int64, field access.Field, value *string, updatedBy string) error {
	switch field {
	case access.FieldNotes:
		return r.updateNotes(ctx, dealID, value, updatedBy)
	case access.FieldChinaEntryDate:
		return r.updateChinaEntryDate(ctx, dealID, value)
	}

	target, ok := fieldColumn[field]
	if !ok {
		return types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("field %q is not updatable", field), nil)
	}

	start := time.Now()

	ctx, span := r.startSpan(ctx, "update", target.table)
	if span != nil {
		defer span.End()
	}

	var query string
	if target.table == tableDeals {
		query = fmt.Sprintf(
			`UPDATE %s SET %s = $1, updated_at = NOW() WHERE id = $2`,
			target.table, target.column)
	} else {
		query = fmt.Sprintf(
			`UPDATE %s SET %s = $1, updated_at = NOW() WHERE deal_id = $2`,
			target.table, target.column)
	}

	result, err := r.db.ExecContext(ctx, query, value, dealID)
	if err != nil {
		r.logger.DatabaseOperation(ctx, "update", target.table, time.Since(start).Milliseconds(), false)
		r.spanError(span, err)
		return types.NewInternalError(types.ErrCodeInternalError, fmt.Sprintf("failed to update %s", field), err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return types.NewInternalError(types.ErrCodeInternalError, "failed to read update result", err)
	}
	if affected == 0 {
		return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("deal %d not found", dealID))
	}

	r.logger.DatabaseOperation(ctx, "update", target.table, time.Since(start).Milliseconds(), true)
	return nil
}

// updateNotes updates deal notes through the update_deal_notes function
// so the updating user is recorded alongside the change.
func (r *Repository) updateNotes(ctx context.Context, dealID int64, notes *string, updatedBy string) error {
	start := time.Now()

	var found bool
	err := r.db.QueryRowContext(ctx,
		`SELECT update_deal_notes($1, $2, $3)`, dealID, notes, updatedBy).Scan(&found)
	if err != nil {
		r.logger.DatabaseOperation(ctx, "update_deal_notes", tableDeals, time.Since(start).Milliseconds(), false)
		return types.NewInternalError(types.ErrCodeInternalError, "failed to update notes", err)
	}
	if !found {
		return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("deal %d not found", dealID))
	}

	r.logger.DatabaseOperation(ctx, "update_deal_notes", tableDeals, time.Since(start).Milliseconds(), true)
	return nil
}

// updateChinaEntryDate updates the ticket's China entry date through
// the update_china_entry_date function.
func (r *Repository) updateChinaEntryDate(ctx context.Context, dealID int64, entryDate *string) error {
	start := time.Now()

	var found bool
	err := r.db.QueryRowContext(ctx,
		`SELECT update_china_entry_date($1, $2)`, dealID, entryDate).Scan(&found)
	if err != nil {
		r.logger.DatabaseOperation(ctx, "update_china_entry_date", tableTickets, time.Since(start).Milliseconds(), false)
		return types.NewInternalError(types.ErrCodeInternalError, "failed to update china entry date", err)
	}
	if !found {
		return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("deal %d not found", dealID))
	}

	r.logger.DatabaseOperation(ctx, "update_china_entry_date", tableTickets, time.Since(start).Milliseconds(), true)
	return nil
}

// GetProfile loads a dashboard user's stored profile.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*types.Profile, error) {
	start := time.Now()

	ctx, span := r.startSpan(ctx, "select", tableProfiles)
	if span != nil {
		defer span.End()
	}

	var profile types.Profile
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, role, clinic_name, is_active, created_at, updated_at
		 FROM profiles WHERE id = $1`, userID).Scan(
		&profile.ID,
		&profile.Email,
		&profile.FullName,
		&profile.Role,
		&profile.ClinicName,
		&profile.IsActive,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("profile %s not found", userID))
	}
	if err != nil {
		r.logger.DatabaseOperation(ctx, "select", tableProfiles, time.Since(start).Milliseconds(), false)
		r.spanError(span, err)
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to load profile", err)
	}

	r.logger.DatabaseOperation(ctx, "select", tableProfiles, time.Since(start).Milliseconds(), true)
	return &profile, nil
}

// GetClinic loads one clinic by its short name.
func (r *Repository) GetClinic(ctx context.Context, name string) (*types.Clinic, error) {
	start := time.Now()

	ctx, span := r.startSpan(ctx, "select", tableClinics)
	if span != nil {
		defer span.End()
	}

	var clinic types.Clinic
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, full_name, address_chinese, address_english, created_at
		 FROM clinics WHERE name = $1`, name).Scan(
		&clinic.ID,
		&clinic.Name,
		&clinic.FullName,
		&clinic.AddressChinese,
		&clinic.AddressEnglish,
		&clinic.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("clinic %q not found", name))
	}
	if err != nil {
		r.logger.DatabaseOperation(ctx, "select", tableClinics, time.Since(start).Milliseconds(), false)
		r.spanError(span, err)
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to load clinic", err)
	}

	r.logger.DatabaseOperation(ctx, "select", tableClinics, time.Since(start).Milliseconds(), true)
	return &clinic, nil
}
