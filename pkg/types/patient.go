package types

import "time"

// VisaStatus represents the derived visa state of a patient
type VisaStatus string

const (
	VisaStatusActive       VisaStatus = "Active"
	VisaStatusExpiringSoon VisaStatus = "Expiring Soon"
	VisaStatusExpired      VisaStatus = "Expired"
)

// Deal pipeline statuses as they arrive from the CRM
const (
	DealStatusInProgress = "В работе"
	DealStatusWon        = "Успешно реализовано"
	DealStatusLost       = "Закрыто и не реализовано"
)

// PatientRecord represents one row of the patient dashboard. The row is
// assembled from the deals, contacts, tickets and return_tickets tables.
type PatientRecord struct {
	DealID   int64  `json:"deal_id" db:"deal_id"`
	LeadID   *int64 `json:"lead_id,omitempty" db:"lead_id"`
	DealName string `json:"deal_name" db:"deal_name"`

	PatientFullName      string  `json:"patient_full_name" db:"patient_full_name"`
	PatientFirstName     *string `json:"patient_first_name,omitempty" db:"patient_first_name"`
	PatientLastName      *string `json:"patient_last_name,omitempty" db:"patient_last_name"`
	PatientPreferredName *string `json:"patient_preferred_name,omitempty" db:"patient_preferred_name"`
	PatientChineseName   *string `json:"patient_chinese_name,omitempty" db:"patient_chinese_name"`
	PatientPhone         *string `json:"patient_phone,omitempty" db:"patient_phone"`
	PatientEmail         *string `json:"patient_email,omitempty" db:"patient_email"`
	PatientBirthday      *string `json:"patient_birthday,omitempty" db:"patient_birthday"`
	PatientCountry       *string `json:"patient_country,omitempty" db:"patient_country"`
	PatientCity          *string `json:"patient_city,omitempty" db:"patient_city"`
	PatientPassport      *string `json:"patient_passport,omitempty" db:"patient_passport"`

	ClinicName            string  `json:"clinic_name" db:"clinic_name"`
	ClinicFullName        *string `json:"clinic_full_name,omitempty" db:"clinic_full_name"`
	ClinicAddressChinese  *string `json:"clinic_address_chinese,omitempty" db:"clinic_address_chinese"`
	ClinicAddressEnglish  *string `json:"clinic_address_english,omitempty" db:"clinic_address_english"`

	PipelineName *string `json:"pipeline_name,omitempty" db:"pipeline_name"`
	StatusName   *string `json:"status_name,omitempty" db:"status_name"`
	DealCountry  *string `json:"deal_country,omitempty" db:"deal_country"`
	Notes        *string `json:"notes,omitempty" db:"notes"`

	ArrivalDatetime      *time.Time `json:"arrival_datetime,omitempty" db:"arrival_datetime"`
	ArrivalTransportType *string    `json:"arrival_transport_type,omitempty" db:"arrival_transport_type"`
	ArrivalCity          *string    `json:"arrival_city,omitempty" db:"arrival_city"`
	ArrivalFlightNumber  *string    `json:"arrival_flight_number,omitempty" db:"arrival_flight_number"`
	ArrivalTerminal      *string    `json:"arrival_terminal,omitempty" db:"arrival_terminal"`
	DepartureAirportCode *string    `json:"departure_airport_code,omitempty" db:"departure_airport_code"`
	PassengersCount      *int       `json:"passengers_count,omitempty" db:"passengers_count"`
	ApartmentNumber      *string    `json:"apartment_number,omitempty" db:"apartment_number"`

	DepartureTransportType *string    `json:"departure_transport_type,omitempty" db:"departure_transport_type"`
	DepartureCity          *string    `json:"departure_city,omitempty" db:"departure_city"`
	DepartureDatetime      *time.Time `json:"departure_datetime,omitempty" db:"departure_datetime"`
	DepartureFlightNumber  *string    `json:"departure_flight_number,omitempty" db:"departure_flight_number"`

	VisaType             *string    `json:"visa_type,omitempty" db:"visa_type"`
	VisaCity             *string    `json:"visa_city,omitempty" db:"visa_city"`
	VisaDays             *int       `json:"visa_days,omitempty" db:"visa_days"`
	VisaEntriesCount     *int       `json:"visa_entries_count,omitempty" db:"visa_entries_count"`
	VisaCorridorStart    *time.Time `json:"visa_corridor_start,omitempty" db:"visa_corridor_start"`
	VisaCorridorEnd      *time.Time `json:"visa_corridor_end,omitempty" db:"visa_corridor_end"`
	ChinaEntryDate       *time.Time `json:"china_entry_date,omitempty" db:"china_entry_date"`
	VisaExpiryDate       *time.Time `json:"visa_expiry_date,omitempty" db:"visa_expiry_date"`
	LastDayInChina       *time.Time `json:"last_day_in_china,omitempty" db:"last_day_in_china"`
	DaysUntilVisaExpires *int       `json:"days_until_visa_expires,omitempty" db:"days_until_visa_expires"`
	VisaStatus           *VisaStatus `json:"visa_status,omitempty" db:"visa_status"`

	DealCreatedAt time.Time `json:"deal_created_at" db:"deal_created_at"`
}

// PatientFilters represents query filters for the dashboard listing
type PatientFilters struct {
	Clinic               string `json:"clinic,omitempty"`
	Search               string `json:"search,omitempty"`
	DepartureAirportCode string `json:"departure_airport_code,omitempty"`
	ArrivalCity          string `json:"arrival_city,omitempty"`
}

// PatientFieldUpdate represents a single-field mutation request against
// a dashboard row
type PatientFieldUpdate struct {
	Field      string `json:"field"`
	Value      *string `json:"value"`
	FieldGroup string `json:"field_group,omitempty"`
}
