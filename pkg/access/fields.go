package access

// FieldGroup names the logical dashboard section a field is rendered within.
// The same field can appear in several groups and its visibility or
// editability may differ by group.
type FieldGroup string

const (
	GroupBasic     FieldGroup = "basic"
	GroupArrival   FieldGroup = "arrival"
	GroupDeparture FieldGroup = "departure"
	GroupTreatment FieldGroup = "treatment"
	GroupVisa      FieldGroup = "visa"
	GroupPersonal  FieldGroup = "personal"
)

// FieldGroups lists every defined field group.
var FieldGroups = []FieldGroup{
	GroupBasic,
	GroupArrival,
	GroupDeparture,
	GroupTreatment,
	GroupVisa,
	GroupPersonal,
}

// Field identifies a patient-record field in the dashboard vocabulary
type Field string

const (
	FieldApartmentNumber        Field = "apartment_number"
	FieldDepartureCity          Field = "departure_city"
	FieldDepartureDatetime      Field = "departure_datetime"
	FieldDepartureFlightNumber  Field = "departure_flight_number"
	FieldDepartureTransportType Field = "departure_transport_type"
	FieldNotes                  Field = "notes"
	FieldChinaEntryDate         Field = "china_entry_date"
	FieldPatientChineseName     Field = "patient_chinese_name"
	FieldClinicName             Field = "clinic_name"
	FieldStatusName             Field = "status_name"
	FieldPatientFullName        Field = "patient_full_name"
)

// clinicScopedFields marks fields whose edits are restricted to the
// coordinator's own clinic. The clinic-ownership gate applies to every
// field edit for coordinators; the flag exists so that the restriction
// stays declared next to the field vocabulary rather than buried in the
// evaluator's switch.
var clinicScopedFields = map[Field]bool{
	FieldNotes: true,
}

// coordinatorHiddenFields lists fields a coordinator never sees in any
// field group. Coordinators are scoped to a single clinic and have no
// need for cross-clinic metadata.
var coordinatorHiddenFields = map[Field]bool{
	FieldClinicName: true,
	FieldStatusName: true,
}
