package patients

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/neurolife88/amo-china/pkg/access"
	"github.com/neurolife88/amo-china/pkg/logger"
	"github.com/neurolife88/amo-china/pkg/types"
)

const exportSheet = "Patients"

// exportColumn describes one spreadsheet column: its header, the field
// it renders (for visibility checks), and how to extract the value.
type exportColumn struct {
	header string
	field  access.Field
	value  func(rec *types.PatientRecord) interface{}
}

// Exporter renders dashboard rows into an Excel workbook. Columns the
// caller's role may not see are omitted from the sheet entirely, not
// just blanked.
type Exporter struct {
	logger *logger.Logger
}

// NewExporter creates a new dashboard exporter
func NewExporter(log *logger.Logger) *Exporter {
	return &Exporter{logger: log}
}

var exportColumns = []exportColumn{
	{"Deal ID", "", func(r *types.PatientRecord) interface{} { return r.DealID }},
	{"Patient", access.FieldPatientFullName, func(r *types.PatientRecord) interface{} { return r.PatientFullName }},
	{"Chinese Name", access.FieldPatientChineseName, func(r *types.PatientRecord) interface{} { return strValue(r.PatientChineseName) }},
	{"Clinic", access.FieldClinicName, func(r *types.PatientRecord) interface{} { return r.ClinicName }},
	{"Status", access.FieldStatusName, func(r *types.PatientRecord) interface{} { return strValue(r.StatusName) }},
	{"Arrival", "", func(r *types.PatientRecord) interface{} { return timeValue(r.ArrivalDatetime) }},
	{"Arrival City", "", func(r *types.PatientRecord) interface{} { return strValue(r.ArrivalCity) }},
	{"Arrival Flight", "", func(r *types.PatientRecord) interface{} { return strValue(r.ArrivalFlightNumber) }},
	{"Apartment", access.FieldApartmentNumber, func(r *types.PatientRecord) interface{} { return strValue(r.ApartmentNumber) }},
	{"Departure", access.FieldDepartureDatetime, func(r *types.PatientRecord) interface{} { return timeValue(r.DepartureDatetime) }},
	{"Departure City", access.FieldDepartureCity, func(r *types.PatientRecord) interface{} { return strValue(r.DepartureCity) }},
	{"Departure Flight", access.FieldDepartureFlightNumber, func(r *types.PatientRecord) interface{} { return strValue(r.DepartureFlightNumber) }},
	{"China Entry", access.FieldChinaEntryDate, func(r *types.PatientRecord) interface{} { return dateValue(r.ChinaEntryDate) }},
	{"Visa Expiry", "", func(r *types.PatientRecord) interface{} { return dateValue(r.VisaExpiryDate) }},
	{"Last Day in China", "", func(r *types.PatientRecord) interface{} { return dateValue(r.LastDayInChina) }},
	{"Visa Status", "", func(r *types.PatientRecord) interface{} { return visaStatusValue(r.VisaStatus) }},
	{"Notes", access.FieldNotes, func(r *types.PatientRecord) interface{} { return strValue(r.Notes) }},
}

// Build renders the records into a workbook, skipping columns hidden
// from the caller's role.
func (e *Exporter) Build(records []types.PatientRecord, eval *access.Evaluator) (*excelize.File, error) {
	columns := make([]exportColumn, 0, len(exportColumns))
	for _, col := range exportColumns {
		if col.field != "" && !eval.ShouldShowField(col.field, access.GroupBasic) {
			continue
		}
		columns = append(columns, col)
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", exportSheet)

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(exportSheet, cell, col.header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"1B4F72"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(exportSheet, "A1", lastCol, style); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for rowIdx := range records {
		rec := &records[rowIdx]
		for colIdx, col := range columns {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("failed to compute cell: %w", err)
			}
			if err := f.SetCellValue(exportSheet, cell, col.value(rec)); err != nil {
				return nil, fmt.Errorf("failed to write cell: %w", err)
			}
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"rows":    len(records),
		"columns": len(columns),
	}).Info("Export workbook built")

	return f, nil
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timeValue(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func dateValue(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func visaStatusValue(s *types.VisaStatus) string {
	if s == nil {
		return ""
	}
	return string(*s)
}
