package patients

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/neurolife88/amo-china/pkg/access"
	"github.com/neurolife88/amo-china/pkg/logger"
	"github.com/neurolife88/amo-china/pkg/monitoring"
	"github.com/neurolife88/amo-china/pkg/types"
)

// visaExpiryWarningDays is the window before expiry in which a visa is
// reported as expiring soon.
const visaExpiryWarningDays = 7

// Service applies role- and clinic-scoped access rules on top of the
// repository. Every read is filtered and redacted, every write is
// gated, before it reaches storage.
type Service struct {
	repo    *Repository
	logger  *logger.Logger
	metrics *monitoring.MetricsCollector
	tracing *monitoring.TracingManager
}

// NewService creates a new patient dashboard service. tracing may be
// nil.
func NewService(repo *Repository, log *logger.Logger, metrics *monitoring.MetricsCollector, tracing *monitoring.TracingManager) *Service {
	return &Service{
		repo:    repo,
		logger:  log,
		metrics: metrics,
		tracing: tracing,
	}
}

// ListPatients returns the dashboard rows the user is allowed to see,
// with hidden fields cleared and visa state derived. Coordinators only
// receive rows from their own clinic; the clinic filter narrows further
// for roles that see everything.
func (s *Service) ListPatients(ctx context.Context, user access.UserContext, filters types.PatientFilters) ([]types.PatientRecord, error) {
	eval := access.NewEvaluator(user)

	if !eval.Can(access.PermissionViewAllPatients) && !eval.Can(access.PermissionViewOwnClinicPatients) {
		s.metrics.RecordAccessDecision(string(user.Role), "list_patients", false)
		return nil, types.NewAuthorizationError(types.ErrCodeForbidden, "role may not view patients")
	}

	records, err := s.repo.ListRecords(ctx)
	if err != nil {
		s.metrics.RecordSystemError("database", "patients")
		return nil, err
	}

	now := time.Now()
	result := make([]types.PatientRecord, 0, len(records))
	for _, rec := range records {
		if !eval.CanView(rec.ClinicName) {
			continue
		}
		if !matchesFilters(&rec, filters) {
			continue
		}

		redactRecord(&rec, eval)
		deriveVisaState(&rec, now)
		result = append(result, rec)
	}

	s.metrics.RecordAccessDecision(string(user.Role), "list_patients", true)
	s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"user_role": user.Role,
		"returned":  len(result),
		"total":     len(records),
	}).Debug("Patient list filtered")

	return result, nil
}

// UpdateField applies a single-field edit after re-checking the edit
// rule against the record's owning clinic. The check runs here even
// when the client already ran it: the server decision is the one that
// counts.
func (s *Service) UpdateField(ctx context.Context, user access.UserContext, dealID int64, update types.PatientFieldUpdate) error {
	eval := access.NewEvaluator(user)
	field := access.Field(update.Field)

	var span trace.Span
	if s.tracing != nil {
		ctx, span = s.tracing.StartAccessSpan(ctx, "edit_field", string(user.Role))
		defer span.End()
		s.tracing.AddSpanAttributes(span,
			attribute.Int64("deal_id", dealID),
			attribute.String("field", update.Field),
		)
	}

	targetClinic, err := s.repo.GetRecordClinic(ctx, dealID)
	if err != nil {
		if span != nil {
			s.tracing.RecordError(span, err)
		}
		return err
	}

	fieldCtx := &access.FieldContext{
		FieldGroup:   access.FieldGroup(update.FieldGroup),
		TargetClinic: targetClinic,
	}

	allowed := eval.CanEdit(field, fieldCtx)
	s.metrics.RecordAccessDecision(string(user.Role), "edit_field", allowed)
	if span != nil {
		s.tracing.AddSpanEvent(span, "decision", attribute.Bool("allowed", allowed))
	}
	s.logger.PatientAccess(ctx, user.UserID, dealID, "edit", update.Field, allowed, map[string]interface{}{
		"field_group":   update.FieldGroup,
		"target_clinic": targetClinic,
		"user_clinic":   user.Clinic,
	})

	if !allowed {
		return types.NewAuthorizationError(types.ErrCodeForbidden, "field edit denied for role")
	}

	if err := s.repo.UpdateField(ctx, dealID, field, update.Value, user.UserID); err != nil {
		if span != nil {
			s.tracing.RecordError(span, err)
		}
		return err
	}
	return nil
}

// CurrentUser resolves the caller's stored profile and, when the
// profile is clinic-scoped, the clinic record behind it. The JWT claims
// stay authoritative for access decisions; the profile only enriches
// what the client displays.
func (s *Service) CurrentUser(ctx context.Context, user access.UserContext) (*types.Profile, *types.Clinic, error) {
	profile, err := s.repo.GetProfile(ctx, user.UserID)
	if err != nil {
		return nil, nil, err
	}

	var clinic *types.Clinic
	if profile.ClinicName != nil && *profile.ClinicName != "" {
		clinic, err = s.repo.GetClinic(ctx, *profile.ClinicName)
		if err != nil {
			return nil, nil, err
		}
	}

	return profile, clinic, nil
}

// matchesFilters applies the dashboard's query filters to one record.
func matchesFilters(rec *types.PatientRecord, filters types.PatientFilters) bool {
	if filters.Clinic != "" && rec.ClinicName != filters.Clinic {
		return false
	}
	if filters.DepartureAirportCode != "" {
		if rec.DepartureAirportCode == nil || *rec.DepartureAirportCode != filters.DepartureAirportCode {
			return false
		}
	}
	if filters.ArrivalCity != "" {
		if rec.ArrivalCity == nil || *rec.ArrivalCity != filters.ArrivalCity {
			return false
		}
	}
	if filters.Search != "" {
		needle := strings.ToLower(filters.Search)
		if !containsFold(rec.PatientFullName, needle) &&
			!containsFold(rec.DealName, needle) &&
			!containsFoldPtr(rec.PatientChineseName, needle) &&
			!containsFoldPtr(rec.PatientPhone, needle) {
			return false
		}
	}
	return true
}

func containsFold(haystack, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(haystack), lowerNeedle)
}

func containsFoldPtr(haystack *string, lowerNeedle string) bool {
	return haystack != nil && containsFold(*haystack, lowerNeedle)
}

// redactRecord clears the fields the user's role may not see. Rows the
// user may not see at all never reach this point.
func redactRecord(rec *types.PatientRecord, eval *access.Evaluator) {
	if !eval.ShouldShowField(access.FieldClinicName, access.GroupBasic) {
		rec.ClinicName = ""
		rec.ClinicFullName = nil
		rec.ClinicAddressChinese = nil
		rec.ClinicAddressEnglish = nil
	}
	if !eval.ShouldShowField(access.FieldStatusName, access.GroupBasic) {
		rec.StatusName = nil
	}
}

// deriveVisaState fills the computed visa columns: the last allowed day
// in China, the days remaining, and the coarse status. The effective
// deadline is the earlier of the stay limit (entry date plus visa days)
// and the visa's own expiry date.
func deriveVisaState(rec *types.PatientRecord, now time.Time) {
	if rec.ChinaEntryDate != nil && rec.VisaDays != nil && *rec.VisaDays > 0 {
		last := rec.ChinaEntryDate.AddDate(0, 0, *rec.VisaDays-1)
		rec.LastDayInChina = &last
	}

	deadline := rec.LastDayInChina
	if rec.VisaExpiryDate != nil && (deadline == nil || rec.VisaExpiryDate.Before(*deadline)) {
		deadline = rec.VisaExpiryDate
	}
	if deadline == nil {
		return
	}

	days := daysBetween(now, *deadline)
	rec.DaysUntilVisaExpires = &days

	var status types.VisaStatus
	switch {
	case days < 0:
		status = types.VisaStatusExpired
	case days <= visaExpiryWarningDays:
		status = types.VisaStatusExpiringSoon
	default:
		status = types.VisaStatusActive
	}
	rec.VisaStatus = &status
}

// daysBetween counts whole calendar days from now to the deadline,
// negative when the deadline has passed. Both instants are read in the
// deadline's location so a local wall clock near midnight cannot shift
// the count by a day.
func daysBetween(now, deadline time.Time) int {
	now = now.In(deadline.Location())
	nowDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	deadlineDate := time.Date(deadline.Year(), deadline.Month(), deadline.Day(), 0, 0, 0, 0, time.UTC)
	return int(deadlineDate.Sub(nowDate).Hours() / 24)
}
