package access

// UserContext carries the session identity an Evaluator decides for.
// Clinic is the coordinator's clinic affiliation; empty means unknown.
// UserID is carried for audit logging and plays no part in decisions.
type UserContext struct {
	Role   Role   `json:"role"`
	Clinic string `json:"clinic,omitempty"`
	UserID string `json:"user_id"`
}

// FieldContext is the per-call context for field-level decisions.
// TargetClinic is the clinic that owns the record being edited; empty
// means unknown.
type FieldContext struct {
	FieldGroup   FieldGroup `json:"field_group,omitempty"`
	TargetClinic string     `json:"target_clinic,omitempty"`
}

// Evaluator answers authorization questions for one user context. It is
// immutable after construction and safe to share across goroutines; all
// methods are pure functions of the context plus call arguments.
type Evaluator struct {
	user UserContext
}

// NewEvaluator creates an evaluator for the given user context.
func NewEvaluator(user UserContext) *Evaluator {
	return &Evaluator{user: user}
}

// User returns the context the evaluator was built with.
func (e *Evaluator) User() UserContext {
	return e.user
}

// Can reports whether the user's role holds the given permission.
func (e *Evaluator) Can(permission Permission) bool {
	return HasPermission(e.user.Role, permission)
}

// HasRole reports whether the user is at least as privileged as the
// required role.
func (e *Evaluator) HasRole(required Role) bool {
	return HasRoleLevel(e.user.Role, required)
}

// CanEdit reports whether the user may edit the given field. ctx may be
// nil when no field group or record clinic is known.
//
// Coordinators can never edit a record belonging to a different clinic:
// if both the user's clinic and the record's clinic are known and they
// differ, the edit is denied regardless of field. When either clinic is
// unknown the gate does not apply; denial requires a proven mismatch.
func (e *Evaluator) CanEdit(field Field, ctx *FieldContext) bool {
	var fieldCtx FieldContext
	if ctx != nil {
		fieldCtx = *ctx
	}

	if e.clinicMismatch(fieldCtx.TargetClinic) {
		return false
	}

	switch field {
	case FieldApartmentNumber:
		return e.Can(PermissionEditApartmentNumber)

	case FieldDepartureCity,
		FieldDepartureDatetime,
		FieldDepartureFlightNumber,
		FieldDepartureTransportType:
		return e.Can(PermissionEditDepartureInfo)

	case FieldNotes:
		if !e.Can(PermissionEditNotes) {
			return false
		}
		// Clinic-scoped fields re-verify ownership even though the gate
		// above already ran.
		if clinicScopedFields[field] && e.clinicMismatch(fieldCtx.TargetClinic) {
			return false
		}
		return true

	case FieldChinaEntryDate:
		return e.Can(PermissionEditChinaEntryDate)

	case FieldPatientChineseName:
		// Editable in every field group. Earlier revisions restricted
		// this to the treatment group; the restriction was lifted.
		return e.Can(PermissionEditChineseName)

	default:
		return e.Can(PermissionEditPatientBasic)
	}
}

// ShouldShowField reports whether the field is visible to the user when
// rendered in the given field group. Visibility is distinct from
// editability: a field can be visible but read-only.
func (e *Evaluator) ShouldShowField(field Field, group FieldGroup) bool {
	// The patient's Chinese name is visible everywhere for every role.
	if field == FieldPatientChineseName {
		return true
	}

	if e.user.Role == RoleCoordinator && coordinatorHiddenFields[field] {
		return false
	}

	return true
}

// CanView reports whether the user may see a record owned by the given
// clinic at all (row-level visibility).
func (e *Evaluator) CanView(targetClinic string) bool {
	if e.Can(PermissionViewAllPatients) {
		return true
	}
	if e.Can(PermissionViewOwnClinicPatients) {
		return e.user.Clinic == targetClinic
	}
	return false
}

// IsClinicScoped reports whether edits to the field are restricted to
// the owning clinic for coordinators.
func IsClinicScoped(field Field) bool {
	return clinicScopedFields[field]
}

// IsCoordinator reports whether the user's role is coordinator.
func (e *Evaluator) IsCoordinator() bool { return e.user.Role == RoleCoordinator }

// IsDirector reports whether the user's role is director.
func (e *Evaluator) IsDirector() bool { return e.user.Role == RoleDirector }

// IsSuperAdmin reports whether the user's role is super_admin.
func (e *Evaluator) IsSuperAdmin() bool { return e.user.Role == RoleSuperAdmin }

// clinicMismatch reports whether the coordinator clinic gate should
// deny: user is a coordinator, both clinics are known, and they differ.
func (e *Evaluator) clinicMismatch(targetClinic string) bool {
	return e.user.Role == RoleCoordinator &&
		e.user.Clinic != "" &&
		targetClinic != "" &&
		e.user.Clinic != targetClinic
}
