package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func coordinatorAt(clinic string) *Evaluator {
	return NewEvaluator(UserContext{
		Role:   RoleCoordinator,
		Clinic: clinic,
		UserID: "coordinator-id",
	})
}

func TestEvaluator_Can(t *testing.T) {
	t.Run("super_admin can manage users", func(t *testing.T) {
		e := NewEvaluator(UserContext{Role: RoleSuperAdmin, UserID: "admin-id"})
		assert.True(t, e.Can(PermissionManageUsers))
	})

	t.Run("director cannot manage users", func(t *testing.T) {
		e := NewEvaluator(UserContext{Role: RoleDirector, UserID: "director-id"})
		assert.False(t, e.Can(PermissionManageUsers))
	})

	t.Run("unknown role is denied everything", func(t *testing.T) {
		e := NewEvaluator(UserContext{Role: Role("intern"), UserID: "x"})
		assert.False(t, e.Can(PermissionEditPatientBasic))
		assert.False(t, e.CanView("Boya"))
	})
}

func TestEvaluator_CanEdit_DepartureFields(t *testing.T) {
	e := coordinatorAt("Boya")

	// One permission gates all four departure-leg fields uniformly.
	for _, field := range []Field{
		FieldDepartureCity,
		FieldDepartureDatetime,
		FieldDepartureFlightNumber,
		FieldDepartureTransportType,
	} {
		assert.True(t, e.CanEdit(field, nil), "field %s", field)
	}
}

func TestEvaluator_CanEdit_ClinicGate(t *testing.T) {
	e := coordinatorAt("Boya")

	t.Run("notes denied for a different clinic", func(t *testing.T) {
		assert.False(t, e.CanEdit(FieldNotes, &FieldContext{TargetClinic: "Народная"}))
	})

	t.Run("notes allowed for own clinic", func(t *testing.T) {
		assert.True(t, e.CanEdit(FieldNotes, &FieldContext{TargetClinic: "Boya"}))
	})

	t.Run("gate covers every field on proven mismatch", func(t *testing.T) {
		ctx := &FieldContext{TargetClinic: "Народная"}
		assert.False(t, e.CanEdit(FieldApartmentNumber, ctx))
		assert.False(t, e.CanEdit(FieldDepartureCity, ctx))
		assert.False(t, e.CanEdit(Field("deal_name"), ctx))
	})

	t.Run("missing clinic context skips the gate", func(t *testing.T) {
		assert.True(t, e.CanEdit(FieldNotes, nil))
		assert.True(t, e.CanEdit(FieldNotes, &FieldContext{TargetClinic: ""}))

		unaffiliated := coordinatorAt("")
		assert.True(t, unaffiliated.CanEdit(FieldNotes, &FieldContext{TargetClinic: "Народная"}))
	})

	t.Run("directors are not clinic gated", func(t *testing.T) {
		e := NewEvaluator(UserContext{Role: RoleDirector, Clinic: "Boya", UserID: "d"})
		assert.True(t, e.CanEdit(FieldNotes, &FieldContext{TargetClinic: "Народная"}))
	})
}

func TestEvaluator_CanEdit_ChineseName(t *testing.T) {
	e := coordinatorAt("Boya")

	// Editable regardless of which field group it is rendered under.
	assert.True(t, e.CanEdit(FieldPatientChineseName, nil))
	for _, group := range FieldGroups {
		assert.True(t, e.CanEdit(FieldPatientChineseName, &FieldContext{FieldGroup: group}),
			"group %s", group)
	}
}

func TestEvaluator_CanEdit_DefaultFallback(t *testing.T) {
	// Unknown fields fall back to the basic-edit permission.
	e := coordinatorAt("Boya")
	assert.True(t, e.CanEdit(Field("deal_name"), nil))
	assert.True(t, e.CanEdit(Field("visa_city"), nil))

	none := NewEvaluator(UserContext{Role: Role("unknown")})
	assert.False(t, none.CanEdit(Field("deal_name"), nil))
}

func TestEvaluator_CanEdit_SpecificFields(t *testing.T) {
	e := coordinatorAt("Boya")
	assert.True(t, e.CanEdit(FieldApartmentNumber, nil))
	assert.True(t, e.CanEdit(FieldChinaEntryDate, nil))
}

func TestEvaluator_ShouldShowField(t *testing.T) {
	coordinator := coordinatorAt("Boya")
	director := NewEvaluator(UserContext{Role: RoleDirector, UserID: "d"})
	admin := NewEvaluator(UserContext{Role: RoleSuperAdmin, UserID: "a"})

	t.Run("chinese name is always visible", func(t *testing.T) {
		for _, e := range []*Evaluator{coordinator, director, admin} {
			for _, group := range FieldGroups {
				assert.True(t, e.ShouldShowField(FieldPatientChineseName, group))
			}
		}
	})

	t.Run("coordinator never sees clinic or deal status", func(t *testing.T) {
		for _, group := range FieldGroups {
			assert.False(t, coordinator.ShouldShowField(FieldClinicName, group), "group %s", group)
			assert.False(t, coordinator.ShouldShowField(FieldStatusName, group), "group %s", group)
		}
	})

	t.Run("director and super_admin see clinic and status everywhere", func(t *testing.T) {
		for _, e := range []*Evaluator{director, admin} {
			for _, group := range FieldGroups {
				assert.True(t, e.ShouldShowField(FieldClinicName, group))
				assert.True(t, e.ShouldShowField(FieldStatusName, group))
			}
		}
	})

	t.Run("everything else is visible by default", func(t *testing.T) {
		assert.True(t, coordinator.ShouldShowField(FieldNotes, GroupBasic))
		assert.True(t, coordinator.ShouldShowField(Field("arrival_city"), GroupArrival))
	})
}

func TestEvaluator_CanView(t *testing.T) {
	t.Run("director and super_admin see every clinic", func(t *testing.T) {
		for _, role := range []Role{RoleDirector, RoleSuperAdmin} {
			e := NewEvaluator(UserContext{Role: role, UserID: "u"})
			assert.True(t, e.CanView("Boya"))
			assert.True(t, e.CanView("Народная"))
		}
	})

	t.Run("coordinator sees only the own clinic", func(t *testing.T) {
		e := coordinatorAt("Boya")
		assert.True(t, e.CanView("Boya"))
		assert.False(t, e.CanView("Народная"))
	})
}

func TestEvaluator_HasRole(t *testing.T) {
	e := NewEvaluator(UserContext{Role: RoleDirector, UserID: "d"})
	assert.True(t, e.HasRole(RoleCoordinator))
	assert.True(t, e.HasRole(RoleDirector))
	assert.False(t, e.HasRole(RoleSuperAdmin))
}

func TestEvaluator_QuickChecks(t *testing.T) {
	assert.True(t, coordinatorAt("Boya").IsCoordinator())
	assert.True(t, NewEvaluator(UserContext{Role: RoleDirector}).IsDirector())
	assert.True(t, NewEvaluator(UserContext{Role: RoleSuperAdmin}).IsSuperAdmin())
	assert.False(t, coordinatorAt("Boya").IsDirector())
}

func TestEvaluator_Idempotence(t *testing.T) {
	e := coordinatorAt("Boya")
	ctx := &FieldContext{FieldGroup: GroupTreatment, TargetClinic: "Boya"}
	first := e.CanEdit(FieldNotes, ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.CanEdit(FieldNotes, ctx))
	}
}

func TestIsClinicScoped(t *testing.T) {
	assert.True(t, IsClinicScoped(FieldNotes))
	assert.False(t, IsClinicScoped(FieldApartmentNumber))
}
