package patients

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/neurolife88/amo-china/internal/gateway"
	"github.com/neurolife88/amo-china/pkg/access"
	"github.com/neurolife88/amo-china/pkg/logger"
	"github.com/neurolife88/amo-china/pkg/types"
)

// Handlers provides HTTP handlers for the patient dashboard
type Handlers struct {
	service  *Service
	exporter *Exporter
	logger   *logger.Logger
}

// NewHandlers creates a new instance of patient dashboard handlers
func NewHandlers(service *Service, exporter *Exporter, log *logger.Logger) *Handlers {
	return &Handlers{
		service:  service,
		exporter: exporter,
		logger:   log,
	}
}

// RegisterRoutes registers all dashboard routes with the router
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/patients", h.ListPatients).Methods("GET")
	api.HandleFunc("/patients/export", h.ExportPatients).Methods("GET")
	api.HandleFunc("/patients/{dealID}/fields/{field}", h.UpdateField).Methods("PATCH")
	api.HandleFunc("/me/permissions", h.GetPermissions).Methods("GET")
}

// ListPatients handles dashboard listing requests
func (h *Handlers) ListPatients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := gateway.ClaimsFromContext(ctx)
	if !ok {
		h.writeServiceError(w, "Authentication required",
			types.NewAuthenticationError(types.ErrCodeUnauthorized, "authentication required"))
		return
	}

	filters := filtersFromQuery(r)
	records, err := h.service.ListPatients(ctx, claims.UserContext(), filters)
	if err != nil {
		h.writeServiceError(w, "Failed to list patients", err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"patients": records,
		"count":    len(records),
	})
}

// fieldUpdateRequest is the PATCH body for a single-field edit
type fieldUpdateRequest struct {
	Value      *string `json:"value"`
	FieldGroup string  `json:"field_group,omitempty"`
}

// UpdateField handles single-field edit requests
func (h *Handlers) UpdateField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := gateway.ClaimsFromContext(ctx)
	if !ok {
		h.writeServiceError(w, "Authentication required",
			types.NewAuthenticationError(types.ErrCodeUnauthorized, "authentication required"))
		return
	}

	vars := mux.Vars(r)
	dealID, err := strconv.ParseInt(vars["dealID"], 10, 64)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid deal ID", err)
		return
	}

	var req fieldUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload", err)
		return
	}

	update := types.PatientFieldUpdate{
		Field:      vars["field"],
		Value:      req.Value,
		FieldGroup: req.FieldGroup,
	}

	if err := h.service.UpdateField(ctx, claims.UserContext(), dealID, update); err != nil {
		h.writeServiceError(w, "Failed to update field", err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"message": "Field updated successfully",
		"deal_id": dealID,
		"field":   update.Field,
	})
}

// ExportPatients streams the visible dashboard rows as an Excel file
func (h *Handlers) ExportPatients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := gateway.ClaimsFromContext(ctx)
	if !ok {
		h.writeServiceError(w, "Authentication required",
			types.NewAuthenticationError(types.ErrCodeUnauthorized, "authentication required"))
		return
	}

	filters := filtersFromQuery(r)
	records, err := h.service.ListPatients(ctx, claims.UserContext(), filters)
	if err != nil {
		h.writeServiceError(w, "Failed to export patients", err)
		return
	}

	eval := access.NewEvaluator(claims.UserContext())
	file, err := h.exporter.Build(records, eval)
	if err != nil {
		h.logger.Audit(claims.UserID, "export_patients", "patients", false, map[string]interface{}{
			"error": err.Error(),
		})
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to build export", err)
		return
	}

	h.logger.Audit(claims.UserID, "export_patients", "patients", true, map[string]interface{}{
		"rows": len(records),
	})

	filename := fmt.Sprintf("patients_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := file.Write(w); err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to stream export")
	}
}

// GetPermissions returns the caller's effective permissions and role so
// the client can mirror server-side decisions
func (h *Handlers) GetPermissions(w http.ResponseWriter, r *http.Request) {
	claims, ok := gateway.ClaimsFromContext(r.Context())
	if !ok {
		h.writeServiceError(w, "Authentication required",
			types.NewAuthenticationError(types.ErrCodeUnauthorized, "authentication required"))
		return
	}

	user := claims.UserContext()
	eval := access.NewEvaluator(user)

	response := map[string]interface{}{
		"role":           user.Role,
		"clinic":         user.Clinic,
		"permissions":    access.PermissionsOf(user.Role),
		"is_coordinator": eval.IsCoordinator(),
		"is_director":    eval.IsDirector(),
		"is_super_admin": eval.IsSuperAdmin(),
	}

	// The stored profile enriches the response with display data. A
	// missing profile is not an error here, the claims already carry
	// everything decisions need.
	profile, clinic, err := h.service.CurrentUser(r.Context(), user)
	if err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Debug("Profile lookup skipped")
	} else {
		response["full_name"] = profile.FullName
		if clinic != nil {
			response["clinic_details"] = clinic
		}
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

func filtersFromQuery(r *http.Request) types.PatientFilters {
	q := r.URL.Query()
	return types.PatientFilters{
		Clinic:               q.Get("clinic"),
		Search:               q.Get("search"),
		DepartureAirportCode: q.Get("departure_airport_code"),
		ArrivalCity:          q.Get("arrival_city"),
	}
}

// writeServiceError maps structured service errors onto HTTP statuses
func (h *Handlers) writeServiceError(w http.ResponseWriter, message string, err error) {
	var dashErr *types.DashboardError
	if errors.As(err, &dashErr) {
		switch dashErr.Type {
		case types.ErrorTypeValidation:
			h.writeErrorResponse(w, http.StatusBadRequest, dashErr.Message, err)
		case types.ErrorTypeAuthorization:
			h.writeErrorResponse(w, http.StatusForbidden, dashErr.Message, err)
		case types.ErrorTypeAuthentication:
			h.writeErrorResponse(w, http.StatusUnauthorized, dashErr.Message, err)
		case types.ErrorTypeNotFound:
			h.writeErrorResponse(w, http.StatusNotFound, dashErr.Message, err)
		default:
			h.writeErrorResponse(w, http.StatusInternalServerError, message, err)
		}
		return
	}
	h.writeErrorResponse(w, http.StatusInternalServerError, message, err)
}

func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.WithComponent("patients").WithError(err).Error("Failed to encode JSON response")
	}
}

func (h *Handlers) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	if err != nil {
		h.logger.WithComponent("patients").WithError(err).Error(message)
	}

	h.writeJSONResponse(w, statusCode, map[string]interface{}{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
