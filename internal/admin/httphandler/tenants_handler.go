package httphandler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/crashtracker"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httpdecode"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httperror"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httpjson"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/validators"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/tenant"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/utils"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

// TenantsHandler exposes the tenant registry: CRUD plus the lifecycle verbs.
// Error bodies stay generic; identifiers and causes go to the logs, where the
// correlation id ties them back to the request.
type TenantsHandler struct {
	Manager            tenant.ManagerInterface
	SchemaEnsurer      tenant.SchemaEnsurer
	CrashTrackerClient crashtracker.CrashTrackerClient
}

// TenantRequest is the payload for registering a new tenant.
type TenantRequest struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	ContactName   string           `json:"contact_name"`
	ContactEmail  string           `json:"contact_email"`
	Configuration tenant.ConfigMap `json:"configuration"`
	RealmOverride *string          `json:"realm_override"`
}

func (r TenantRequest) validate() *httperror.HTTPError {
	validator := validators.NewValidator()
	if _, err := tenant.ParseID(r.ID); err != nil {
		validator.AddError("id", "tenant id must be 1-50 characters of letters, digits, '_' or '-'")
	}
	validator.Check(r.Name != "", "name", "tenant name is required")
	if r.ContactEmail != "" {
		validator.CheckError(utils.ValidateEmail(r.ContactEmail), "contact_email", "invalid email address")
	}

	if validator.HasErrors() {
		return httperror.BadRequest("Request invalid", nil, validator.Errors)
	}
	return nil
}

// UpdateTenantRequest is the payload for patching the mutable tenant fields.
type UpdateTenantRequest struct {
	Name          *string          `json:"name"`
	ContactName   *string          `json:"contact_name"`
	ContactEmail  *string          `json:"contact_email"`
	Configuration tenant.ConfigMap `json:"configuration"`
	RealmOverride *string          `json:"realm_override"`
}

func (r UpdateTenantRequest) validate() *httperror.HTTPError {
	if r.Name == nil && r.ContactName == nil && r.ContactEmail == nil && r.Configuration == nil && r.RealmOverride == nil {
		return httperror.BadRequest("Provide at least one field to be updated", nil, nil)
	}

	validator := validators.NewValidator()
	if r.Name != nil {
		validator.Check(*r.Name != "", "name", "tenant name cannot be empty")
	}
	if r.ContactEmail != nil && *r.ContactEmail != "" {
		validator.CheckError(utils.ValidateEmail(*r.ContactEmail), "contact_email", "invalid email address")
	}

	if validator.HasErrors() {
		return httperror.BadRequest("Request invalid", nil, validator.Errors)
	}
	return nil
}

func (h TenantsHandler) GetAll(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	tnts, err := h.Manager.GetAllTenants(ctx, &tenant.QueryParams{})
	if err != nil {
		httperror.InternalError(ctx, "Cannot get tenants", err, nil).Render(rw)
		return
	}

	httpjson.RenderStatus(rw, http.StatusOK, tnts, httpjson.JSON)
}

func (h TenantsHandler) GetByIDOrName(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	arg := chi.URLParam(req, "arg")

	tnt, err := h.Manager.GetTenantByIDOrName(ctx, arg)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantDoesNotExist) {
			httperror.NotFound("Tenant not found.", err, nil).Render(rw)
			return
		}
		httperror.InternalError(ctx, "Cannot get tenant by ID or name", err, nil).Render(rw)
		return
	}

	httpjson.RenderStatus(rw, http.StatusOK, tnt, httpjson.JSON)
}

func (h TenantsHandler) Post(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var reqBody TenantRequest
	if err := httpdecode.DecodeJSON(req, &reqBody); err != nil {
		log.Ctx(ctx).Errorf("decoding tenant request: %v", err)
		httperror.BadRequest("", err, nil).Render(rw)
		return
	}
	if httpErr := reqBody.validate(); httpErr != nil {
		httpErr.Render(rw)
		return
	}

	tnt, err := h.Manager.AddTenant(ctx, tenant.TenantInsert{
		ID:            reqBody.ID,
		Name:          reqBody.Name,
		ContactName:   reqBody.ContactName,
		ContactEmail:  reqBody.ContactEmail,
		Configuration: reqBody.Configuration,
		RealmOverride: reqBody.RealmOverride,
	})
	if err != nil {
		switch {
		case errors.Is(err, tenant.ErrDuplicatedTenantID):
			httperror.BadRequest("A tenant with this id already exists", err, nil).Render(rw)
		case errors.Is(err, tenant.ErrDuplicatedSchemaName):
			httperror.BadRequest("The tenant id collides with an existing tenant schema", err, nil).Render(rw)
		default:
			httperror.InternalError(ctx, "Cannot register the tenant", err, nil).Render(rw)
		}
		return
	}

	log.Ctx(ctx).Infof("[TenantLifecycle] - Registered tenant %s in %s status", tnt.ID, tnt.Status)
	httpjson.RenderStatus(rw, http.StatusCreated, tnt, httpjson.JSON)
}

func (h TenantsHandler) Patch(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var reqBody UpdateTenantRequest
	if err := httpdecode.DecodeJSON(req, &reqBody); err != nil {
		log.Ctx(ctx).Errorf("decoding tenant update request: %v", err)
		httperror.BadRequest("", err, nil).Render(rw)
		return
	}
	if httpErr := reqBody.validate(); httpErr != nil {
		httpErr.Render(rw)
		return
	}

	tnt, err := h.Manager.UpdateTenant(ctx, &tenant.TenantUpdate{
		ID:            chi.URLParam(req, "id"),
		Name:          reqBody.Name,
		ContactName:   reqBody.ContactName,
		ContactEmail:  reqBody.ContactEmail,
		Configuration: reqBody.Configuration,
		RealmOverride: reqBody.RealmOverride,
	})
	if err != nil {
		if errors.Is(err, tenant.ErrTenantDoesNotExist) {
			httperror.NotFound("Tenant not found.", err, nil).Render(rw)
			return
		}
		httperror.InternalError(ctx, "Cannot update the tenant", err, nil).Render(rw)
		return
	}

	httpjson.RenderStatus(rw, http.StatusOK, tnt, httpjson.JSON)
}

// Delete soft-deletes a tenant. The row and the tenant schema survive for
// audit, they only stop being routable.
func (h TenantsHandler) Delete(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	tenantID := chi.URLParam(req, "id")

	tnt, err := h.Manager.SoftDeleteTenantByID(ctx, tenantID)
	if err != nil {
		switch {
		case errors.Is(err, tenant.ErrTenantDoesNotExist):
			httperror.NotFound("Tenant not found.", err, nil).Render(rw)
		case errors.Is(err, tenant.ErrTenantNotDeletable):
			httperror.BadRequest("Only INACTIVE tenants can be deleted", err, nil).WithErrorCode(httperror.Code400_2).Render(rw)
		default:
			httperror.InternalError(ctx, "Cannot delete the tenant", err, nil).Render(rw)
		}
		return
	}

	log.Ctx(ctx).Infof("[TenantLifecycle] - Soft deleted tenant %s", tnt.ID)
	httpjson.RenderStatus(rw, http.StatusOK, tnt, httpjson.JSON)
}

// Activate moves a PENDING tenant to ACTIVE and provisions the orchestrator's
// own copy of the tenant schema. The consuming services provision theirs when
// the schema event arrives; doing it here as well lets the registry confirm
// the schema without waiting for the event round trip.
func (h TenantsHandler) Activate(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	tnt, err := h.Manager.ActivateTenant(ctx, chi.URLParam(req, "id"))
	if err != nil {
		renderTransitionError(ctx, rw, err)
		return
	}
	log.Ctx(ctx).Infof("[TenantLifecycle] - Tenant %s is now %s", tnt.ID, tnt.Status)

	tnt = h.ensureSchemaProvisioned(ctx, tnt)
	httpjson.RenderStatus(rw, http.StatusOK, tnt, httpjson.JSON)
}

func (h TenantsHandler) Suspend(rw http.ResponseWriter, req *http.Request) {
	h.transition(rw, req, h.Manager.SuspendTenant)
}

func (h TenantsHandler) Deactivate(rw http.ResponseWriter, req *http.Request) {
	h.transition(rw, req, h.Manager.DeactivateTenant)
}

func (h TenantsHandler) Reactivate(rw http.ResponseWriter, req *http.Request) {
	h.transition(rw, req, h.Manager.ReactivateTenant)
}

// GetRealm answers the tenant's realm override, or an empty realm when none
// is set. Unknown tenants are a 404, never a 500: the gateway and the BFF
// resolve realms on hot paths and must be able to tell absence from an
// outage.
func (h TenantsHandler) GetRealm(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	tenantID := chi.URLParam(req, "id")

	tnt, err := h.Manager.GetTenantByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantDoesNotExist) {
			httperror.NotFound("Tenant not found.", err, nil).Render(rw)
			return
		}
		httperror.InternalError(ctx, "Cannot get the tenant realm", err, nil).Render(rw)
		return
	}

	realm := ""
	if tnt.RealmOverride != nil {
		realm = *tnt.RealmOverride
	}
	httpjson.RenderStatus(rw, http.StatusOK, map[string]string{"realm": realm}, httpjson.JSON)
}

func (h TenantsHandler) transition(rw http.ResponseWriter, req *http.Request, transitionFn func(context.Context, string) (*tenant.Tenant, error)) {
	ctx := req.Context()

	tnt, err := transitionFn(ctx, chi.URLParam(req, "id"))
	if err != nil {
		renderTransitionError(ctx, rw, err)
		return
	}

	log.Ctx(ctx).Infof("[TenantLifecycle] - Tenant %s is now %s", tnt.ID, tnt.Status)
	httpjson.RenderStatus(rw, http.StatusOK, tnt, httpjson.JSON)
}

// ensureSchemaProvisioned runs the schema provisioning that follows a
// successful activation and stamps the registry. Failures are reported, never
// returned: the lifecycle transition already committed, so the provisioning
// retry job and the consuming services will converge the schema.
func (h TenantsHandler) ensureSchemaProvisioned(ctx context.Context, tnt *tenant.Tenant) *tenant.Tenant {
	if err := h.SchemaEnsurer.EnsureSchemaReady(ctx, tnt.SchemaName); err != nil {
		h.CrashTrackerClient.LogAndReportErrors(ctx, err, fmt.Sprintf("Cannot provision schema for tenant %s", tnt.ID))
		return tnt
	}

	provisioned, err := h.Manager.SetSchemaProvisioned(ctx, tnt.ID)
	if err != nil {
		h.CrashTrackerClient.LogAndReportErrors(ctx, err, fmt.Sprintf("Cannot mark tenant %s schema as provisioned", tnt.ID))
		return tnt
	}
	return provisioned
}

func renderTransitionError(ctx context.Context, rw http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tenant.ErrTenantDoesNotExist):
		httperror.NotFound("Tenant not found.", err, nil).Render(rw)
	case errors.Is(err, tenant.ErrInvalidStatusTransition):
		httperror.BadRequest("The tenant status does not allow this transition", err, nil).WithErrorCode(httperror.Code400_2).Render(rw)
	default:
		httperror.InternalError(ctx, "Cannot update the tenant status", err, nil).Render(rw)
	}
}
