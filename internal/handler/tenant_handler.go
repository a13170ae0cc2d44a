package handler

import (
	"net/http"
	"time"

	"permission-service/internal/model"
	"permission-service/internal/permission"
	"permission-service/internal/tenant"
	"permission-service/pkg/database"
	"permission-service/pkg/logger"
	"permission-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// systemRoles are seeded into every new tenant. tenant_admin is the
// full-bypass role the resolver treats specially.
func systemRoles(tenantID string) []model.TenantRole {
	return []model.TenantRole{
		{TenantID: tenantID, Name: "member", DisplayName: "Member", Level: 10,
			Permissions: int(permission.Reader), IsSystem: true, IsDefault: true},
		{TenantID: tenantID, Name: "editor", DisplayName: "Editor", Level: 20,
			Permissions: int(permission.Editor), IsSystem: true},
		{TenantID: tenantID, Name: "contributor", DisplayName: "Contributor", Level: 30,
			Permissions: int(permission.Contributor), IsSystem: true},
		{TenantID: tenantID, Name: model.TenantAdminRoleName, DisplayName: "Tenant Admin", Level: 100,
			Permissions: int(permission.Owner), IsSystem: true},
	}
}

// CreateTenant provisions a tenant: the tenant row, its system roles and a
// tenant_admin membership for the named owner. Platform admins only.
func CreateTenant(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	admin, err := st.IsPlatformAdmin(c.Request().Context(), userID)
	if err != nil {
		log.Error("Platform admin lookup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !admin {
		log.Warn("Tenant creation denied", zap.Uint("user_id", userID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "platform admin required"})
	}

	var req struct {
		Name        string `json:"name"`
		Slug        string `json:"slug"`
		Description string `json:"description"`
		Status      string `json:"status,omitempty"`
		OwnerUserID uint   `json:"owner_user_id"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" || req.Slug == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and slug are required"})
	}

	status := req.Status
	if status == "" {
		status = model.TenantStatusTrial
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	t := model.Tenant{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Status:      status,
	}

	if result := tx.Create(&t); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create tenant", zap.Error(result.Error))
		return c.JSON(http.StatusConflict, echo.Map{"error": "tenant creation failed"})
	}

	roles := systemRoles(t.ID)
	if result := tx.Create(&roles); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to seed tenant roles", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "role seeding failed"})
	}

	// The last seeded role is tenant_admin; assign it to the owner.
	if req.OwnerUserID != 0 {
		adminRole := roles[len(roles)-1]
		membership := model.TenantMembership{
			TenantID:  t.ID,
			UserID:    req.OwnerUserID,
			RoleID:    &adminRole.ID,
			Status:    model.MembershipStatusActive,
			InvitedBy: &userID,
		}
		if result := tx.Create(&membership); result.Error != nil {
			tx.Rollback()
			log.Error("Failed to create owner membership", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "membership creation failed"})
		}
		if result := tx.Model(&model.User{}).Where("id = ?", req.OwnerUserID).
			Update("default_tenant_id", t.ID); result.Error != nil {
			tx.Rollback()
			log.Error("Failed to set owner default tenant", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user update failed"})
		}
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction commit failed"})
	}

	log.Info("Tenant created",
		zap.String("id", t.ID),
		zap.String("slug", t.Slug),
		zap.Uint("created_by", userID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Tenant created successfully",
		"tenant":  t,
	})
}

// GetTenant returns a tenant by id. Platform admins only; tenant members use
// GetCurrentTenant instead.
func GetTenant(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	admin, err := st.IsPlatformAdmin(c.Request().Context(), userID)
	if err != nil {
		log.Error("Platform admin lookup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !admin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "platform admin required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	t, err := st.TenantByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		log.Error("Tenant lookup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if t == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	return c.JSON(http.StatusOK, t)
}

// GetCurrentTenant returns the tenant resolved for this request.
func GetCurrentTenant(c echo.Context) error {
	tc := tenant.Current(c)
	if tc == nil || tc.Tenant == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}
	return c.JSON(http.StatusOK, tc.Tenant)
}
