package handler

import (
	"net/http"
	"strconv"
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

// workspaceRef is the tenant root resource; member management requires the
// ADMIN capability on it.
func workspaceRef(tenantID string) permission.ResourceRef {
	return permission.ResourceRef{Type: model.ResourceTypeWorkspace, ID: tenantID}
}

// AddTenantMember creates a membership for a user in the current tenant.
func AddTenantMember(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	tc := tenant.Current(c)
	if tc == nil || tc.Tenant == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	if err := resolver.Authorize(c.Request().Context(), userID, tc.Tenant.ID, workspaceRef(tc.Tenant.ID), permission.Admin); err != nil {
		return writeAuthorizeError(c, log, err)
	}

	var req struct {
		UserID       uint    `json:"user_id"`
		RoleID       *string `json:"role_id,omitempty"`
		DepartmentID *string `json:"department_id,omitempty"`
		Status       string  `json:"status,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse member request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}

	status := req.Status
	if status == "" {
		status = model.MembershipStatusActive
	}

	now := time.Now().UTC()
	membership := model.TenantMembership{
		TenantID:     tc.Tenant.ID,
		UserID:       req.UserID,
		RoleID:       req.RoleID,
		DepartmentID: req.DepartmentID,
		Status:       status,
		InvitedBy:    &userID,
		InvitedAt:    &now,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&membership); result.Error != nil {
		log.Error("Failed to create membership", zap.Error(result.Error))
		return c.JSON(http.StatusConflict, echo.Map{"error": "user is already a member of this tenant"})
	}

	log.Info("Member added",
		zap.String("tenant_id", tc.Tenant.ID),
		zap.Uint("user_id", req.UserID),
		zap.Uint("added_by", userID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message":    "Member added successfully",
		"membership": membership,
	})
}

// UpdateTenantMember changes a member's role, department or status.
func UpdateTenantMember(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	tc := tenant.Current(c)
	if tc == nil || tc.Tenant == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	if err := resolver.Authorize(c.Request().Context(), userID, tc.Tenant.ID, workspaceRef(tc.Tenant.ID), permission.Admin); err != nil {
		return writeAuthorizeError(c, log, err)
	}

	memberID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	var req struct {
		RoleID       *string `json:"role_id,omitempty"`
		DepartmentID *string `json:"department_id,omitempty"`
		Status       *string `json:"status,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse member update", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.RoleID != nil {
		updates["role_id"] = *req.RoleID
	}
	if req.DepartmentID != nil {
		updates["department_id"] = *req.DepartmentID
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result := database.GetDB().
		Model(&model.TenantMembership{}).
		Where("tenant_id = ? AND user_id = ?", tc.Tenant.ID, uint(memberID)).
		Updates(updates)
	if result.Error != nil {
		log.Error("Failed to update membership", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "membership update failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "membership not found"})
	}

	log.Info("Member updated",
		zap.String("tenant_id", tc.Tenant.ID),
		zap.Uint64("user_id", memberID),
		zap.Uint("updated_by", userID))

	return c.JSON(http.StatusOK, echo.Map{"message": "Member updated successfully"})
}

// RemoveTenantMember deletes a member's membership in the current tenant.
func RemoveTenantMember(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	tc := tenant.Current(c)
	if tc == nil || tc.Tenant == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context required"})
	}

	if err := resolver.Authorize(c.Request().Context(), userID, tc.Tenant.ID, workspaceRef(tc.Tenant.ID), permission.Admin); err != nil {
		return writeAuthorizeError(c, log, err)
	}

	memberID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().
		Where("tenant_id = ? AND user_id = ?", tc.Tenant.ID, uint(memberID)).
		Delete(&model.TenantMembership{})
	if result.Error != nil {
		log.Error("Failed to remove membership", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "membership removal failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "membership not found"})
	}

	log.Info("Member removed",
		zap.String("tenant_id", tc.Tenant.ID),
		zap.Uint64("user_id", memberID),
		zap.Uint("removed_by", userID))

	return c.JSON(http.StatusOK, echo.Map{"message": "Member removed successfully"})
}
