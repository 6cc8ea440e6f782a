package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/docbot-ai/docbot/internal/common"
	"github.com/docbot-ai/docbot/internal/httpapi/middleware"
	"github.com/docbot-ai/docbot/internal/models"
)

func pagination(c *gin.Context, defaultLimit, maxLimit int) (skip, limit int) {
	skip, _ = strconv.Atoi(c.Query("skip"))
	if skip < 0 {
		skip = 0
	}
	limit, _ = strconv.Atoi(c.Query("limit"))
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}
	return skip, limit
}

func userIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}

func (h *Handler) ListUsers(c *gin.Context) {
	skip, limit := pagination(c, 100, 1000)

	list, err := h.Users.List(c.Request.Context(), skip, limit)
	if err != nil {
		h.Log.Error("list users failed", zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, "error retrieving users")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) CountUsers(c *gin.Context) {
	n, err := h.Users.Count(c.Request.Context())
	if err != nil {
		h.Log.Error("count users failed", zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, "error counting users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_users": n})
}

// GetUser returns a user record. Callers read their own record freely; other
// records require the admin or moderator role.
func (h *Handler) GetUser(c *gin.Context) {
	cur, _ := middleware.CurrentUser(c)
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	if cur.ID == id {
		c.JSON(http.StatusOK, cur)
		return
	}
	if cur.Role != models.RoleAdmin && cur.Role != models.RoleModerator {
		common.Fail(c, http.StatusForbidden, common.ErrForbidden.Error())
		return
	}

	u, err := h.Users.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, "user not found")
			return
		}
		h.Log.Error("get user failed", zap.Uint64("user_id", id), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, "error retrieving user")
		return
	}
	c.JSON(http.StatusOK, u)
}

type updateUserReq struct {
	Email    *string        `json:"email"`
	FullName *string        `json:"full_name"`
	Role     *models.Role   `json:"role"`
	Status   *models.Status `json:"status"`
}

// UpdateUser applies a partial update. Regular users may change only their own
// email and full name; role and status changes are admin territory.
func (h *Handler) UpdateUser(c *gin.Context) {
	cur, _ := middleware.CurrentUser(c)
	id, ok := userIDParam(c)
	if !ok {
		return
	}

	var req updateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid json")
		return
	}

	if cur.ID == id {
		if cur.Role == models.RoleUser && (req.Role != nil || req.Status != nil) {
			common.Fail(c, http.StatusForbidden, "cannot update role or status")
			return
		}
	} else if cur.Role != models.RoleAdmin {
		common.Fail(c, http.StatusForbidden, common.ErrForbidden.Error())
		return
	}

	fields := map[string]any{}
	if req.Email != nil {
		fields["email"] = *req.Email
	}
	if req.FullName != nil {
		fields["full_name"] = *req.FullName
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			common.Fail(c, http.StatusBadRequest, "invalid role")
			return
		}
		fields["role"] = *req.Role
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			common.Fail(c, http.StatusBadRequest, "invalid status")
			return
		}
		fields["status"] = *req.Status
	}
	if len(fields) == 0 {
		common.Fail(c, http.StatusBadRequest, "no fields to update")
		return
	}

	u, err := h.Users.Update(c.Request.Context(), id, fields)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			common.Fail(c, http.StatusNotFound, "user not found")
		case errors.Is(err, gorm.ErrDuplicatedKey):
			common.Fail(c, http.StatusConflict, common.ErrEmailTaken.Error())
		default:
			h.Log.Error("update user failed", zap.Uint64("user_id", id), zap.Error(err))
			common.Fail(c, http.StatusInternalServerError, "error updating user")
		}
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	cur, _ := middleware.CurrentUser(c)
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	if cur.ID == id {
		common.Fail(c, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	deleted, err := h.Users.Delete(c.Request.Context(), id)
	if err != nil {
		h.Log.Error("delete user failed", zap.Uint64("user_id", id), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, "error deleting user")
		return
	}
	if !deleted {
		common.Fail(c, http.StatusNotFound, "user not found")
		return
	}

	h.Log.Info("user deleted", zap.Uint64("user_id", id), zap.Uint64("by", cur.ID))
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
