package controller

import (
	"net/http"

	"marketplace-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AdminController struct {
	Service *service.AdminService
}

func NewAdminController(s *service.AdminService) *AdminController {
	return &AdminController{Service: s}
}

// GET /api/admin/dashboard
func (ctl *AdminController) Dashboard(c *gin.Context) {
	stats, err := ctl.Service.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GET /api/admin/vendors
func (ctl *AdminController) ListVendors(c *gin.Context) {
	vendors, err := ctl.Service.ListVendors(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vendors)
}

// GET /api/admin/vendors/pending
func (ctl *AdminController) ListPendingVendors(c *gin.Context) {
	vendors, err := ctl.Service.ListPendingVendors(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vendors)
}

// PATCH /api/admin/vendors/:id/approve
func (ctl *AdminController) ApproveVendor(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid vendor ID"})
		return
	}

	vendor, err := ctl.Service.ApproveVendor(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vendor approved", "vendor": vendor})
}

// PATCH /api/admin/vendors/:id/reject
func (ctl *AdminController) RejectVendor(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid vendor ID"})
		return
	}

	vendor, err := ctl.Service.RejectVendor(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vendor rejected", "vendor": vendor})
}
