package controllers

import (
	"net/http"

	"school_resource_hub/app"
	"school_resource_hub/models"
	"school_resource_hub/notify"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ResourceController struct{ *Srv }

func NewResourceController(s *Srv) *ResourceController { return &ResourceController{Srv: s} }

type createResourceReq struct {
	Name       string            `json:"name" binding:"required"`
	Brand      string            `json:"brand"`
	Model      string            `json:"model"`
	CategoryID string            `json:"categoryId"`
	Attributes map[string]string `json:"attributes"`
	Notes      string            `json:"notes"`
}

func (rc *ResourceController) Create(c *gin.Context) {
	var req createResourceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	res := &models.Resource{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Brand:      req.Brand,
		Model:      req.Model,
		Status:     models.ResourceAvailable,
		Stock:      1,
		CategoryID: req.CategoryID,
		Attributes: req.Attributes,
		Notes:      req.Notes,
	}
	if err := rc.Repo.CreateResource(c.Request.Context(), res); err != nil {
		httpError(c, err)
		return
	}
	rc.Cache.Invalidate("resources")
	rc.Pub.Publish(c.Request.Context(), notify.EntityResources, "insert")
	c.JSON(http.StatusCreated, res)
}

func (rc *ResourceController) List(c *gin.Context) {
	v, err := rc.cached("resources:all", func() (any, error) {
		return rc.Repo.ListResources(c.Request.Context())
	})
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"resources": v})
}

func (rc *ResourceController) Get(c *gin.Context) {
	id := c.Param("id")
	v, err := rc.cached("resources:"+id, func() (any, error) {
		return rc.Repo.FindResourceByID(c.Request.Context(), id)
	})
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type updateStatusReq struct {
	Status models.ResourceStatus `json:"status" binding:"required"`
	Notes  string                `json:"notes"`
}

// UpdateStatus covers the loan-independent admin path (dañado, mantenimiento,
// disponible). prestado is owned by the loan lifecycle and rejected here.
func (rc *ResourceController) UpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	res, err := rc.Life.UpdateResourceStatus(c.Request.Context(), c.Param("id"), req.Status, req.Notes)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (rc *ResourceController) Delete(c *gin.Context) {
	if err := rc.Repo.DeleteResource(c.Request.Context(), c.Param("id")); err != nil {
		httpError(c, err)
		return
	}
	rc.Cache.Invalidate("resources")
	rc.Pub.Publish(c.Request.Context(), notify.EntityResources, "delete")
	c.JSON(http.StatusOK, app.H{"ok": true})
}
