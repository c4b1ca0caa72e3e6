package controllers

import (
	"fmt"
	"net/http"
	"time"

	"school_resource_hub/app"
	"school_resource_hub/models"
	"school_resource_hub/notify"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReservationController struct{ *Srv }

func NewReservationController(s *Srv) *ReservationController {
	return &ReservationController{Srv: s}
}

type createReservationReq struct {
	ResourceID string    `json:"resourceId" binding:"required"`
	StartsAt   time.Time `json:"startsAt" binding:"required"`
	EndsAt     time.Time `json:"endsAt" binding:"required"`
	Notes      string    `json:"notes"`
}

func (rc *ReservationController) Create(c *gin.Context) {
	var req createReservationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if !req.EndsAt.After(req.StartsAt) {
		c.JSON(http.StatusBadRequest, app.H{"error": "endsAt must be after startsAt"})
		return
	}
	if _, err := rc.Repo.FindResourceByID(c.Request.Context(), req.ResourceID); err != nil {
		httpError(c, err)
		return
	}
	rv := &models.Reservation{
		ID:         uuid.NewString(),
		UserID:     app.UserID(c),
		ResourceID: req.ResourceID,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
		Status:     models.ReservationPending,
		Notes:      req.Notes,
	}
	if err := rc.Repo.CreateReservation(c.Request.Context(), rv); err != nil {
		httpError(c, err)
		return
	}
	rc.Cache.Invalidate("reservations")
	rc.Pub.Publish(c.Request.Context(), notify.EntityReservations, "insert")
	c.JSON(http.StatusCreated, rv)
}

func (rc *ReservationController) List(c *gin.Context) {
	userID := c.Query("userId")
	resourceID := c.Query("resourceId")
	key := fmt.Sprintf("reservations:list:%s:%s", userID, resourceID)

	v, err := rc.cached(key, func() (any, error) {
		return rc.Repo.ListReservations(c.Request.Context(), userID, resourceID)
	})
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"reservations": v})
}

type reservationStatusReq struct {
	Status models.ReservationStatus `json:"status" binding:"required"`
}

func (rc *ReservationController) UpdateStatus(c *gin.Context) {
	var req reservationStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	switch req.Status {
	case models.ReservationPending, models.ReservationConfirmed, models.ReservationCancelled:
	default:
		c.JSON(http.StatusBadRequest, app.H{"error": "unknown reservation status"})
		return
	}
	rv, err := rc.Repo.UpdateReservationStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		httpError(c, err)
		return
	}
	rc.Cache.Invalidate("reservations")
	rc.Pub.Publish(c.Request.Context(), notify.EntityReservations, "update")
	c.JSON(http.StatusOK, rv)
}

func (rc *ReservationController) Delete(c *gin.Context) {
	if err := rc.Repo.DeleteReservation(c.Request.Context(), c.Param("id")); err != nil {
		httpError(c, err)
		return
	}
	rc.Cache.Invalidate("reservations")
	rc.Pub.Publish(c.Request.Context(), notify.EntityReservations, "delete")
	c.JSON(http.StatusOK, app.H{"ok": true})
}
