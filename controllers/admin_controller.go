package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"school_resource_hub/app"

	"github.com/gin-gonic/gin"
)

// AdminController exposes the consistency surface: diagnose first, then
// conditionally fix. Responses always carry the full counts and error list.
type AdminController struct{ *Srv }

func NewAdminController(s *Srv) *AdminController { return &AdminController{Srv: s} }

func (ac *AdminController) Diagnose(c *gin.Context) {
	report, err := ac.Rec.Diagnose(c.Request.Context())
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (ac *AdminController) Fix(c *gin.Context) {
	report, err := ac.Rec.Fix(c.Request.Context())
	if err != nil {
		httpError(c, err)
		return
	}
	ac.audit(c, "", "fix", fmt.Sprintf("%d corrected, %d errors", report.RecursosCorregidos, len(report.Errors)))
	c.JSON(http.StatusOK, report)
}

func (ac *AdminController) TransitionLog(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	logs, err := ac.Repo.ListTransitionLogs(c.Request.Context(), c.Query("loanId"), limit)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"entries": logs})
}
