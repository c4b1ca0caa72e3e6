package controllers

import (
	"fmt"
	"net/http"

	"school_resource_hub/app"
	"school_resource_hub/lifecycle"
	"school_resource_hub/models"

	"github.com/gin-gonic/gin"
)

type LoanController struct{ *Srv }

func NewLoanController(s *Srv) *LoanController { return &LoanController{Srv: s} }

type createLoanReq struct {
	UserID         string                    `json:"userId"`
	UserEmail      string                    `json:"userEmail"`
	Purpose        models.LoanPurpose        `json:"purpose" binding:"required"`
	PurposeDetails models.PurposeDetails     `json:"purposeDetails"`
	Resources      []models.ResourceSnapshot `json:"resources" binding:"required"`
}

func (lc *LoanController) Create(c *gin.Context) {
	var req createLoanReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	// A docente can only request for themselves; an admin may register a loan
	// on another user's behalf, by id or by email.
	role := app.Role(c)
	userID := req.UserID
	if role == models.RoleAdmin && userID == "" && req.UserEmail != "" {
		u, err := lc.Repo.FindUserByEmail(c.Request.Context(), req.UserEmail)
		if err != nil {
			httpError(c, err)
			return
		}
		userID = u.ID
	}
	if role != models.RoleAdmin || userID == "" {
		userID = app.UserID(c)
	}

	loan, err := lc.Life.Create(c.Request.Context(), lifecycle.CreateLoanInput{
		UserID:         userID,
		Purpose:        req.Purpose,
		PurposeDetails: req.PurposeDetails,
		Resources:      req.Resources,
	}, role)
	if err != nil {
		httpError(c, err)
		return
	}
	lc.audit(c, loan.ID, "create", string(loan.Status))
	c.JSON(http.StatusCreated, loan)
}

func (lc *LoanController) Approve(c *gin.Context) {
	lc.transition(c, models.LoanActive)
}

func (lc *LoanController) Reject(c *gin.Context) {
	lc.transition(c, models.LoanRejected)
}

func (lc *LoanController) transition(c *gin.Context, target models.LoanStatus) {
	loan, err := lc.Life.TransitionStatus(c.Request.Context(), c.Param("id"), target)
	if err != nil {
		httpError(c, err)
		return
	}
	lc.audit(c, loan.ID, string(target), "")
	c.JSON(http.StatusOK, loan)
}

type returnLoanReq struct {
	DamageReports     map[string]models.DamageReport     `json:"damageReports"`
	SuggestionReports map[string]models.SuggestionReport `json:"suggestionReports"`
	MissingResources  []models.MissingResource           `json:"missingResources"`
}

func (lc *LoanController) Return(c *gin.Context) {
	var req returnLoanReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	result, err := lc.Life.ProcessReturn(c.Request.Context(), c.Param("id"),
		req.DamageReports, req.SuggestionReports, req.MissingResources)
	if err != nil {
		httpError(c, err)
		return
	}
	lc.audit(c, result.Loan.ID, "return", fmt.Sprintf("%d resources updated, %d errors", len(result.UpdatedResources), len(result.Errors)))
	errs := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		errs = append(errs, e.Error())
	}
	c.JSON(http.StatusOK, app.H{
		"loan":             result.Loan,
		"updatedResources": result.UpdatedResources,
		"errors":           errs,
	})
}

func (lc *LoanController) List(c *gin.Context) {
	userID := c.Query("userId")
	status := models.LoanStatus(c.Query("status"))
	key := fmt.Sprintf("loans:list:%s:%s", userID, status)

	v, err := lc.cached(key, func() (any, error) {
		return lc.Repo.ListLoans(c.Request.Context(), userID, status)
	})
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"loans": v})
}

func (lc *LoanController) Get(c *gin.Context) {
	id := c.Param("id")
	v, err := lc.cached("loans:"+id, func() (any, error) {
		return lc.Repo.FindLoanByID(c.Request.Context(), id)
	})
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
