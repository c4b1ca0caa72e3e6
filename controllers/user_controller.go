package controllers

import (
	"net/http"
	"strconv"

	"school_resource_hub/app"
	"school_resource_hub/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserController struct{ *Srv }

func NewUserController(s *Srv) *UserController { return &UserController{Srv: s} }

type createUserReq struct {
	Name  string      `json:"name" binding:"required"`
	Email string      `json:"email" binding:"required,email"`
	Role  models.Role `json:"role"`
}

func (uc *UserController) Create(c *gin.Context) {
	var req createUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if req.Role != models.RoleAdmin {
		req.Role = models.RoleDocente
	}
	u := &models.User{ID: uuid.NewString(), Name: req.Name, Email: req.Email, Role: req.Role}
	if err := uc.Repo.CreateUser(c.Request.Context(), u); err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (uc *UserController) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	res, err := uc.Repo.ListUsers(c.Request.Context(), c.Query("q"), page, size)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (uc *UserController) Get(c *gin.Context) {
	u, err := uc.Repo.FindUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
