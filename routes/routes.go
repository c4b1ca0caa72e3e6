package routes

import (
	"school_resource_hub/app"
	"school_resource_hub/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) *controllers.Srv {
	s := controllers.GetSrv(a)
	loanCtl := controllers.NewLoanController(s)
	resCtl := controllers.NewResourceController(s)
	rvCtl := controllers.NewReservationController(s)
	adminCtl := controllers.NewAdminController(s)

	userMW := app.UserRequired()
	adminMW := app.AdminOnly()

	// ------------------------------
	// Loans (lifecycle transitions)
	// ------------------------------
	loans := r.Group("/api/loans", userMW)
	{
		loans.POST("", loanCtl.Create)
		loans.GET("", loanCtl.List) // ?status=&userId=
		loans.GET("/:id", loanCtl.Get)
	}
	loansAdmin := r.Group("/api/loans", userMW, adminMW)
	{
		loansAdmin.POST("/:id/approve", loanCtl.Approve)
		loansAdmin.POST("/:id/reject", loanCtl.Reject)
		loansAdmin.POST("/:id/return", loanCtl.Return)
	}

	// ------------------------------
	// Resources
	// ------------------------------
	resources := r.Group("/api/resources", userMW)
	{
		resources.GET("", resCtl.List)
		resources.GET("/:id", resCtl.Get)
	}
	resourcesAdmin := r.Group("/api/resources", userMW, adminMW)
	{
		resourcesAdmin.POST("", resCtl.Create)
		resourcesAdmin.PATCH("/:id/status", resCtl.UpdateStatus)
		resourcesAdmin.DELETE("/:id", resCtl.Delete)
	}

	// ------------------------------
	// Reservations
	// ------------------------------
	reservations := r.Group("/api/reservations", userMW)
	{
		reservations.POST("", rvCtl.Create)
		reservations.GET("", rvCtl.List) // ?userId=&resourceId=
		reservations.DELETE("/:id", rvCtl.Delete)
	}
	reservationsAdmin := r.Group("/api/reservations", userMW, adminMW)
	{
		reservationsAdmin.PATCH("/:id/status", rvCtl.UpdateStatus)
	}

	// ------------------------------
	// Users (admin only)
	// ------------------------------
	userCtl := controllers.NewUserController(s)
	users := r.Group("/api/users", userMW, adminMW)
	{
		users.POST("", userCtl.Create)
		users.GET("", userCtl.List) // ?q=&page=&size=
		users.GET("/:id", userCtl.Get)
	}

	// ------------------------------
	// Consistency (admin panel)
	// ------------------------------
	admin := r.Group("/api/admin", userMW, adminMW)
	{
		admin.GET("/consistency", adminCtl.Diagnose)
		admin.POST("/consistency/fix", adminCtl.Fix)
		admin.GET("/transition-log", adminCtl.TransitionLog) // ?loanId=&limit=
	}

	return s
}
