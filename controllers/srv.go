// controllers/srv.go
package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"school_resource_hub/app"
	"school_resource_hub/cache"
	"school_resource_hub/db"
	"school_resource_hub/lifecycle"
	"school_resource_hub/notify"
	"school_resource_hub/reconcile"

	"github.com/gin-gonic/gin"
)

type Srv struct {
	Repo  *db.Repo
	Cache *cache.Cache
	Life  *lifecycle.Service
	Rec   *reconcile.Engine
	Pub   *notify.Publisher
	Log   *slog.Logger
	Cfg   app.Config
}

func GetSrv(a *app.App) *Srv {
	repo := db.NewRepo(a.DB)
	pub := notify.NewPublisher(a.RDB, a.Log)
	return &Srv{
		Repo:  repo,
		Cache: a.Cache,
		Life:  lifecycle.NewService(repo, repo, a.Cache, pub, a.Log),
		Rec:   reconcile.NewEngine(repo, repo, repo, a.Cache, pub, a.Log),
		Pub:   pub,
		Log:   a.Log,
		Cfg:   a.Config,
	}
}

// cached is the read-through path: hit the cache, otherwise load and store
// under the entity-type prefixed key.
func (s *Srv) cached(key string, load func() (any, error)) (any, error) {
	if v, ok := s.Cache.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return nil, err
	}
	s.Cache.Set(key, v, s.Cfg.CacheTTL)
	return v, nil
}

// audit records a transition row; best-effort, never blocks the response.
func (s *Srv) audit(c *gin.Context, loanID, action, detail string) {
	if _, err := s.Repo.LogTransition(c.Request.Context(), loanID, app.UserID(c), action, detail); err != nil {
		s.Log.Warn("transition audit write failed", "action", action, "loan", loanID, "err", err)
	}
}

// httpError maps service errors onto status codes.
func httpError(c *gin.Context, err error) {
	var conflict *lifecycle.ConflictError
	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, app.H{
			"error":      conflict.Error(),
			"resourceId": conflict.ResourceID,
		})
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, lifecycle.ErrNoResources),
		errors.Is(err, lifecycle.ErrUnknownStatus),
		errors.Is(err, db.ErrResourceLoaned):
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
	}
}
