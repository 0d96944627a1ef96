package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fintrack_backend/middleware"
	"fintrack_backend/services"
)

// AlertController handles alert CRUD for the authenticated user.
type AlertController struct {
	alerts *services.AlertService
}

// NewAlertController creates a new alert controller.
func NewAlertController(alerts *services.AlertService) *AlertController {
	return &AlertController{alerts: alerts}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return uint(id), true
}

func authedUser(c *gin.Context) (uint, bool) {
	userID, found := middleware.UserID(c)
	if !found {
		fail(c, http.StatusUnauthorized, "Not authenticated")
		return 0, false
	}
	return userID, true
}

// Create creates an alert
// POST /api/v1/alerts
func (ac *AlertController) Create(c *gin.Context) {
	userID, authed := authedUser(c)
	if !authed {
		return
	}
	var input services.CreateAlertInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	alert, err := ac.alerts.CreateAlert(c.Request.Context(), userID, input)
	if err != nil {
		failErr(c, err)
		return
	}
	created(c, alert)
}

// List returns the user's alerts
// GET /api/v1/alerts
func (ac *AlertController) List(c *gin.Context) {
	userID, authed := authedUser(c)
	if !authed {
		return
	}
	alerts, err := ac.alerts.ListAlerts(c.Request.Context(), userID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, alerts)
}

// Get returns one alert
// GET /api/v1/alerts/:id
func (ac *AlertController) Get(c *gin.Context) {
	userID, authed := authedUser(c)
	if !authed {
		return
	}
	id, valid := pathID(c)
	if !valid {
		return
	}
	alert, err := ac.alerts.GetAlert(c.Request.Context(), id, userID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, alert)
}

// Triggered returns the user's fired alerts
// GET /api/v1/alerts/triggered
func (ac *AlertController) Triggered(c *gin.Context) {
	userID, authed := authedUser(c)
	if !authed {
		return
	}
	alerts, err := ac.alerts.TriggeredAlerts(c.Request.Context(), userID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, alerts)
}

// Toggle flips an alert's active flag
// POST /api/v1/alerts/:id/toggle
func (ac *AlertController) Toggle(c *gin.Context) {
	userID, authed := authedUser(c)
	if !authed {
		return
	}
	id, valid := pathID(c)
	if !valid {
		return
	}
	alert, err := ac.alerts.ToggleAlert(c.Request.Context(), id, userID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, alert)
}

// Delete removes an alert
// DELETE /api/v1/alerts/:id
func (ac *AlertController) Delete(c *gin.Context) {
	userID, authed := authedUser(c)
	if !authed {
		return
	}
	id, valid := pathID(c)
	if !valid {
		return
	}
	if err := ac.alerts.DeleteAlert(c.Request.Context(), id, userID); err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{"deleted": true})
}
