package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pineapple_admin/internal/audit"
	"github.com/Skotchmaster/pineapple_admin/internal/middleware/auth"
	"github.com/Skotchmaster/pineapple_admin/internal/models"
	"github.com/Skotchmaster/pineapple_admin/internal/notify"
	"github.com/Skotchmaster/pineapple_admin/internal/service"
	"github.com/Skotchmaster/pineapple_admin/internal/web"
	"github.com/Skotchmaster/pineapple_admin/pkg/apiclient"
	"github.com/Skotchmaster/pineapple_admin/pkg/logging"
)

const msgStatsFailed = "Error al cargar las estadísticas"

type DashboardHandler struct {
	Dashboard *service.DashboardService
}

type dashboardView struct {
	Stats    models.DashboardStats
	Activity []audit.Event
}

func (h *DashboardHandler) Show(c echo.Context) error {
	ctx := c.Request().Context()
	page := web.Page{Title: "Dashboard", Active: "dashboard", Data: dashboardView{}}

	ov, err := h.Dashboard.Stats(ctx, auth.SessionID(c))
	if err != nil {
		if rejected(err) {
			return err
		}
		logging.FromContext(ctx).Error("stats_failed", "status", apiclient.StatusOf(err), "error", err)
		notify.For(c).Error(msgStatsFailed)
		return render(c, http.StatusOK, web.PageDashboard, page)
	}

	page.User = ov.User
	page.Data = dashboardView{Stats: ov.Stats, Activity: ov.Activity}
	return render(c, http.StatusOK, web.PageDashboard, page)
}

func Home(c echo.Context) error {
	return notify.Redirect(c, "/dashboard")
}
