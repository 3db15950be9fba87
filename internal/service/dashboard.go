package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/pineapple_admin/internal/audit"
	"github.com/Skotchmaster/pineapple_admin/internal/models"
	"github.com/Skotchmaster/pineapple_admin/internal/session"
	"github.com/Skotchmaster/pineapple_admin/pkg/apiclient"
	"github.com/Skotchmaster/pineapple_admin/pkg/logging"
)

const recentActivity = 5

// ActivitySource lists the latest audit events, newest first.
type ActivitySource interface {
	Recent(ctx context.Context, size int) ([]audit.Event, error)
}

type Overview struct {
	Stats    models.DashboardStats
	User     *models.User
	Activity []audit.Event
}

type DashboardService struct {
	base
	Activity ActivitySource
}

func NewDashboardService(api *apiclient.Client, store session.Store, activity ActivitySource) *DashboardService {
	return &DashboardService{base: base{API: api, Store: store}, Activity: activity}
}

// Stats loads products and the current user side by side. Only the product
// list is required; a failing /auth/me falls back to the stored user unless
// the API rejected the session.
func (s *DashboardService) Stats(ctx context.Context, sid string) (*Overview, error) {
	client := s.client(sid)
	l := logging.FromContext(ctx)

	var (
		products []models.Product
		user     *models.User
		activity []audit.Event
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var out apiclient.Envelope[[]models.Product]
		if err := client.Get(gctx, "/productos", &out); err != nil {
			return err
		}
		products = out.Data
		return nil
	})
	g.Go(func() error {
		var out apiclient.Envelope[models.User]
		err := client.Get(gctx, "/auth/me", &out)
		switch {
		case err == nil:
			user = &out.Data
		case errors.Is(err, apiclient.ErrUnauthenticated):
			return err
		default:
			l.Warn("me_failed", "status", apiclient.StatusOf(err), "error", err)
		}
		return nil
	})
	if s.Activity != nil {
		g.Go(func() error {
			events, err := s.Activity.Recent(gctx, recentActivity)
			if err != nil {
				l.Warn("activity_failed", "error", err)
				return nil
			}
			activity = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if user == nil {
		user, _ = s.Store.CurrentUser(ctx, sid)
	}
	return &Overview{Stats: ComputeStats(products), User: user, Activity: activity}, nil
}

func ComputeStats(products []models.Product) models.DashboardStats {
	stats := models.DashboardStats{TotalProducts: len(products)}
	for _, p := range products {
		if p.LowStock() {
			stats.LowStock++
		}
	}
	return stats
}
