package console

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"charge-console/internal/schema"
	"charge-console/internal/session"
)

// DashboardSummary is the reduced shape behind the analytics charts.
type DashboardSummary struct {
	StationCount       int            `json:"stationCount"`
	BayCount           int            `json:"bayCount"`
	OperatorCount      int            `json:"operatorCount"`
	PendingRequests    int            `json:"pendingRequests"`
	BaysByStatus       map[string]int `json:"baysByStatus"`
	StationsByOperator map[string]int `json:"stationsByOperator"`
	ConnectorsByType   map[string]int `json:"connectorsByType"`
}

// Dashboard handles GET /api/dashboard/summary. The fetches run in
// parallel and share no state with the table controllers; a failing
// section degrades to zero counts plus a notice instead of failing
// the whole dashboard.
func (h *Handler) Dashboard(c *fiber.Ctx) error {
	sess := GetSession(c)

	summary := DashboardSummary{
		BaysByStatus:       make(map[string]int),
		StationsByOperator: make(map[string]int),
		ConnectorsByType:   make(map[string]int),
	}
	var mu sync.Mutex
	var notices []string

	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		notices = append(notices, err.Error())
	}

	g, ctx := errgroup.WithContext(c.Context())

	g.Go(func() error {
		rows, err := h.scopedList(ctx, sess, "Stations")
		if err != nil {
			fail(err)
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		summary.StationCount = len(rows)
		for _, r := range rows {
			op := schema.Stringify(r["operatorName"])
			if op == "" {
				op = "Unassigned"
			}
			summary.StationsByOperator[op]++
		}
		return nil
	})

	g.Go(func() error {
		rows, err := h.scopedList(ctx, sess, "ChargingBays")
		if err != nil {
			fail(err)
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		summary.BayCount = len(rows)
		for _, r := range rows {
			status := schema.Stringify(r["status"])
			if status == "" {
				status = "unknown"
			}
			summary.BaysByStatus[status]++
		}
		return nil
	})

	g.Go(func() error {
		rows, err := h.client.ConnectorTypes(ctx, sess.Token)
		if err != nil {
			fail(err)
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		for _, r := range rows {
			summary.ConnectorsByType[schema.Stringify(r["name"])]++
		}
		return nil
	})

	// Operator and request counts are admin-only views.
	if !sess.IsOperator() {
		g.Go(func() error {
			rows, err := h.client.List(ctx, sess.Token, "Operators")
			if err != nil {
				fail(err)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			summary.OperatorCount = len(rows)
			return nil
		})

		g.Go(func() error {
			rows, err := h.client.List(ctx, sess.Token, "AccountRequests")
			if err != nil {
				fail(err)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, r := range rows {
				if schema.Stringify(r["status"]) == "pending" {
					summary.PendingRequests++
				}
			}
			return nil
		})
	}

	// Sections report through fail and return nil, so Wait never
	// carries an error and no section cancels the others.
	_ = g.Wait()

	if notices == nil {
		notices = []string{}
	}
	return c.JSON(fiber.Map{"data": summary, "notices": notices})
}

// scopedList lists a resource through the tenant route for operator
// sessions and the flat route otherwise.
func (h *Handler) scopedList(ctx context.Context, sess *session.Session, resource string) ([]schema.Record, error) {
	if sess.IsOperator() {
		return h.client.ListByOperator(ctx, sess.Token, resource, sess.OperatorID)
	}
	return h.client.List(ctx, sess.Token, resource)
}
