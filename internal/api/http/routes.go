package httpapi

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"weather-lookup/internal/history"
	"weather-lookup/internal/pipeline"
	"weather-lookup/internal/scheduler"
)

var validate = validator.New()

// DefaultAddress is the placeholder surfaced to UI clients when no address
// has been submitted yet.
const DefaultAddress = "1 Infinite Loop, Cupertino, California"

// recentWindow caps how many history rows the forecast and history views
// return.
const recentWindow = 4

// Deps bundles the collaborators the HTTP layer needs.
type Deps struct {
	Lookup    *pipeline.Lookup
	History   history.Store
	Scheduler *scheduler.Scheduler
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
//
// Authentication is handled upstream; handlers trust the X-User-ID header
// the fronting auth layer sets and reject requests without it.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1", requireUser)

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		var req forecastQuery
		req.Address = c.Query("address")
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		userID := currentUser(c)
		resp := fiber.Map{}

		if req.Address == "" {
			resp["default_address"] = DefaultAddress
		} else {
			reading, err := deps.Lookup.Execute(c.Context(), userID, req.Address)
			if err != nil {
				// A failed lookup degrades to a warning; the request itself
				// still succeeds and renders history.
				log.Printf("forecast: lookup failed for user %s: %v", userID, err)
				resp["warning"] = err.Error()
			}
			if reading != nil {
				resp["weather"] = reading
			}
		}

		recent, err := deps.History.Recent(c.Context(), userID, recentWindow)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load search history")
		}
		resp["history"] = historyItems(recent)

		return c.JSON(resp)
	})

	v1.Get("/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rows, err := deps.History.Recent(c.Context(), currentUser(c), req.Limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load search history")
		}
		return c.JSON(historyItems(rows))
	})

	v1.Get("/history/all", func(c *fiber.Ctx) error {
		rows, err := deps.History.ByUser(c.Context(), currentUser(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load search history")
		}
		return c.JSON(rows)
	})

	v1.Post("/refresh", func(c *fiber.Ctx) error {
		id := deps.Scheduler.TriggerNow()
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"message": "weather refresh started",
			"id":      id,
		})
	})
}

func requireUser(c *fiber.Ctx) error {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing user identity")
	}
	c.Locals("userID", userID)
	return c.Next()
}

func currentUser(c *fiber.Ctx) string {
	return c.Locals("userID").(string)
}

// forecastQuery holds query parameters for the lookup endpoint. The address
// is optional; without it the response carries only history.
type forecastQuery struct {
	Address string `validate:"omitempty,max=512"`
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Limit int `validate:"min=1,max=50"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	h.Limit = c.QueryInt("limit", recentWindow)
	return validate.Struct(h)
}

// historyItem is the trimmed listing view of a stored lookup.
type historyItem struct {
	Town        string  `json:"town"`
	Temperature float64 `json:"temperature"`
	Description string  `json:"description"`
	PostalCode  string  `json:"postal_code"`
}

func historyItems(rows []history.SearchHistory) []historyItem {
	items := make([]historyItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, historyItem{
			Town:        r.Town,
			Temperature: r.Temperature,
			Description: r.Description,
			PostalCode:  r.PostalCode,
		})
	}
	return items
}
