// Package devserver is a local stand-in for the invoice API. It answers the
// same createInvoice mutation the GraphQL gateway sends, re-validates the
// invoice with the form's own rules, and echoes back a created invoice with a
// server-side id and total. Nothing is stored.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"invoiceform/internal/gateway"
	"invoiceform/internal/invoice"
	"invoiceform/internal/logger"
)

// Config holds the local API settings.
type Config struct {
	// RateLimit is the number of requests a client may make per RateWindow.
	// Zero disables the limiter.
	RateLimit int

	// RateWindow is the limiter window. Default: 1 minute.
	RateWindow time.Duration

	// AllowedOrigins is the CORS origin list. Default: "*".
	AllowedOrigins string

	// BodyLimit caps request bodies in bytes. Default: 1 MiB.
	BodyLimit int
}

// Server wraps the fiber app serving /graphql.
type Server struct {
	app       *fiber.App
	validator invoice.Checker
	newID     func() string
	log       zerolog.Logger
}

// graphQLError is one entry of a GraphQL "errors" array.
type graphQLError struct {
	Message    string         `json:"message"`
	Path       []string       `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type createInvoiceRequest struct {
	Query         string `json:"query"`
	OperationName string `json:"operationName"`
	Variables     struct {
		Input *gateway.CreateInvoiceInput `json:"input"`
	} `json:"variables"`
}

type partyName struct {
	CompanyName string `json:"companyName,omitempty"`
	ClientName  string `json:"clientName,omitempty"`
}

type createdInvoice struct {
	ID          string              `json:"id"`
	BillingFrom partyName           `json:"billingFrom"`
	BillingTo   partyName           `json:"billingTo"`
	Items       []gateway.ItemInput `json:"items"`
	TotalAmount json.Number         `json:"totalAmount"`
}

// New creates the server and registers its routes.
func New(cfg Config) *Server {
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}
	if cfg.AllowedOrigins == "" {
		cfg.AllowedOrigins = "*"
	}
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = 1 << 20
	}

	s := &Server{
		validator: invoice.NewValidator(),
		newID:     uuid.NewString,
		log:       logger.WithComponent("devserver"),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "invoiceform local API",
		ErrorHandler:          s.errorHandler,
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
	})

	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	if cfg.RateLimit > 0 {
		s.app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit,
			Expiration: cfg.RateWindow,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"errors": []graphQLError{{Message: "rate limit exceeded"}},
				})
			},
		}))
	}

	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.app.Post("/graphql", s.handleGraphQL)

	return s
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.log.Info().Str("addr", addr).Msg("Local invoice API listening")
	return s.app.Listen(addr)
}

// Shutdown stops the server, waiting for in-flight requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleGraphQL(c *fiber.Ctx) error {
	var req createInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if !strings.Contains(req.Query, "createInvoice") {
		return fiber.NewError(fiber.StatusBadRequest, "only the createInvoice mutation is supported")
	}
	if req.Variables.Input == nil {
		return fiber.NewError(fiber.StatusBadRequest, "variable $input is required")
	}

	attrs := req.Variables.Input.CreateInvoiceAttributes
	inv := attrs.Invoice()

	if err := s.validator.Validate(inv); err != nil {
		var verrs invoice.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		s.log.Info().
			Strs("fields", verrs.Fields()).
			Msg("createInvoice rejected")
		return c.JSON(fiber.Map{
			"data":   fiber.Map{"createInvoice": nil},
			"errors": validationErrors(verrs),
		})
	}

	totals := invoice.CalculateTotals(inv.Items)
	created := createdInvoice{
		ID:          s.newID(),
		BillingFrom: partyName{CompanyName: attrs.CompanyName},
		BillingTo:   partyName{ClientName: attrs.ClientName},
		Items:       attrs.Items,
		TotalAmount: json.Number(totals.Total.StringFixed(2)),
	}
	if created.Items == nil {
		created.Items = []gateway.ItemInput{}
	}

	s.log.Info().
		Str("invoice_id", created.ID).
		Int("items", len(created.Items)).
		Str("total", string(created.TotalAmount)).
		Msg("createInvoice accepted")

	return c.JSON(fiber.Map{
		"data": fiber.Map{"createInvoice": created},
	})
}

func validationErrors(verrs invoice.ValidationErrors) []graphQLError {
	out := make([]graphQLError, 0, len(verrs))
	for _, field := range verrs.Fields() {
		fe := verrs[field]
		out = append(out, graphQLError{
			Message: fe.Message,
			Path:    []string{"createInvoice"},
			Extensions: map[string]any{
				"code":  "BAD_USER_INPUT",
				"field": fe.Field,
				"kind":  fe.Kind,
			},
		})
	}
	return out
}

// errorHandler reports transport-level failures in GraphQL error shape.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		s.log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	}

	return c.Status(code).JSON(fiber.Map{
		"errors": []graphQLError{{Message: message}},
	})
}
