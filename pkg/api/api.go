// Package api implements the REST API for evaluating expressions and
// browsing evaluation history.
package api

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lemonberrylabs/rpncalc/pkg/calc"
	"github.com/lemonberrylabs/rpncalc/pkg/expr"
	"github.com/lemonberrylabs/rpncalc/pkg/store"
	"github.com/lemonberrylabs/rpncalc/pkg/types"
	"github.com/valyala/fasthttp/expvarhandler"
)

// Server is the HTTP API server.
type Server struct {
	app     *fiber.App
	store   store.Backend
	cache   *calc.Cache
	metrics *Metrics
}

// New creates a new API server recording into s.
func New(s store.Backend, cache *calc.Cache, metrics *Metrics) *Server {
	srv := &Server{
		store:   s,
		cache:   cache,
		metrics: metrics,
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	app.Post("/v1/evaluations", srv.createEvaluation)
	app.Get("/v1/evaluations", srv.listEvaluations)
	app.Get("/v1/evaluations/:id", srv.getEvaluation)
	app.Post("/v1/postfix", srv.convert)

	app.Get("/debug/vars", func(c *fiber.Ctx) error {
		expvarhandler.ExpvarHandler(c.Context())
		return nil
	})

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

// Evaluate runs input through the cache, records it and updates metrics.
// It is shared by the HTTP, gRPC and web surfaces.
func (s *Server) Evaluate(input, source string) (*store.Evaluation, error) {
	return Evaluate(s.store, s.cache, s.metrics, input, source)
}

// Evaluate is the surface-independent evaluate-and-record operation. The
// returned error is only non-nil for storage failures; rejected expressions
// come back as FAILED evaluations.
func Evaluate(b store.Backend, cache *calc.Cache, m *Metrics, input, source string) (*store.Evaluation, error) {
	var (
		out *calc.Outcome
		hit bool
		err error
	)
	if cache != nil {
		out, hit, err = cache.Run(input)
	} else {
		out, err = calc.Run(input)
	}
	m.observe(err, hit)

	ev, recErr := b.Record(store.NewEvaluation(input, out, err, source))
	if recErr != nil {
		return nil, fmt.Errorf("recording evaluation: %w", recErr)
	}
	return ev, nil
}

// --- Evaluation Handlers ---

type evaluateRequest struct {
	Expression string `json:"expression"`
}

func (s *Server) createEvaluation(c *fiber.Ctx) error {
	var req evaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}
	if req.Expression == "" {
		return errorJSON(c, 400, "INVALID_ARGUMENT", "expression is required")
	}

	ev, err := s.Evaluate(req.Expression, store.SourceHTTP)
	if err != nil {
		log.Printf("Error recording evaluation: %v", err)
		return errorJSON(c, 500, "INTERNAL", err.Error())
	}

	if ev.State == store.EvaluationFailed {
		return c.Status(400).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    400,
				"message": ev.Error.Message,
				"status":  "INVALID_ARGUMENT",
				"tags":    ev.Error.Tags,
			},
			"evaluation": evaluationToJSON(ev),
		})
	}
	return c.Status(200).JSON(evaluationToJSON(ev))
}

func (s *Server) getEvaluation(c *fiber.Ctx) error {
	ev, err := s.store.Get(c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return errorJSON(c, 404, "NOT_FOUND", err.Error())
	}
	if err != nil {
		return errorJSON(c, 500, "INTERNAL", err.Error())
	}
	return c.JSON(evaluationToJSON(ev))
}

func (s *Server) listEvaluations(c *fiber.Ctx) error {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return errorJSON(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid limit %q", v))
		}
		limit = n
	}

	evs, err := s.store.List(limit)
	if err != nil {
		return errorJSON(c, 500, "INTERNAL", err.Error())
	}

	items := make([]fiber.Map, len(evs))
	for i, ev := range evs {
		items[i] = evaluationToJSON(ev)
	}
	return c.JSON(fiber.Map{
		"evaluations": items,
	})
}

// convert runs only the tokenizer and converter.
func (s *Server) convert(c *fiber.Ctx) error {
	var req evaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}

	tokens, err := calc.Postfix(req.Expression)
	if err != nil {
		body := fiber.Map{"message": err.Error()}
		if ce, ok := types.AsCalcError(err); ok {
			body = ce.ToMap()
		}
		body["code"] = 400
		body["status"] = "INVALID_ARGUMENT"
		return c.Status(400).JSON(fiber.Map{"error": body})
	}

	items := make([]fiber.Map, len(tokens))
	for i, tok := range tokens {
		items[i] = fiber.Map{
			"type":     tok.Type.String(),
			"value":    tok.Value,
			"position": tok.Pos,
		}
	}
	return c.JSON(fiber.Map{
		"expression": req.Expression,
		"postfix":    expr.Render(tokens),
		"tokens":     items,
	})
}

// --- Helpers ---

func errorJSON(c *fiber.Ctx, code int, status, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
			"status":  status,
		},
	})
}

func evaluationToJSON(ev *store.Evaluation) fiber.Map {
	result := fiber.Map{
		"name":       "evaluations/" + ev.ID,
		"id":         ev.ID,
		"expression": ev.Expression,
		"state":      ev.State,
		"createTime": ev.CreateTime.Format(time.RFC3339),
	}
	if ev.Source != "" {
		result["source"] = ev.Source
	}
	if ev.Postfix != "" {
		result["postfix"] = ev.Postfix
	}
	if ev.Result != "" {
		result["result"] = ev.Result
	}
	if ev.Error != nil {
		result["error"] = fiber.Map{
			"message": ev.Error.Message,
			"tags":    ev.Error.Tags,
		}
	}
	return result
}
