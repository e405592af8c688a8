// SPDX-License-Identifier: MIT

package serve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/lvlearn/nn"
)

// Routes.
const (
	RouteHealth         = "/healthz"
	RouteModel          = "/v1/model"
	RoutePredict        = "/v1/predict"
	RoutePredictClasses = "/v1/predict/classes"
	RoutePredictProba   = "/v1/predict/proba"
)

// ErrBadRequest marks a malformed prediction request.
var ErrBadRequest = errors.New("serve: bad request")

// Server exposes a loaded model over HTTP. The model is only read, so
// concurrent requests share it.
type Server struct {
	app   *fiber.App
	cfg   Config
	model *nn.Sequential
	log   zerolog.Logger
}

// NewServer wires routes and middleware around model.
func NewServer(model *nn.Sequential, cfg Config, log zerolog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             cfg.BodySizeLimit,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
		},
	})

	app.Use(LoggerMiddleware(log))
	app.Use(ZstdMiddleware(cfg.BodySizeLimit, log))

	s := &Server{app: app, cfg: cfg, model: model, log: log}
	app.Get(RouteHealth, s.handleHealth)
	app.Get(RouteModel, s.handleModel)
	app.Post(RoutePredict, s.handlePredict)
	app.Post(RoutePredictClasses, s.handleClasses)
	app.Post(RoutePredictProba, s.handleProba)

	return s
}

// App exposes the fiber application, e.g. for app.Test in tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{Status: "ok"})
}

func (s *Server) handleModel(c *fiber.Ctx) error {
	return c.JSON(ModelInfo{
		Name:        s.model.Name(),
		InputShape:  s.model.InputShape(),
		Layers:      s.model.Layers(),
		OutputUnits: s.model.OutputUnits(),
		Params:      s.model.ParamCount(),
		Loss:        s.model.LossName(),
	})
}

func (s *Server) handlePredict(c *fiber.Ctx) error {
	X, err := s.decodeInputs(c)
	if err != nil {
		return s.badRequest(c, err)
	}
	out, err := s.model.Predict(X)
	if err != nil {
		return s.modelError(c, err)
	}

	return c.JSON(PredictResponse{Outputs: rowsOf(out)})
}

func (s *Server) handleClasses(c *fiber.Ctx) error {
	X, err := s.decodeInputs(c)
	if err != nil {
		return s.badRequest(c, err)
	}
	classes, err := s.model.PredictClasses(X)
	if err != nil {
		return s.modelError(c, err)
	}

	return c.JSON(ClassesResponse{Classes: classes})
}

func (s *Server) handleProba(c *fiber.Ctx) error {
	X, err := s.decodeInputs(c)
	if err != nil {
		return s.badRequest(c, err)
	}
	out, err := s.model.PredictProba(X)
	if err != nil {
		return s.modelError(c, err)
	}

	return c.JSON(ProbaResponse{Probabilities: rowsOf(out)})
}

// decodeInputs parses the request body into an n×width matrix.
func (s *Server) decodeInputs(c *fiber.Ctx) (*mat.Dense, error) {
	var req PredictRequest
	if err := sonic.Unmarshal(c.Body(), &req); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", ErrBadRequest)
	}

	return toDense(req.Inputs)
}

func (s *Server) badRequest(c *fiber.Ctx, err error) error {
	s.log.Warn().Err(err).Str("path", c.Path()).Msg("rejecting request")
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
}

// modelError maps nn.ErrShape to 400 and anything else to 500.
func (s *Server) modelError(c *fiber.Ctx, err error) error {
	if errors.Is(err, nn.ErrShape) || errors.Is(err, nn.ErrEmptyModel) {
		return s.badRequest(c, err)
	}
	s.log.Error().Err(err).Str("path", c.Path()).Msg("inference failed")

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
}

// Start listens on cfg.Address until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("address", s.cfg.Address).Msg("serving model")
		errCh <- s.app.Listen(s.cfg.Address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	return s.Shutdown(5 * time.Second)
}

// Shutdown stops accepting connections and waits up to timeout for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

func toDense(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("inputs must be a non-empty 2-D array: %w", ErrBadRequest)
	}
	width := len(rows[0])
	data := make([]float64, 0, len(rows)*width)
	for i, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("inputs row %d has %d values, want %d: %w", i, len(r), width, ErrBadRequest)
		}
		data = append(data, r...)
	}

	return mat.NewDense(len(rows), width, data), nil
}

func rowsOf(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = append([]float64(nil), m.RawRowView(i)...)
	}

	return out
}
