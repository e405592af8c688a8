// SPDX-License-Identifier: MIT

package serve_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/lvlearn/nn"
	"github.com/katalvlaran/lvlearn/serve"
)

func newModel(t *testing.T) *nn.Sequential {
	t.Helper()
	m, err := nn.NewSequential(nn.Shape{Timesteps: 3, Features: 1},
		nn.SimpleRNN(4, nn.Tanh),
		nn.Dense(2, nn.Softmax),
	)
	require.NoError(t, err)
	require.NoError(t, m.Compile(nn.CategoricalCrossentropy, nn.NewAdam(0)))
	return m
}

var inputs = [][]float64{{0.1, 0.2, 0.3}, {0.3, 0.2, 0.1}}

type ServerSuite struct {
	suite.Suite
	model  *nn.Sequential
	server *serve.Server
}

func (s *ServerSuite) SetupTest() {
	s.model = newModel(s.T())
	s.server = serve.NewServer(s.model, serve.DefaultConfig(), zerolog.Nop())
}

func (s *ServerSuite) post(route string, body []byte, headers map[string]string) *http.Response {
	req := httptest.NewRequest(http.MethodPost, route, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.server.App().Test(req, -1)
	s.Require().NoError(err)
	return resp
}

func (s *ServerSuite) decode(resp *http.Response, out any) {
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Require().NoError(sonic.Unmarshal(b, out), string(b))
}

func (s *ServerSuite) body() []byte {
	b, err := sonic.Marshal(serve.PredictRequest{Inputs: inputs})
	s.Require().NoError(err)
	return b
}

func (s *ServerSuite) TestHealth() {
	resp, err := s.server.App().Test(httptest.NewRequest(http.MethodGet, serve.RouteHealth, nil), -1)
	s.Require().NoError(err)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var h serve.HealthResponse
	s.decode(resp, &h)
	s.Require().Equal("ok", h.Status)
}

func (s *ServerSuite) TestModelInfo() {
	resp, err := s.server.App().Test(httptest.NewRequest(http.MethodGet, serve.RouteModel, nil), -1)
	s.Require().NoError(err)

	var info serve.ModelInfo
	s.decode(resp, &info)
	s.Require().Equal(nn.Shape{Timesteps: 3, Features: 1}, info.InputShape)
	s.Require().Equal(2, info.OutputUnits)
	s.Require().Equal(s.model.ParamCount(), info.Params)
	s.Require().Equal(nn.CategoricalCrossentropy, info.Loss)
	s.Require().Len(info.Layers, 2)
}

func (s *ServerSuite) TestPredictMatchesModel() {
	want, err := s.model.Predict(mat.NewDense(2, 3, []float64{0.1, 0.2, 0.3, 0.3, 0.2, 0.1}))
	s.Require().NoError(err)

	resp := s.post(serve.RoutePredict, s.body(), nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var out serve.PredictResponse
	s.decode(resp, &out)
	s.Require().Len(out.Outputs, 2)
	for i, row := range out.Outputs {
		s.Require().InDeltaSlice(want.RawRowView(i), row, 1e-12)
	}

	resp = s.post(serve.RoutePredictClasses, s.body(), nil)
	var classes serve.ClassesResponse
	s.decode(resp, &classes)
	wantClasses, err := s.model.PredictClasses(mat.NewDense(2, 3, []float64{0.1, 0.2, 0.3, 0.3, 0.2, 0.1}))
	s.Require().NoError(err)
	s.Require().Equal(wantClasses, classes.Classes)

	resp = s.post(serve.RoutePredictProba, s.body(), nil)
	var proba serve.ProbaResponse
	s.decode(resp, &proba)
	s.Require().Equal(out.Outputs, proba.Probabilities)
}

func (s *ServerSuite) TestBadRequests() {
	cases := map[string][]byte{
		"not json":    []byte("{"),
		"empty":       []byte(`{"inputs":[]}`),
		"ragged":      []byte(`{"inputs":[[1,2,3],[1,2]]}`),
		"wrong width": []byte(`{"inputs":[[1,2]]}`),
	}
	for name, body := range cases {
		resp := s.post(serve.RoutePredict, body, nil)
		s.Require().Equal(http.StatusBadRequest, resp.StatusCode, name)

		var e serve.ErrorResponse
		s.decode(resp, &e)
		s.Require().NotEmpty(e.Error, name)
	}
}

func (s *ServerSuite) TestZstdBodies() {
	enc, err := zstd.NewWriter(nil)
	s.Require().NoError(err)
	compressed := enc.EncodeAll(s.body(), nil)
	s.Require().NoError(enc.Close())

	resp := s.post(serve.RoutePredictClasses, compressed, map[string]string{
		"Content-Encoding": "zstd",
		"Accept-Encoding":  "zstd",
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().Equal("zstd", resp.Header.Get("Content-Encoding"))

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	dec, err := zstd.NewReader(nil)
	s.Require().NoError(err)
	defer dec.Close()
	plain, err := dec.DecodeAll(raw, nil)
	s.Require().NoError(err)

	var classes serve.ClassesResponse
	s.Require().NoError(sonic.Unmarshal(plain, &classes))
	s.Require().Len(classes.Classes, 2)

	resp = s.post(serve.RoutePredict, []byte("not zstd"), map[string]string{"Content-Encoding": "zstd"})
	s.Require().Equal(http.StatusBadRequest, resp.StatusCode)

	// Inflated size is bounded by the body limit, not the compressed size.
	cfg := serve.DefaultConfig()
	cfg.BodySizeLimit = 4096
	small := serve.NewServer(s.model, cfg, zerolog.Nop())
	zeros := make([]byte, 8<<20)

	frame, err := zstd.NewWriter(nil)
	s.Require().NoError(err)
	defer frame.Close()

	var streamed bytes.Buffer
	sw, err := zstd.NewWriter(&streamed)
	s.Require().NoError(err)
	_, err = sw.Write(zeros)
	s.Require().NoError(err)
	s.Require().NoError(sw.Close())

	for name, payload := range map[string][]byte{
		"single frame": frame.EncodeAll(zeros, nil),
		"streamed":     streamed.Bytes(),
	} {
		s.Require().Less(len(payload), cfg.BodySizeLimit, name)
		req := httptest.NewRequest(http.MethodPost, serve.RoutePredict, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Content-Encoding", "zstd")
		resp, err := small.App().Test(req, -1)
		s.Require().NoError(err, name)
		s.Require().Equal(http.StatusRequestEntityTooLarge, resp.StatusCode, name)
	}

	req := httptest.NewRequest(http.MethodPost, serve.RoutePredictClasses, bytes.NewReader(compressed))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "zstd")
	resp, err = small.App().Test(req, -1)
	s.Require().NoError(err)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

// startServer runs the app on an ephemeral port and returns its base URL.
func startServer(t *testing.T, srv *serve.Server) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.App().Listener(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown(time.Second) })

	return "http://" + ln.Addr().String()
}

func TestClientRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		m := newModel(t)
		cfg := serve.DefaultConfig()
		cfg.Compress = compress
		cfg.ClientTimeout = 5 * time.Second
		url := startServer(t, serve.NewServer(m, cfg, zerolog.Nop()))

		client := serve.NewClient(url, cfg)
		ctx := context.Background()
		require.Eventually(t, func() bool { return client.Health(ctx) == nil }, 5*time.Second, 20*time.Millisecond)

		info, err := client.Model(ctx)
		require.NoError(t, err)
		require.Equal(t, m.ParamCount(), info.Params)

		outputs, err := client.Predict(ctx, inputs)
		require.NoError(t, err)
		want, err := m.Predict(mat.NewDense(2, 3, []float64{0.1, 0.2, 0.3, 0.3, 0.2, 0.1}))
		require.NoError(t, err)
		for i := range outputs {
			require.InDeltaSlice(t, want.RawRowView(i), outputs[i], 1e-12)
		}

		classes, err := client.PredictClasses(ctx, inputs)
		require.NoError(t, err)
		wantClasses, err := m.PredictClasses(mat.NewDense(2, 3, []float64{0.1, 0.2, 0.3, 0.3, 0.2, 0.1}))
		require.NoError(t, err)
		require.Equal(t, wantClasses, classes)

		proba, err := client.PredictProba(ctx, inputs)
		require.NoError(t, err)
		require.Equal(t, outputs, proba)

		_, err = client.Predict(ctx, [][]float64{{1}})
		var se *serve.StatusError
		require.True(t, errors.As(err, &se))
		require.Equal(t, http.StatusBadRequest, se.Code)
	}
}
