// SPDX-License-Identifier: MIT

package checkpoint_test

import (
	"context"
	"encoding/binary"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/lvlearn/checkpoint"
	"github.com/katalvlaran/lvlearn/nn"
)

// CheckpointSuite trains a small sequence classifier once per test and
// persists it through both codecs.
type CheckpointSuite struct {
	suite.Suite
	dir   string
	model *nn.Sequential
	X, y  *mat.Dense
}

func (s *CheckpointSuite) SetupTest() {
	s.dir = s.T().TempDir()

	rng := rand.New(rand.NewPCG(3, 5))
	const n, steps = 32, 4
	s.X = mat.NewDense(n, steps, nil)
	s.y = mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		dir := -1.0
		if i%2 == 0 {
			dir = 1
			s.y.Set(i, 0, 1)
		}
		for t := 0; t < steps; t++ {
			s.X.Set(i, t, dir*0.2*float64(t)+0.05*rng.NormFloat64())
		}
	}

	m, err := nn.NewSequential(nn.Shape{Timesteps: steps, Features: 1},
		nn.SimpleRNN(5, nn.Tanh),
		nn.Dense(1, nn.Sigmoid),
	)
	s.Require().NoError(err)
	s.Require().NoError(m.Compile(nn.BinaryCrossentropy, nn.NewAdam(0.01)))
	_, err = m.Fit(context.Background(), s.X, s.y, nn.WithEpochs(2), nn.WithBatchSize(8))
	s.Require().NoError(err)
	s.model = m
}

func (s *CheckpointSuite) roundTrip(name string, opts ...checkpoint.Option) *nn.Sequential {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(checkpoint.Save(path, s.model, opts...))

	loaded, err := checkpoint.Load(path)
	s.Require().NoError(err)

	return loaded
}

func (s *CheckpointSuite) requireSamePredictions(loaded *nn.Sequential) {
	want, err := s.model.Predict(s.X)
	s.Require().NoError(err)
	got, err := loaded.Predict(s.X)
	s.Require().NoError(err)
	s.Require().Equal(want.RawMatrix().Data, got.RawMatrix().Data)

	wantC, err := s.model.PredictClasses(s.X)
	s.Require().NoError(err)
	gotC, err := loaded.PredictClasses(s.X)
	s.Require().NoError(err)
	s.Require().Equal(wantC, gotC)
}

func (s *CheckpointSuite) TestArchiveRoundTrip() {
	loaded := s.roundTrip("model.lvm")
	s.requireSamePredictions(loaded)
	s.Require().Equal(s.model.Optimizer().State(), loaded.Optimizer().State())
}

func (s *CheckpointSuite) TestSQLiteRoundTrip() {
	loaded := s.roundTrip("model.db")
	s.requireSamePredictions(loaded)
	s.Require().Equal(s.model.Optimizer().State(), loaded.Optimizer().State())
}

func (s *CheckpointSuite) TestForcedFormatIsDetectedOnLoad() {
	path := filepath.Join(s.dir, "model.bin")
	s.Require().NoError(checkpoint.Save(path, s.model, checkpoint.WithFormat(checkpoint.SQLite)))

	raw, err := os.ReadFile(path)
	s.Require().NoError(err)
	s.Require().Equal("SQLite format 3\x00", string(raw[:16]))

	loaded, err := checkpoint.Load(path)
	s.Require().NoError(err)
	s.requireSamePredictions(loaded)
}

func (s *CheckpointSuite) TestCompressionLevelsAgree() {
	fast := s.roundTrip("fast.lvm", checkpoint.WithCompressionLevel(zstd.SpeedFastest))
	best := s.roundTrip("best.lvm", checkpoint.WithCompressionLevel(zstd.SpeedBestCompression))
	s.requireSamePredictions(fast)
	s.requireSamePredictions(best)
}

func (s *CheckpointSuite) TestResumeTrainingAfterLoad() {
	loaded := s.roundTrip("resume.lvm")

	ctx := context.Background()
	h1, err := s.model.Fit(ctx, s.X, s.y, nn.WithEpochs(1), nn.WithBatchSize(8))
	s.Require().NoError(err)
	h2, err := loaded.Fit(ctx, s.X, s.y, nn.WithEpochs(1), nn.WithBatchSize(8))
	s.Require().NoError(err)
	s.Require().Equal(h1.Loss, h2.Loss)
}

func (s *CheckpointSuite) TestInspectAndMetadata() {
	for _, name := range []string{"meta.lvm", "meta.sqlite"} {
		path := filepath.Join(s.dir, name)
		s.Require().NoError(checkpoint.Save(path, s.model,
			checkpoint.WithMetadata(map[string]string{"dataset": "trends"})))

		h, err := checkpoint.Inspect(path)
		s.Require().NoError(err, name)
		s.Require().Equal(checkpoint.Version, h.Version)
		s.Require().Equal("trends", h.Metadata["dataset"])
		s.Require().Equal(nn.BinaryCrossentropy, h.Model.Loss)
		s.Require().Len(h.Model.Layers, 2)
		// 3 RNN + 2 Dense weights, then m and v for each of them.
		s.Require().Len(h.Tensors, 5+2*5)
		s.Require().Equal(s.model.Optimizer().State().Step, h.OptimizerStep)
	}
}

func (s *CheckpointSuite) TestOverwriteLeavesNoTempFiles() {
	path := filepath.Join(s.dir, "same.lvm")
	s.Require().NoError(checkpoint.Save(path, s.model))
	s.Require().NoError(checkpoint.Save(path, s.model))

	entries, err := os.ReadDir(s.dir)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
}

func (s *CheckpointSuite) TestCorruption() {
	path := filepath.Join(s.dir, "model.lvm")
	s.Require().NoError(checkpoint.Save(path, s.model))
	raw, err := os.ReadFile(path)
	s.Require().NoError(err)

	write := func(name string, b []byte) string {
		p := filepath.Join(s.dir, name)
		s.Require().NoError(os.WriteFile(p, b, 0o644))
		return p
	}
	clone := func() []byte { return append([]byte(nil), raw...) }

	badMagic := clone()
	badMagic[0] = 'X'
	_, err = checkpoint.Load(write("magic.lvm", badMagic))
	s.Require().ErrorIs(err, checkpoint.ErrBadMagic)

	badVersion := clone()
	badVersion[8] = 0xFF
	_, err = checkpoint.Load(write("version.lvm", badVersion))
	s.Require().ErrorIs(err, checkpoint.ErrUnsupportedVersion)

	badTrailer := clone()
	badTrailer[len(badTrailer)-1] ^= 0xFF
	_, err = checkpoint.Load(write("trailer.lvm", badTrailer))
	s.Require().ErrorIs(err, checkpoint.ErrChecksum)

	_, err = checkpoint.Load(write("truncated.lvm", raw[:len(raw)/2]))
	s.Require().Error(err)

	_, err = checkpoint.Load(write("empty.lvm", nil))
	s.Require().ErrorIs(err, checkpoint.ErrBadMagic)

	_, err = checkpoint.Load(filepath.Join(s.dir, "missing.lvm"))
	s.Require().ErrorIs(err, fs.ErrNotExist)

	// A well-formed container whose header claims 1<<60 rows must not overflow the offset math.
	huge := sealArchive(s.T(), `{"format":"lvlearn.sequential","version":1,"model":{},`+
		`"tensors":[{"name":"w","group":"weights","rows":1152921504606846976,"cols":1,"offset":0}]}`)
	_, err = checkpoint.Load(write("huge.lvm", huge))
	s.Require().ErrorIs(err, checkpoint.ErrCorrupt)
	_, err = checkpoint.Inspect(filepath.Join(s.dir, "huge.lvm"))
	s.Require().ErrorIs(err, checkpoint.ErrCorrupt)

	wrapped := sealArchive(s.T(), `{"format":"lvlearn.sequential","version":1,"model":{},`+
		`"tensors":[{"name":"w","group":"weights","rows":1,"cols":1,"offset":9223372036854775800}]}`)
	_, err = checkpoint.Load(write("wrapped.lvm", wrapped))
	s.Require().ErrorIs(err, checkpoint.ErrCorrupt)
}

// sealArchive wraps a raw header in a valid container: magic, version, zstd payload and digest.
func sealArchive(t *testing.T, header string) []byte {
	t.Helper()
	payload := binary.LittleEndian.AppendUint32(nil, uint32(len(header)))
	payload = append(payload, header...)

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()

	out := append([]byte("LVLMODEL"), 1, 0)
	out = enc.EncodeAll(payload, out)

	return binary.LittleEndian.AppendUint64(out, xxhash.Sum64(payload))
}

func (s *CheckpointSuite) TestSaveErrors() {
	s.Require().ErrorIs(checkpoint.Save(filepath.Join(s.dir, "nil.lvm"), nil), checkpoint.ErrNilModel)

	err := checkpoint.Save(filepath.Join(s.dir, "no", "such", "dir.lvm"), s.model)
	s.Require().ErrorIs(err, fs.ErrNotExist)
}

func TestCheckpointSuite(t *testing.T) {
	suite.Run(t, new(CheckpointSuite))
}

func TestUncompiledModelRoundTrip(t *testing.T) {
	m, err := nn.NewSequential(nn.Shape{Timesteps: 1, Features: 3}, nn.Dense(2, nn.Softmax))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "plain.lvm")
	require.NoError(t, checkpoint.Save(path, m))
	loaded, err := checkpoint.Load(path)
	require.NoError(t, err)
	require.False(t, loaded.Compiled())
	require.Equal(t, m.Snapshot().Weights, loaded.Snapshot().Weights)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]checkpoint.Format{
		"":        checkpoint.Auto,
		"archive": checkpoint.Archive,
		"SQLite":  checkpoint.SQLite,
	} {
		got, err := checkpoint.ParseFormat(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := checkpoint.ParseFormat("hdf5")
	require.ErrorIs(t, err, checkpoint.ErrUnknownFormat)
}
