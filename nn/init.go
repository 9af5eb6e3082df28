package nn

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/AaronAnima/Twinnet/backend"
	"github.com/AaronAnima/Twinnet/tensor"
)

// Initializer draws initial parameter values from a seeded source, so two
// initializers with the same seed produce identical parameters.
type Initializer struct {
	src rand.Source
}

// NewInitializer returns an Initializer seeded with seed.
func NewInitializer(seed uint64) *Initializer {
	return &Initializer{src: rand.NewSource(seed)}
}

// Uniform allocates a tensor of shape on dev with values drawn from U(-bound, bound).
// Values are generated on the host and moved to dev.
func (in *Initializer) Uniform(dev backend.Device, bound float64, shape ...int) (*tensor.Tensor, error) {
	n := 1
	for _, d := range shape {
		n *= d
	}
	u := distuv.Uniform{Min: -bound, Max: bound, Src: in.src}
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(u.Rand())
	}
	host, err := tensor.FromFloat32(data, shape...)
	if err != nil {
		return nil, err
	}
	return host.ToDevice(dev)
}

// fanBound is 1/sqrt(fan), the usual bound for recurrent and linear layers.
func fanBound(fan int) float64 {
	return 1 / math.Sqrt(float64(fan))
}
