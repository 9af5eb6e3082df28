// Command twinnet-demo builds the three labelers from a config and runs one
// forward pass over a batch of sine waves.
//
//	twinnet-demo [config.yaml]
package main

import (
	"fmt"
	"log"
	"math"
	"os"

	"github.com/AaronAnima/Twinnet/backend"
	"github.com/AaronAnima/Twinnet/config"
	"github.com/AaronAnima/Twinnet/model"
	"github.com/AaronAnima/Twinnet/tensor"
)

const (
	batch = 2
	steps = 20
)

// sineBatch returns [batch, steps, features]; row b is phase shifted by b.
func sineBatch(features int) (*tensor.Tensor, error) {
	data := make([]float32, batch*steps*features)
	for b := 0; b < batch; b++ {
		for t := 0; t < steps; t++ {
			for f := 0; f < features; f++ {
				x := float64(t+f)/4 + float64(b)
				data[(b*steps+t)*features+f] = float32(math.Sin(x))
			}
		}
	}
	return tensor.FromFloat32(data, batch, steps, features)
}

// argmax returns the highest-scoring class at every position of [B, T, C].
func argmax(scores *tensor.Tensor) [][]int {
	b, t, c := scores.Shape[0], scores.Shape[1], scores.Shape[2]
	v := scores.Float32()
	out := make([][]int, b)
	for i := range out {
		out[i] = make([]int, t)
		for j := 0; j < t; j++ {
			row := v[(i*t+j)*c : (i*t+j+1)*c]
			for k := 1; k < c; k++ {
				if row[k] > row[out[i][j]] {
					out[i][j] = k
				}
			}
		}
	}
	return out
}

func main() {
	path := ""
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	dev, err := backend.Select(cfg.Device)
	if err != nil {
		log.Fatalf("device: %v", err)
	}
	log.Printf("device %s", backend.Describe(dev))

	x, err := sineBatch(cfg.InputSize)
	if err != nil {
		log.Fatalf("input: %v", err)
	}

	lp, err := model.NewLabelerParams(cfg)
	if err != nil {
		log.Fatalf("labeler: %v", err)
	}
	scores, err := model.Labeler(cfg, lp)(x)
	if err != nil {
		log.Fatalf("labeler: %v", err)
	}
	log.Printf("labeler: %d parameters, scores %v", lp.Params().NumElements(), scores.Shape)

	tp, err := model.NewTwinParams(cfg)
	if err != nil {
		log.Fatalf("twin: %v", err)
	}
	twinScores, states, err := model.Twin(cfg, tp)(x)
	if err != nil {
		log.Fatalf("twin: %v", err)
	}
	log.Printf("twin (reverse=%v): %d parameters, scores %v, states %v",
		cfg.Reverse, tp.Params().NumElements(), twinScores.Shape, states.Shape)

	// TwinNet reads one scalar per step.
	netCfg := cfg
	netCfg.InputSize = 1
	scalar, err := sineBatch(1)
	if err != nil {
		log.Fatalf("input: %v", err)
	}
	np, err := model.NewTwinNetParams(netCfg)
	if err != nil {
		log.Fatalf("twinnet: %v", err)
	}
	fwd, back, err := model.TwinNet(netCfg, np)(scalar)
	if err != nil {
		log.Fatalf("twinnet: %v", err)
	}
	log.Printf("twinnet: %d parameters, forward %v, backward %v",
		np.Params().NumElements(), fwd.Shape, back.Shape)

	fmt.Println("labeler classes:", argmax(scores))
	fmt.Println("twinnet forward classes:", argmax(fwd))
	fmt.Println("twinnet backward classes:", argmax(back))
}
