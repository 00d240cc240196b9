package voice

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
)

// Model is a feed-forward network deserialized from a JSON artifact exported
// by the training pipeline. It is loaded once at startup and is safe for
// concurrent use.
type Model struct {
	inputDim int
	layers   []denseLayer
}

type denseLayer struct {
	weights    *mat.Dense // inputs x outputs
	bias       *mat.Dense // 1 x outputs
	activation string
}

type modelSpec struct {
	InputDim int         `json:"input_dim"`
	Layers   []layerSpec `json:"layers"`
}

type layerSpec struct {
	Activation string      `json:"activation"`
	Weights    [][]float64 `json:"weights"`
	Biases     []float64   `json:"biases"`
}

// LoadModel reads and validates a serialized model artifact
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}

	var spec modelSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse model file: %w", err)
	}

	if spec.InputDim <= 0 {
		return nil, fmt.Errorf("model input_dim must be positive, got %d", spec.InputDim)
	}
	if len(spec.Layers) == 0 {
		return nil, fmt.Errorf("model has no layers")
	}

	model := &Model{inputDim: spec.InputDim}
	prevDim := spec.InputDim
	for i, l := range spec.Layers {
		if len(l.Weights) != prevDim {
			return nil, fmt.Errorf("layer %d: expected %d weight rows, got %d", i, prevDim, len(l.Weights))
		}
		outDim := len(l.Biases)
		if outDim == 0 {
			return nil, fmt.Errorf("layer %d: empty bias vector", i)
		}

		flat := make([]float64, 0, prevDim*outDim)
		for r, row := range l.Weights {
			if len(row) != outDim {
				return nil, fmt.Errorf("layer %d: weight row %d has %d columns, expected %d", i, r, len(row), outDim)
			}
			flat = append(flat, row...)
		}

		switch l.Activation {
		case "relu", "sigmoid", "tanh", "linear":
		default:
			return nil, fmt.Errorf("layer %d: unsupported activation %q", i, l.Activation)
		}

		model.layers = append(model.layers, denseLayer{
			weights:    mat.NewDense(prevDim, outDim, flat),
			bias:       mat.NewDense(1, outDim, l.Biases),
			activation: l.Activation,
		})
		prevDim = outDim
	}

	last := model.layers[len(model.layers)-1]
	if _, cols := last.weights.Dims(); cols != 1 {
		return nil, fmt.Errorf("final layer must have a single output, got %d", prevDim)
	}
	if last.activation != "sigmoid" {
		return nil, fmt.Errorf("final layer activation must be sigmoid, got %q", last.activation)
	}

	return model, nil
}

// InputDim returns the expected feature vector length
func (m *Model) InputDim() int {
	return m.inputDim
}

// Predict runs the forward pass and returns the positive-class probability
func (m *Model) Predict(features []float64) (float64, error) {
	if len(features) != m.inputDim {
		return 0, fmt.Errorf("expected %d features, got %d", m.inputDim, len(features))
	}

	x := mat.NewDense(1, m.inputDim, features)
	for _, layer := range m.layers {
		_, outDim := layer.weights.Dims()
		y := mat.NewDense(1, outDim, nil)
		y.Mul(x, layer.weights)
		y.Add(y, layer.bias)
		applyActivation(y, layer.activation)
		x = y
	}

	return x.At(0, 0), nil
}

func applyActivation(m *mat.Dense, activation string) {
	rows, cols := m.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := m.At(r, c)
			switch activation {
			case "relu":
				if v < 0 {
					v = 0
				}
			case "sigmoid":
				v = 1 / (1 + math.Exp(-v))
			case "tanh":
				v = math.Tanh(v)
			}
			m.Set(r, c, v)
		}
	}
}
