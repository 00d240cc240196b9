package voice

import (
	"fmt"
	"io"
)

const (
	LabelParkinsons = "Parkinson's"
	LabelHealthy    = "Healthy"
)

// Result is the outcome of classifying a voice recording
type Result struct {
	// Prediction is LabelParkinsons or LabelHealthy
	Prediction string

	// Confidence is the probability of the predicted label, in [0,1]
	Confidence float64

	// Probability is the raw positive-class probability from the model
	Probability float64

	// RawFeatures holds the first few unscaled MFCC values for debugging
	RawFeatures []float64
}

// Classifier screens voice recordings for Parkinson's indicators using MFCC
// features and the trained model.
type Classifier struct {
	model *Model
}

// NewClassifier loads the model artifact and returns a ready classifier
func NewClassifier(modelPath string) (*Classifier, error) {
	model, err := LoadModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load voice model: %w", err)
	}
	if model.InputDim() != numMFCC {
		return nil, fmt.Errorf("voice model expects %d inputs, feature extraction produces %d", model.InputDim(), numMFCC)
	}

	return &Classifier{model: model}, nil
}

// Classify decodes a WAV stream, extracts MFCC features and runs the model.
// Decode and length problems surface as ErrInvalidAudio / ErrAudioTooShort.
func (c *Classifier) Classify(r io.ReadSeeker) (*Result, error) {
	samples, err := LoadWAV(r)
	if err != nil {
		return nil, err
	}

	features, err := MFCC(samples)
	if err != nil {
		return nil, err
	}

	prob, err := c.model.Predict(standardize(features))
	if err != nil {
		return nil, fmt.Errorf("model prediction: %w", err)
	}

	result := &Result{
		Probability: prob,
		RawFeatures: features[:5],
	}
	if prob > 0.5 {
		result.Prediction = LabelParkinsons
		result.Confidence = prob
	} else {
		result.Prediction = LabelHealthy
		result.Confidence = 1 - prob
	}

	return result, nil
}
