package gait

import "google.golang.org/genai"

// Analysis is the structured gait assessment returned by the model
type Analysis struct {
	ParkinsonProbability   int     `json:"parkinson_probability"`
	FreezingPercentage     float64 `json:"freezing_percentage"`
	BradykinesiaScore      int     `json:"bradykinesia_score"`
	FreezingScore          int     `json:"freezing_score"`
	VariabilityScore       int     `json:"variability_score"`
	Reasoning              string  `json:"reasoning"`
	ClinicalInterpretation string  `json:"clinical_interpretation"`
	Recommendation         string  `json:"recommendation"`
}

const gaitPrompt = `You are an expert Neurologist. Analyze gait for Parkinson's.
Evaluate: Arm Swing, Stride Length, Turning Hesitation.
Return JSON: parkinson_probability (int), freezing_percentage (float),
bradykinesia_score (0-3), freezing_score (0-3), variability_score (0-3),
reasoning (str), clinical_interpretation (str), recommendation (str).`

// analysisSchema constrains the model output to the Analysis shape
func analysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"parkinson_probability":   {Type: genai.TypeInteger},
			"freezing_percentage":     {Type: genai.TypeNumber},
			"bradykinesia_score":      {Type: genai.TypeInteger},
			"freezing_score":          {Type: genai.TypeInteger},
			"variability_score":       {Type: genai.TypeInteger},
			"reasoning":               {Type: genai.TypeString},
			"clinical_interpretation": {Type: genai.TypeString},
			"recommendation":          {Type: genai.TypeString},
		},
		Required: []string{
			"parkinson_probability",
			"freezing_percentage",
			"bradykinesia_score",
			"freezing_score",
			"variability_score",
			"reasoning",
			"clinical_interpretation",
			"recommendation",
		},
	}
}
