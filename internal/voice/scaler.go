package voice

// Standardization constants captured from the training pipeline's fitted
// scaler. These must match the training data exactly or predictions drift.
var scalerMean = [numMFCC]float64{
	-233.23172052589382, 208.9925267215066, -69.96216482119941, -17.912778577080843, 0.9710564632231081,
	-39.03255755380845, 13.329869740841552, 9.818470685097866, -26.96551459534487, 4.256489320346613,
	3.4151535812943536, -15.043113048586278, 2.5658866759726315, -6.564097938704974, -15.370565869618085,
	-0.03985351861996725, -7.598832500858031, -9.147705943441727, 1.3806584800501736, -7.7013746950285675,
	-6.066502381758076, 1.106044023566357, -7.277421055647133, -3.6192629746611757, 0.3223162010889238,
	-6.4588717895222745, -1.1920983581667102, 0.3750919050809232, -4.3454433630806495, 1.92989537198842,
	1.527214350487639, -2.041173422119379, 3.4903673890293816, 1.2663787664091892, -0.5768835478103741,
	4.842929320660215, 1.4795529401118914, -0.07482238009816884, 3.32468245362758, -0.48629802894918467,
}

var scalerScale = [numMFCC]float64{
	43.79166776107933, 25.098320242328658, 27.47236977717347, 15.41126449698062, 15.299606277764694,
	14.548644937262765, 14.348055886988748, 11.423489137250344, 9.417242242201539, 11.034930039304104,
	7.485101877508501, 9.069648775752773, 8.541214502558583, 8.54362532566373, 6.630800975143475,
	7.903991772197426, 6.610877977767781, 6.178388938940979, 7.3237717680231675, 6.243125204829299,
	5.442014671860252, 6.401086915835411, 6.690410390984811, 6.897311014088648, 8.425743231792376,
	8.799747829109947, 8.792460199388715, 9.057045191365566, 10.163408456892999, 11.949173669053183,
	12.049259701192712, 11.471112944674381, 12.211991570661157, 12.815409320577174, 12.542136505839315,
	12.36693117298452, 12.260388661722384, 12.100840964436408, 11.785625572043537, 11.262541953940874,
}

// standardize applies the fitted scaler to a feature vector. Zero scale
// entries are treated as 1 to avoid division by zero.
func standardize(features []float64) []float64 {
	out := make([]float64, len(features))
	for i, v := range features {
		scale := scalerScale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - scalerMean[i]) / scale
	}
	return out
}
