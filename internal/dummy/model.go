package dummy

// Sample is one flower: sepal length/width, petal length/width in cm.
type Sample [4]float64

// Classifier predicts a species and its confidence.
type Classifier interface {
	Predict(x Sample) (species string, confidence float64)
}

// DecisionTree is the depth-2 tree a default sklearn fit on iris converges
// to; leaf confidences are the training-set class purities.
type DecisionTree struct{}

func (DecisionTree) Predict(x Sample) (string, float64) {
	petalLength, petalWidth := x[2], x[3]
	switch {
	case petalLength <= 2.45:
		return "setosa", 1.0
	case petalWidth <= 1.75:
		return "versicolor", 49.0 / 54.0
	default:
		return "virginica", 45.0 / 46.0
	}
}
