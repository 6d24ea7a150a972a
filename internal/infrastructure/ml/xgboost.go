package ml

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/bibbank/bib/services/review-service/internal/domain/port"
	"github.com/bibbank/bib/services/review-service/internal/domain/valueobject"
)

// Compile-time interface checks.
var (
	_ port.Classifier = (*TreeEnsemble)(nil)
	_ port.Scaler     = (*StandardScaler)(nil)
)

const (
	objectiveBinaryLogistic = "binary:logistic"
	boosterGBTree           = "gbtree"
	leafMarker              = -1
)

// xgbModelDocument mirrors the parts of an XGBoost JSON model we evaluate.
type xgbModelDocument struct {
	Learner struct {
		FeatureNames    []string `json:"feature_names"`
		GradientBooster struct {
			Name  string `json:"name"`
			Model struct {
				Trees []xgbTreeDocument `json:"trees"`
			} `json:"model"`
		} `json:"gradient_booster"`
		LearnerModelParam struct {
			BaseScore  xgbNumber `json:"base_score"`
			NumClass   xgbNumber `json:"num_class"`
			NumFeature xgbNumber `json:"num_feature"`
		} `json:"learner_model_param"`
		Objective struct {
			Name string `json:"name"`
		} `json:"objective"`
	} `json:"learner"`
}

type xgbTreeDocument struct {
	LeftChildren    []int     `json:"left_children"`
	RightChildren   []int     `json:"right_children"`
	SplitIndices    []int     `json:"split_indices"`
	SplitConditions []float64 `json:"split_conditions"`
	DefaultLeft     []xgbBool `json:"default_left"`
	SplitType       []int     `json:"split_type"`
	Categories      []int     `json:"categories"`
}

// xgbNumber accepts the numeric parameters XGBoost writes as strings,
// including the bracketed vector form ("[5E-1]") of newer releases.
type xgbNumber string

func (n *xgbNumber) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	*n = xgbNumber(strings.Trim(strings.TrimSpace(s), "[]"))
	return nil
}

func (n xgbNumber) Float() (float64, error) {
	if n == "" {
		return 0, fmt.Errorf("missing value")
	}
	return strconv.ParseFloat(string(n), 64)
}

func (n xgbNumber) Int() (int, error) {
	if n == "" {
		return 0, nil
	}
	return strconv.Atoi(string(n))
}

// xgbBool accepts both 0/1 and true/false encodings of default_left.
type xgbBool bool

func (b *xgbBool) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "1", "true":
		*b = true
	case "0", "false":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %s", data)
	}
	return nil
}

type treeNode struct {
	left        int32
	right       int32
	feature     int32
	threshold   float32
	defaultLeft bool
}

type regressionTree struct {
	nodes []treeNode
}

// TreeEnsemble is a binary logistic gradient-boosted tree model.
// Class 0 is fake and class 1 is real. It is immutable after load.
type TreeEnsemble struct {
	trees        []regressionTree
	baseMargin   float64
	numFeatures  int
	featureNames []string
}

// LoadTreeEnsemble reads an XGBoost JSON model from path.
func LoadTreeEnsemble(path string) (*TreeEnsemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier %s: %w", path, err)
	}
	return ParseTreeEnsemble(data)
}

// ParseTreeEnsemble decodes and validates an XGBoost JSON model.
func ParseTreeEnsemble(data []byte) (*TreeEnsemble, error) {
	var doc xgbModelDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode classifier: %w", err)
	}
	learner := doc.Learner

	if name := learner.Objective.Name; name != objectiveBinaryLogistic {
		return nil, fmt.Errorf("unsupported objective %q, want %q", name, objectiveBinaryLogistic)
	}
	if name := learner.GradientBooster.Name; name != boosterGBTree {
		return nil, fmt.Errorf("unsupported booster %q, want %q", name, boosterGBTree)
	}
	if numClass, err := learner.LearnerModelParam.NumClass.Int(); err != nil || numClass > 1 {
		return nil, fmt.Errorf("unsupported num_class %q", learner.LearnerModelParam.NumClass)
	}

	numFeatures, err := learner.LearnerModelParam.NumFeature.Int()
	if err != nil || numFeatures <= 0 {
		return nil, fmt.Errorf("invalid num_feature %q", learner.LearnerModelParam.NumFeature)
	}

	baseScore, err := learner.LearnerModelParam.BaseScore.Float()
	if err != nil {
		return nil, fmt.Errorf("invalid base_score %q: %w", learner.LearnerModelParam.BaseScore, err)
	}
	if baseScore <= 0 || baseScore >= 1 {
		return nil, fmt.Errorf("base_score %v outside (0, 1)", baseScore)
	}

	treeDocs := learner.GradientBooster.Model.Trees
	if len(treeDocs) == 0 {
		return nil, fmt.Errorf("classifier has no trees")
	}

	trees := make([]regressionTree, len(treeDocs))
	for i, td := range treeDocs {
		tree, err := buildTree(td, numFeatures)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		trees[i] = tree
	}

	if len(learner.FeatureNames) > 0 && len(learner.FeatureNames) != numFeatures {
		return nil, fmt.Errorf("classifier has %d feature names for %d features", len(learner.FeatureNames), numFeatures)
	}

	return &TreeEnsemble{
		trees:        trees,
		baseMargin:   logit(baseScore),
		numFeatures:  numFeatures,
		featureNames: learner.FeatureNames,
	}, nil
}

func buildTree(td xgbTreeDocument, numFeatures int) (regressionTree, error) {
	n := len(td.LeftChildren)
	if n == 0 {
		return regressionTree{}, fmt.Errorf("empty tree")
	}
	if len(td.RightChildren) != n || len(td.SplitIndices) != n ||
		len(td.SplitConditions) != n || len(td.DefaultLeft) != n {
		return regressionTree{}, fmt.Errorf("node arrays have inconsistent lengths")
	}
	if len(td.Categories) > 0 {
		return regressionTree{}, fmt.Errorf("categorical splits are not supported")
	}
	for _, st := range td.SplitType {
		if st != 0 {
			return regressionTree{}, fmt.Errorf("categorical splits are not supported")
		}
	}

	nodes := make([]treeNode, n)
	for i := 0; i < n; i++ {
		left, right := td.LeftChildren[i], td.RightChildren[i]
		node := treeNode{
			left:        int32(left),
			right:       int32(right),
			feature:     int32(td.SplitIndices[i]),
			threshold:   float32(td.SplitConditions[i]),
			defaultLeft: bool(td.DefaultLeft[i]),
		}
		if left != leafMarker {
			// Children always follow their parent, which also rules out cycles.
			if left <= i || left >= n || right <= i || right >= n {
				return regressionTree{}, fmt.Errorf("node %d has invalid children %d, %d", i, left, right)
			}
			if td.SplitIndices[i] < 0 || td.SplitIndices[i] >= numFeatures {
				return regressionTree{}, fmt.Errorf("node %d splits on feature %d, model has %d", i, td.SplitIndices[i], numFeatures)
			}
		}
		nodes[i] = node
	}

	return regressionTree{nodes: nodes}, nil
}

// leaf walks the tree and returns the leaf value for x. Features are
// compared in single precision, as the trees were grown on float32 data.
func (t regressionTree) leaf(x []float64) float32 {
	idx := int32(0)
	for {
		node := t.nodes[idx]
		if node.left == leafMarker {
			return node.threshold
		}
		v := x[node.feature]
		switch {
		case math.IsNaN(v):
			if node.defaultLeft {
				idx = node.left
			} else {
				idx = node.right
			}
		case float32(v) < node.threshold:
			idx = node.left
		default:
			idx = node.right
		}
	}
}

// Margin returns the raw log-odds of the real class.
func (e *TreeEnsemble) Margin(features []float64) (float64, error) {
	if len(features) != e.numFeatures {
		return 0, fmt.Errorf("classifier expects %d features, got %d", e.numFeatures, len(features))
	}
	var sum float32
	for _, t := range e.trees {
		sum += t.leaf(features)
	}
	return e.baseMargin + float64(sum), nil
}

// PredictProba returns P(fake) and P(real).
func (e *TreeEnsemble) PredictProba(features []float64) (pFake, pReal float64, err error) {
	margin, err := e.Margin(features)
	if err != nil {
		return 0, 0, err
	}
	pReal = sigmoid(margin)
	return 1 - pReal, pReal, nil
}

// Predict returns the most probable class.
func (e *TreeEnsemble) Predict(features []float64) (valueobject.ReviewLabel, error) {
	pFake, pReal, err := e.PredictProba(features)
	if err != nil {
		return valueobject.ReviewLabel{}, err
	}
	prediction, err := valueobject.NewPredictionPair(pFake, pReal)
	if err != nil {
		return valueobject.ReviewLabel{}, err
	}
	return prediction.Label(), nil
}

// NumFeatures returns the input width the model was trained on.
func (e *TreeEnsemble) NumFeatures() int {
	return e.numFeatures
}

// NumTrees returns the number of boosted trees.
func (e *TreeEnsemble) NumTrees() int {
	return len(e.trees)
}

// FeatureNames returns the names stored with the model, or nil.
func (e *TreeEnsemble) FeatureNames() []string {
	if len(e.featureNames) == 0 {
		return nil
	}
	out := make([]string, len(e.featureNames))
	copy(out, e.featureNames)
	return out
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
