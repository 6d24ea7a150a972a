package artifact

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bibbank/bib/services/review-service/internal/domain/feature"
	"github.com/bibbank/bib/services/review-service/internal/domain/model"
	"github.com/bibbank/bib/services/review-service/internal/domain/port"
	"github.com/bibbank/bib/services/review-service/internal/infrastructure/ml"
)

// Paths locates the on-disk model artifacts.
type Paths struct {
	Scaler     string
	Classifier string
}

// BindFunc connects to the embedding runtime and returns a ready embedder.
type BindFunc func(ctx context.Context) (port.Embedder, error)

// Artifacts are the loaded, mutually consistent model components.
// They are read-only after Load returns.
type Artifacts struct {
	Scaler     *ml.StandardScaler
	Classifier *ml.TreeEnsemble
	Embedder   port.Embedder
	Schema     *feature.Schema
}

// Load reads the scaler and classifier, binds the embedder and checks that
// all three agree on the feature layout. Every failure wraps
// model.ErrArtifactLoad.
func Load(ctx context.Context, paths Paths, bind BindFunc, logger *slog.Logger) (*Artifacts, error) {
	scaler, err := ml.LoadScaler(paths.Scaler)
	if err != nil {
		return nil, loadError("scaler", err)
	}

	classifier, err := ml.LoadTreeEnsemble(paths.Classifier)
	if err != nil {
		return nil, loadError("classifier", err)
	}

	embedder, err := bind(ctx)
	if err != nil {
		return nil, loadError("embedder", err)
	}

	schema, err := feature.NewSchema(embedder.Width())
	if err != nil {
		return nil, loadError("schema", err)
	}

	if scaler.Dim() != schema.Len() {
		return nil, loadError("scaler", fmt.Errorf("%w: scaler has %d features, schema has %d",
			model.ErrFeatureSchemaMismatch, scaler.Dim(), schema.Len()))
	}
	if names := scaler.FeatureNames(); names != nil {
		if err := schema.Verify(names); err != nil {
			return nil, loadError("scaler", err)
		}
	}
	if classifier.NumFeatures() != schema.Len() {
		return nil, loadError("classifier", fmt.Errorf("%w: classifier has %d features, schema has %d",
			model.ErrFeatureSchemaMismatch, classifier.NumFeatures(), schema.Len()))
	}
	if names := classifier.FeatureNames(); names != nil {
		if err := schema.Verify(names); err != nil {
			return nil, loadError("classifier", err)
		}
	}

	logger.Info("model artifacts loaded",
		"scaler_path", paths.Scaler,
		"classifier_path", paths.Classifier,
		"trees", classifier.NumTrees(),
		"embedding_width", schema.EmbeddingWidth(),
		"features", schema.Len(),
	)

	return &Artifacts{
		Scaler:     scaler,
		Classifier: classifier,
		Embedder:   embedder,
		Schema:     schema,
	}, nil
}

func loadError(component string, err error) error {
	return fmt.Errorf("%w: %s: %w", model.ErrArtifactLoad, component, err)
}
