package model

import (
	"bytes"
	"crypto/sha256"
	"encoding"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Mady2005/multi-modal-price-prediction/internal/catalog"
	"github.com/Mady2005/multi-modal-price-prediction/internal/domain"
	"github.com/Mady2005/multi-modal-price-prediction/internal/infrastructure/gbdt"
	"github.com/Mady2005/multi-modal-price-prediction/internal/infrastructure/tfidf"
)

// Artifact file names inside a model directory
const (
	ManifestFile   = "manifest.yaml"
	VectorizerFile = "vectorizer.bin"
	RegressorFile  = "regressor.bin"
)

// SchemaVersion is bumped whenever the artifact layout or the feature row
// layout changes. Artifacts of another version are refused.
const SchemaVersion = 1

const (
	artifactMagic  = "PRICEPRED-ARTIFACT"
	kindVectorizer = "vectorizer"
	kindRegressor  = "regressor"
)

// Manifest describes a saved model directory
type Manifest struct {
	SchemaVersion     int                 `yaml:"schema_version"`
	LineageID         string              `yaml:"lineage_id"`
	CreatedAt         time.Time           `yaml:"created_at"`
	FeatureWidth      int                 `yaml:"feature_width"`
	EngineeredColumns []string            `yaml:"engineered_columns"`
	VectorizerTerms   int                 `yaml:"vectorizer_terms"`
	Regressor         gbdt.Config         `yaml:"regressor"`
	Vocabulary        *catalog.Vocabulary `yaml:"vocabulary"`
}

// envelope wraps every binary artifact so that a file can be checked for
// format, version, lineage and integrity before its payload is decoded
type envelope struct {
	Magic         string
	SchemaVersion int
	Kind          string
	LineageID     string
	Checksum      [sha256.Size]byte
	Payload       []byte
}

// Manifest returns the manifest that Save writes for this model
func (m *Model) Manifest() Manifest {
	return Manifest{
		SchemaVersion:     SchemaVersion,
		LineageID:         m.LineageID,
		CreatedAt:         m.CreatedAt.UTC(),
		FeatureWidth:      m.Width(),
		EngineeredColumns: m.featurizer.Assembler().ColumnNames(),
		VectorizerTerms:   m.Vectorizer.Width(),
		Regressor:         m.Regressor.Config,
		Vocabulary:        m.Vocabulary,
	}
}

// Save writes the model into dir. Binary artifacts are written first and the
// manifest last, each through a rename, so a reader never sees a manifest
// pointing at half-written files.
func (m *Model) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	if err := writeEnvelope(filepath.Join(dir, VectorizerFile), kindVectorizer, m.LineageID, m.Vectorizer); err != nil {
		return err
	}
	if err := writeEnvelope(filepath.Join(dir, RegressorFile), kindRegressor, m.LineageID, m.Regressor); err != nil {
		return err
	}

	data, err := yaml.Marshal(m.Manifest())
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return writeFileAtomic(filepath.Join(dir, ManifestFile), data)
}

// Load reads a model directory written by Save. Any missing, corrupt or
// mismatched file is an error; nothing is substituted.
func Load(dir string) (*Model, error) {
	manifest, err := readManifest(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}

	var vectorizer tfidf.Vectorizer
	if err := readEnvelope(filepath.Join(dir, VectorizerFile), kindVectorizer, manifest.LineageID, &vectorizer); err != nil {
		return nil, err
	}
	var regressor gbdt.Model
	if err := readEnvelope(filepath.Join(dir, RegressorFile), kindRegressor, manifest.LineageID, &regressor); err != nil {
		return nil, err
	}

	m, err := New(manifest.LineageID, manifest.CreatedAt, manifest.Vocabulary, &vectorizer, &regressor)
	if err != nil {
		return nil, err
	}
	if m.Width() != manifest.FeatureWidth {
		return nil, fmt.Errorf("%w: manifest declares %d features, artifacts produce %d",
			domain.ErrSchemaMismatch, manifest.FeatureWidth, m.Width())
	}
	return m, nil
}

func readManifest(path string) (*Manifest, error) {
	data, err := readArtifact(path)
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrArtifactCorrupt, path, err)
	}
	if manifest.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: %s has schema version %d, want %d",
			domain.ErrArtifactIncompatible, path, manifest.SchemaVersion, SchemaVersion)
	}
	if manifest.LineageID == "" {
		return nil, fmt.Errorf("%w: %s has no lineage id", domain.ErrArtifactCorrupt, path)
	}
	if manifest.Vocabulary == nil {
		return nil, fmt.Errorf("%w: %s has no vocabulary", domain.ErrArtifactCorrupt, path)
	}
	if err := manifest.Vocabulary.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrArtifactCorrupt, path, err)
	}
	return &manifest, nil
}

func writeEnvelope(path, kind, lineageID string, payload encoding.BinaryMarshaler) error {
	data, err := payload.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}

	env := envelope{
		Magic:         artifactMagic,
		SchemaVersion: SchemaVersion,
		Kind:          kind,
		LineageID:     lineageID,
		Checksum:      sha256.Sum256(data),
		Payload:       data,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(env); err != nil {
		return fmt.Errorf("encode %s envelope: %w", kind, err)
	}
	return writeFileAtomic(path, buf.Bytes())
}

func readEnvelope(path, kind, lineageID string, into encoding.BinaryUnmarshaler) error {
	data, err := readArtifact(path)
	if err != nil {
		return err
	}

	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrArtifactCorrupt, path, err)
	}
	if env.Magic != artifactMagic {
		return fmt.Errorf("%w: %s is not a model artifact", domain.ErrArtifactCorrupt, path)
	}
	if env.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%w: %s has schema version %d, want %d",
			domain.ErrArtifactIncompatible, path, env.SchemaVersion, SchemaVersion)
	}
	if env.Kind != kind {
		return fmt.Errorf("%w: %s holds a %s, want %s", domain.ErrArtifactIncompatible, path, env.Kind, kind)
	}
	if sha256.Sum256(env.Payload) != env.Checksum {
		return fmt.Errorf("%w: %s checksum mismatch", domain.ErrArtifactCorrupt, path)
	}
	if env.LineageID != lineageID {
		return fmt.Errorf("%w: %s belongs to lineage %s, manifest is %s",
			domain.ErrSchemaMismatch, path, env.LineageID, lineageID)
	}
	if err := into.UnmarshalBinary(env.Payload); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrArtifactCorrupt, path, err)
	}
	return nil
}

func readArtifact(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrArtifactMissing, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
