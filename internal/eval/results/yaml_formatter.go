package results

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/covermatch/internal/eval/metrics"
	"gopkg.in/yaml.v3"
)

// DefaultDir is where evaluation runs are written.
const DefaultDir = "evals"

// EvalConfig represents the configuration section of the eval YAML
type EvalConfig struct {
	Provider          string  `yaml:"provider"`
	Model             string  `yaml:"model"`
	Dimension         int     `yaml:"dimension"`
	DatasetPath       string  `yaml:"datasetpath"`
	SampleSize        int     `yaml:"samplesize"`
	Concurrency       int     `yaml:"concurrency"`
	StandardHigh      float64 `yaml:"standardhigh"`
	StandardLow       float64 `yaml:"standardlow"`
	StandardMinGap    float64 `yaml:"standardmingap"`
	CartoonHigh       float64 `yaml:"cartoonhigh"`
	CartoonLow        float64 `yaml:"cartoonlow"`
	CartoonMinGap     float64 `yaml:"cartoonmingap"`
	VarianceThreshold float64 `yaml:"variancethreshold"`
	Timestamp         string  `yaml:"timestamp"`
}

// EvalSpec represents the complete evaluation record
type EvalSpec struct {
	Config  EvalConfig                 `yaml:"config"`
	Summary *metrics.AggregateResults  `yaml:"summary"`
	Results []metrics.EvaluationResult `yaml:"results"`
}

// SaveToYAML saves an evaluation run to a timestamped YAML file in dir and
// returns its path.
func SaveToYAML(dir string, cfg EvalConfig, agg *metrics.AggregateResults) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create evals directory: %w", err)
	}

	if cfg.Timestamp == "" {
		cfg.Timestamp = time.Now().Format("2006-01-02_15-04-05")
	}

	spec := EvalSpec{
		Config:  cfg,
		Summary: agg,
		Results: agg.Results,
	}

	data, err := yaml.Marshal(&spec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", fileSafe(cfg.Provider+"-"+cfg.Model), cfg.Timestamp))
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return filename, nil
	}
	return absPath, nil
}

// LoadYAML reads an evaluation run written by SaveToYAML.
func LoadYAML(path string) (*EvalSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read eval file: %w", err)
	}

	var spec EvalSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse eval file: %w", err)
	}
	if spec.Summary != nil {
		spec.Summary.Results = spec.Results
	}
	return &spec, nil
}

func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, strings.Trim(name, "-"))
}
