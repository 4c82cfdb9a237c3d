package experiment

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/evaluation"
	"github.com/Nicksa888/pima-diabetes-tidymodels/internal/preprocessing"
)

// Config controls one comparison run. Zero values fall back to the
// defaults below, so a partial YAML file is fine.
type Config struct {
	Experiment struct {
		Data          string             `yaml:"data"`
		LabelColumn   string             `yaml:"label_column"`
		Folds         int                `yaml:"folds"`
		TrainFraction float64            `yaml:"train_fraction"`
		Seed          int64              `yaml:"seed"`
		SearchBudget  int                `yaml:"search_budget"`
		TargetMetric  string             `yaml:"target_metric"`
		Metrics       []string           `yaml:"metrics"`
		MaxWorkers    int                `yaml:"max_workers"`
		Preprocessing preprocessing.Spec `yaml:"preprocessing"`
	} `yaml:"experiment"`
}

func DefaultConfig() *Config {
	config := &Config{}
	config.applyDefaults()
	return config
}

// LoadConfig reads a YAML config file and fills in defaults for anything
// it leaves out.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	config := &Config{}
	if err := yaml.Unmarshal(raw, config); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	config.applyDefaults()
	return config, nil
}

func (c *Config) applyDefaults() {
	exp := &c.Experiment
	if exp.Folds == 0 {
		exp.Folds = 5
	}
	if exp.TrainFraction == 0 {
		exp.TrainFraction = 0.8
	}
	if exp.Seed == 0 {
		exp.Seed = 42
	}
	if exp.SearchBudget == 0 {
		exp.SearchBudget = 20
	}
	if exp.TargetMetric == "" {
		exp.TargetMetric = evaluation.MetricAUC
	}
	if len(exp.Metrics) == 0 {
		exp.Metrics = evaluation.DefaultMetricSet()
	}
	if exp.MaxWorkers == 0 {
		exp.MaxWorkers = 4
	}
	if exp.Preprocessing.Scale == "" {
		exp.Preprocessing = preprocessing.DefaultSpec()
	}
}
