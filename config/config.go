// Copyright 2020 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

const (
	FormatNCF  = "ncf"
	FormatCDAE = "cdae"

	GroupPoint    = "point"
	GroupUser     = "user"
	GroupItem     = "item"
	GroupNeighbor = "neighbor"
)

// Config is the configuration of data preparation.
type Config struct {
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Sampling SamplingConfig `mapstructure:"sampling"`
	Grouping GroupingConfig `mapstructure:"grouping"`
	Export   ExportConfig   `mapstructure:"export"`
}

type DatasetConfig struct {
	Name   string `mapstructure:"name" validate:"required"`
	Path   string `mapstructure:"path" validate:"required"`
	Format string `mapstructure:"format" validate:"oneof=ncf cdae"`
}

type SamplingConfig struct {
	NumNegatives int     `mapstructure:"num_negatives" validate:"gte=0"`
	Epochs       int     `mapstructure:"epochs" validate:"gt=0"`
	Seed         int64   `mapstructure:"seed"`
	FlipRatio    float64 `mapstructure:"flip_ratio" validate:"gte=0,lte=1"`
}

type GroupingConfig struct {
	Type         string `mapstructure:"type" validate:"oneof=point user item neighbor"`
	NeighborType string `mapstructure:"neighbor_type" validate:"oneof=user item"`
	GroupSize    int    `mapstructure:"group_size" validate:"gte=1"`
	Jobs         int    `mapstructure:"jobs" validate:"gte=1"`
}

type ExportConfig struct {
	Enable bool   `mapstructure:"enable"`
	Dir    string `mapstructure:"dir"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Name:   "ml-1m",
			Path:   "data",
			Format: FormatNCF,
		},
		Sampling: SamplingConfig{
			NumNegatives: 1,
			Epochs:       10,
			Seed:         0,
			FlipRatio:    0,
		},
		Grouping: GroupingConfig{
			Type:         GroupPoint,
			NeighborType: "user",
			GroupSize:    2,
			Jobs:         1,
		},
		Export: ExportConfig{
			Enable: false,
			Dir:    "",
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [dataset]
	v.SetDefault("dataset.name", defaultConfig.Dataset.Name)
	v.SetDefault("dataset.path", defaultConfig.Dataset.Path)
	v.SetDefault("dataset.format", defaultConfig.Dataset.Format)
	// [sampling]
	v.SetDefault("sampling.num_negatives", defaultConfig.Sampling.NumNegatives)
	v.SetDefault("sampling.epochs", defaultConfig.Sampling.Epochs)
	v.SetDefault("sampling.seed", defaultConfig.Sampling.Seed)
	v.SetDefault("sampling.flip_ratio", defaultConfig.Sampling.FlipRatio)
	// [grouping]
	v.SetDefault("grouping.type", defaultConfig.Grouping.Type)
	v.SetDefault("grouping.neighbor_type", defaultConfig.Grouping.NeighborType)
	v.SetDefault("grouping.group_size", defaultConfig.Grouping.GroupSize)
	v.SetDefault("grouping.jobs", defaultConfig.Grouping.Jobs)
	// [export]
	v.SetDefault("export.enable", defaultConfig.Export.Enable)
	v.SetDefault("export.dir", defaultConfig.Export.Dir)
}

type binding struct {
	key string
	env string
}

func bindEnv(v *viper.Viper) error {
	bindings := []binding{
		{"dataset.name", "FLIP_DATASET"},
		{"dataset.path", "FLIP_DATA_PATH"},
		{"dataset.format", "FLIP_FORMAT"},
		{"sampling.num_negatives", "FLIP_NUM_NEGATIVES"},
		{"sampling.epochs", "FLIP_EPOCHS"},
		{"sampling.seed", "FLIP_SEED"},
		{"sampling.flip_ratio", "FLIP_FLIP_RATIO"},
		{"grouping.type", "FLIP_GROUP_TYPE"},
		{"grouping.neighbor_type", "FLIP_NEIGHBOR_TYPE"},
		{"grouping.group_size", "FLIP_GROUP_SIZE"},
		{"grouping.jobs", "FLIP_JOBS"},
		{"export.enable", "FLIP_EXPORT_ENABLE"},
		{"export.dir", "FLIP_SAVE_DIR"},
	}
	for _, binding := range bindings {
		if err := v.BindEnv(binding.key, binding.env); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// LoadConfig reads and validates configuration. See ReadConfig.
func LoadConfig(path string) (*Config, error) {
	conf, err := ReadConfig(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err = conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return conf, nil
}

// ReadConfig reads configuration from a TOML file regardless of its extension without
// validating it. Missing keys take default values and FLIP_* environment variables override
// the file. An empty path reads defaults and environment variables only. A non-empty
// FLIP_SAVE_DIR enables export unless FLIP_EXPORT_ENABLE is set.
func ReadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	if os.Getenv("FLIP_SAVE_DIR") != "" {
		if _, ok := os.LookupEnv("FLIP_EXPORT_ENABLE"); !ok {
			conf.Export.Enable = true
		}
	}
	return &conf, nil
}

// Validate checks value ranges and that the grouping fits the data format.
func (config *Config) Validate() error {
	validate := validator.New()
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return errors.Trace(err)
	}
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
	})
	if err := validate.Struct(config); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, e := range validationErrors {
				return errors.NotValidf("config (%s)", e.Translate(trans))
			}
		}
		return errors.Trace(err)
	}
	if config.Dataset.Format == FormatCDAE &&
		config.Grouping.Type != GroupPoint && config.Grouping.Type != GroupNeighbor {
		return errors.NotValidf("grouping %s of %s data", config.Grouping.Type, FormatCDAE)
	}
	if config.Export.Enable && config.Export.Dir == "" {
		return errors.NotValidf("export without directory")
	}
	return nil
}
