package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/penysho/load-test-demo/ltdenv"
)

// FileName marks the project root; commands look for it from the working
// directory upwards.
const FileName = ".ltd.yml"

// DefaultPlatform is used when the project file names no platform.
const DefaultPlatform = "linux/amd64"

// Platforms lists the image platforms the Fargate task definition can run.
var Platforms = []string{"linux/amd64", "linux/arm64"}

const header = "# Project settings of the load-test-demo CLI (ltd).\n"

// InnerConfig is the content of the project file. Only version is required;
// the other fields fall back to Default when omitted.
type InnerConfig struct {
	Version    string `yaml:"version"               validate:"required,oneof=1"`
	DefaultEnv string `yaml:"default_env"           validate:"required,envcode"`
	AWSProfile string `yaml:"aws_profile,omitempty" validate:"omitempty,awsprofile"`
	Platform   string `yaml:"platform"              validate:"required,platform"`
}

func Default() InnerConfig {
	return InnerConfig{
		Version:    "1",
		DefaultEnv: string(ltdenv.DefaultEnvCode),
		Platform:   DefaultPlatform,
	}
}

// withDefaults fills every optional field left empty from d.
func (c InnerConfig) withDefaults(d InnerConfig) InnerConfig {
	if c.DefaultEnv == "" {
		c.DefaultEnv = d.DefaultEnv
	}
	if c.AWSProfile == "" {
		c.AWSProfile = d.AWSProfile
	}
	if c.Platform == "" {
		c.Platform = d.Platform
	}
	return c
}

// ValidateProfile accepts an empty profile or a name the AWS config file can hold.
func ValidateProfile(s string) error {
	if s == "" {
		return nil
	}
	if strings.TrimSpace(s) != s {
		return errors.New("profile cannot start or end with whitespace")
	}
	for _, c := range s {
		if unicode.IsSpace(c) || c == '[' || c == ']' {
			return errors.Newf("invalid character %q in profile name", c)
		}
	}
	return nil
}

type Loader interface {
	Load(path string) (InnerConfig, error)
}

type Writer interface {
	Write(w io.Writer, cfg InnerConfig) error
}

type Finder interface {
	Find(startDir string) (cfg InnerConfig, projectDir string, err error)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		return name
	})
	_ = v.RegisterValidation("envcode", func(fl validator.FieldLevel) bool {
		return ltdenv.EnvCode(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("awsprofile", func(fl validator.FieldLevel) bool {
		return ValidateProfile(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
		for _, p := range Platforms {
			if fl.Field().String() == p {
				return true
			}
		}
		return false
	})
	return v
}

// check reports every invalid field of cfg in one error, keyed by its yaml name.
func check(v *validator.Validate, cfg InnerConfig) error {
	err := v.Struct(cfg)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+": is required")
		case "envcode":
			msgs = append(msgs, fmt.Sprintf("%s: %q is not one of %v", fe.Field(), fe.Value(), ltdenv.EnvCodes()))
		case "platform":
			msgs = append(msgs, fmt.Sprintf("%s: %q is not one of %v", fe.Field(), fe.Value(), Platforms))
		case "awsprofile":
			msgs = append(msgs, fmt.Sprintf("%s: %v", fe.Field(), ValidateProfile(fe.Value().(string))))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: %q fails %s=%s", fe.Field(), fe.Value(), fe.Tag(), fe.Param()))
		}
	}
	return errors.Newf("invalid project file:\n  %s", strings.Join(msgs, "\n  "))
}

type yamlLoader struct {
	validate *validator.Validate
	defaults InnerConfig
}

// NewLoader returns a Loader that rejects unknown keys and fills omitted
// optional fields from Default before validating.
func NewLoader() Loader {
	return &yamlLoader{validate: newValidator(), defaults: Default()}
}

func (l *yamlLoader) Load(path string) (InnerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return InnerConfig{}, errors.Wrap(err, "failed to read config file")
	}

	var cfg InnerConfig
	if err := yaml.NewDecoder(bytes.NewReader(data), yaml.Strict()).Decode(&cfg); err != nil {
		return InnerConfig{}, errors.Wrapf(err, "failed to parse %s", path)
	}

	cfg = cfg.withDefaults(l.defaults)
	if err := check(l.validate, cfg); err != nil {
		return InnerConfig{}, errors.Wrap(err, path)
	}

	return cfg, nil
}

type yamlWriter struct {
	validate *validator.Validate
}

// NewWriter returns a Writer that refuses to write a config the Loader would
// reject.
func NewWriter() Writer {
	return &yamlWriter{validate: newValidator()}
}

func (w *yamlWriter) Write(wr io.Writer, cfg InnerConfig) error {
	if err := check(w.validate, cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if _, err := io.WriteString(wr, header); err != nil {
		return errors.Wrap(err, "failed to write config")
	}
	if _, err := wr.Write(data); err != nil {
		return errors.Wrap(err, "failed to write config")
	}

	return nil
}

type finder struct {
	loader Loader
}

func NewFinder(loader Loader) Finder {
	return &finder{loader: loader}
}

// Find walks from startDir to the filesystem root and loads the first
// project file it meets. A directory with the project file's name is not a
// match.
func (f *finder) Find(startDir string) (InnerConfig, string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return InnerConfig{}, "", errors.Wrap(err, "failed to resolve start directory")
	}

	for {
		path := filepath.Join(dir, FileName)
		if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
			cfg, err := f.loader.Load(path)
			if err != nil {
				return InnerConfig{}, "", err
			}
			return cfg, dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return InnerConfig{}, "", errors.Newf(
				"no %s in %s or any parent directory, run 'ltd init' in the project root first",
				FileName, startDir,
			)
		}
		dir = parent
	}
}

// WriteToFile writes cfg as the project file of dir. Nothing is written when
// cfg is invalid.
func WriteToFile(dir string, cfg InnerConfig, w Writer) error {
	var buf bytes.Buffer
	if err := w.Write(&buf, cfg); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(dir, FileName), buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}
