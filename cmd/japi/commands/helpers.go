package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/japi/internal/constants"
	"github.com/fivetwenty-io/japi/pkg/japi"
	"github.com/fivetwenty-io/japi/pkg/japiclient"
)

// Output formats.
const (
	OutputFormatTable = constants.FormatTable
	OutputFormatJSON  = constants.FormatJSON
	OutputFormatYAML  = constants.FormatYAML
)

// Common static errors used throughout the commands package.
var (
	ErrAPIEndpointRequired = errors.New("API endpoint is required (use --api or set it in the config file)")
	ErrNoTypesConfigured   = errors.New("no resource types configured (add a 'types' section to the config file)")
	ErrUnknownFieldKind    = errors.New("unknown field kind")
	ErrInvalidFilterFormat = errors.New("invalid filter format, expected field=value")
	ErrInvalidFieldsFormat = errors.New("invalid fields format, expected type=field1,field2")
)

// fieldConfig is the configuration-file shape of one declared field.
type fieldConfig struct {
	Name       string `mapstructure:"name"`
	Kind       string `mapstructure:"kind"`
	Key        string `mapstructure:"key"`
	LinkedType string `mapstructure:"linked_type"`
	Format     string `mapstructure:"format"`
}

// typeConfig is the configuration-file shape of one declared resource type.
type typeConfig struct {
	Name   string        `mapstructure:"name"`
	Path   string        `mapstructure:"path"`
	Fields []fieldConfig `mapstructure:"fields"`
}

// LoadRegistry builds a resource type registry from the 'types' section of
// the configuration file.
func LoadRegistry() (*japi.Registry, error) {
	var typeConfigs []typeConfig

	if err := viper.UnmarshalKey("types", &typeConfigs); err != nil {
		return nil, fmt.Errorf("parsing types configuration: %w", err)
	}

	if len(typeConfigs) == 0 {
		return nil, ErrNoTypesConfigured
	}

	registry := japi.NewRegistry()

	for _, typeCfg := range typeConfigs {
		resourceType := &japi.ResourceType{
			Name: typeCfg.Name,
			Path: typeCfg.Path,
		}

		for _, fieldCfg := range typeCfg.Fields {
			kind, err := fieldKindFromString(fieldCfg.Kind)
			if err != nil {
				return nil, fmt.Errorf("type %q field %q: %w", typeCfg.Name, fieldCfg.Name, err)
			}

			resourceType.Fields = append(resourceType.Fields, &japi.Field{
				Name:       fieldCfg.Name,
				Kind:       kind,
				WireKey:    fieldCfg.Key,
				LinkedType: fieldCfg.LinkedType,
				Format:     fieldCfg.Format,
			})
		}

		registry.RegisterType(resourceType)
	}

	return registry, nil
}

func fieldKindFromString(kind string) (japi.FieldKind, error) {
	switch kind {
	case "", "attribute":
		return japi.FieldAttribute, nil
	case "to-one":
		return japi.FieldToOne, nil
	case "to-many":
		return japi.FieldToMany, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFieldKind, kind)
	}
}

// CreateClient builds a japi.Client from the effective configuration.
func CreateClient() (japi.Client, error) {
	endpoint := viper.GetString("api")
	if endpoint == "" {
		return nil, ErrAPIEndpointRequired
	}

	registry, err := LoadRegistry()
	if err != nil {
		return nil, err
	}

	config := &japi.Config{
		APIEndpoint:  endpoint,
		Registry:     registry,
		AccessToken:  viper.GetString("token"),
		RetryMax:     constants.DefaultRetryMax,
		RetryWaitMin: constants.DefaultRetryWaitMin,
		RetryWaitMax: constants.DefaultRetryWaitMax,
	}

	if viper.GetBool("verbose") {
		config.Debug = true
		config.Logger = newCharmLogger()
	}

	client, err := japiclient.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

// charmLogger adapts charmbracelet/log to the japi.Logger interface.
type charmLogger struct {
	logger *charmlog.Logger
}

func newCharmLogger() japi.Logger {
	logger := charmlog.New(os.Stderr)
	logger.SetLevel(charmlog.DebugLevel)

	return &charmLogger{logger: logger}
}

func (l *charmLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, keyvals(fields)...)
}

func (l *charmLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, keyvals(fields)...)
}

func (l *charmLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, keyvals(fields)...)
}

func (l *charmLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, keyvals(fields)...)
}

func keyvals(fields map[string]interface{}) []interface{} {
	pairs := make([]interface{}, 0, len(fields)*2)
	for key, value := range fields {
		pairs = append(pairs, key, value)
	}

	return pairs
}

// ResolveOutputFormat returns the effective output format: the configured
// value when set, otherwise table on a terminal and JSON when piped.
func ResolveOutputFormat() string {
	if output := viper.GetString("output"); output != "" {
		return output
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		return OutputFormatTable
	}

	return OutputFormatJSON
}

// StandardJSONRenderer encodes data as indented JSON to stdout.
func StandardJSONRenderer(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding to JSON: %w", err)
	}

	return nil
}

// StandardYAMLRenderer encodes data as YAML to stdout.
func StandardYAMLRenderer(data interface{}) error {
	encoder := yaml.NewEncoder(os.Stdout)

	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding to YAML: %w", err)
	}

	return nil
}

// resourceView is the output shape of one resource for JSON and YAML
// rendering.
type resourceView struct {
	Type          string                 `json:"type"          yaml:"type"`
	ID            string                 `json:"id"            yaml:"id"`
	Attributes    map[string]interface{} `json:"attributes"    yaml:"attributes"`
	Relationships map[string]interface{} `json:"relationships" yaml:"relationships,omitempty"`
}

func viewForResource(res *japi.Resource) resourceView {
	view := resourceView{
		Type:       res.Type,
		ID:         res.ID,
		Attributes: res.Attributes,
	}

	for name, rel := range res.Relationships {
		if view.Relationships == nil {
			view.Relationships = make(map[string]interface{})
		}

		switch rel := rel.(type) {
		case *japi.ToOneRelationship:
			if rel.Resource != nil {
				view.Relationships[name] = rel.Resource.Identity()
			} else {
				view.Relationships[name] = nil
			}
		case *japi.ToManyRelationship:
			identities := make([]japi.ResourceIdentity, 0, rel.Collection.Len())
			for _, member := range rel.Collection.Resources {
				identities = append(identities, member.Identity())
			}

			view.Relationships[name] = identities
		}
	}

	return view
}

// attributeSummary flattens a resource's attributes into a short single-line
// string for table cells.
func attributeSummary(res *japi.Resource) string {
	if len(res.Attributes) == 0 {
		return ""
	}

	names := make([]string, 0, len(res.Attributes))
	for name := range res.Attributes {
		names = append(names, name)
	}

	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%v", name, res.Attributes[name]))
	}

	return strings.Join(parts, ", ")
}
