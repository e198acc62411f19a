package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/dfryer1193/weblog/blog/domain"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath = "./weblog.yaml"
	pathEnv     = "WEBLOG_CONFIG"
)

type Config struct {
	LogLevel string                  `json:"logLevel" yaml:"logLevel" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Database DatabaseConfig          `json:"database" yaml:"database"`
	Server   ServerConfig            `json:"server" yaml:"server"`
	Weblogs  map[string]WeblogConfig `json:"weblogs" yaml:"weblogs" validate:"dive,keys,required,endkeys"`
}

type DatabaseConfig struct {
	Path string `json:"path" yaml:"path"`
}

type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" validate:"omitempty,hostname_port"`
}

type WeblogConfig struct {
	APIURL             string `json:"apiUrl" yaml:"apiUrl" validate:"required,url"`
	BlogID             string `json:"blogId" yaml:"blogId"`
	Username           string `json:"username" yaml:"username" validate:"required"`
	Password           string `json:"password" yaml:"password"`
	PreviewURL         string `json:"previewUrl" yaml:"previewUrl"`
	SiteURL            string `json:"siteUrl" yaml:"siteUrl" validate:"omitempty,url"`
	PublishImmediately *bool  `json:"publishImmediately" yaml:"publishImmediately"`
}

// ResolvePath picks the config file: the explicit path, then $WEBLOG_CONFIG, then ./weblog.yaml.
func ResolvePath(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv(pathEnv); env != "" {
		return env
	}
	return DefaultPath
}

// LoadConfig reads the YAML file at path into config, expanding ${VAR} references first.
func LoadConfig(path string, config *Config) error {
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	expandedFileBytes := []byte(os.ExpandEnv(string(fileBytes)))

	if err = yaml.Unmarshal(expandedFileBytes, config); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return nil
}

func InitConfig(path string) (*Config, error) {
	config := &Config{}
	if err := LoadConfig(path, config); err != nil {
		return nil, err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return config, nil
}

// Level returns the configured zerolog level, defaulting to info.
func (c *Config) Level() zerolog.Level {
	if c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// ServerAddr returns the address the HTTP API listens on.
func (c *Config) ServerAddr() string {
	if c.Server.Addr == "" {
		return ":8080"
	}
	return c.Server.Addr
}

var _ domain.WeblogRepository = (*WeblogStore)(nil)

// WeblogStore serves the registered weblogs from configuration.
type WeblogStore struct {
	weblogs map[string]domain.Weblog
}

func NewWeblogStore(weblogs map[string]WeblogConfig) *WeblogStore {
	store := &WeblogStore{weblogs: make(map[string]domain.Weblog, len(weblogs))}
	for name, w := range weblogs {
		publish := true
		if w.PublishImmediately != nil {
			publish = *w.PublishImmediately
		}
		store.weblogs[name] = domain.Weblog{
			Name:               name,
			APIURL:             w.APIURL,
			BlogID:             w.BlogID,
			Username:           w.Username,
			Password:           w.Password,
			PreviewURL:         w.PreviewURL,
			SiteURL:            w.SiteURL,
			PublishImmediately: publish,
		}
	}
	return store
}

// GetWeblog looks a weblog up by its exact name.
func (s *WeblogStore) GetWeblog(name string) (domain.Weblog, bool) {
	w, ok := s.weblogs[name]
	return w, ok
}

func (s *WeblogStore) WeblogNames() []string {
	names := make([]string, 0, len(s.weblogs))
	for name := range s.weblogs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
