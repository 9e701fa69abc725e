package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"chatdock/internal/artifact"
	"chatdock/internal/errors"
	"chatdock/internal/validation"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Layout modes understood by the chat application
const (
	LayoutLeftRight = "LEFT-RIGHT"
	LayoutTopDown   = "TOP-DOWN"
)

// Keys of the generated config.py, in the order they are written
const (
	KeyAPIKey          = "API_KEY"
	KeyUseProxy        = "USE_PROXY"
	KeyProxies         = "proxies"
	KeyWorkerNum       = "DEFAULT_WORKER_NUM"
	KeyChatbotHeight   = "CHATBOT_HEIGHT"
	KeyCodeHighlight   = "CODE_HIGHLIGHT"
	KeyLayout          = "LAYOUT"
	KeyTheme           = "THEME"
	KeyTimeoutSeconds  = "TIMEOUT_SECONDS"
	KeyWebPort         = "WEB_PORT"
	KeyMaxRetry        = "MAX_RETRY"
	KeyModel           = "LLM_MODEL"
	KeyAPIURL          = "API_URL"
	KeyConcurrentCount = "CONCURRENT_COUNT"
	KeyAuthentication  = "AUTHENTICATION"
)

// Proxies holds the optional outbound proxy endpoints
type Proxies struct {
	HTTP  string `toml:"http" yaml:"http" json:"http"`
	HTTPS string `toml:"https" yaml:"https" json:"https"`
}

// Credential is one user/password pair for the web UI login
type Credential struct {
	User     string `toml:"user" yaml:"user" json:"user"`
	Password string `toml:"password" yaml:"password" json:"password"`
}

// LaunchConfig is everything the chat application is configured with.
// It is replaced wholesale on every submission and never patched.
type LaunchConfig struct {
	APIKey          string       `toml:"api_key" yaml:"api_key" json:"api_key"`
	Proxies         Proxies      `toml:"proxies" yaml:"proxies" json:"proxies"`
	WorkerNum       int          `toml:"worker_num" yaml:"worker_num" json:"worker_num"`
	ChatbotHeight   int          `toml:"chatbot_height" yaml:"chatbot_height" json:"chatbot_height"`
	CodeHighlight   bool         `toml:"code_highlight" yaml:"code_highlight" json:"code_highlight"`
	Layout          string       `toml:"layout" yaml:"layout" json:"layout"`
	Theme           string       `toml:"theme" yaml:"theme" json:"theme"`
	TimeoutSeconds  int          `toml:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`
	WebPort         int          `toml:"-" yaml:"-" json:"-"` // set from the session at launch
	MaxRetry        int          `toml:"max_retry" yaml:"max_retry" json:"max_retry"`
	Model           string       `toml:"model" yaml:"model" json:"model"`
	APIURL          string       `toml:"api_url" yaml:"api_url" json:"api_url"`
	ConcurrentCount int          `toml:"concurrent_count" yaml:"concurrent_count" json:"concurrent_count"`
	Authentication  []Credential `toml:"authentication" yaml:"authentication" json:"authentication"`
}

// DefaultLaunchConfig returns the values the application ships with
func DefaultLaunchConfig() *LaunchConfig {
	return &LaunchConfig{
		WorkerNum:       3,
		ChatbotHeight:   1115,
		CodeHighlight:   true,
		Layout:          LayoutLeftRight,
		Theme:           "Default",
		TimeoutSeconds:  25,
		MaxRetry:        2,
		Model:           "gpt-3.5-turbo",
		APIURL:          "https://api.openai.com/v1/chat/completions",
		ConcurrentCount: 100,
		Authentication:  []Credential{},
	}
}

// LoadLaunchConfig reads a launch config from a TOML, YAML or JSON file on
// top of the defaults.
func LoadLaunchConfig(path string) (*LaunchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read launch config: %w", err)
	}

	cfg := DefaultLaunchConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		return nil, errors.ValidationFailed("launch_config", path, "unsupported extension (use .toml, .yaml or .json)")
	}
	if err != nil {
		return nil, errors.ConfigParseError(path, err)
	}

	return cfg, nil
}

// UseProxy reports whether any proxy endpoint is configured
func (c *LaunchConfig) UseProxy() bool {
	return c.Proxies.HTTP != "" || c.Proxies.HTTPS != ""
}

// Validate checks the fields the application cannot start without
func (c *LaunchConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.ValidationFailed("api_key", "", "cannot be empty")
	}
	if err := validation.ProxyURL("proxies.http", c.Proxies.HTTP); err != nil {
		return err
	}
	if err := validation.ProxyURL("proxies.https", c.Proxies.HTTPS); err != nil {
		return err
	}
	if err := validation.HTTPURL("api_url", c.APIURL); err != nil {
		return err
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.ValidationFailed("model", c.Model, "cannot be empty")
	}
	if err := validation.OneOf("layout", c.Layout, LayoutLeftRight, LayoutTopDown); err != nil {
		return err
	}
	for _, f := range []struct {
		name  string
		value int
	}{
		{"worker_num", c.WorkerNum},
		{"chatbot_height", c.ChatbotHeight},
		{"timeout_seconds", c.TimeoutSeconds},
		{"concurrent_count", c.ConcurrentCount},
	} {
		if err := validation.Positive(f.name, f.value); err != nil {
			return err
		}
	}
	if c.MaxRetry < 0 {
		return errors.ValidationFailed("max_retry", c.MaxRetry, "cannot be negative")
	}
	if c.WebPort != 0 {
		if err := validation.Port(c.WebPort); err != nil {
			return err
		}
	}
	return nil
}

// Document converts the config into the ordered field list written to config.py
func (c *LaunchConfig) Document() artifact.Document {
	auth := make([]interface{}, 0, len(c.Authentication))
	for _, cred := range c.Authentication {
		auth = append(auth, []string{cred.User, cred.Password})
	}

	return artifact.Document{
		{Key: KeyAPIKey, Value: artifact.Scalar(c.APIKey)},
		{Key: KeyUseProxy, Value: artifact.Scalar(pyBool(c.UseProxy()))},
		{Key: KeyProxies, Value: artifact.Mapping(
			artifact.Entry{Key: "http", Value: c.Proxies.HTTP},
			artifact.Entry{Key: "https", Value: c.Proxies.HTTPS},
		)},
		{Key: KeyWorkerNum, Value: artifact.Scalar(strconv.Itoa(c.WorkerNum))},
		{Key: KeyChatbotHeight, Value: artifact.Scalar(strconv.Itoa(c.ChatbotHeight))},
		{Key: KeyCodeHighlight, Value: artifact.Scalar(pyBool(c.CodeHighlight))},
		{Key: KeyLayout, Value: artifact.Scalar(c.Layout)},
		{Key: KeyTheme, Value: artifact.Scalar(c.Theme)},
		{Key: KeyTimeoutSeconds, Value: artifact.Scalar(strconv.Itoa(c.TimeoutSeconds))},
		{Key: KeyWebPort, Value: artifact.Scalar(strconv.Itoa(c.WebPort))},
		{Key: KeyMaxRetry, Value: artifact.Scalar(strconv.Itoa(c.MaxRetry))},
		{Key: KeyModel, Value: artifact.Scalar(c.Model)},
		{Key: KeyAPIURL, Value: artifact.Scalar(c.APIURL)},
		{Key: KeyConcurrentCount, Value: artifact.Scalar(strconv.Itoa(c.ConcurrentCount))},
		{Key: KeyAuthentication, Value: artifact.List(auth...)},
	}
}

// Fingerprint identifies the built image's configuration. WEB_PORT is left
// out: a restart can publish the same image on a different host port.
func (c *LaunchConfig) Fingerprint() string {
	sum := sha256.Sum256([]byte(artifact.RenderConfig(c.Document().Without(KeyWebPort))))
	return hex.EncodeToString(sum[:])
}

// WithPort returns a copy bound to the given WEB_PORT
func (c *LaunchConfig) WithPort(port int) *LaunchConfig {
	cp := *c
	cp.Authentication = append([]Credential(nil), c.Authentication...)
	cp.WebPort = port
	return &cp
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
