package validation

import (
	"net/url"
	"regexp"
	"strings"

	"chatdock/internal/constants"
	"chatdock/internal/errors"
)

var (
	// containerNameRegex mirrors the engine's own rule for container and image names
	containerNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

	// imageTagRegex allows a repository path plus optional :tag
	imageTagRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_./-]*(:[a-zA-Z0-9_.-]+)?$`)
)

var proxySchemes = map[string]bool{
	"http":    true,
	"https":   true,
	"socks5":  true,
	"socks5h": true,
}

// ContainerName validates a container name before it is placed in an argument list
func ContainerName(name string) error {
	if name == "" {
		return errors.ValidationFailed("container_name", name, "cannot be empty")
	}

	if len(name) > 255 {
		return errors.ValidationFailed("container_name", name, "too long (max 255 characters)")
	}

	if !containerNameRegex.MatchString(name) {
		return errors.ValidationFailed("container_name", name, "must start with a letter or digit and contain only [a-zA-Z0-9_.-]")
	}

	return nil
}

// ImageTag validates an image reference used for build -t and run
func ImageTag(tag string) error {
	if tag == "" {
		return errors.ValidationFailed("image", tag, "cannot be empty")
	}
	if !imageTagRegex.MatchString(tag) {
		return errors.ValidationFailed("image", tag, "must be a lowercase image reference")
	}
	return nil
}

// Port validates a TCP port number
func Port(port int) error {
	if port < constants.MinPortNumber || port > constants.MaxPortNumber {
		return errors.InvalidPort(port, "must be between 1 and 65535")
	}
	return nil
}

// ProxyURL validates an optional proxy endpoint. Empty is allowed.
func ProxyURL(field, raw string) error {
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return errors.ValidationFailed(field, raw, err.Error())
	}
	if !proxySchemes[strings.ToLower(u.Scheme)] {
		return errors.ValidationFailed(field, raw, "scheme must be http, https, socks5 or socks5h")
	}
	if u.Host == "" {
		return errors.ValidationFailed(field, raw, "missing host")
	}
	return nil
}

// HTTPURL validates a required http(s) endpoint
func HTTPURL(field, raw string) error {
	if raw == "" {
		return errors.ValidationFailed(field, raw, "cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return errors.ValidationFailed(field, raw, err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.ValidationFailed(field, raw, "scheme must be http or https")
	}
	if u.Host == "" {
		return errors.ValidationFailed(field, raw, "missing host")
	}
	return nil
}

// OneOf validates that value is one of the allowed options
func OneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return errors.ValidationFailed(field, value, "must be one of "+strings.Join(allowed, ", "))
}

// Positive validates a strictly positive integer setting
func Positive(field string, value int) error {
	if value <= 0 {
		return errors.ValidationFailed(field, value, "must be greater than zero")
	}
	return nil
}
