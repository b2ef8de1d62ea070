package ssdash

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/macrat/ssdash/internal/dasherr"
)

const (
	// DefaultMethod is the cipher method that used if the input omitted it.
	DefaultMethod = "aes-256-gcm"

	// DefaultPort is the port number that suggested for a new endpoint.
	DefaultPort = 8388
)

// Endpoint is a monitored proxy endpoint.
//
// Host, Port, Password and Method are empty if the checker server replied the public view.
type Endpoint struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Host     string   `json:"host,omitempty"`
	Port     int      `json:"port,omitempty"`
	Password string   `json:"password,omitempty"`
	Method   string   `json:"method,omitempty"`
	Enabled  bool     `json:"enabled"`
	Tags     []string `json:"tags"`
}

// Clone returns a copy of e that does not share the tags slice.
// The tags are normalized by NormalizeTags.
func (e Endpoint) Clone() Endpoint {
	e.Tags = NormalizeTags(e.Tags)
	return e
}

// NormalizeTags trims tags, drops empty ones, and removes duplicates.
// The order of the first appearance is preserved.
// The result is never nil.
func NormalizeTags(tags []string) []string {
	result := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))

	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		result = append(result, t)
	}

	return result
}

// ParseTags parses comma separated tags.
func ParseTags(raw string) []string {
	if raw == "" {
		return []string{}
	}
	return NormalizeTags(strings.Split(raw, ","))
}

// EndpointInput is the request body to create or update an Endpoint.
type EndpointInput struct {
	Name     string   `json:"name" validate:"required"`
	Host     string   `json:"host" validate:"required,hostname_rfc1123|ip"`
	Port     int      `json:"port" validate:"min=1,max=65535"`
	Password string   `json:"password" validate:"required"`
	Method   string   `json:"method"`
	Enabled  bool     `json:"enabled"`
	Tags     []string `json:"tags"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

func formatFieldError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "min":
		return fmt.Sprintf("%s must be %s or more but got %v", err.Field(), err.Param(), err.Value())
	case "max":
		return fmt.Sprintf("%s must be %s or less but got %v", err.Field(), err.Param(), err.Value())
	default:
		return fmt.Sprintf("%s is invalid: %q", err.Field(), fmt.Sprint(err.Value()))
	}
}

// InputOf makes an EndpointInput that has the same values as e.
func InputOf(e Endpoint) EndpointInput {
	return EndpointInput{
		Name:     e.Name,
		Host:     e.Host,
		Port:     e.Port,
		Password: e.Password,
		Method:   e.Method,
		Enabled:  e.Enabled,
		Tags:     e.Tags,
	}
}

// Normalize validates the input, and returns normalized copy of it.
//
// The returned error is ErrInvalidEndpoint, and it includes every problem in the input.
func (in EndpointInput) Normalize() (EndpointInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Host = strings.TrimSpace(in.Host)
	in.Method = strings.TrimSpace(in.Method)
	in.Tags = NormalizeTags(in.Tags)

	if in.Method == "" {
		in.Method = DefaultMethod
	}

	errs := &dasherr.ListBuilder{Kind: ErrInvalidEndpoint}

	if err := validate.Struct(in); err != nil {
		var fes validator.ValidationErrors
		if !errors.As(err, &fes) {
			return EndpointInput{}, dasherr.New(ErrInvalidEndpoint, err, "")
		}
		for _, fe := range fes {
			errs.Pushf("%s", formatFieldError(fe))
		}
	}

	if err := errs.Build(); err != nil {
		return EndpointInput{}, err
	}

	return in, nil
}
