package config

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/ilyakaznacheev/cleanenv"
)

// WithEnv applies environment variable overrides using the provided prefix.
// Only variables that are set override the current value.
//
// Server:
//
//	PORT               - Server port (default: "5000")
//	ENVIRONMENT        - Runtime environment (default: "development")
//	DATABASE_URL       - "memory" (default) or "postgresql://..."
//	DB_SCHEMA          - Postgres schema (default: "deck")
//	STORAGE_URL        - "memory://" (default), "file:///path" or "s3://bucket?region=..."
//	MAX_UPLOAD_SIZE    - Upload limit such as "50MB" (default)
//	ALLOWED_EXTENSIONS - Comma-separated extensions (default: "ppt,pptx")
//	LOG_LEVEL          - debug, info, warn or error
//	LOG_FORMAT         - text or json
func WithEnv(prefix string) Option {
	return func(c *ServerConfig) error {
		return readEnv(prefix, c)
	}
}

// WithClientEnv applies environment variable overrides to a ClientConfig.
//
//	API_URL             - Document service root (default: "http://localhost:5000/api")
//	HTTP_TIMEOUT        - Request timeout such as "30s"
//	EMBEDDED_VIEWER_URL - Base of the in-page viewer
//	OFFICE_VIEWER_URL   - Base of the Office Online viewer
//	GOOGLE_VIEWER_URL   - Base of the Google Docs viewer
//	BLOB_STORE_URL      - Where retrieved documents are held: "memory://" or "file:///path"
//	LOG_LEVEL, LOG_FORMAT
func WithClientEnv(prefix string) ClientOption {
	return func(c *ClientConfig) error {
		return readEnv(prefix, c)
	}
}

// readEnv reads env-tagged fields of dst, with every variable name prefixed.
// The target is nested in a generated struct so cleanenv applies the prefix.
func readEnv(prefix string, dst interface{}) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return errors.New("config target must be a pointer to a struct")
	}

	wrapperType := reflect.StructOf([]reflect.StructField{{
		Name: "Config",
		Type: v.Elem().Type(),
		Tag:  reflect.StructTag(fmt.Sprintf(`env-prefix:%q`, prefix)),
	}})
	wrapper := reflect.New(wrapperType)
	wrapper.Elem().Field(0).Set(v.Elem())

	if err := cleanenv.ReadEnv(wrapper.Interface()); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	v.Elem().Set(wrapper.Elem().Field(0))
	return nil
}
