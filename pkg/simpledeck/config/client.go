package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tendant/simple-deck/pkg/simpledeck"
	"github.com/tendant/simple-deck/pkg/simpledeck/gateway"
)

// ClientOption applies configuration to a ClientConfig instance.
type ClientOption func(*ClientConfig) error

// ClientConfig configures the catalog and preview session of the deck client
type ClientConfig struct {
	APIURL      string        `env:"API_URL"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT"`

	EmbeddedViewerURL string `env:"EMBEDDED_VIEWER_URL"`
	OfficeViewerURL   string `env:"OFFICE_VIEWER_URL"`
	GoogleViewerURL   string `env:"GOOGLE_VIEWER_URL"`

	// BlobStoreURL selects where retrieved documents are held while previewed
	BlobStoreURL string `env:"BLOB_STORE_URL"`

	Log LogConfig
}

func clientDefaults() ClientConfig {
	viewers := simpledeck.DefaultViewers()
	return ClientConfig{
		APIURL:            gateway.DefaultBaseURL,
		HTTPTimeout:       5 * time.Minute,
		EmbeddedViewerURL: viewers.Embedded,
		OfficeViewerURL:   viewers.External[simpledeck.ViewerOffice],
		GoogleViewerURL:   viewers.External[simpledeck.ViewerGoogle],
		BlobStoreURL:      "memory://",
		Log:               LogConfig{Level: "warn", Format: "text"},
	}
}

// LoadClient constructs a ClientConfig from defaults and options.
func LoadClient(opts ...ClientOption) (*ClientConfig, error) {
	cfg := clientDefaults()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WithAPIURL sets the document service root
func WithAPIURL(u string) ClientOption {
	return func(c *ClientConfig) error {
		if u != "" {
			c.APIURL = u
		}
		return nil
	}
}

// WithLogLevel sets the log level
func WithLogLevel(level string) ClientOption {
	return func(c *ClientConfig) error {
		c.Log.Level = level
		return nil
	}
}

// Validate validates the client configuration
func (c *ClientConfig) Validate() error {
	if c.APIURL == "" {
		return errors.New("api url is required")
	}
	if c.HTTPTimeout < 0 {
		return errors.New("http timeout cannot be negative")
	}
	for name, base := range map[string]string{
		"embedded viewer": c.EmbeddedViewerURL,
		"office viewer":   c.OfficeViewerURL,
		"google viewer":   c.GoogleViewerURL,
	} {
		if base == "" {
			return fmt.Errorf("%s url is required", name)
		}
	}
	storage, err := ParseStorageURL(c.BlobStoreURL)
	if err != nil {
		return err
	}
	if storage.Type == "s3" {
		return errors.New("blob store url must be 'memory://' or 'file://...'")
	}
	return c.Log.Validate()
}

// Viewers returns the configured viewer bases
func (c *ClientConfig) Viewers() simpledeck.Viewers {
	return simpledeck.Viewers{
		Embedded: c.EmbeddedViewerURL,
		External: map[simpledeck.ViewerKind]string{
			simpledeck.ViewerOffice: c.OfficeViewerURL,
			simpledeck.ViewerGoogle: c.GoogleViewerURL,
		},
	}
}

// BuildGateway creates the HTTP gateway to the document service
func (c *ClientConfig) BuildGateway(logger *slog.Logger, opts ...gateway.Option) (*gateway.Client, error) {
	options := []gateway.Option{gateway.WithLogger(logger)}
	if c.HTTPTimeout > 0 {
		options = append(options, gateway.WithTimeout(c.HTTPTimeout))
	}
	return gateway.New(c.APIURL, append(options, opts...)...)
}

// BuildBlobStore creates the store that holds retrieved documents
func (c *ClientConfig) BuildBlobStore(ctx context.Context) (simpledeck.BlobStore, error) {
	storage, err := ParseStorageURL(c.BlobStoreURL)
	if err != nil {
		return nil, err
	}
	return storage.Build(ctx)
}
