package config

import (
	"strings"
	"time"

	"github.com/SeakMengs/CertEditor/internal/env"
	"github.com/SeakMengs/CertEditor/pkg/certedit"
)

type Config struct {
	Port        string
	ENV         string
	RateLimiter RateLimiterConfig
	Minio       MinioConfig
	Editor      EditorConfig
	Record      RecordConfig
}

type RateLimiterConfig struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}

type MinioConfig struct {
	ENDPOINT   string
	ACCESS_KEY string
	SECRET_KEY string
	BUCKET     string
	USE_SSL    bool
}

type EditorConfig struct {
	// "memory" or "minio"
	BlobStore        string
	FontMetadataPath string
	// Directory served as the "local" image origin, template backgrounds live here.
	TemplateDir string
	ExportScale float64
	SettleDelay time.Duration
	// "pdfcpu" or "fpdf"
	PdfEngine    string
	QREnabled    bool
	QRURLPattern string
	// Open editors untouched for this long are closed.
	SessionIdleTTL time.Duration
}

type RecordConfig struct {
	// Base url of the backend serving subject records, empty disables lookups by id.
	API_URL string
	Timeout time.Duration
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.ENV, "production")
}

func (c Config) UseMinio() bool {
	return strings.EqualFold(c.Editor.BlobStore, "minio")
}

func GetConfig() Config {
	return Config{
		Port: env.GetString("PORT", "8080"),
		ENV:  env.GetString("ENV", "development"),
		// By default if not specified, we allow 5000 requests per minute on all routes
		RateLimiter: RateLimiterConfig{
			RequestsPerTimeFrame: env.GetInt("RATE_LIMIT_REQUESTS_PER_TIME_FRAME", 5000),
			TimeFrame:            env.GetDuration("RATE_LIMIT_TIME_FRAME", time.Minute),
			Enabled:              env.GetBool("RATE_LIMIT_ENABLED", true),
		},
		Minio: MinioConfig{
			ENDPOINT:   env.GetString("MINIO_ENDPOINT", "127.0.0.1:9000"),
			ACCESS_KEY: env.GetString("MINIO_ACCESS_KEY", ""),
			SECRET_KEY: env.GetString("MINIO_SECRET_KEY", ""),
			BUCKET:     env.GetString("MINIO_BUCKET", "certeditor"),
			USE_SSL:    env.GetBool("MINIO_USE_SSL", false),
		},
		Editor: EditorConfig{
			BlobStore:        env.GetString("BLOB_STORE", "memory"),
			FontMetadataPath: env.GetString("FONT_METADATA_PATH", "font_metadata.json"),
			TemplateDir:      env.GetString("TEMPLATE_DIR", "templates"),
			ExportScale:      env.GetFloat("EXPORT_SCALE", certedit.DefaultScale),
			SettleDelay:      env.GetDuration("EXPORT_SETTLE_DELAY", certedit.DefaultSettleDelay),
			PdfEngine:        env.GetString("PDF_ENGINE", certedit.EnginePdfcpu),
			QREnabled:        env.GetBool("QR_ENABLED", false),
			QRURLPattern:     env.GetString("QR_URL_PATTERN", "http://localhost:3000/verify/%s"),
			SessionIdleTTL:   env.GetDuration("SESSION_IDLE_TTL", 30*time.Minute),
		},
		Record: RecordConfig{
			API_URL: env.GetString("RECORD_API_URL", ""),
			Timeout: env.GetDuration("RECORD_API_TIMEOUT", 10*time.Second),
		},
	}
}
