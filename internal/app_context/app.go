package appcontext

import (
	"github.com/SeakMengs/CertEditor/internal/config"
	"github.com/SeakMengs/CertEditor/internal/record"
	"github.com/SeakMengs/CertEditor/internal/session"
	"github.com/SeakMengs/CertEditor/pkg/certedit"
	"go.uber.org/zap"
)

// Application contains core dependencies for the app.
type Application struct {
	// Config holds application settings provided from .env file.
	Config *config.Config

	Logger *zap.SugaredLogger

	// Sessions holds every open editor, keyed by session id.
	Sessions *session.Registry

	// Fonts lists the font families the style controls can pick.
	Fonts *certedit.FontLoader

	// Blobs stores uploaded signature images, in memory or on minio.
	Blobs certedit.BlobStore

	// Records looks up the subject a new editor is seeded from.
	Records record.Provider
}
