package blob

import (
	"github.com/pkg/errors"

	"github.com/enghaven/portal/core"
)

// Engines
const (
	EngineLocal      = "local"
	EngineCloudinary = "cloudinary"
)

// Open returns the blob store selected by conf.Engine.
func Open(conf core.BlobConfig) (core.BlobStore, error) {
	switch conf.Engine {
	case EngineLocal, "":
		return NewLocalStore(conf.Dir)
	case EngineCloudinary:
		return NewCloudinaryStore(conf.Cloudinary)
	default:
		return nil, errors.Errorf("unknown blob engine %q", conf.Engine)
	}
}
