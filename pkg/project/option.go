package project

import (
	"github.com/the-maldridge/pallet/pkg/deb"
	"github.com/the-maldridge/pallet/pkg/storage"
)

// WithDistDir sets the directory emitted packages land in.
func WithDistDir(d string) Option {
	return func(p *Project) {
		p.distDir = d
	}
}

// WithBaseDir sets the install prefix used for default destinations.
func WithBaseDir(d string) Option {
	return func(p *Project) {
		p.baseDir = d
	}
}

// WithStore provides the store that persists build counters across
// invocations.
func WithStore(s storage.Storage) Option {
	return func(p *Project) {
		p.store = s
	}
}

// WithCompression selects the compression for the emitted archive
// members.
func WithCompression(c deb.Compression) Option {
	return func(p *Project) {
		p.compression = c
	}
}
