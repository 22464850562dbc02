// Package sticker describes sticker creation options. The actual image
// re-encoding to WebP is out of scope here and is delegated through the
// Converter port, which the embedding application wires to an external
// image tool or library.
package sticker

import (
	"context"
	"errors"
)

// Type selects how the source image is fitted into the sticker canvas.
type Type string

const (
	TypeDefault Type = "default"
	TypeFull    Type = "full"
	TypeCropped Type = "crop"
	TypeCircle  Type = "circle"
	TypeRounded Type = "rounded"
)

// Options carry the sticker pack metadata and fitting parameters.
type Options struct {
	Pack       string // sticker pack name
	Author     string
	Type       Type
	Categories []string // emoji categories
	ID         string
	Quality    int // 1-100, webp encoder quality
	Background string
}

// Defaults fills unset fields with the framework defaults.
func (o Options) Defaults() Options {
	if o.Pack == "" {
		o.Pack = "Sticker"
	}
	if o.Author == "" {
		o.Author = "Kachina Bot"
	}
	if o.Type == "" {
		o.Type = TypeDefault
	}
	if o.Quality == 0 {
		o.Quality = 50
	}
	if o.Background == "" {
		o.Background = "transparent"
	}
	return o
}

// ErrNoConverter is returned when sticker creation is attempted without a
// converter wired in.
var ErrNoConverter = errors.New("sticker: no converter configured")

// Converter turns an image or short video into a WebP sticker blob.
type Converter interface {
	Convert(ctx context.Context, media []byte, opts Options) ([]byte, error)
}

// ConverterFunc adapts a function to the Converter interface.
type ConverterFunc func(ctx context.Context, media []byte, opts Options) ([]byte, error)

// Convert implements Converter.
func (f ConverterFunc) Convert(ctx context.Context, media []byte, opts Options) ([]byte, error) {
	return f(ctx, media, opts)
}

// Create runs a converter with defaulted options.
func Create(ctx context.Context, conv Converter, media []byte, opts Options) ([]byte, error) {
	if conv == nil {
		return nil, ErrNoConverter
	}
	return conv.Convert(ctx, media, opts.Defaults())
}
