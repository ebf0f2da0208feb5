// Package barcode is the scannable-image collaborator.  Rendering a blob
// into a QR/barcode image is a pure function performed outside the core;
// this package only defines the seam.
package barcode

// Renderer turns a pass blob into image bytes suitable for embedding in a
// response or an email.
type Renderer interface {
	Render(text string) ([]byte, error)
}

// NopRenderer returns no image.  Deployments that render codes in a
// separate service (or client-side from the blob) wire this in.
type NopRenderer struct{}

func (NopRenderer) Render(string) ([]byte, error) { return nil, nil }
