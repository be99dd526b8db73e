package beatmap

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Manifest lists everything the view needs to know about a pre-rendered
// track: its geometry and the tile sets of all zoom levels, from the coarsest
// to the finest. Overview is the index of the zoom level used for the
// overview display; Placeholder optionally names the image shown while a tile
// is loading.
type Manifest struct {
	Track       Track     `yaml:"track"`
	Overview    int       `yaml:"overview,omitempty"`
	Placeholder string    `yaml:"placeholder,omitempty"`
	Zooms       []TileSet `yaml:"zooms"`
}

// ReadManifest decodes and validates a YAML manifest. Unknown fields are
// reported as errors, so that typos in hand-written manifests do not go
// unnoticed.
func ReadManifest(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("manifest is empty")
		}
		return nil, fmt.Errorf("could not decode manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// WriteManifest encodes the manifest as YAML.
func WriteManifest(w io.Writer, m *Manifest) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("could not encode manifest: %w", err)
	}
	return enc.Close()
}

// Validate checks the track and every zoom level.
func (m *Manifest) Validate() error {
	if err := m.Track.Validate(); err != nil {
		return fmt.Errorf("track: %w", err)
	}
	if len(m.Zooms) == 0 {
		return errors.New("manifest has no zoom levels")
	}
	for i, z := range m.Zooms {
		if err := z.Validate(); err != nil {
			return fmt.Errorf("zoom level %d: %w", i, err)
		}
	}
	if m.Overview < 0 || m.Overview >= len(m.Zooms) {
		return fmt.Errorf("overview zoom level %d out of range [0, %d)", m.Overview, len(m.Zooms))
	}
	return nil
}
