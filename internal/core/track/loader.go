package track

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/drivesim/internal/core/assets"
	"github.com/zeusync/drivesim/internal/core/observability/log"
	phys "github.com/zeusync/drivesim/internal/core/systems/physics"
)

var (
	ErrInvalidDefinition = errors.New("invalid track definition")
	ErrUnknownFormat     = errors.New("unknown track definition format")
)

// ObjectDef holds the attributes shared by every placed object. A nil field
// means "not specified" and leaves the target untouched. Angles are degrees.
type ObjectDef struct {
	X       *float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y       *float64 `json:"y,omitempty" yaml:"y,omitempty"`
	Angle   *float64 `json:"angle,omitempty" yaml:"angle,omitempty"`
	Width   *float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height  *float64 `json:"height,omitempty" yaml:"height,omitempty"`
	Texture *string  `json:"texture,omitempty" yaml:"texture,omitempty"`
}

// TrackDef adds the driver spawn pose and the drivability mask reference.
type TrackDef struct {
	ObjectDef  `yaml:",inline"`
	StartX     *float64 `json:"start_x,omitempty" yaml:"start_x,omitempty"`
	StartY     *float64 `json:"start_y,omitempty" yaml:"start_y,omitempty"`
	StartAngle *float64 `json:"start_angle,omitempty" yaml:"start_angle,omitempty"`
	Map        *string  `json:"map,omitempty" yaml:"map,omitempty"`
}

type CheckpointDef struct {
	From phys.Vec2 `json:"from" yaml:"from"`
	To   phys.Vec2 `json:"to" yaml:"to"`
}

// Definition is the declarative description of a track file.
type Definition struct {
	Track       TrackDef        `json:"track" yaml:"track"`
	Obstacles   []ObjectDef     `json:"obstacles,omitempty" yaml:"obstacles,omitempty"`
	Checkpoints []CheckpointDef `json:"checkpoints,omitempty" yaml:"checkpoints,omitempty"`
}

// LoadYAML loads a definition from a YAML reader.
func LoadYAML(r io.Reader) (*Definition, error) {
	var d Definition
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&d); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &d, nil
}

// LoadJSON loads a definition from a JSON reader.
func LoadJSON(r io.Reader) (*Definition, error) {
	var d Definition
	dec := json.NewDecoder(r)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return &d, nil
}

// LoadFile picks the decoder from the file extension.
func LoadFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(f)
	case ".json":
		return LoadJSON(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Validate rejects values no track can be built from. Missing values are fine.
func (d *Definition) Validate() error {
	if err := d.Track.validate(); err != nil {
		return fmt.Errorf("%w: track: %w", ErrInvalidDefinition, err)
	}
	for i, o := range d.Obstacles {
		if err := o.validate(); err != nil {
			return fmt.Errorf("%w: obstacle %d: %w", ErrInvalidDefinition, i, err)
		}
	}
	for i, c := range d.Checkpoints {
		if c.From.Equal(c.To) {
			return fmt.Errorf("%w: checkpoint %d is a single point", ErrInvalidDefinition, i)
		}
	}
	return nil
}

func (o ObjectDef) validate() error {
	if o.Width != nil && *o.Width <= 0 {
		return fmt.Errorf("width must be positive, got %v", *o.Width)
	}
	if o.Height != nil && *o.Height <= 0 {
		return fmt.Errorf("height must be positive, got %v", *o.Height)
	}
	return nil
}

// applyTo copies every specified attribute onto body and texture.
func (o ObjectDef) applyTo(body *phys.Body, texture *string) {
	if o.X != nil {
		body.Position.X = *o.X
	}
	if o.Y != nil {
		body.Position.Y = *o.Y
	}
	if o.Angle != nil {
		body.Angle = phys.DegToRad(*o.Angle)
	}
	if o.Width != nil {
		body.Size.X = *o.Width
	}
	if o.Height != nil {
		body.Size.Y = *o.Height
	}
	if o.Texture != nil {
		*texture = *o.Texture
	}
}

// Apply overlays the definition onto t. Unspecified attributes keep their
// current values; an unresolvable asset reference is logged and the previous
// asset is kept. Obstacles and checkpoints are appended.
func (d *Definition) Apply(t *Track, reg *assets.Registry, logger log.Log) error {
	if logger == nil {
		logger = log.NewNop()
	}
	if err := d.Validate(); err != nil {
		return err
	}

	td := d.Track
	td.ObjectDef.applyTo(&t.Body, &t.Texture)
	if td.StartX != nil {
		t.Start.Position.X = *td.StartX
	}
	if td.StartY != nil {
		t.Start.Position.Y = *td.StartY
	}
	if td.StartAngle != nil {
		t.Start.Angle = phys.DegToRad(*td.StartAngle)
	}

	if td.Map != nil {
		if mask, ok := lookup(reg, *td.Map); ok {
			t.MapName = *td.Map
			t.mask = mask
		} else {
			logger.Warn("track map not found, keeping previous",
				log.String("map", *td.Map), log.String("previous", t.MapName))
		}
	}
	t.rebuildMap()

	for _, od := range d.Obstacles {
		o := &Obstacle{}
		od.applyTo(&o.Body, &o.Texture)
		if o.Texture != "" {
			if mask, ok := lookup(reg, o.Texture); ok {
				o.mask = mask
			} else {
				logger.Warn("obstacle texture not found", log.String("texture", o.Texture))
			}
		}
		t.AddObstacle(o)
	}

	for _, cd := range d.Checkpoints {
		t.AddCheckpoint(cd.From, cd.To)
	}

	logger.Debug("track definition applied",
		log.String("map", t.MapName),
		log.Int("obstacles", len(t.Obstacles)),
		log.Int("checkpoints", len(t.Checkpoints)),
	)
	return nil
}

// Build creates a fresh Track from the definition.
func (d *Definition) Build(reg *assets.Registry, logger log.Log) (*Track, error) {
	t := New()
	if err := d.Apply(t, reg, logger); err != nil {
		return nil, err
	}
	return t, nil
}

func lookup(reg *assets.Registry, name string) (assets.AlphaMask, bool) {
	if reg == nil {
		return nil, false
	}
	return reg.Get(name)
}
