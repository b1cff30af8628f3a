package awd

import (
	"fmt"

	"github.com/Faultbox/awdkit/internal/binrw"
	"github.com/Faultbox/awdkit/pkg/awd/property"
)

// MaterialType selects how a material is shaded.
type MaterialType uint8

const (
	MaterialColor   MaterialType = 1
	MaterialTexture MaterialType = 2
)

func (t MaterialType) String() string {
	switch t {
	case MaterialColor:
		return "color"
	case MaterialTexture:
		return "texture"
	default:
		return fmt.Sprintf("material(%d)", uint8(t))
	}
}

// Well-known material property keys.
const (
	PropColor          property.Key = 1
	PropSmooth         property.Key = 5
	PropAlpha          property.Key = 10
	PropAlphaBlending  property.Key = 11
	PropAlphaThreshold property.Key = 12
	PropRepeat         property.Key = 13
)

// Material describes surface appearance.
type Material struct {
	blockMeta

	Name       string
	Type       MaterialType
	Textures   []Ref[*Texture]
	Properties property.Table
}

// NewColorMaterial returns a flat colored material.
func NewColorMaterial(name string, color property.ColorValue) *Material {
	m := &Material{Name: name, Type: MaterialColor}
	_ = m.Properties.Set(PropColor, color)
	return m
}

// NewTextureMaterial returns a material sampling the given textures.
func NewTextureMaterial(name string, textures ...*Texture) *Material {
	m := &Material{Name: name, Type: MaterialTexture}
	for _, t := range textures {
		m.Textures = append(m.Textures, Link(t))
	}
	return m
}

func (m *Material) Kind() BlockKind   { return KindMaterial }
func (m *Material) BlockName() string { return m.Name }

// Color returns the PropColor property.
func (m *Material) Color() (property.ColorValue, bool) {
	return m.Properties.Color(PropColor)
}

// Alpha returns the PropAlpha property, defaulting to 1.
func (m *Material) Alpha() float64 {
	if a, ok := m.Properties.Float64(PropAlpha); ok {
		return a
	}
	return 1
}

func (m *Material) resolve(res *resolver) {
	res = res.forBlock(m)
	for i := range m.Textures {
		resolveRef(res, &m.Textures[i], fmt.Sprintf("texture %d", i))
	}
}

// materialCodec handles materials (81): name, type, texture refs, properties.
type materialCodec struct{}

func (materialCodec) Kind() BlockKind { return KindMaterial }

func (materialCodec) Decode(body *binrw.Reader, ctx *DecodeContext) (Block, error) {
	m := &Material{}
	var err error
	if m.Name, err = ctx.ReadText(body, "name"); err != nil {
		return nil, err
	}
	typ, err := body.ReadU8()
	if err != nil {
		return nil, err
	}
	m.Type = MaterialType(typ)
	count, err := body.ReadU16()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(count); i++ {
		ref, err := readRef[*Texture](ctx, body, fmt.Sprintf("texture %d", i))
		if err != nil {
			return nil, err
		}
		m.Textures = append(m.Textures, ref)
	}
	if m.Properties, err = ctx.ReadProperties(body, "material "+m.Name); err != nil {
		return nil, err
	}
	return m, nil
}

func (materialCodec) Encode(b Block, ctx *EncodeContext) ([]byte, error) {
	m, ok := b.(*Material)
	if !ok {
		return nil, fmt.Errorf("%w: material codec given %s", ErrMalformedBlock, b.Kind())
	}
	w := binrw.NewWriter()
	if err := ctx.WriteText(w, m.Name, "name"); err != nil {
		return nil, err
	}
	w.U8(uint8(m.Type))
	if len(m.Textures) > 0xFFFF {
		return nil, fmt.Errorf("%w: %d textures", ErrMalformedBlock, len(m.Textures))
	}
	w.U16(uint16(len(m.Textures)))
	for i, ref := range m.Textures {
		if err := writeRef(ctx, w, ref, fmt.Sprintf("texture %d", i)); err != nil {
			return nil, err
		}
	}
	if err := ctx.WriteProperties(w, m.Properties, "material "+m.Name); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
