package awd

import (
	"fmt"

	"github.com/Faultbox/awdkit/internal/binrw"
	"github.com/Faultbox/awdkit/pkg/awd/property"
)

// TextureStorage tells where texture pixels live.
type TextureStorage uint8

const (
	TextureExternal TextureStorage = 0
	TextureEmbedded TextureStorage = 1
)

func (s TextureStorage) String() string {
	switch s {
	case TextureExternal:
		return "external"
	case TextureEmbedded:
		return "embedded"
	default:
		return fmt.Sprintf("storage(%d)", uint8(s))
	}
}

// Texture is an image used by materials. External textures carry a URL,
// embedded ones the encoded image bytes.
type Texture struct {
	blockMeta

	Name       string
	Storage    TextureStorage
	URL        string
	Data       []byte
	Properties property.Table
}

// NewExternalTexture returns a texture loaded from url.
func NewExternalTexture(name, url string) *Texture {
	return &Texture{Name: name, Storage: TextureExternal, URL: url}
}

// NewEmbeddedTexture returns a texture holding data inline.
func NewEmbeddedTexture(name string, data []byte) *Texture {
	return &Texture{Name: name, Storage: TextureEmbedded, Data: data}
}

func (t *Texture) Kind() BlockKind   { return KindTexture }
func (t *Texture) BlockName() string { return t.Name }

func (t *Texture) resolve(*resolver) {}

// textureCodec handles textures (82): name, storage, u32 length, data,
// properties.
type textureCodec struct{}

func (textureCodec) Kind() BlockKind { return KindTexture }

func (textureCodec) Decode(body *binrw.Reader, ctx *DecodeContext) (Block, error) {
	t := &Texture{}
	var err error
	if t.Name, err = ctx.ReadText(body, "name"); err != nil {
		return nil, err
	}
	storage, err := body.ReadU8()
	if err != nil {
		return nil, err
	}
	t.Storage = TextureStorage(storage)
	dataOffset := body.Offset()
	n, err := body.ReadU32()
	if err != nil {
		return nil, err
	}
	if int64(n) > int64(body.Len()) {
		return nil, &binrw.PositionError{
			Offset: dataOffset,
			Err:    fmt.Errorf("%w: texture data declares %d bytes, %d left", ErrMalformedBlock, n, body.Len()),
		}
	}
	data, _ := body.ReadBytes(int(n))
	switch t.Storage {
	case TextureExternal:
		url, ok := ctx.text.Decode(data)
		if !ok {
			ctx.Warn(InvalidText, dataOffset, "texture %s url is not valid UTF-8", t.Name)
		}
		t.URL = url
	default:
		t.Data = data
	}
	if t.Properties, err = ctx.ReadProperties(body, "texture "+t.Name); err != nil {
		return nil, err
	}
	return t, nil
}

func (textureCodec) Encode(b Block, ctx *EncodeContext) ([]byte, error) {
	t, ok := b.(*Texture)
	if !ok {
		return nil, fmt.Errorf("%w: texture codec given %s", ErrMalformedBlock, b.Kind())
	}
	w := binrw.NewWriter()
	if err := ctx.WriteText(w, t.Name, "name"); err != nil {
		return nil, err
	}
	w.U8(uint8(t.Storage))
	data := t.Data
	if t.Storage == TextureExternal {
		data = []byte(t.URL)
	}
	w.U32(uint32(len(data)))
	w.Write(data)
	if err := ctx.WriteProperties(w, t.Properties, "texture "+t.Name); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
