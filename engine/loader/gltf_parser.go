package loader

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.0")
	errInvalidGLBMagic    = errors.New("invalid GLB magic number")
	errInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	errInvalidBufferURI   = errors.New("invalid buffer URI")
	errBufferSizeMismatch = errors.New("buffer size mismatch")
	errGLBTooSmall        = errors.New("GLB file too small")
	errNoDocument         = errors.New("no document loaded")
)

// gltfParser decodes one glTF 2.0 document (JSON or GLB) and gives typed access to its
// accessors. A parser holds a single document; parsing again replaces it.
type gltfParser interface {
	// Parse reads the file at path. GLB is recognised by its magic number, whatever the
	// extension. Relative URIs resolve against the file's directory.
	Parse(path string) error

	// ParseBytes parses an in-memory document.
	//
	// Parameters:
	//   - data: glTF JSON or GLB bytes
	//   - baseDir: where relative URIs resolve; empty means only embedded data is accepted
	//
	// Returns:
	//   - error: malformed container, wrong version, or an unresolvable buffer
	ParseBytes(data []byte, baseDir string) error

	// Document is nil until a parse succeeds.
	Document() *gltfDocument
	BaseDir() string

	// Typed accessor reads. Each validates the accessor's type and that every element lies
	// inside its buffer view before decoding; integer components are widened, and normalized
	// ones scaled, following the glTF rules.

	ReadVec2Accessor(accessorIndex int) ([][2]float32, error)
	ReadVec3Accessor(accessorIndex int) ([][3]float32, error)
	ReadVec4Accessor(accessorIndex int) ([][4]float32, error)
	// ReadColorAccessor accepts VEC3 or VEC4 colors; VEC3 gets an alpha of 1.
	ReadColorAccessor(accessorIndex int) ([][4]float32, error)
	// ReadIndicesAccessor accepts unsigned byte, short and int SCALAR accessors.
	ReadIndicesAccessor(accessorIndex int) ([]uint32, error)
	// ReadJointsAccessor accepts unsigned byte and short VEC4 accessors.
	ReadJointsAccessor(accessorIndex int) ([][4]uint32, error)

	// ReadBufferView copies the bytes of a buffer view, as used by embedded images.
	ReadBufferView(bufferViewIndex int) ([]byte, error)
}

type gltfParserImpl struct {
	baseDir  string
	document *gltfDocument
}

var _ gltfParser = &gltfParserImpl{}

func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

func (p *gltfParserImpl) Document() *gltfDocument {
	return p.document
}

func (p *gltfParserImpl) BaseDir() string {
	return p.baseDir
}

func (p *gltfParserImpl) Parse(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return p.ParseBytes(data, filepath.Dir(path))
}

func (p *gltfParserImpl) ParseBytes(data []byte, baseDir string) error {
	p.baseDir = baseDir
	p.document = nil

	jsonChunk, binChunk := data, []byte(nil)
	if gltfIsGLB(data) {
		var err error
		if jsonChunk, binChunk, err = splitGLB(data); err != nil {
			return err
		}
	}

	var doc gltfDocument
	if err := json.Unmarshal(jsonChunk, &doc); err != nil {
		return fmt.Errorf("decode glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}
	if err := p.resolveBuffers(doc.Buffers, binChunk); err != nil {
		return err
	}
	p.document = &doc
	return nil
}

func gltfIsGLB(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == gltfGLBMagic
}

// splitGLB returns the JSON chunk and, if present, the BIN chunk of a GLB container. Unknown
// chunk types are skipped.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func splitGLB(data []byte) (jsonChunk, binChunk []byte, err error) {
	var header gltfGLBHeader
	n, err := binary.Decode(data, binary.LittleEndian, &header)
	if err != nil {
		return nil, nil, errGLBTooSmall
	}
	switch {
	case header.Magic != gltfGLBMagic:
		return nil, nil, errInvalidGLBMagic
	case header.Version != gltfGLBVersion:
		return nil, nil, errInvalidGLBVersion
	}

	rest := data[n:min(len(data), int(header.Length))]
	for len(rest) > 0 {
		var chunk gltfGLBChunkHeader
		n, err := binary.Decode(rest, binary.LittleEndian, &chunk)
		if err != nil {
			return nil, nil, fmt.Errorf("truncated GLB chunk header: %w", err)
		}
		rest = rest[n:]
		if uint64(chunk.ChunkLength) > uint64(len(rest)) {
			return nil, nil, fmt.Errorf("GLB chunk of %d bytes overruns the %d remaining", chunk.ChunkLength, len(rest))
		}
		body := rest[:chunk.ChunkLength]
		rest = rest[chunk.ChunkLength:]

		switch {
		case chunk.ChunkType == gltfGLBChunkJSON && jsonChunk == nil:
			jsonChunk = body
		case chunk.ChunkType == gltfGLBChunkBIN && binChunk == nil:
			binChunk = body
		}
	}
	if jsonChunk == nil {
		return nil, nil, errMissingJSONChunk
	}
	return jsonChunk, binChunk, nil
}

// resolveBuffers fills in Data for every buffer. Only the first buffer may omit its URI, and
// only inside a GLB.
func (p *gltfParserImpl) resolveBuffers(buffers []gltfBuffer, binChunk []byte) error {
	for i := range buffers {
		buf := &buffers[i]

		var err error
		switch {
		case buf.URI != "":
			buf.Data, err = p.readURI(buf.URI)
		case i == 0 && binChunk != nil:
			buf.Data = binChunk
		default:
			err = fmt.Errorf("no URI and no GLB binary chunk: %w", errInvalidBufferURI)
		}
		if err == nil && len(buf.Data) < buf.ByteLength {
			err = errBufferSizeMismatch
		}
		if err != nil {
			return fmt.Errorf("buffer %d: %w", i, err)
		}
	}
	return nil
}

func (p *gltfParserImpl) readURI(uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "data:") {
		data, _, err := gltfDecodeDataURI(uri)
		return data, err
	}
	if p.baseDir == "" {
		return nil, fmt.Errorf("external buffer %q without a base directory: %w", uri, errInvalidBufferURI)
	}
	return os.ReadFile(filepath.Join(p.baseDir, uri))
}

// gltfDecodeDataURI decodes a base64 data URI (data:<mediatype>;base64,<payload>) and returns
// the payload and its media type.
func gltfDecodeDataURI(uri string) ([]byte, string, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || !strings.HasPrefix(uri, "data:") {
		return nil, "", errInvalidBufferURI
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", fmt.Errorf("data URI %q is not base64: %w", meta, errInvalidBufferURI)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("data URI payload: %w", err)
	}
	return data, mediaType, nil
}
