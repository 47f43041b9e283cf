package store

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/roach88/serdegen/internal/backend"
	"github.com/roach88/serdegen/internal/codegen"
)

// DomainArtifact prefixes cache keys.
const DomainArtifact = "serdegen/artifact/v1"

type fileBlob struct {
	Path    string `cbor:"1,keyasint"`
	Content []byte `cbor:"2,keyasint"`
	Kind    int    `cbor:"3,keyasint"`
}

type artifactBlob struct {
	Target string     `cbor:"1,keyasint"`
	Module string     `cbor:"2,keyasint"`
	Files  []fileBlob `cbor:"3,keyasint"`
}

var (
	codecOnce sync.Once
	codecErr  error
	encMode   cbor.EncMode
	decMode   cbor.DecMode
	zenc      *zstd.Encoder
	zdec      *zstd.Decoder
)

func initCodec() error {
	codecOnce.Do(func() {
		if encMode, codecErr = cbor.CoreDetEncOptions().EncMode(); codecErr != nil {
			return
		}
		if decMode, codecErr = (cbor.DecOptions{}).DecMode(); codecErr != nil {
			return
		}
		if zenc, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault)); codecErr != nil {
			return
		}
		zdec, codecErr = zstd.NewReader(nil)
	})
	return codecErr
}

// marshalArtifact encodes art as zstd-compressed Core Deterministic CBOR.
// It returns the compressed body and the uncompressed size.
func marshalArtifact(art backend.Artifact) ([]byte, int, error) {
	if err := initCodec(); err != nil {
		return nil, 0, errors.Wrap(err, "init codec")
	}
	blob := artifactBlob{Target: string(art.Target), Module: art.Module}
	for _, f := range art.Files {
		blob.Files = append(blob.Files, fileBlob{Path: f.Path, Content: f.Content, Kind: int(f.Kind)})
	}
	raw, err := encMode.Marshal(blob)
	if err != nil {
		return nil, 0, errors.Wrap(err, "marshal artifact")
	}
	return zenc.EncodeAll(raw, nil), len(raw), nil
}

func unmarshalArtifact(body []byte) (backend.Artifact, error) {
	if err := initCodec(); err != nil {
		return backend.Artifact{}, errors.Wrap(err, "init codec")
	}
	raw, err := zdec.DecodeAll(body, nil)
	if err != nil {
		return backend.Artifact{}, errors.Wrap(err, "decompress artifact")
	}
	var blob artifactBlob
	if err := decMode.Unmarshal(raw, &blob); err != nil {
		return backend.Artifact{}, errors.Wrap(err, "unmarshal artifact")
	}
	art := backend.Artifact{Target: codegen.Target(blob.Target), Module: blob.Module}
	for _, f := range blob.Files {
		art.Files = append(art.Files, codegen.File{Path: f.Path, Content: f.Content, Kind: codegen.Kind(f.Kind)})
	}
	return art, nil
}
