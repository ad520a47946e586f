package torrent

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"strings"

	"github.com/ryanbarry/codecrafters-bittorrent-go/cmd/mybittorrent/bencode"
)

// ErrSchema reports well-formed bencode whose shape does not match the
// metainfo schema.
var ErrSchema = errors.New("bad metainfo schema")

type InfoData struct {
	Length      int64
	Name        string
	PieceLength int64
	Pieces      []byte
}

type Torrent struct {
	Announce string
	Info     InfoData

	// infoDict is the decoded info dictionary, retained so InfoHash can
	// re-encode it canonically. For a compliant torrent file the canonical
	// re-encoding is byte-for-byte the file's original encoding.
	infoDict map[string]any
}

// Parse projects a bencoded metainfo file into a Torrent. Missing or
// mistyped required fields fail with ErrSchema rather than defaulting.
func Parse(data []byte) (*Torrent, error) {
	value, _, err := bencode.Decode(data)
	if err != nil {
		return nil, err
	}
	top, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is not a dictionary", ErrSchema)
	}
	announce, ok := top["announce"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing announce URL", ErrSchema)
	}
	info, ok := top["info"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing info dictionary", ErrSchema)
	}
	name, ok := info["name"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing name", ErrSchema)
	}
	pieceLength, ok := info["piece length"].(int64)
	if !ok {
		return nil, fmt.Errorf("%w: missing piece length", ErrSchema)
	}
	pieces, ok := info["pieces"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing pieces", ErrSchema)
	}
	if len(pieces)%sha1.Size != 0 {
		return nil, fmt.Errorf("%w: pieces length %d is not a multiple of %d", ErrSchema, len(pieces), sha1.Size)
	}
	length, ok := info["length"].(int64)
	if !ok {
		return nil, fmt.Errorf("%w: missing length", ErrSchema)
	}

	return &Torrent{
		Announce: announce,
		Info: InfoData{
			Length:      length,
			Name:        name,
			PieceLength: pieceLength,
			Pieces:      []byte(pieces),
		},
		infoDict: info,
	}, nil
}

// InfoHash re-encodes the info dictionary canonically and returns its SHA-1
// digest. This is the value trackers and peers use to identify the torrent,
// which is why Encode must emit sorted keys and minimal integers: any
// deviation from the reference encoding changes the hash.
func (t *Torrent) InfoHash() ([sha1.Size]byte, error) {
	encoded, err := bencode.Encode(t.infoDict)
	if err != nil {
		return [sha1.Size]byte{}, err
	}
	return sha1.Sum(encoded), nil
}

// PieceHashes splits the pieces buffer into one 20-byte SHA-1 digest per
// piece.
func (t *Torrent) PieceHashes() [][sha1.Size]byte {
	hashes := make([][sha1.Size]byte, len(t.Info.Pieces)/sha1.Size)
	for i := range hashes {
		copy(hashes[i][:], t.Info.Pieces[i*sha1.Size:(i+1)*sha1.Size])
	}
	return hashes
}

// EscapeHash percent-encodes the raw info-hash bytes for use in a tracker
// URL. Bytes in the RFC 3986 unreserved set pass through literally,
// everything else becomes %XX. Generic query encoders treat the hash as
// text and mangle it, so this encoding is applied by hand.
func EscapeHash(hash []byte) string {
	var b strings.Builder
	for _, c := range hash {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
