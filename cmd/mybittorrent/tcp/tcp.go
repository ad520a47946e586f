package tcp

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	infoCommand "github.com/ryanbarry/codecrafters-bittorrent-go/cmd/mybittorrent/info"
	"github.com/ryanbarry/codecrafters-bittorrent-go/cmd/mybittorrent/peers"
)

const (
	// Protocol is the peer wire protocol identifier sent in every
	// handshake.
	Protocol = "BitTorrent protocol"
	// HandshakeLength is the fixed size of a handshake message:
	// 1 + 19 + 8 + 20 + 20.
	HandshakeLength = 68

	handshakeTimeout = 10 * time.Second
)

var (
	// ErrConnectionClosed reports a peer that closed the connection before
	// sending a complete handshake.
	ErrConnectionClosed = errors.New("connection closed during handshake")
	// ErrProtocol reports a peer whose handshake violates the wire format.
	ErrProtocol = errors.New("bad peer handshake")
)

// Handshake is the fixed 68-byte message both sides exchange once per
// connection, before any peer messages.
type Handshake struct {
	InfoHash [20]byte
	PeerID   [20]byte
}

// Serialize lays the handshake out on the wire:
// <pstrlen><pstr><8 reserved bytes><info_hash><peer_id>.
func (h *Handshake) Serialize() []byte {
	buf := make([]byte, 0, HandshakeLength)
	buf = append(buf, byte(len(Protocol)))
	buf = append(buf, Protocol...)
	buf = append(buf, make([]byte, 8)...)
	buf = append(buf, h.InfoHash[:]...)
	buf = append(buf, h.PeerID[:]...)
	return buf
}

func parseHandshake(buf []byte) (*Handshake, error) {
	if len(buf) != HandshakeLength {
		return nil, fmt.Errorf("%w: message is %d bytes, want %d", ErrProtocol, len(buf), HandshakeLength)
	}
	if buf[0] != byte(len(Protocol)) {
		return nil, fmt.Errorf("%w: protocol name length %d", ErrProtocol, buf[0])
	}
	h := &Handshake{}
	copy(h.InfoHash[:], buf[28:48])
	copy(h.PeerID[:], buf[48:68])
	return h, nil
}

// ReadHandshake accumulates exactly HandshakeLength bytes from r. A read
// may return any prefix of the outstanding bytes, or nothing at all; the
// loop keeps accumulating until the message is complete. EOF before then
// means the peer closed the connection mid-handshake.
func ReadHandshake(r io.Reader) (*Handshake, error) {
	buf := make([]byte, HandshakeLength)
	read := 0
	for {
		n, err := r.Read(buf[read:])
		read += n
		if read == HandshakeLength {
			return parseHandshake(buf)
		}
		if err == io.EOF {
			return nil, fmt.Errorf("%w: peer sent %d of %d bytes", ErrConnectionClosed, read, HandshakeLength)
		}
		if err != nil {
			return nil, fmt.Errorf("error reading handshake: %v", err)
		}
	}
}

// CompleteHandshake writes our handshake on conn and reads the peer's
// reply. The echoed info-hash must identify the same torrent we asked for;
// a mismatching peer is not serving this torrent.
func CompleteHandshake(conn net.Conn, infoHash [20]byte, peerID [20]byte) (*Handshake, error) {
	request := Handshake{InfoHash: infoHash, PeerID: peerID}
	if _, err := conn.Write(request.Serialize()); err != nil {
		return nil, fmt.Errorf("error sending handshake: %v", err)
	}

	reply, err := ReadHandshake(conn)
	if err != nil {
		return nil, err
	}
	if reply.InfoHash != infoHash {
		return nil, fmt.Errorf("%w: peer echoed info hash %x, want %x", ErrProtocol, reply.InfoHash, infoHash)
	}
	return reply, nil
}

// HandshakeCommand dials peerAddr, performs the handshake for the given
// torrent and prints the remote peer id.
func HandshakeCommand(filePath, peerAddr string) error {
	metadata, err := infoCommand.LoadTorrentFile(filePath)
	if err != nil {
		return err
	}
	infoHash, err := metadata.InfoHash()
	if err != nil {
		return err
	}

	conn, err := net.DialTimeout("tcp", peerAddr, handshakeTimeout)
	if err != nil {
		return fmt.Errorf("error connecting to peer %s: %v", peerAddr, err)
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		return err
	}

	var peerID [20]byte
	copy(peerID[:], peers.ClientPeerID)
	reply, err := CompleteHandshake(conn, infoHash, peerID)
	if err != nil {
		return err
	}
	slog.Debug("handshake complete", "peer", peerAddr)

	fmt.Println("Peer ID:", hex.EncodeToString(reply.PeerID[:]))
	return nil
}
