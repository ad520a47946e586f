package peers

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ryanbarry/codecrafters-bittorrent-go/cmd/mybittorrent/bencode"
	infoCommand "github.com/ryanbarry/codecrafters-bittorrent-go/cmd/mybittorrent/info"
	"github.com/ryanbarry/codecrafters-bittorrent-go/cmd/mybittorrent/torrent"
)

const (
	// ClientPeerID identifies this client to trackers and peers. Exactly
	// 20 bytes.
	ClientPeerID = "00112233445566778899"
	// ListenPort is the port reported to the tracker.
	ListenPort = 6881
)

var (
	// ErrTracker carries a failure reason reported by the tracker itself.
	ErrTracker = errors.New("tracker failure")
	// ErrProtocol reports a tracker response that violates the announce
	// protocol shape.
	ErrProtocol = errors.New("bad tracker response")
)

var trackerClient = &http.Client{Timeout: 15 * time.Second}

type PeerAddress struct {
	IP   net.IP
	Port uint16
}

func (p PeerAddress) String() string {
	return fmt.Sprintf("%s:%d", p.IP, p.Port)
}

type TrackerResponse struct {
	Interval int64
	Peers    []PeerAddress
}

// FetchPeersFromTracker announces to trackerURL and returns the tracker's
// compact peer list. The info_hash parameter is appended to the query
// string already percent-encoded, byte by byte; routing the raw hash
// through url.Values would escape it as text, which trackers do not accept.
func FetchPeersFromTracker(trackerURL string, infoHash [20]byte, left int64, peerID string, port int) (*TrackerResponse, error) {
	params := url.Values{}
	params.Add("peer_id", peerID)
	params.Add("port", strconv.Itoa(port))
	params.Add("uploaded", "0")
	params.Add("downloaded", "0")
	params.Add("left", strconv.FormatInt(left, 10))
	params.Add("compact", "1")
	announceURL := trackerURL + "?" + params.Encode() + "&info_hash=" + torrent.EscapeHash(infoHash[:])

	slog.Debug("announcing to tracker", "url", announceURL)
	resp, err := trackerClient.Get(announceURL)
	if err != nil {
		return nil, fmt.Errorf("error fetching trackerURL %s: %v", trackerURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: tracker returned status %d", ErrProtocol, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading tracker response: %v", err)
	}
	return parseTrackerResponse(body)
}

func parseTrackerResponse(body []byte) (*TrackerResponse, error) {
	value, _, err := bencode.Decode(body)
	if err != nil {
		return nil, err
	}
	dict, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: response is not a dictionary", ErrProtocol)
	}
	if reason, ok := dict["failure reason"].(string); ok {
		return nil, fmt.Errorf("%w: %s", ErrTracker, reason)
	}
	compact, ok := dict["peers"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing compact peers string", ErrProtocol)
	}
	addrs, err := ParseCompactPeers([]byte(compact))
	if err != nil {
		return nil, err
	}

	response := &TrackerResponse{Peers: addrs}
	if interval, ok := dict["interval"].(int64); ok {
		response.Interval = interval
	}
	return response, nil
}

// ParseCompactPeers splits a compact peer string into 6-byte records:
// 4 IPv4 octets followed by a big-endian port.
func ParseCompactPeers(data []byte) ([]PeerAddress, error) {
	if len(data)%6 != 0 {
		return nil, fmt.Errorf("%w: compact peer list length %d is not a multiple of 6", ErrProtocol, len(data))
	}
	addrs := make([]PeerAddress, 0, len(data)/6)
	for i := 0; i < len(data); i += 6 {
		addrs = append(addrs, PeerAddress{
			IP:   net.IPv4(data[i], data[i+1], data[i+2], data[i+3]).To4(),
			Port: binary.BigEndian.Uint16(data[i+4 : i+6]),
		})
	}
	return addrs, nil
}

// PeersCommand announces to the torrent's tracker and prints one ip:port
// per line.
func PeersCommand(filePath string) error {
	metadata, err := infoCommand.LoadTorrentFile(filePath)
	if err != nil {
		return err
	}
	infoHash, err := metadata.InfoHash()
	if err != nil {
		return err
	}

	response, err := FetchPeersFromTracker(metadata.Announce, infoHash, metadata.Info.Length, ClientPeerID, ListenPort)
	if err != nil {
		return err
	}
	slog.Debug("tracker responded", "peers", len(response.Peers), "interval", response.Interval)
	for _, peer := range response.Peers {
		fmt.Println(peer)
	}
	return nil
}
