package infoCommand

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/ryanbarry/codecrafters-bittorrent-go/cmd/mybittorrent/torrent"
)

// LoadTorrentFile reads a metainfo file into memory and parses it.
func LoadTorrentFile(filePath string) (*torrent.Torrent, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %v", filePath, err)
	}
	metadata, err := torrent.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing torrent file %s: %w", filePath, err)
	}
	return metadata, nil
}

// InfoCommand prints a human-readable summary of a torrent file.
func InfoCommand(filePath string) error {
	metadata, err := LoadTorrentFile(filePath)
	if err != nil {
		return err
	}
	infoHash, err := metadata.InfoHash()
	if err != nil {
		return err
	}

	fmt.Println("Tracker URL:", metadata.Announce)
	fmt.Println("Length:", metadata.Info.Length)
	fmt.Println("Info Hash:", hex.EncodeToString(infoHash[:]))
	fmt.Println("Piece Length:", metadata.Info.PieceLength)
	fmt.Println("Piece Hashes:")
	for _, pieceHash := range metadata.PieceHashes() {
		fmt.Println(hex.EncodeToString(pieceHash[:]))
	}
	return nil
}
