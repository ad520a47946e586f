package main

import (
	"fmt"
	"os"

	"github.com/ryanbarry/codecrafters-bittorrent-go/cmd/mybittorrent/decode"
	infoCommand "github.com/ryanbarry/codecrafters-bittorrent-go/cmd/mybittorrent/info"
	"github.com/ryanbarry/codecrafters-bittorrent-go/cmd/mybittorrent/peers"
	"github.com/ryanbarry/codecrafters-bittorrent-go/cmd/mybittorrent/tcp"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: mybittorrent decode <bencoded-value>")
	fmt.Fprintln(os.Stderr, "       mybittorrent info <torrent-file>")
	fmt.Fprintln(os.Stderr, "       mybittorrent peers <torrent-file>")
	fmt.Fprintln(os.Stderr, "       mybittorrent handshake <torrent-file> <ip:port>")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	command := os.Args[1]

	var err error
	switch command {
	case "decode":
		if len(os.Args) < 3 {
			usage()
		}
		err = decode.DecodeCommand(os.Args[2])

	case "info":
		if len(os.Args) < 3 {
			usage()
		}
		err = infoCommand.InfoCommand(os.Args[2])

	case "peers":
		if len(os.Args) < 3 {
			usage()
		}
		err = peers.PeersCommand(os.Args[2])

	case "handshake":
		if len(os.Args) < 4 {
			usage()
		}
		err = tcp.HandshakeCommand(os.Args[2], os.Args[3])

	default:
		fmt.Fprintln(os.Stderr, "Unknown command: "+command)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
