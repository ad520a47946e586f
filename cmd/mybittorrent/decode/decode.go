package decode

import (
	"encoding/json"
	"fmt"

	"github.com/ryanbarry/codecrafters-bittorrent-go/cmd/mybittorrent/bencode"
)

// DecodeCommand decodes a single bencoded value and prints it as JSON.
func DecodeCommand(bencodedValue string) error {
	decoded, rest, err := bencode.Decode([]byte(bencodedValue))
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return fmt.Errorf("%w: %d trailing bytes after value", bencode.ErrMalformed, len(rest))
	}

	jsonOutput, err := json.Marshal(decoded)
	if err != nil {
		return err
	}
	fmt.Println(string(jsonOutput))
	return nil
}
