package dzextract

import (
	"hash/crc32"
	"io"
	"os"

	"github.com/bodgit/dzextract/catalog"
)

func crcFile(file string) (uint32, error) {
	f, err := os.Open(file)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := crc32.NewIEEE()
	if _, err = io.Copy(h, f); err != nil {
		return 0, err
	}

	return h.Sum32(), nil
}

// Fingerprint returns the channels of stack with the CRC-32 of each file
func Fingerprint(stack *Stack) ([]catalog.Channel, error) {
	channels := make([]catalog.Channel, 0, len(stack.Channels))
	for _, ch := range stack.Channels {
		crc, err := crcFile(ch.Path)
		if err != nil {
			return nil, err
		}
		channels = append(channels, catalog.Channel{
			Slot:  ch.Slot,
			Color: ch.Color,
			File:  ch.Path,
			CRC:   crc,
		})
	}
	return channels, nil
}
