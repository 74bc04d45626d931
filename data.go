package tmx

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

func (d *dataXML) decodeBase64() (data []byte, err error) {
	rawData := bytes.TrimSpace(d.RawData)
	r := bytes.NewReader(rawData)

	encr := base64.NewDecoder(base64.StdEncoding, r)

	var comr io.Reader
	switch d.Compression {
	case "gzip":
		comr, err = gzip.NewReader(encr)
		if err != nil {
			return
		}
	case "zlib":
		comr, err = zlib.NewReader(encr)
		if err != nil {
			return
		}
	case "zstd":
		var zr *zstd.Decoder
		zr, err = zstd.NewReader(encr)
		if err != nil {
			return
		}
		defer zr.Close()
		comr = zr
	case "":
		comr = encr
	default:
		err = ErrUnknownCompression
		return
	}

	return io.ReadAll(comr)
}

func (d *dataXML) decodeCSV() (data []GID, err error) {
	cleaner := func(r rune) rune {
		if (r >= '0' && r <= '9') || r == ',' {
			return r
		}
		return -1
	}
	rawDataClean := strings.Map(cleaner, string(d.RawData))
	if rawDataClean == "" {
		return []GID{}, nil
	}

	str := strings.Split(rawDataClean, ",")

	gids := make([]GID, len(str))
	for i, s := range str {
		var d uint64
		d, err = strconv.ParseUint(s, 10, 32)
		if err != nil {
			return
		}
		gids[i] = GID(d)
	}
	return gids, err
}

func (d *dataXML) decodeXML() []GID {
	gids := make([]GID, len(d.DataTiles))
	for i := range gids {
		gids[i] = d.DataTiles[i].GID
	}
	return gids
}

// decodeGIDs returns the raw gids of a finite layer of size cells.
func (d *dataXML) decodeGIDs(size int) ([]GID, error) {
	var gids []GID
	switch d.Encoding {
	case "csv":
		var err error
		if gids, err = d.decodeCSV(); err != nil {
			return nil, err
		}
	case "base64":
		dataBytes, err := d.decodeBase64()
		if err != nil {
			return nil, err
		}
		if len(dataBytes) != size*4 {
			return nil, ErrInvalidDecodedDataLen
		}
		gids = make([]GID, size)
		for i := range gids {
			gids[i] = GID(binary.LittleEndian.Uint32(dataBytes[i*4:]))
		}
	case "": // XML "encoding"
		gids = d.decodeXML()
	default:
		return nil, ErrUnknownEncoding
	}

	if len(gids) != size {
		return nil, ErrInvalidDecodedDataLen
	}
	return gids, nil
}
