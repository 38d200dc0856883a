// Connection header
package ros2

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

type header struct {
	key   string
	value string
}

// readConnectionHeader reads one length prefixed header block: a uint32
// total size followed by uint32 prefixed `key=value` lines, all little
// endian.
func readConnectionHeader(r io.Reader) ([]header, error) {
	buf := make([]byte, 4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	var headerSize uint32
	bufReader := bytes.NewBuffer(buf)
	if err := binary.Read(bufReader, binary.LittleEndian, &headerSize); err != nil {
		return nil, err
	}
	buf = make([]byte, int(headerSize))
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	var done uint32
	var headers []header
	bufReader = bytes.NewBuffer(buf)
	for done < headerSize {
		var size uint32
		if err := binary.Read(bufReader, binary.LittleEndian, &size); err != nil {
			return nil, err
		}
		if done+4+size > headerSize {
			return nil, errors.New("header length overrun")
		}
		line := bufReader.Next(int(size))
		sep := bytes.IndexByte(line, '=')
		if sep < 0 {
			return nil, errors.Errorf("malformed header line: %q", string(line))
		}
		key := string(line[0:sep])
		value := string(line[sep+1:])
		headers = append(headers, header{key, value})
		done += 4 + size
	}
	return headers, nil
}

func writeConnectionHeader(headers []header, w io.Writer) error {
	var headerSize int
	var sizeList []int
	for _, h := range headers {
		size := len(h.key) + len(h.value) + 1
		sizeList = append(sizeList, size)
		headerSize += size + 4
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(headerSize)); err != nil {
		return err
	}
	for i, h := range headers {
		if err := binary.Write(w, binary.LittleEndian, uint32(sizeList[i])); err != nil {
			return err
		}
		if _, err := w.Write([]byte(h.key)); err != nil {
			return err
		}
		if _, err := w.Write([]byte("=")); err != nil {
			return err
		}
		if _, err := w.Write([]byte(h.value)); err != nil {
			return err
		}
	}
	return nil
}
