// Package bitmap reads and writes single-channel images as 24-bit RGB
// BMP files, so a trained forest's input samples and label maps can be
// inspected visually. Color channels are always equal (grayscale); only
// the red channel is kept on load.
package bitmap

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/ramenhut/simple-rdf/imageset"
	"github.com/ramenhut/simple-rdf/rferr"
)

const (
	fileHeaderSize = 14
	infoHeaderSize = 40
	bmpMagic       = 0x4D42 // "BM"
	bitsPerPixel   = 24
)

// greaterMultiple rounds value up to the next multiple, matching BMP's
// requirement that each scanline be padded to a 4-byte boundary.
func greaterMultiple(value, multiple uint32) uint32 {
	if mod := value % multiple; mod != 0 {
		value += multiple - mod
	}
	return value
}

// Load reads a 24-bit RGB BMP file into a single-channel image, keeping
// only the red channel of each pixel.
func Load(path string) (*imageset.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, rferr.Wrap(rferr.IoFailure, "failed to open bitmap file", err)
	}
	defer file.Close()

	var fileHeader [fileHeaderSize]byte
	if _, err := io.ReadFull(file, fileHeader[:]); err != nil {
		return nil, rferr.Wrap(rferr.IoFailure, "failed to read bitmap file header", err)
	}
	if binary.LittleEndian.Uint16(fileHeader[0:2]) != bmpMagic {
		return nil, rferr.New(rferr.InvalidData, "invalid bitmap file header")
	}

	var infoHeader [infoHeaderSize]byte
	if _, err := io.ReadFull(file, infoHeader[:]); err != nil {
		return nil, rferr.Wrap(rferr.IoFailure, "failed to read bitmap info header", err)
	}

	width := int(int32(binary.LittleEndian.Uint32(infoHeader[4:8])))
	height := int(int32(binary.LittleEndian.Uint32(infoHeader[8:12])))
	bitCount := binary.LittleEndian.Uint16(infoHeader[14:16])

	if bitCount != bitsPerPixel {
		return nil, rferr.New(rferr.InvalidData, "unsupported bitmap data format")
	}

	rowStride := uint32(width * 3)
	scanlinePadding := greaterMultiple(rowStride, 4) - rowStride

	output := imageset.NewImage(width, height)
	row := make([]byte, rowStride)
	pad := make([]byte, scanlinePadding)

	// BMP rows are stored bottom-up.
	for i := 0; i < height; i++ {
		if _, err := io.ReadFull(file, row); err != nil {
			return nil, rferr.Wrap(rferr.IoFailure, "abrupt error reading bitmap scanline", err)
		}
		if scanlinePadding > 0 {
			if _, err := io.ReadFull(file, pad); err != nil {
				return nil, rferr.Wrap(rferr.IoFailure, "abrupt error reading bitmap padding", err)
			}
		}

		y := height - i - 1
		for x := 0; x < width; x++ {
			output.Set(x, y, row[x*3])
		}
	}

	return output, nil
}

// Save writes input as a 24-bit grayscale RGB BMP file, expanding each
// single-channel pixel into an equal-valued RGB triple.
func Save(path string, input *imageset.Image) error {
	if input == nil || input.Width == 0 || input.Height == 0 {
		return rferr.New(rferr.InvalidArgument, "invalid inputs to bitmap save")
	}

	file, err := os.Create(path)
	if err != nil {
		return rferr.Wrap(rferr.IoFailure, "failed to create bitmap file", err)
	}
	defer file.Close()

	rowStride := uint32(input.Width * 3)
	scanlinePadding := greaterMultiple(rowStride, 4) - rowStride
	totalImageBytes := (rowStride + scanlinePadding) * uint32(input.Height)
	headerSize := uint32(fileHeaderSize + infoHeaderSize)

	var fileHeader [fileHeaderSize]byte
	binary.LittleEndian.PutUint16(fileHeader[0:2], bmpMagic)
	binary.LittleEndian.PutUint32(fileHeader[2:6], headerSize+totalImageBytes)
	binary.LittleEndian.PutUint32(fileHeader[10:14], headerSize)

	var infoHeader [infoHeaderSize]byte
	binary.LittleEndian.PutUint32(infoHeader[0:4], infoHeaderSize)
	binary.LittleEndian.PutUint32(infoHeader[4:8], uint32(input.Width))
	binary.LittleEndian.PutUint32(infoHeader[8:12], uint32(input.Height))
	binary.LittleEndian.PutUint16(infoHeader[12:14], 1) // planes
	binary.LittleEndian.PutUint16(infoHeader[14:16], bitsPerPixel)
	binary.LittleEndian.PutUint32(infoHeader[20:24], totalImageBytes)

	if _, err := file.Write(fileHeader[:]); err != nil {
		return rferr.Wrap(rferr.IoFailure, "failed to write bitmap file header", err)
	}
	if _, err := file.Write(infoHeader[:]); err != nil {
		return rferr.Wrap(rferr.IoFailure, "failed to write bitmap info header", err)
	}

	row := make([]byte, rowStride)
	pad := make([]byte, scanlinePadding)

	for i := 0; i < input.Height; i++ {
		y := input.Height - i - 1
		for x := 0; x < input.Width; x++ {
			v := input.At(x, y)
			row[x*3+0] = v
			row[x*3+1] = v
			row[x*3+2] = v
		}
		if _, err := file.Write(row); err != nil {
			return rferr.Wrap(rferr.IoFailure, "abrupt error writing bitmap scanline", err)
		}
		if scanlinePadding > 0 {
			if _, err := file.Write(pad); err != nil {
				return rferr.Wrap(rferr.IoFailure, "abrupt error writing bitmap padding", err)
			}
		}
	}

	return nil
}
