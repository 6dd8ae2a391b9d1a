// Package mnist loads the IDX-format image and label files distributed
// with the MNIST handwritten digit dataset into imageset.ImageSet values
// ready for tree/forest training.
package mnist

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/ramenhut/simple-rdf/imageset"
	"github.com/ramenhut/simple-rdf/rferr"
)

const (
	imageMagic = 2051
	labelMagic = 2049
)

// Load reads an IDX image file and its matching IDX label file and
// returns one imageset.ImageSet per sample, with per-pixel supervision
// derived from each sample's scalar digit label.
func Load(imagePath, labelPath string) ([]*imageset.ImageSet, error) {
	images, width, height, err := loadImages(imagePath)
	if err != nil {
		return nil, err
	}

	labels, err := loadLabels(labelPath)
	if err != nil {
		return nil, err
	}

	if len(images) != len(labels) {
		return nil, rferr.New(rferr.InvalidData, "image and label counts do not match")
	}

	dataset := make([]*imageset.ImageSet, len(images))
	for i, pixels := range images {
		img := &imageset.Image{Width: width, Height: height, Pixels: pixels}
		dataset[i] = imageset.FromDigit(img, labels[i])
	}

	return dataset, nil
}

func loadImages(path string) ([][]uint8, int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, rferr.Wrap(rferr.IoFailure, "failed to open image file", err)
	}
	defer file.Close()

	var header [16]byte
	if _, err := io.ReadFull(file, header[:]); err != nil {
		return nil, 0, 0, rferr.Wrap(rferr.IoFailure, "failed to read image header", err)
	}

	magic := binary.BigEndian.Uint32(header[0:4])
	if magic != imageMagic {
		return nil, 0, 0, rferr.New(rferr.InvalidData, "unexpected image file magic number")
	}

	count := int(binary.BigEndian.Uint32(header[4:8]))
	rows := int(binary.BigEndian.Uint32(header[8:12]))
	cols := int(binary.BigEndian.Uint32(header[12:16]))

	images := make([][]uint8, count)
	for i := 0; i < count; i++ {
		buf := make([]uint8, rows*cols)
		if _, err := io.ReadFull(file, buf); err != nil {
			return nil, 0, 0, rferr.Wrap(rferr.IoFailure, "failed to read image sample", err)
		}
		images[i] = buf
	}

	return images, cols, rows, nil
}

func loadLabels(path string) ([]uint8, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, rferr.Wrap(rferr.IoFailure, "failed to open label file", err)
	}
	defer file.Close()

	var header [8]byte
	if _, err := io.ReadFull(file, header[:]); err != nil {
		return nil, rferr.Wrap(rferr.IoFailure, "failed to read label header", err)
	}

	magic := binary.BigEndian.Uint32(header[0:4])
	if magic != labelMagic {
		return nil, rferr.New(rferr.InvalidData, "unexpected label file magic number")
	}

	count := int(binary.BigEndian.Uint32(header[4:8]))

	labels := make([]uint8, count)
	if _, err := io.ReadFull(file, labels); err != nil {
		return nil, rferr.Wrap(rferr.IoFailure, "failed to read label samples", err)
	}

	return labels, nil
}
