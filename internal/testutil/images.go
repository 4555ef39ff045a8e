// Package testutil builds small media fixtures for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
)

// JPEG returns a w x h JPEG without EXIF data.
func JPEG(w, h int) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solid(w, h), nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// PNG returns a w x h PNG.
func PNG(w, h int) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(w, h)); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// JPEGWithExif returns a JPEG whose APP1 segment carries an EXIF block with
// DateTimeOriginal set to dateTimeOriginal ("2006:01:02 15:04:05").
func JPEGWithExif(w, h int, dateTimeOriginal string) []byte {
	plain := JPEG(w, h)
	tiff := exifTIFF(dateTimeOriginal)

	payload := append([]byte("Exif\x00\x00"), tiff...)

	var buf bytes.Buffer
	buf.Write(plain[:2]) // SOI
	buf.Write([]byte{0xFF, 0xE1})
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(payload)+2))
	buf.Write(payload)
	buf.Write(plain[2:])
	return buf.Bytes()
}

// exifTIFF builds a little-endian TIFF structure: IFD0 holds only the EXIF
// sub-IFD pointer, the EXIF IFD holds only DateTimeOriginal.
func exifTIFF(dateTimeOriginal string) []byte {
	const (
		ifd0Offset = 8
		ifdSize    = 2 + 12 + 4
		exifOffset = ifd0Offset + ifdSize
		dataOffset = exifOffset + ifdSize
	)
	value := append([]byte(dateTimeOriginal), 0)

	le := binary.LittleEndian
	var buf bytes.Buffer
	buf.WriteString("II")
	_ = binary.Write(&buf, le, uint16(42))
	_ = binary.Write(&buf, le, uint32(ifd0Offset))

	// IFD0: ExifIFDPointer (0x8769), LONG.
	_ = binary.Write(&buf, le, uint16(1))
	_ = binary.Write(&buf, le, uint16(0x8769))
	_ = binary.Write(&buf, le, uint16(4))
	_ = binary.Write(&buf, le, uint32(1))
	_ = binary.Write(&buf, le, uint32(exifOffset))
	_ = binary.Write(&buf, le, uint32(0))

	// EXIF IFD: DateTimeOriginal (0x9003), ASCII.
	_ = binary.Write(&buf, le, uint16(1))
	_ = binary.Write(&buf, le, uint16(0x9003))
	_ = binary.Write(&buf, le, uint16(2))
	_ = binary.Write(&buf, le, uint32(len(value)))
	_ = binary.Write(&buf, le, uint32(dataOffset))
	_ = binary.Write(&buf, le, uint32(0))

	buf.Write(value)
	return buf.Bytes()
}

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	return img
}
