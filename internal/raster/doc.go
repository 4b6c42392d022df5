// Package raster holds the binary pixel grids the shape pipeline works on.
//
// A Mask is a dense boolean raster; Labels assigns an integer region id to
// every lit pixel. Coordinates follow the image package convention: (0,0) is
// the top-left pixel, X grows rightward and Y grows downward. Pixels outside
// the raster read as background, which lets neighbourhood code run up to the
// border without bounds juggling.
//
// # Loading
//
// Cache decodes image files (PNG, JPEG, GIF, TIFF, BMP) once and keeps them
// for subsequent requests. FromImage turns a decoded image into a Mask and
// rejects anything that is not strictly two-level; Threshold is the lenient
// variant used for skeleton artifacts.
//
// # Thread Safety
//
// Cache is safe for concurrent use. Masks and Labels are not synchronised;
// callers share them read-only across goroutines.
package raster
