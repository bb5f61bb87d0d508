// Package vision provides the pixel-level primitives the card pipeline is
// built on: grayscale planes, Gaussian smoothing, Canny edge detection,
// adaptive and gradient thresholding, binary morphology, contour extraction
// with ordered boundary tracing, convex hulls, polygon approximation, and
// quadrilateral geometry with canonical TL/TR/BR/BL corner ordering.
//
// Everything in this package is a pure function of its inputs; session state
// lives in the detection and session packages.
package vision
