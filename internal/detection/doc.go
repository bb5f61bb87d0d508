// Package detection locates ID-card quadrilaterals in camera frames and
// stabilizes the result across frames.
//
// The Locator runs a multi-scale search over fused edge maps: contours are
// traced, approximated to polygons with a cascade of tolerances, filtered by
// area, solidity and aspect ratio, validated as perspective rectangles, and
// scored. Full-scale candidates get a score boost so close-range,
// high-resolution detections win over downsampled ones.
//
// The Tracker retains, smooths and ages detections per session so that a
// single dropped frame never makes the guidance flicker: corners are blended
// exponentially with history, and failed frames inside a bounded grace
// period keep reporting the last smoothed quadrilateral.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Corners are always in canonical TL/TR/BR/BL order.
package detection
