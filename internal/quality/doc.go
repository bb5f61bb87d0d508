// Package quality scores frames against the capture requirements: sharpness,
// glare, distance and centering, fused by the Gate into one pass/fail
// verdict plus a single prioritized guidance message.
//
// Each metric is independent and pure given the frame and the stabilized
// corners; the distance metric additionally carries per-session hysteresis
// state so its status cannot flicker between adjacent bands.
package quality
