// Package review holds the pure stages of the review pipeline: building the
// model prompt, stripping wrapping from the model's reply, and decoding the
// reply into a model.Review.
//
// Nothing in this package performs I/O. The stages that touch the model or
// storage live in internal/service.
package review
