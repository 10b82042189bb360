// Package widgets implements the form field variants a report model is built
// from and the Composite that converts a raw submission into a typed Context.
//
// Every variant exposes the same capability set: a Layout descriptor for form
// clients, ConvertData for turning a weakly-typed submitted value into a typed
// one, and DefaultData. Conversion always runs the variant's own normalisation,
// then the optional converter, then validators in declaration order; the first
// failure becomes the field's error. Composite walks every widget of a form in
// row-major order and never stops early, so a submitter receives feedback for
// every field in one round trip.
//
// Variants are constructed through a Registry keyed by type name. The built-in
// set covers text, text_area, checkbox, select, array and upload; callers can
// register additional variants, converters and validators.
package widgets
