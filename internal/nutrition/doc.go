// Package nutrition turns the free-form text returned by a food-analysis model
// into structured numbers: dish name, total calories and protein/fat/carbs
// grams. Every function is pure and safe for concurrent use. Nothing in this
// package returns an error: a field that cannot be read falls back to a
// documented default so a partially understood answer is still usable.
package nutrition
