// Package metadata reads interests a page declares about itself, for
// example:
//
//	<meta name="profiler:interests" content="sports:5,music">
//
// yields the data points {sports, 5} and {music, no weight}.
package metadata
