// Package charts renders the report figures with gonum/plot.
//
// Three PNG charts are produced from a cleaned panel table and a fitted
// model: coefficient bars coloured by significance, yearly mortality per
// region, and cross-sectional GDP per capita coloured by threshold band.
// The data behind each chart is exposed through pure helpers
// (CoefficientBars, RegionMeans, RegionSeries) so it can be checked without
// decoding images.
package charts
