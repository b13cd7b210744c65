// Package render converts rendered day layouts between output formats.
//
// The output sinks live in [sink]; this package holds the conversions they
// share. [ToPDF] and [ToPNG] turn an SVG into PDF or PNG with the external
// rsvg-convert tool from librsvg:
//
//	svg := sink.RenderSVG(l)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)
//
// When rsvg-convert is missing both return an UNSUPPORTED error; use
// [Available] to check up front.
//
// [sink]: github.com/matzehuels/dayview/pkg/render/sink
package render
