// Package plot renders study figures.
//
// A [Figure] is backend neutral. [New] picks a [Renderer] by output format:
// gonum/plot for png, svg and pdf files, go-echarts for html pages and
// asciigraph for the terminal. Points with a NaN or infinite coordinate are
// dropped before drawing.
package plot
