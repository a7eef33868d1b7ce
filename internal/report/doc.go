// Package report renders datasets, overlays and impact reports into files
// people download: spreadsheets, charts, PDFs, CSVs and shapefiles.
//
// Every writer takes an io.Writer so the same code serves HTTP responses and
// CLI output files.
package report
