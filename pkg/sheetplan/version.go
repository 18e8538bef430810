// Package sheetplan holds release metadata for the sheetplan module.
package sheetplan

// Version is the sheetplan release version.
const Version = "0.1.0"
