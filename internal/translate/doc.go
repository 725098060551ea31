// Package translate converts Hindi text to English.
//
// Translator detects the input language first. Hindi input is translated
// hi→en; anything else is still translated with automatic source detection
// and the result carries a warning naming the detected language. The package
// also implements file translation and the interactive prompt loop used by
// `prama translate`.
package translate
