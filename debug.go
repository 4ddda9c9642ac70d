package lzfse

import "github.com/apex/log"

// logger gets a debug entry for every block a Reader decodes and every
// stream a Writer finalizes. Raise the apex/log level to see them.
var logger = log.WithField("pkg", "lzfse")
