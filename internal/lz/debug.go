package lz

import "github.com/apex/log"

const debug = false

func debugf(msg string, v ...interface{}) {
	log.WithField("pkg", "lz").Debugf(msg, v...)
}
