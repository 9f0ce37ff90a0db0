package ownedread

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logger = logrus.WithField("component", "ownedread")

// init routes logrus output to stdout for easier log capture.
func init() {
	logrus.SetOutput(os.Stdout)
}
